package service

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-score-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func attemptsWith(scores ...float64) []models.ExamAttempt {
	attempts := make([]models.ExamAttempt, 0, len(scores))
	for i, score := range scores {
		attempts = append(attempts, models.ExamAttempt{
			ExamID:               string(rune('a' + i)),
			ExamTitle:            "Exam",
			FinalScorePercentage: floatPtr(score),
			IncludeInPass:        true,
		})
	}
	return attempts
}

func baseInput() *models.CalculationInput {
	return &models.CalculationInput{
		StudentID:   "stu-1",
		StudentCode: "S001",
		StudentName: "Ana",
		Settings:    models.DefaultCalculationSettings(),
	}
}

func TestScoreCalculatorBestMode(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.ExamAttempts = attemptsWith(70, 85, 92, 78)

	result := calc.CalculateInput(input)

	require.True(t, result.Success)
	require.NotNil(t, result.ExamComponent.Score)
	assert.Equal(t, 92.0, *result.ExamComponent.Score)
	assert.Equal(t, 4, result.ExamComponent.ExamsIncluded)
	assert.Equal(t, 4, result.ExamComponent.ExamsTotal)
	require.NotNil(t, result.FinalScore)
	assert.Equal(t, 92.0, *result.FinalScore)
	require.NotNil(t, result.Passed)
	assert.True(t, *result.Passed)
}

func TestScoreCalculatorAverageMode(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.Settings.PassCalcMode = models.PassCalcAverage
	input.ExamAttempts = attemptsWith(70, 80, 90)

	result := calc.CalculateInput(input)

	require.True(t, result.Success)
	require.NotNil(t, result.ExamComponent.Score)
	assert.Equal(t, 80.0, *result.ExamComponent.Score)
	assert.Equal(t, models.PassCalcAverage, result.ExamComponent.Mode)
}

func TestScoreCalculatorBlendsComponents(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.ExamAttempts = attemptsWith(85)
	input.ExtraFields = []models.ExtraField{{
		Key:           "homework",
		Label:         "Homework",
		Type:          models.ExtraFieldNumber,
		IncludeInPass: true,
		PassWeight:    0.5,
		MaxPoints:     floatPtr(10),
	}}
	input.ExtraScores = map[string]interface{}{"homework": 9}

	result := calc.CalculateInput(input)

	require.True(t, result.Success)
	require.NotNil(t, result.ExtraComponent.Score)
	assert.Equal(t, 90.0, *result.ExtraComponent.Score)
	assert.Equal(t, 0.5, result.ExtraComponent.TotalWeight)
	require.NotNil(t, result.FinalScore)
	assert.Equal(t, 86.67, *result.FinalScore)
}

func TestScoreCalculatorFailOnAnyExam(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.Settings.FailOnAnyExam = true
	input.Settings.OverallPassThreshold = 0
	input.ExamAttempts = []models.ExamAttempt{
		{ExamID: "e1", FinalScorePercentage: floatPtr(40), IncludeInPass: true, PassThreshold: floatPtr(50)},
		{ExamID: "e2", FinalScorePercentage: floatPtr(90), IncludeInPass: true, PassThreshold: floatPtr(50)},
	}

	result := calc.CalculateInput(input)

	require.True(t, result.Success)
	require.NotNil(t, result.FinalScore)
	assert.Equal(t, 90.0, *result.FinalScore)
	require.NotNil(t, result.Passed)
	assert.False(t, *result.Passed)
	assert.True(t, result.FailedDueToExam)
	assert.Equal(t, 1, result.ExamComponent.ExamsPassed)
	require.NotNil(t, result.ExamComponent.Details[0].Passed)
	assert.False(t, *result.ExamComponent.Details[0].Passed)
}

func TestScoreCalculatorBelowThresholdWithoutFailOnAnyExam(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.ExamAttempts = []models.ExamAttempt{
		{ExamID: "e1", FinalScorePercentage: floatPtr(40), IncludeInPass: true, PassThreshold: floatPtr(50)},
		{ExamID: "e2", FinalScorePercentage: floatPtr(90), IncludeInPass: true},
	}

	result := calc.CalculateInput(input)

	require.NotNil(t, result.Passed)
	assert.True(t, *result.Passed)
	assert.False(t, result.FailedDueToExam)
}

func TestScoreCalculatorExcludedAttemptsIgnored(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.ExamAttempts = attemptsWith(60, 99)
	input.ExamAttempts[1].IncludeInPass = false

	result := calc.CalculateInput(input)

	require.NotNil(t, result.ExamComponent.Score)
	assert.Equal(t, 60.0, *result.ExamComponent.Score)
	assert.Equal(t, 1, result.ExamComponent.ExamsIncluded)
	assert.Equal(t, 2, result.ExamComponent.ExamsTotal)
	assert.Len(t, result.ExamComponent.Details, 2)
	assert.Nil(t, result.ExamComponent.Details[1].Passed)
}

func TestScoreCalculatorRawSourceAndClamp(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.Settings.ExamScoreSource = models.ExamScoreRaw
	input.ExamAttempts = []models.ExamAttempt{
		{ExamID: "e1", ScorePercentage: floatPtr(130), FinalScorePercentage: floatPtr(10), IncludeInPass: true},
	}

	result := calc.CalculateInput(input)

	require.True(t, result.Success)
	require.NotNil(t, result.ExamComponent.Score)
	assert.Equal(t, 100.0, *result.ExamComponent.Score)
}

func TestScoreCalculatorNoComponents(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)

	result := calc.CalculateInput(baseInput())

	require.True(t, result.Success)
	assert.Nil(t, result.ExamComponent.Score)
	assert.Nil(t, result.ExtraComponent.Score)
	assert.Nil(t, result.FinalScore)
	assert.Nil(t, result.Passed)
	assert.Equal(t, 50.0, result.PassThreshold)
}

func TestScoreCalculatorZeroExtraWeightUsesExamOnly(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.Settings.ExamWeight = 0
	input.ExamAttempts = attemptsWith(80)
	input.ExtraFields = []models.ExtraField{
		{Key: "attendance", Type: models.ExtraFieldBoolean, IncludeInPass: true, PassWeight: 0},
	}
	input.ExtraScores = map[string]interface{}{"attendance": true}

	result := calc.CalculateInput(input)

	require.True(t, result.Success)
	require.NotNil(t, result.ExamComponent.Score)
	assert.Nil(t, result.ExtraComponent.Score)
	require.NotNil(t, result.FinalScore)
	assert.Equal(t, 80.0, *result.FinalScore)
}

func TestCombineScoresZeroWeightsLeaveScoreAbsent(t *testing.T) {
	exam := examOutcome{component: models.ExamComponent{Score: floatPtr(80)}}
	extra := models.ExtraComponent{Score: floatPtr(90), TotalWeight: 0}
	settings := models.DefaultCalculationSettings()
	settings.ExamWeight = 0

	combined := combineScores(exam, extra, settings)

	assert.Nil(t, combined.finalScore)
	assert.Nil(t, combined.passed)
	assert.False(t, combined.failedDueToExam)
}

func TestScoreCalculatorZeroExamWeightWithExtra(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.Settings.ExamWeight = 0
	input.ExamAttempts = attemptsWith(20)
	input.ExtraFields = []models.ExtraField{
		{Key: "project", Type: models.ExtraFieldNumber, IncludeInPass: true, PassWeight: 2},
	}
	input.ExtraScores = map[string]interface{}{"project": 70}

	result := calc.CalculateInput(input)

	require.NotNil(t, result.FinalScore)
	assert.Equal(t, 70.0, *result.FinalScore)
}

func TestScoreCalculatorExtraNormalization(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.ExtraFields = []models.ExtraField{
		{Key: "attendance", Type: models.ExtraFieldBoolean, IncludeInPass: true, PassWeight: 1, BoolTruePoints: floatPtr(80)},
		{Key: "conduct", Type: models.ExtraFieldText, IncludeInPass: true, PassWeight: 1, TextScoreMap: map[string]float64{"A": 100, "B": 75}},
		{Key: "quiz", Type: models.ExtraFieldNumber, IncludeInPass: true, PassWeight: 1, MaxPoints: floatPtr(20)},
		{Key: "notes", Type: models.ExtraFieldText, IncludeInPass: false, PassWeight: 5},
	}
	input.ExtraScores = map[string]interface{}{
		"attendance": "true",
		"conduct":    " B ",
		"quiz":       "25",
		"notes":      "ignored",
	}

	result := calc.CalculateInput(input)

	require.True(t, result.Success)
	details := result.ExtraComponent.Details
	require.Len(t, details, 4)
	assert.Equal(t, 80.0, details[0].Score)
	assert.Equal(t, 75.0, details[1].Score)
	assert.Equal(t, 100.0, details[2].Score)
	assert.False(t, details[3].Included)
	assert.Equal(t, 3.0, result.ExtraComponent.TotalWeight)
	require.NotNil(t, result.ExtraComponent.Score)
	assert.Equal(t, 85.0, *result.ExtraComponent.Score)
}

func TestScoreCalculatorMissingExtraValuesScoreZero(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.ExtraFields = []models.ExtraField{
		{Key: "homework", Type: models.ExtraFieldNumber, IncludeInPass: true, PassWeight: 1},
		{Key: "grade", Type: models.ExtraFieldText, IncludeInPass: true, PassWeight: 1, TextScoreMap: map[string]float64{"A": 100}},
		{Key: "present", Type: models.ExtraFieldBoolean, IncludeInPass: true, PassWeight: 1},
	}

	result := calc.CalculateInput(input)

	require.NotNil(t, result.ExtraComponent.Score)
	assert.Equal(t, 0.0, *result.ExtraComponent.Score)
	require.NotNil(t, result.Passed)
	assert.False(t, *result.Passed)
}

func TestScoreCalculatorRounding(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.Settings.PassCalcMode = models.PassCalcAverage
	input.ExamAttempts = attemptsWith(70, 70, 71)

	result := calc.CalculateInput(input)

	require.NotNil(t, result.ExamComponent.Score)
	assert.Equal(t, 70.33, *result.ExamComponent.Score)
}

func TestScoreCalculatorInvalidInputs(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)

	cases := []struct {
		name     string
		raw      interface{}
		contains string
	}{
		{name: "nil", raw: nil, contains: "input is required"},
		{name: "array", raw: []interface{}{1, 2}, contains: "got array"},
		{name: "string", raw: "student", contains: "got string"},
		{name: "number", raw: 42, contains: "got number"},
		{name: "bad json", raw: []byte("{"), contains: "not valid JSON"},
		{name: "missing identity", raw: map[string]interface{}{"settings": map[string]interface{}{"pass_calc_mode": "best", "exam_score_source": "final"}}, contains: "student_id is required"},
		{name: "bad mode", raw: rawInput(map[string]interface{}{"pass_calc_mode": "median"}), contains: "settings.pass_calc_mode must be one of [best avg]"},
		{name: "threshold out of range", raw: rawInput(map[string]interface{}{"overall_pass_threshold": 120}), contains: "settings.overall_pass_threshold must be less than or equal to 100"},
		{name: "negative weight", raw: rawInput(map[string]interface{}{"exam_weight": -1}), contains: "settings.exam_weight must be greater than or equal to 0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var result models.CalculationResult
			require.NotPanics(t, func() { result = calc.Calculate(tc.raw) })
			assert.False(t, result.Success)
			assert.Contains(t, result.Error, tc.contains)
			assert.Nil(t, result.FinalScore)
			assert.Nil(t, result.Passed)
		})
	}
}

func TestScoreCalculatorCalculateFromJSON(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	payload, err := json.Marshal(map[string]interface{}{
		"student_id":   "stu-9",
		"student_code": "S009",
		"student_name": "Budi",
		"exam_attempts": []map[string]interface{}{
			{"exam_id": "e1", "final_score_percentage": 85, "include_in_pass": true},
		},
		"extra_fields": []map[string]interface{}{
			{"key": "hw", "type": "number", "include_in_pass": true, "pass_weight": 0.5},
		},
		"extra_scores": map[string]interface{}{"hw": 90},
		"settings": map[string]interface{}{
			"pass_calc_mode":         "best",
			"overall_pass_threshold": 60,
			"exam_weight":            1,
			"exam_score_source":      "final",
		},
	})
	require.NoError(t, err)

	result := calc.Calculate(json.RawMessage(payload))

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "S009", result.StudentCode)
	require.NotNil(t, result.FinalScore)
	assert.Equal(t, 86.67, *result.FinalScore)
	assert.Equal(t, 60.0, result.PassThreshold)
}

func TestScoreCalculatorValidationKeepsIdentity(t *testing.T) {
	calc := NewScoreCalculator(nil, nil)
	input := baseInput()
	input.ExamAttempts = []models.ExamAttempt{{ExamID: "e1", FinalScorePercentage: floatPtr(math.NaN()), IncludeInPass: true}}

	result := calc.CalculateInput(input)

	assert.False(t, result.Success)
	assert.Equal(t, "S001", result.StudentCode)
	assert.Contains(t, result.Error, "exam_attempts[0].final_score_percentage must be a number")
}

func rawInput(settings map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{
		"pass_calc_mode":         "best",
		"overall_pass_threshold": 50,
		"exam_weight":            1,
		"exam_score_source":      "final",
	}
	for k, v := range settings {
		merged[k] = v
	}
	return map[string]interface{}{
		"student_id":   "stu-1",
		"student_code": "S001",
		"student_name": "Ana",
		"settings":     merged,
	}
}

func TestNormalizeTextValueMatchesExactKeyFirst(t *testing.T) {
	field := models.ExtraField{
		Key:          "conduct",
		Type:         models.ExtraFieldText,
		TextScoreMap: map[string]float64{" A ": 80, "A": 100, "B": 60},
	}

	assert.Equal(t, 80.0, normalizeExtraValue(field, " A "))
	assert.Equal(t, 100.0, normalizeExtraValue(field, "A"))
	assert.Equal(t, 60.0, normalizeExtraValue(field, " B\t"))
	assert.Equal(t, 0.0, normalizeExtraValue(field, "C"))
	assert.Equal(t, 0.0, normalizeExtraValue(field, nil))
}
