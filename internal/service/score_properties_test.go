package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-score-api/internal/models"
)

const propertyRounds = 200

// hundredths returns a value in [lo, hi] on the two-decimal grid.
func hundredths(r *rand.Rand, lo, hi float64) float64 {
	steps := int((hi - lo) * 100)
	return lo + float64(r.Intn(steps+1))/100
}

func TestAverageScoreStaysWithinAttemptRange(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	calc := NewScoreCalculator(nil, nil)

	for i := 0; i < propertyRounds; i++ {
		n := 1 + r.Intn(8)
		scores := make([]float64, n)
		lo, hi := 100.0, 0.0
		for j := range scores {
			scores[j] = hundredths(r, 0, 100)
			if scores[j] < lo {
				lo = scores[j]
			}
			if scores[j] > hi {
				hi = scores[j]
			}
		}
		input := baseInput()
		input.Settings.PassCalcMode = models.PassCalcAverage
		input.ExamAttempts = attemptsWith(scores...)

		result := calc.CalculateInput(input)

		require.True(t, result.Success, result.Error)
		require.NotNil(t, result.ExamComponent.Score)
		score := *result.ExamComponent.Score
		assert.GreaterOrEqual(t, score, lo-1e-9, fmt.Sprintf("scores %v", scores))
		assert.LessOrEqual(t, score, hi+1e-9, fmt.Sprintf("scores %v", scores))
	}
}

func TestFinalScoreIsWeightedBlend(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	calc := NewScoreCalculator(nil, nil)

	for i := 0; i < propertyRounds; i++ {
		examWeight := hundredths(r, 0, 5)
		extraWeight := hundredths(r, 0.01, 5)
		input := baseInput()
		input.Settings.ExamWeight = examWeight
		input.ExamAttempts = attemptsWith(hundredths(r, 0, 100), hundredths(r, 0, 100))
		input.ExtraFields = []models.ExtraField{{
			Key:           "project",
			Type:          models.ExtraFieldNumber,
			IncludeInPass: true,
			PassWeight:    extraWeight,
		}}
		input.ExtraScores = map[string]interface{}{"project": hundredths(r, 0, 100)}

		result := calc.CalculateInput(input)

		require.True(t, result.Success, result.Error)
		require.NotNil(t, result.ExamComponent.Score)
		require.NotNil(t, result.ExtraComponent.Score)
		require.NotNil(t, result.FinalScore)
		exam, extra := *result.ExamComponent.Score, *result.ExtraComponent.Score
		want := (exam*examWeight + extra*extraWeight) / (examWeight + extraWeight)
		assert.InDelta(t, want, *result.FinalScore, 0.02, fmt.Sprintf("exam=%v/%v extra=%v/%v", exam, examWeight, extra, extraWeight))
	}
}

func TestScoresStayWithinPercentageBounds(t *testing.T) {
	r := rand.New(rand.NewSource(23))
	calc := NewScoreCalculator(nil, nil)
	texts := []string{"A", "B", "C", "unknown"}

	for i := 0; i < propertyRounds; i++ {
		input := baseInput()
		if r.Intn(2) == 0 {
			input.Settings.PassCalcMode = models.PassCalcAverage
		}
		input.Settings.ExamWeight = hundredths(r, 0, 3)
		input.Settings.FailOnAnyExam = r.Intn(2) == 0

		for j, n := 0, r.Intn(5); j < n; j++ {
			input.ExamAttempts = append(input.ExamAttempts, models.ExamAttempt{
				ExamID:               fmt.Sprintf("e%d", j),
				FinalScorePercentage: floatPtr(hundredths(r, -50, 150)),
				IncludeInPass:        r.Intn(4) != 0,
				PassThreshold:        floatPtr(hundredths(r, 0, 100)),
			})
		}
		input.ExtraFields = []models.ExtraField{
			{Key: "quiz", Type: models.ExtraFieldNumber, IncludeInPass: r.Intn(2) == 0, PassWeight: hundredths(r, 0, 2), MaxPoints: floatPtr(hundredths(r, 1, 50))},
			{Key: "present", Type: models.ExtraFieldBoolean, IncludeInPass: r.Intn(2) == 0, PassWeight: hundredths(r, 0, 2), BoolTruePoints: floatPtr(hundredths(r, -20, 130))},
			{Key: "conduct", Type: models.ExtraFieldText, IncludeInPass: r.Intn(2) == 0, PassWeight: hundredths(r, 0, 2), TextScoreMap: map[string]float64{"A": 120, "B": 70, "C": -10}},
		}
		input.ExtraScores = map[string]interface{}{
			"quiz":    hundredths(r, -100, 200),
			"present": r.Intn(2) == 0,
			"conduct": texts[r.Intn(len(texts))],
		}

		result := calc.CalculateInput(input)

		require.True(t, result.Success, result.Error)
		assertPercentage(t, result.ExamComponent.Score)
		assertPercentage(t, result.ExtraComponent.Score)
		assertPercentage(t, result.FinalScore)
		for _, detail := range result.ExamComponent.Details {
			assert.True(t, detail.Score >= 0 && detail.Score <= 100, "exam detail %v", detail.Score)
		}
		for _, detail := range result.ExtraComponent.Details {
			assert.True(t, detail.Score >= 0 && detail.Score <= 100, "extra detail %v", detail.Score)
		}
		assert.Equal(t, result.FinalScore == nil, result.Passed == nil)
		if result.FailedDueToExam {
			require.NotNil(t, result.Passed)
			assert.False(t, *result.Passed)
		}
	}
}

func assertPercentage(t *testing.T, score *float64) {
	t.Helper()
	if score == nil {
		return
	}
	assert.GreaterOrEqual(t, *score, 0.0)
	assert.LessOrEqual(t, *score, 100.0)
}
