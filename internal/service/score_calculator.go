package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-score-api/internal/models"
)

// ScoreCalculator runs the validate, exam, extra and combine pipeline for one student.
type ScoreCalculator struct {
	validator *InputValidator
	logger    *zap.Logger
}

// NewScoreCalculator constructs ScoreCalculator.
func NewScoreCalculator(validator *InputValidator, logger *zap.Logger) *ScoreCalculator {
	if validator == nil {
		validator = NewInputValidator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreCalculator{validator: validator, logger: logger}
}

// Calculate scores an untyped payload. Malformed payloads produce an unsuccessful result, never a panic.
func (c *ScoreCalculator) Calculate(raw interface{}) models.CalculationResult {
	input, errs := c.validator.ValidateRaw(raw)
	if len(errs) > 0 {
		c.logger.Debug("score input rejected", zap.Strings("errors", errs))
		return validationFailure(nil, errs)
	}
	return c.compute(input)
}

// CalculateInput scores already-typed input.
func (c *ScoreCalculator) CalculateInput(input *models.CalculationInput) models.CalculationResult {
	if errs := c.validator.Validate(input); len(errs) > 0 {
		c.logger.Debug("score input rejected", zap.Strings("errors", errs))
		return validationFailure(input, errs)
	}
	return c.compute(input)
}

func (c *ScoreCalculator) compute(input *models.CalculationInput) models.CalculationResult {
	exam := calculateExamComponent(input.ExamAttempts, input.Settings)
	extra := calculateExtraComponent(input.ExtraFields, input.ExtraScores)
	combined := combineScores(exam, extra, input.Settings)

	return models.CalculationResult{
		Success:         true,
		StudentID:       input.StudentID,
		StudentCode:     input.StudentCode,
		StudentName:     input.StudentName,
		ExamComponent:   exam.component,
		ExtraComponent:  extra,
		FinalScore:      combined.finalScore,
		Passed:          combined.passed,
		PassThreshold:   input.Settings.OverallPassThreshold,
		FailedDueToExam: combined.failedDueToExam,
	}
}

func validationFailure(input *models.CalculationInput, errs []string) models.CalculationResult {
	result := models.CalculationResult{
		Success: false,
		Error:   "validation failed: " + strings.Join(errs, "; "),
	}
	if input != nil {
		result.StudentID = input.StudentID
		result.StudentCode = input.StudentCode
		result.StudentName = input.StudentName
		result.PassThreshold = input.Settings.OverallPassThreshold
	}
	return result
}
