package service

import (
	"math"

	"github.com/noah-isme/exam-score-api/internal/models"
)

// combinedScore is the blended outcome of both components.
type combinedScore struct {
	finalScore      *float64
	passed          *bool
	failedDueToExam bool
}

func combineScores(exam examOutcome, extra models.ExtraComponent, settings models.CalculationSettings) combinedScore {
	var final *float64
	examScore := exam.component.Score
	switch {
	case examScore != nil && extra.Score != nil:
		totalWeight := settings.ExamWeight + extra.TotalWeight
		if totalWeight > 0 {
			blended := roundScore((*examScore*settings.ExamWeight + *extra.Score*extra.TotalWeight) / totalWeight)
			final = &blended
		}
	case examScore != nil:
		single := *examScore
		final = &single
	case extra.Score != nil:
		single := *extra.Score
		final = &single
	}

	result := combinedScore{finalScore: final}
	if final == nil {
		return result
	}

	passed := *final >= settings.OverallPassThreshold
	if settings.FailOnAnyExam && exam.belowThreshold {
		passed = false
		result.failedDueToExam = true
	}
	result.passed = &passed
	return result
}

func clampPercentage(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
