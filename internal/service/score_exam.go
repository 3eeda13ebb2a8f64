package service

import (
	"github.com/noah-isme/exam-score-api/internal/models"
)

// examOutcome carries the exam component plus whether any included attempt missed its own threshold.
type examOutcome struct {
	component      models.ExamComponent
	belowThreshold bool
}

func calculateExamComponent(attempts []models.ExamAttempt, settings models.CalculationSettings) examOutcome {
	outcome := examOutcome{component: models.ExamComponent{
		Mode:       settings.PassCalcMode,
		ExamsTotal: len(attempts),
		Details:    make([]models.ExamDetail, 0, len(attempts)),
	}}

	scores := make([]float64, 0, len(attempts))
	for _, attempt := range attempts {
		score := 0.0
		if selected := selectedScore(attempt, settings.ExamScoreSource); selected != nil {
			score = clampPercentage(*selected)
		}
		detail := models.ExamDetail{
			ExamID:        attempt.ExamID,
			ExamTitle:     attempt.ExamTitle,
			Score:         roundScore(score),
			Included:      attempt.IncludeInPass,
			PassThreshold: attempt.PassThreshold,
		}
		if attempt.IncludeInPass {
			scores = append(scores, score)
			if attempt.PassThreshold != nil {
				passed := score >= *attempt.PassThreshold
				detail.Passed = &passed
				if passed {
					outcome.component.ExamsPassed++
				} else {
					outcome.belowThreshold = true
				}
			}
		}
		outcome.component.Details = append(outcome.component.Details, detail)
	}

	outcome.component.ExamsIncluded = len(scores)
	if len(scores) == 0 {
		return outcome
	}

	var aggregated float64
	switch settings.PassCalcMode {
	case models.PassCalcAverage:
		sum := 0.0
		for _, score := range scores {
			sum += score
		}
		aggregated = sum / float64(len(scores))
	default:
		aggregated = scores[0]
		for _, score := range scores[1:] {
			if score > aggregated {
				aggregated = score
			}
		}
	}
	rounded := roundScore(aggregated)
	outcome.component.Score = &rounded
	return outcome
}

func selectedScore(attempt models.ExamAttempt, source models.ExamScoreSource) *float64 {
	if source == models.ExamScoreRaw {
		return attempt.ScorePercentage
	}
	return attempt.FinalScorePercentage
}
