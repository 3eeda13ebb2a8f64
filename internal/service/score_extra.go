package service

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/noah-isme/exam-score-api/internal/models"
)

const (
	defaultBoolTruePoints  = 100.0
	defaultBoolFalsePoints = 0.0
)

func calculateExtraComponent(fields []models.ExtraField, values map[string]interface{}) models.ExtraComponent {
	component := models.ExtraComponent{Details: make([]models.ExtraDetail, 0, len(fields))}

	weighted := 0.0
	included := 0
	for _, field := range fields {
		raw := values[field.Key]
		normalized := normalizeExtraValue(field, raw)
		component.Details = append(component.Details, models.ExtraDetail{
			Key:      field.Key,
			Label:    field.Label,
			Type:     field.Type,
			Value:    raw,
			Score:    roundScore(normalized),
			Weight:   field.PassWeight,
			Included: field.IncludeInPass,
		})
		if !field.IncludeInPass {
			continue
		}
		included++
		weighted += normalized * field.PassWeight
		component.TotalWeight += field.PassWeight
	}

	if included == 0 || component.TotalWeight == 0 {
		return component
	}
	score := roundScore(weighted / component.TotalWeight)
	component.Score = &score
	return component
}

// normalizeExtraValue maps a raw extra value onto the 0-100 scale. Missing or unreadable values score 0.
func normalizeExtraValue(field models.ExtraField, raw interface{}) float64 {
	switch field.Type {
	case models.ExtraFieldBoolean:
		value, err := cast.ToBoolE(raw)
		if err != nil {
			value = false
		}
		if value {
			return clampPercentage(pointsOr(field.BoolTruePoints, defaultBoolTruePoints))
		}
		return clampPercentage(pointsOr(field.BoolFalsePoints, defaultBoolFalsePoints))
	case models.ExtraFieldText:
		if raw == nil {
			return 0
		}
		text := cast.ToString(raw)
		score, ok := field.TextScoreMap[text]
		if !ok {
			score, ok = field.TextScoreMap[strings.TrimSpace(text)]
		}
		if !ok {
			return 0
		}
		return clampPercentage(score)
	default:
		if raw == nil {
			return 0
		}
		value, err := cast.ToFloat64E(raw)
		if err != nil || math.IsNaN(value) {
			return 0
		}
		if field.MaxPoints != nil && *field.MaxPoints > 0 {
			value = value / *field.MaxPoints * 100
		}
		return clampPercentage(value)
	}
}

func pointsOr(points *float64, fallback float64) float64 {
	if points == nil {
		return fallback
	}
	return *points
}
