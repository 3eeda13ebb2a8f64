package repository

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx/types"
	"github.com/spf13/cast"

	"github.com/noah-isme/exam-score-api/internal/models"
)

// Defaults for nullable columns, applied once here rather than in the scoring logic.
const (
	defaultPassWeight    = 1.0
	defaultIncludeInPass = true
)

type studentSummaryRow struct {
	StudentID    string         `db:"student_id"`
	StudentCode  string         `db:"student_code"`
	StudentName  sql.NullString `db:"student_name"`
	ExamAttempts types.JSONText `db:"exam_attempts"`
	ExtraScores  types.JSONText `db:"extra_scores"`
}

type extraFieldRow struct {
	Key             string          `db:"key"`
	Label           sql.NullString  `db:"label"`
	Type            string          `db:"type"`
	IncludeInPass   sql.NullBool    `db:"include_in_pass"`
	PassWeight      sql.NullFloat64 `db:"pass_weight"`
	MaxPoints       sql.NullFloat64 `db:"max_points"`
	BoolTruePoints  sql.NullFloat64 `db:"bool_true_points"`
	BoolFalsePoints sql.NullFloat64 `db:"bool_false_points"`
	TextScoreMap    types.JSONText  `db:"text_score_map"`
}

type settingsRow struct {
	PassCalcMode         sql.NullString  `db:"pass_calc_mode"`
	OverallPassThreshold sql.NullFloat64 `db:"overall_pass_threshold"`
	ExamWeight           sql.NullFloat64 `db:"exam_weight"`
	ExamScoreSource      sql.NullString  `db:"exam_score_source"`
	FailOnAnyExam        sql.NullBool    `db:"fail_on_any_exam"`
}

func (row studentSummaryRow) toModel() (models.StudentSummary, error) {
	attempts, err := parseExamAttempts(row.ExamAttempts)
	if err != nil {
		return models.StudentSummary{}, err
	}
	scores := map[string]interface{}{}
	if err := decodeJSONColumn(row.ExtraScores, &scores); err != nil {
		return models.StudentSummary{}, fmt.Errorf("decode extra scores: %w", err)
	}
	if scores == nil {
		scores = map[string]interface{}{}
	}
	return models.StudentSummary{
		StudentID:    row.StudentID,
		StudentCode:  row.StudentCode,
		StudentName:  row.StudentName.String,
		ExamAttempts: attempts,
		ExtraScores:  scores,
	}, nil
}

func (row extraFieldRow) toModel() (models.ExtraField, error) {
	field := models.ExtraField{
		Key:           row.Key,
		Label:         row.Label.String,
		Type:          models.ExtraFieldType(strings.ToLower(strings.TrimSpace(row.Type))),
		IncludeInPass: row.IncludeInPass.Valid && row.IncludeInPass.Bool,
		PassWeight:    defaultPassWeight,
	}
	if row.PassWeight.Valid {
		field.PassWeight = row.PassWeight.Float64
	}
	field.MaxPoints = nullableFloat(row.MaxPoints)
	field.BoolTruePoints = nullableFloat(row.BoolTruePoints)
	field.BoolFalsePoints = nullableFloat(row.BoolFalsePoints)

	var rawMap map[string]interface{}
	if err := decodeJSONColumn(row.TextScoreMap, &rawMap); err != nil {
		return models.ExtraField{}, fmt.Errorf("decode text score map: %w", err)
	}
	if len(rawMap) > 0 {
		field.TextScoreMap = make(map[string]float64, len(rawMap))
		for text, value := range rawMap {
			field.TextScoreMap[text] = lenientFloat(value)
		}
	}
	return field, nil
}

func (row settingsRow) toModel() models.CalculationSettings {
	settings := models.DefaultCalculationSettings()
	if mode := strings.ToLower(strings.TrimSpace(row.PassCalcMode.String)); row.PassCalcMode.Valid && mode != "" {
		settings.PassCalcMode = models.PassCalcMode(mode)
	}
	if row.OverallPassThreshold.Valid {
		settings.OverallPassThreshold = row.OverallPassThreshold.Float64
	}
	if row.ExamWeight.Valid {
		settings.ExamWeight = row.ExamWeight.Float64
	}
	if source := strings.ToLower(strings.TrimSpace(row.ExamScoreSource.String)); row.ExamScoreSource.Valid && source != "" {
		settings.ExamScoreSource = models.ExamScoreSource(source)
	}
	if row.FailOnAnyExam.Valid {
		settings.FailOnAnyExam = row.FailOnAnyExam.Bool
	}
	return settings
}

// parseExamAttempts accepts both snake_case and camelCase attempt keys as written by the summary view.
func parseExamAttempts(raw types.JSONText) ([]models.ExamAttempt, error) {
	var items []map[string]interface{}
	if err := decodeJSONColumn(raw, &items); err != nil {
		return nil, fmt.Errorf("decode exam attempts: %w", err)
	}
	attempts := make([]models.ExamAttempt, 0, len(items))
	for _, item := range items {
		include := defaultIncludeInPass
		if value, ok := pick(item, "include_in_pass", "includeInPass"); ok && value != nil {
			include = cast.ToBool(value)
		}
		attempts = append(attempts, models.ExamAttempt{
			ExamID:               stringValue(item, "exam_id", "examId"),
			ExamTitle:            stringValue(item, "exam_title", "examTitle"),
			ScorePercentage:      optionalFloat(item, "score_percentage", "scorePercentage"),
			FinalScorePercentage: optionalFloat(item, "final_score_percentage", "finalScorePercentage"),
			IncludeInPass:        include,
			PassThreshold:        optionalFloat(item, "pass_threshold", "passThreshold"),
		})
	}
	return attempts, nil
}

// decodeJSONColumn leaves dest untouched for NULL, empty and "{}" columns; JSONText scans empty bytes as "{}".
func decodeJSONColumn(raw types.JSONText, dest interface{}) error {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil
	}
	return json.Unmarshal(trimmed, dest)
}

func pick(item map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if value, ok := item[key]; ok {
			return value, true
		}
	}
	return nil, false
}

func stringValue(item map[string]interface{}, keys ...string) string {
	value, _ := pick(item, keys...)
	if value == nil {
		return ""
	}
	return cast.ToString(value)
}

// optionalFloat returns nil for a missing or null value and NaN for one that is present but not numeric,
// so validation reports it instead of the value silently vanishing.
func optionalFloat(item map[string]interface{}, keys ...string) *float64 {
	value, ok := pick(item, keys...)
	if !ok || value == nil {
		return nil
	}
	f := lenientFloat(value)
	return &f
}

func lenientFloat(value interface{}) float64 {
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return math.NaN()
	}
	return f
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
