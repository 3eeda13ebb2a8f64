package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/exam-score-api/internal/models"
)

const (
	studentSummaryQuery = `SELECT student_id, student_code, student_name, exam_attempts, extra_scores
        FROM student_score_summaries
        WHERE student_code = ANY($1)`
	extraFieldQuery = `SELECT key, label, type, include_in_pass, pass_weight, max_points, bool_true_points, bool_false_points, text_score_map
        FROM extra_field_definitions
        ORDER BY order_index`
	settingsQuery = `SELECT pass_calc_mode, overall_pass_threshold, exam_weight, exam_score_source, fail_on_any_exam
        FROM score_settings
        LIMIT 1`
)

// ScoreRepository issues the read-only bulk queries behind batch scoring.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// FindSummariesByCodes loads the summary view rows for the given student codes in one query.
func (r *ScoreRepository) FindSummariesByCodes(ctx context.Context, codes []string) ([]models.StudentSummary, error) {
	if len(codes) == 0 {
		return []models.StudentSummary{}, nil
	}
	var rows []studentSummaryRow
	if err := r.db.SelectContext(ctx, &rows, studentSummaryQuery, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("fetch student summaries: %w", err)
	}
	summaries := make([]models.StudentSummary, 0, len(rows))
	for _, row := range rows {
		summary, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("parse student summary %s: %w", row.StudentCode, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListExtraFields returns every extra field definition in display order.
func (r *ScoreRepository) ListExtraFields(ctx context.Context) ([]models.ExtraField, error) {
	var rows []extraFieldRow
	if err := r.db.SelectContext(ctx, &rows, extraFieldQuery); err != nil {
		return nil, fmt.Errorf("list extra fields: %w", err)
	}
	fields := make([]models.ExtraField, 0, len(rows))
	for _, row := range rows {
		field, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("parse extra field %s: %w", row.Key, err)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// GetSettings returns the global settings row. It wraps sql.ErrNoRows when none exists.
func (r *ScoreRepository) GetSettings(ctx context.Context) (*models.CalculationSettings, error) {
	var row settingsRow
	if err := r.db.GetContext(ctx, &row, settingsQuery); err != nil {
		return nil, fmt.Errorf("get score settings: %w", err)
	}
	settings := row.toModel()
	return &settings, nil
}

// Ping verifies the database connection for the readiness endpoint.
func (r *ScoreRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
