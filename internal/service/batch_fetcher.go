package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/noah-isme/exam-score-api/internal/models"
	appErrors "github.com/noah-isme/exam-score-api/pkg/errors"
)

// ScoreDataSource supplies the three bulk reads a batch needs.
type ScoreDataSource interface {
	FindSummariesByCodes(ctx context.Context, codes []string) ([]models.StudentSummary, error)
	ListExtraFields(ctx context.Context) ([]models.ExtraField, error)
	GetSettings(ctx context.Context) (*models.CalculationSettings, error)
}

// bulkData is one consistent snapshot of everything a batch scores against.
type bulkData struct {
	summaries map[string]models.StudentSummary
	fields    []models.ExtraField
	settings  models.CalculationSettings
}

// fetchBulkData issues exactly three reads regardless of len(codes). Any failure aborts the batch.
func (p *BatchProcessor) fetchBulkData(ctx context.Context, source ScoreDataSource, codes []string) (*bulkData, error) {
	start := time.Now()
	summaries, err := source.FindSummariesByCodes(ctx, codes)
	p.metrics.ObserveBulkQuery("student_summaries", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student summaries")
	}

	start = time.Now()
	fields, err := source.ListExtraFields(ctx)
	p.metrics.ObserveBulkQuery("extra_fields", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch extra field definitions")
	}

	start = time.Now()
	settings, err := source.GetSettings(ctx)
	p.metrics.ObserveBulkQuery("settings", time.Since(start))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch score settings")
	}

	data := &bulkData{
		summaries: make(map[string]models.StudentSummary, len(summaries)),
		fields:    fields,
		settings:  models.DefaultCalculationSettings(),
	}
	if err == nil && settings != nil {
		data.settings = *settings
	}
	for _, summary := range summaries {
		data.summaries[summary.StudentCode] = summary
	}
	return data, nil
}

func (d *bulkData) inputFor(summary models.StudentSummary) *models.CalculationInput {
	return &models.CalculationInput{
		StudentID:    summary.StudentID,
		StudentCode:  summary.StudentCode,
		StudentName:  summary.StudentName,
		ExamAttempts: summary.ExamAttempts,
		ExtraScores:  summary.ExtraScores,
		ExtraFields:  d.fields,
		Settings:     d.settings,
	}
}
