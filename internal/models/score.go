package models

import "time"

// PassCalcMode selects how included exam attempts are reduced to one score.
type PassCalcMode string

const (
	// PassCalcBest keeps the highest included attempt.
	PassCalcBest PassCalcMode = "best"
	// PassCalcAverage averages all included attempts.
	PassCalcAverage PassCalcMode = "avg"
)

// ExamScoreSource selects which per-attempt percentage feeds the exam component.
type ExamScoreSource string

const (
	// ExamScoreFinal uses FinalScorePercentage, the score after manual grading adjustments.
	ExamScoreFinal ExamScoreSource = "final"
	// ExamScoreRaw uses ScorePercentage as produced by automatic grading.
	ExamScoreRaw ExamScoreSource = "raw"
)

// ExtraFieldType describes how a raw extra value is normalised.
type ExtraFieldType string

const (
	// ExtraFieldNumber scales a numeric value against MaxPoints.
	ExtraFieldNumber ExtraFieldType = "number"
	// ExtraFieldText looks the value up in TextScoreMap.
	ExtraFieldText ExtraFieldType = "text"
	// ExtraFieldBoolean maps true and false to BoolTruePoints and BoolFalsePoints.
	ExtraFieldBoolean ExtraFieldType = "boolean"
)

// ExamAttempt is one scored submission of an exam by a student.
type ExamAttempt struct {
	ExamID               string   `json:"exam_id" mapstructure:"exam_id" validate:"required"`
	ExamTitle            string   `json:"exam_title" mapstructure:"exam_title"`
	ScorePercentage      *float64 `json:"score_percentage" mapstructure:"score_percentage"`
	FinalScorePercentage *float64 `json:"final_score_percentage" mapstructure:"final_score_percentage"`
	IncludeInPass        bool     `json:"include_in_pass" mapstructure:"include_in_pass"`
	PassThreshold        *float64 `json:"pass_threshold" mapstructure:"pass_threshold" validate:"omitempty,gte=0,lte=100"`
}

// ExtraField defines a non-exam scored input and how it contributes to pass/fail.
type ExtraField struct {
	Key             string             `json:"key" mapstructure:"key" validate:"required"`
	Label           string             `json:"label" mapstructure:"label"`
	Type            ExtraFieldType     `json:"type" mapstructure:"type" validate:"oneof=number text boolean"`
	IncludeInPass   bool               `json:"include_in_pass" mapstructure:"include_in_pass"`
	PassWeight      float64            `json:"pass_weight" mapstructure:"pass_weight" validate:"gte=0"`
	MaxPoints       *float64           `json:"max_points,omitempty" mapstructure:"max_points"`
	BoolTruePoints  *float64           `json:"bool_true_points,omitempty" mapstructure:"bool_true_points"`
	BoolFalsePoints *float64           `json:"bool_false_points,omitempty" mapstructure:"bool_false_points"`
	TextScoreMap    map[string]float64 `json:"text_score_map,omitempty" mapstructure:"text_score_map"`
}

// CalculationSettings holds the global weighting and pass rules.
type CalculationSettings struct {
	PassCalcMode         PassCalcMode    `json:"pass_calc_mode" mapstructure:"pass_calc_mode" validate:"oneof=best avg"`
	OverallPassThreshold float64         `json:"overall_pass_threshold" mapstructure:"overall_pass_threshold" validate:"gte=0,lte=100"`
	ExamWeight           float64         `json:"exam_weight" mapstructure:"exam_weight" validate:"gte=0"`
	ExamScoreSource      ExamScoreSource `json:"exam_score_source" mapstructure:"exam_score_source" validate:"oneof=final raw"`
	FailOnAnyExam        bool            `json:"fail_on_any_exam" mapstructure:"fail_on_any_exam"`
}

// DefaultCalculationSettings applies when no settings row exists.
func DefaultCalculationSettings() CalculationSettings {
	return CalculationSettings{
		PassCalcMode:         PassCalcBest,
		OverallPassThreshold: 50,
		ExamWeight:           1.0,
		ExamScoreSource:      ExamScoreFinal,
		FailOnAnyExam:        false,
	}
}

// CalculationInput is the per-student request for the score engine.
type CalculationInput struct {
	StudentID    string                 `json:"student_id" mapstructure:"student_id" validate:"required"`
	StudentCode  string                 `json:"student_code" mapstructure:"student_code" validate:"required"`
	StudentName  string                 `json:"student_name" mapstructure:"student_name" validate:"required"`
	ExamAttempts []ExamAttempt          `json:"exam_attempts" mapstructure:"exam_attempts" validate:"dive"`
	ExtraScores  map[string]interface{} `json:"extra_scores" mapstructure:"extra_scores"`
	ExtraFields  []ExtraField           `json:"extra_fields" mapstructure:"extra_fields" validate:"dive"`
	Settings     CalculationSettings    `json:"settings" mapstructure:"settings"`
}

// ExamDetail is the per-attempt breakdown of the exam component.
type ExamDetail struct {
	ExamID        string   `json:"exam_id"`
	ExamTitle     string   `json:"exam_title"`
	Score         float64  `json:"score"`
	Included      bool     `json:"included"`
	PassThreshold *float64 `json:"pass_threshold"`
	Passed        *bool    `json:"passed"`
}

// ExamComponent summarises included exam attempts.
type ExamComponent struct {
	Score         *float64     `json:"score"`
	Mode          PassCalcMode `json:"mode"`
	ExamsIncluded int          `json:"exams_included"`
	ExamsTotal    int          `json:"exams_total"`
	ExamsPassed   int          `json:"exams_passed"`
	Details       []ExamDetail `json:"details"`
}

// ExtraDetail is the per-field breakdown of the extra component.
type ExtraDetail struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Type     ExtraFieldType `json:"type"`
	Value    interface{}    `json:"value"`
	Score    float64        `json:"score"`
	Weight   float64        `json:"weight"`
	Included bool           `json:"included"`
}

// ExtraComponent summarises weighted extra fields.
type ExtraComponent struct {
	Score       *float64      `json:"score"`
	TotalWeight float64       `json:"total_weight"`
	Details     []ExtraDetail `json:"details"`
}

// CalculationResult is the outcome of one student's score computation.
// Error is set iff Success is false; Passed is nil iff FinalScore is nil.
type CalculationResult struct {
	Success         bool           `json:"success"`
	Error           string         `json:"error,omitempty"`
	StudentID       string         `json:"student_id,omitempty"`
	StudentCode     string         `json:"student_code,omitempty"`
	StudentName     string         `json:"student_name,omitempty"`
	ExamComponent   ExamComponent  `json:"exam_component"`
	ExtraComponent  ExtraComponent `json:"extra_component"`
	FinalScore      *float64       `json:"final_score"`
	Passed          *bool          `json:"passed"`
	PassThreshold   float64        `json:"pass_threshold"`
	FailedDueToExam bool           `json:"failed_due_to_exam"`
}

// StudentSummary is one parsed row of the student score summary view.
type StudentSummary struct {
	StudentID    string
	StudentCode  string
	StudentName  string
	ExamAttempts []ExamAttempt
	ExtraScores  map[string]interface{}
}

// ScoreMetricsSnapshot exposes aggregated scoring counters.
type ScoreMetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	StudentsProcessed        uint64    `json:"students_processed"`
	BatchesProcessed         uint64    `json:"batches_processed"`
	BulkQueryCount           uint64    `json:"bulk_query_count"`
	AverageBulkQueryDuration float64   `json:"average_bulk_query_duration_ms"`
	GeneratedAt              time.Time `json:"generated_at"`
}
