package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/noah-isme/exam-score-api/internal/models"
)

// InputValidator checks calculation requests before any scoring happens.
type InputValidator struct {
	validator *validator.Validate
}

// NewInputValidator constructs InputValidator. With a nil validate it builds its own instance whose
// messages name fields by their JSON tags; a caller-supplied instance is used as is and keeps its
// own tag name func.
func NewInputValidator(validate *validator.Validate) *InputValidator {
	if validate == nil {
		validate = validator.New()
		validate.RegisterTagNameFunc(jsonFieldName)
	}
	return &InputValidator{validator: validate}
}

// ValidateRaw decodes an untyped payload into a CalculationInput.
// It returns the typed input only when the payload is valid and never panics.
func (v *InputValidator) ValidateRaw(raw interface{}) (input *models.CalculationInput, errs []string) {
	defer func() {
		if r := recover(); r != nil {
			input = nil
			errs = []string{fmt.Sprintf("input could not be read: %v", r)}
		}
	}()

	switch typed := raw.(type) {
	case nil:
		return nil, []string{"input is required"}
	case *models.CalculationInput:
		if errs := v.Validate(typed); len(errs) > 0 {
			return nil, errs
		}
		return typed, nil
	case models.CalculationInput:
		if errs := v.Validate(&typed); len(errs) > 0 {
			return nil, errs
		}
		return &typed, nil
	case json.RawMessage:
		return v.validateJSON(typed)
	case []byte:
		return v.validateJSON(typed)
	}

	payload, ok := raw.(map[string]interface{})
	if !ok {
		return nil, []string{fmt.Sprintf("input must be an object, got %s", describeKind(raw))}
	}

	var decoded models.CalculationInput
	if errs := decodeInput(payload, &decoded); len(errs) > 0 {
		return nil, errs
	}
	if errs := v.Validate(&decoded); len(errs) > 0 {
		return nil, errs
	}
	return &decoded, nil
}

// Validate runs the struct rules and cross-field checks on typed input.
func (v *InputValidator) Validate(input *models.CalculationInput) []string {
	if input == nil {
		return []string{"input is required"}
	}

	var errs []string
	if err := v.validator.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fe := range validationErrs {
				errs = append(errs, describeFieldError(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	errs = append(errs, validateNumbers(input)...)
	errs = append(errs, validateAttemptScores(input)...)
	errs = append(errs, validateExtraFields(input.ExtraFields)...)
	return errs
}

func (v *InputValidator) validateJSON(data []byte) (*models.CalculationInput, []string) {
	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, []string{"input is not valid JSON"}
	}
	return v.ValidateRaw(payload)
}

func decodeInput(payload map[string]interface{}, dest *models.CalculationInput) []string {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  dest,
		TagName: "mapstructure",
	})
	if err != nil {
		return []string{err.Error()}
	}
	if err := decoder.Decode(payload); err != nil {
		var decodeErr *mapstructure.Error
		if errors.As(err, &decodeErr) {
			return decodeErr.Errors
		}
		return []string{err.Error()}
	}
	return nil
}

func validateNumbers(input *models.CalculationInput) []string {
	var errs []string
	settings := input.Settings
	if !isFinite(settings.OverallPassThreshold) {
		errs = append(errs, "settings.overall_pass_threshold must be a finite number")
	}
	if !isFinite(settings.ExamWeight) {
		errs = append(errs, "settings.exam_weight must be a finite number")
	}
	for i, attempt := range input.ExamAttempts {
		if attempt.PassThreshold != nil && !isFinite(*attempt.PassThreshold) {
			errs = append(errs, fmt.Sprintf("exam_attempts[%d].pass_threshold must be a finite number", i))
		}
	}
	for i, field := range input.ExtraFields {
		prefix := fmt.Sprintf("extra_fields[%d]", i)
		if !isFinite(field.PassWeight) {
			errs = append(errs, prefix+".pass_weight must be a finite number")
		}
		if nonFinite(field.MaxPoints) {
			errs = append(errs, prefix+".max_points must be a finite number")
		}
		if nonFinite(field.BoolTruePoints) {
			errs = append(errs, prefix+".bool_true_points must be a finite number")
		}
		if nonFinite(field.BoolFalsePoints) {
			errs = append(errs, prefix+".bool_false_points must be a finite number")
		}
		for text, score := range field.TextScoreMap {
			if !isFinite(score) {
				errs = append(errs, fmt.Sprintf("%s.text_score_map[%q] must be a finite number", prefix, text))
			}
		}
	}
	return errs
}

func validateAttemptScores(input *models.CalculationInput) []string {
	source := input.Settings.ExamScoreSource
	if source != models.ExamScoreFinal && source != models.ExamScoreRaw {
		return nil
	}
	fieldName := "final_score_percentage"
	if source == models.ExamScoreRaw {
		fieldName = "score_percentage"
	}

	var errs []string
	for i, attempt := range input.ExamAttempts {
		score := selectedScore(attempt, source)
		switch {
		case score == nil:
			errs = append(errs, fmt.Sprintf("exam_attempts[%d].%s is required", i, fieldName))
		case math.IsNaN(*score) || math.IsInf(*score, 0):
			errs = append(errs, fmt.Sprintf("exam_attempts[%d].%s must be a number", i, fieldName))
		}
	}
	return errs
}

func validateExtraFields(fields []models.ExtraField) []string {
	var errs []string
	seen := make(map[string]int, len(fields))
	for i, field := range fields {
		prefix := fmt.Sprintf("extra_fields[%d]", i)
		if field.Type == models.ExtraFieldNumber && field.MaxPoints != nil && !(*field.MaxPoints > 0) {
			errs = append(errs, prefix+".max_points must be greater than 0")
		}
		if field.Key == "" {
			continue
		}
		if first, ok := seen[field.Key]; ok {
			errs = append(errs, fmt.Sprintf("%s.key %q duplicates extra_fields[%d]", prefix, field.Key, first))
			continue
		}
		seen[field.Key] = i
	}
	return errs
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func describeKind(raw interface{}) string {
	kind := reflect.TypeOf(raw).Kind()
	switch kind {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "number"
	default:
		return kind.String()
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonFinite(v *float64) bool {
	return v != nil && !isFinite(*v)
}
