package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-score-api/internal/middleware"
	"github.com/noah-isme/exam-score-api/internal/models"
	"github.com/noah-isme/exam-score-api/internal/service"
	appErrors "github.com/noah-isme/exam-score-api/pkg/errors"
	"github.com/noah-isme/exam-score-api/pkg/response"
)

type scoreCalculator interface {
	Calculate(raw interface{}) models.CalculationResult
}

type batchScorer interface {
	ProcessStudents(ctx context.Context, codes []string, source service.ScoreDataSource) (map[string]models.CalculationResult, error)
	ClearCache(ctx context.Context) error
	CacheSize(ctx context.Context) (int, error)
	GetCached(ctx context.Context, code string) (*models.CalculationResult, error)
}

// BatchScoreRequest lists the student codes to score.
type BatchScoreRequest struct {
	StudentCodes []string `json:"student_codes"`
}

// ScoreHandler exposes score calculation endpoints.
type ScoreHandler struct {
	calculator scoreCalculator
	batches    batchScorer
	source     service.ScoreDataSource
}

// NewScoreHandler constructs handler.
func NewScoreHandler(calculator scoreCalculator, batches batchScorer, source service.ScoreDataSource) *ScoreHandler {
	return &ScoreHandler{calculator: calculator, batches: batches, source: source}
}

// Calculate godoc
// @Summary Calculate one student's score from a raw input payload
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body models.CalculationInput true "Calculation input"
// @Success 200 {object} response.Envelope
// @Router /scores/calculate [post]
func (h *ScoreHandler) Calculate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.calculator.Calculate(body))
}

// Batch godoc
// @Summary Calculate scores for a batch of student codes
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body BatchScoreRequest true "Student codes"
// @Success 200 {object} response.Envelope
// @Router /scores/batch [post]
func (h *ScoreHandler) Batch(c *gin.Context) {
	var req BatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if len(req.StudentCodes) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_codes required"))
		return
	}
	results, err := h.batches.ProcessStudents(c.Request.Context(), req.StudentCodes, h.source)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "requested", len(req.StudentCodes))
	middleware.SetMeta(c, "returned", len(results))
	if size, err := h.batches.CacheSize(c.Request.Context()); err == nil {
		middleware.SetMeta(c, "cache_size", size)
	}
	response.JSON(c, http.StatusOK, results, middleware.ExtractMeta(c))
}

// CacheSize godoc
// @Summary Report the number of cached results
// @Tags Scores
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scores/cache [get]
func (h *ScoreHandler) CacheSize(c *gin.Context) {
	size, err := h.batches.CacheSize(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"size": size})
}

// Cached godoc
// @Summary Get the cached result for a student code
// @Tags Scores
// @Produce json
// @Param code path string true "Student code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scores/cache/{code} [get]
func (h *ScoreHandler) Cached(c *gin.Context) {
	result, err := h.batches.GetCached(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "cached result not found"))
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ClearCache godoc
// @Summary Invalidate every cached result
// @Tags Scores
// @Success 204
// @Router /scores/cache [delete]
func (h *ScoreHandler) ClearCache(c *gin.Context) {
	if err := h.batches.ClearCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
