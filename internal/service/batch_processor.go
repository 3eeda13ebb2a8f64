package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-score-api/internal/models"
	appErrors "github.com/noah-isme/exam-score-api/pkg/errors"
)

// BatchConfig tunes BatchProcessor. BatchSize and Concurrency are carried for
// callers that size requests; the processor always issues a constant number of reads.
type BatchConfig struct {
	BatchSize    int
	Concurrency  int
	CacheResults bool
}

// BatchProcessor turns student codes into results using three bulk reads plus a result cache.
// One instance serves one logical caller at a time; overlapping batches resolve last write wins.
type BatchProcessor struct {
	calculator *ScoreCalculator
	cache      ResultCache
	config     BatchConfig
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewBatchProcessor constructs BatchProcessor. A nil cache gets an in-memory one.
func NewBatchProcessor(calculator *ScoreCalculator, cache ResultCache, cfg BatchConfig, metrics *MetricsService, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calculator == nil {
		calculator = NewScoreCalculator(nil, logger)
	}
	if cache == nil {
		cache = NewMemoryResultCache()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &BatchProcessor{calculator: calculator, cache: cache, config: cfg, metrics: metrics, logger: logger}
}

// Config returns the processor configuration.
func (p *BatchProcessor) Config() BatchConfig {
	return p.config
}

// ProcessStudents returns a result for every requested code, cached or freshly computed.
// Codes without a summary row get an unsuccessful "student not found" result; a failed
// bulk read fails the whole batch.
func (p *BatchProcessor) ProcessStudents(ctx context.Context, codes []string, source ScoreDataSource) (map[string]models.CalculationResult, error) {
	if source == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "score data source missing")
	}
	requested := normalizeCodes(codes)
	p.metrics.ObserveBatch(len(requested))
	results := make(map[string]models.CalculationResult, len(requested))

	uncached := make([]string, 0, len(requested))
	for _, code := range requested {
		if cached, ok := p.lookup(ctx, code); ok {
			results[code] = *cached
			continue
		}
		uncached = append(uncached, code)
	}
	if len(uncached) == 0 {
		return results, nil
	}

	data, err := p.fetchBulkData(ctx, source, uncached)
	if err != nil {
		p.logger.Error("score batch fetch failed", zap.Int("codes", len(uncached)), zap.Error(err))
		return nil, err
	}

	for _, code := range uncached {
		var result models.CalculationResult
		if summary, ok := data.summaries[code]; ok {
			result = p.calculator.CalculateInput(data.inputFor(summary))
			p.metrics.RecordScoreResult(resultOutcome(result))
		} else {
			result = studentNotFound(code)
			p.metrics.RecordScoreResult(OutcomeNotFound)
		}
		p.store(ctx, code, result)
		results[code] = result
	}

	p.logger.Debug("score batch processed",
		zap.Int("requested", len(requested)),
		zap.Int("cache_hits", len(requested)-len(uncached)),
		zap.Int("computed", len(uncached)),
	)
	return results, nil
}

// ClearCache drops all cached results.
func (p *BatchProcessor) ClearCache(ctx context.Context) error {
	if err := p.cache.Clear(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear result cache")
	}
	return nil
}

// CacheSize reports how many results are cached.
func (p *BatchProcessor) CacheSize(ctx context.Context) (int, error) {
	size, err := p.cache.Size(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read result cache size")
	}
	return size, nil
}

// IsCached reports whether code has a cached result.
func (p *BatchProcessor) IsCached(ctx context.Context, code string) (bool, error) {
	result, err := p.GetCached(ctx, code)
	if err != nil {
		return false, err
	}
	return result != nil, nil
}

// GetCached returns the cached result for code, or nil when absent.
func (p *BatchProcessor) GetCached(ctx context.Context, code string) (*models.CalculationResult, error) {
	result, ok, err := p.cache.Get(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read result cache")
	}
	if !ok {
		return nil, nil
	}
	return result, nil
}

func (p *BatchProcessor) lookup(ctx context.Context, code string) (*models.CalculationResult, bool) {
	if !p.config.CacheResults {
		return nil, false
	}
	result, ok, err := p.cache.Get(ctx, code)
	if err != nil {
		p.logger.Warn("result cache get failed", zap.String("student_code", code), zap.Error(err))
		ok = false
	}
	p.metrics.RecordCacheLookup(ok)
	if !ok || result == nil {
		return nil, false
	}
	return result, true
}

func (p *BatchProcessor) store(ctx context.Context, code string, result models.CalculationResult) {
	if !p.config.CacheResults {
		return
	}
	if err := p.cache.Set(ctx, code, result); err != nil {
		p.logger.Warn("result cache set failed", zap.String("student_code", code), zap.Error(err))
	}
}

func studentNotFound(code string) models.CalculationResult {
	return models.CalculationResult{
		Success:     false,
		Error:       appErrors.ErrStudentNotFound.Message,
		StudentCode: code,
	}
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	unique := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		unique = append(unique, code)
	}
	return unique
}
