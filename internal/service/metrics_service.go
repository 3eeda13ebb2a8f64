package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/exam-score-api/internal/models"
)

// Score outcome labels.
const (
	OutcomePassed   = "passed"
	OutcomeFailed   = "failed"
	OutcomeNoScore  = "no_score"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	batchSize       prometheus.Histogram
	scoreResults    *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	studentCount         uint64
	batchCount           uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "score_cache_hit_ratio",
		Help: "Ratio of result cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "score_cache_hits_total",
		Help: "Total result cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "score_cache_misses_total",
		Help: "Total result cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "score_bulk_query_duration_seconds",
		Help:    "Duration of bulk score data queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	batchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "score_batch_students",
		Help:    "Number of student codes requested per batch",
		Buckets: prometheus.ExponentialBuckets(1, 4, 7),
	})

	scoreResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "score_results_total",
		Help: "Computed score results by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHitRatio, cacheHits, cacheMisses, dbQueryDuration, batchSize, scoreResults, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		batchSize:       batchSize,
		scoreResults:    scoreResults,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheLookup records result cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveBulkQuery records timing for one of the batch bulk reads.
func (m *MetricsService) ObserveBulkQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveBatch records the number of codes requested in one batch.
func (m *MetricsService) ObserveBatch(requested int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(requested))
	atomic.AddUint64(&m.batchCount, 1)
}

// RecordScoreResult counts a freshly computed result by outcome.
func (m *MetricsService) RecordScoreResult(outcome string) {
	if m == nil {
		return
	}
	m.scoreResults.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.studentCount, 1)
}

// Snapshot returns aggregated metrics suitable for API consumption.
func (m *MetricsService) Snapshot() models.ScoreMetricsSnapshot {
	if m == nil {
		return models.ScoreMetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return models.ScoreMetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		StudentsProcessed:        atomic.LoadUint64(&m.studentCount),
		BatchesProcessed:         atomic.LoadUint64(&m.batchCount),
		BulkQueryCount:           dbCount,
		AverageBulkQueryDuration: avgDBMs,
		GeneratedAt:              time.Now().UTC(),
	}
}

func resultOutcome(result models.CalculationResult) string {
	switch {
	case !result.Success:
		return OutcomeInvalid
	case result.Passed == nil:
		return OutcomeNoScore
	case *result.Passed:
		return OutcomePassed
	default:
		return OutcomeFailed
	}
}
