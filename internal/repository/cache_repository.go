package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-score-api/internal/models"
)

const defaultResultCacheKey = "score:results"

// ResultCacheRepository keeps computed score results in a single Redis hash keyed by student code.
// Entries carry no TTL and live until Clear.
type ResultCacheRepository struct {
	client redis.Cmdable
	key    string
	logger *zap.Logger
}

// NewResultCacheRepository constructs a Redis-backed result cache.
func NewResultCacheRepository(client redis.Cmdable, key string, logger *zap.Logger) *ResultCacheRepository {
	if key == "" {
		key = defaultResultCacheKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCacheRepository{client: client, key: key, logger: logger}
}

// Get retrieves and unmarshals the cached result for code.
func (r *ResultCacheRepository) Get(ctx context.Context, code string) (*models.CalculationResult, bool, error) {
	if r.client == nil {
		return nil, false, nil
	}

	raw, err := r.client.HGet(ctx, r.key, code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis hget %s/%s: %w", r.key, code, err)
	}

	var result models.CalculationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		r.logger.Warn("dropping unreadable cached result", zap.String("student_code", code), zap.Error(err))
		return nil, false, nil
	}

	return &result, true, nil
}

// Set marshals result and stores it under code.
func (r *ResultCacheRepository) Set(ctx context.Context, code string, result models.CalculationResult) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cached result for %s: %w", code, err)
	}

	if err := r.client.HSet(ctx, r.key, code, string(payload)).Err(); err != nil {
		return fmt.Errorf("redis hset %s/%s: %w", r.key, code, err)
	}

	return nil
}

// Clear removes every cached result.
func (r *ResultCacheRepository) Clear(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

// Size reports the number of cached results.
func (r *ResultCacheRepository) Size(ctx context.Context) (int, error) {
	if r.client == nil {
		return 0, nil
	}
	n, err := r.client.HLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hlen %s: %w", r.key, err)
	}
	return int(n), nil
}
