package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/exam-score-api/pkg/config"
)

const defaultPingTimeout = 5 * time.Second

// NewRedis returns a Redis client for the shared result cache, verified with a bounded ping.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	checker := NewHealthChecker(client, cfg.PingTimeout)
	if err := checker.Ping(context.Background()); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// HealthChecker reports Redis availability for the readiness endpoint.
type HealthChecker struct {
	client  redis.Cmdable
	timeout time.Duration
}

// NewHealthChecker wraps client. A non-positive timeout falls back to five seconds.
func NewHealthChecker(client redis.Cmdable, timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return &HealthChecker{client: client, timeout: timeout}
}

// Ping reports whether Redis answers within the configured timeout.
func (h *HealthChecker) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
