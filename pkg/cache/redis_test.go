package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-score-api/pkg/config"
)

func TestNewRedisUnreachable(t *testing.T) {
	client, err := NewRedis(config.RedisConfig{Host: "127.0.0.1", Port: 1, PingTimeout: time.Second})

	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestHealthCheckerPing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	checker := NewHealthChecker(client, 0)
	assert.Equal(t, defaultPingTimeout, checker.timeout)

	mock.ExpectPing().SetVal("PONG")
	require.NoError(t, checker.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	err := checker.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")

	assert.NoError(t, mock.ExpectationsWereMet())
}
