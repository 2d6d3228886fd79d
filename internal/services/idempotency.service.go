package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/prom"
	"github.com/nimasrn/hero-points/pkg/redis"
)

type IdempotencyConfig struct {
	// LockTTL bounds how long an in-flight request blocks retries with the
	// same key.
	LockTTL time.Duration

	// ProcessedTTL is how long a stored response is replayed.
	ProcessedTTL time.Duration

	LockKeyPrefix string

	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		LockKeyPrefix:      "idem:lock:",
		ProcessedKeyPrefix: "idem:done:",
	}
}

// IdempotencyService makes retried device and admin posts safe: the first
// request with a key runs, later ones get its stored response.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

// Do runs fn once per key. It returns fn's response, or the stored response
// of an earlier successful run with replayed set. A run still in flight makes
// concurrent callers fail with ErrDuplicateRequest. Failed runs are not
// stored, so they can be retried.
func (s *IdempotencyService) Do(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) (body []byte, replayed bool, err error) {
	processedKey := s.config.ProcessedKeyPrefix + key
	stored, err := s.redis.Get(ctx, processedKey)
	switch {
	case err == nil:
		logger.Info("idempotent replay", "key", key)
		prom.IncIdempotentReplay()
		return stored, true, nil
	case !redis.IsNil(err):
		logger.Warn("failed to check processed status", "key", key, "error", err)
	}

	lockKey := s.config.LockKeyPrefix + key
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
	acquired, err := s.redis.SetNX(ctx, lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, false, classify("acquire idempotency lock", err)
	}
	if !acquired {
		logger.Info("idempotency lock held by another request", "key", key)
		return nil, false, model.ErrDuplicateRequest
	}
	defer s.release(ctx, lockKey)

	body, err = fn(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := s.redis.Set(ctx, processedKey, body, s.config.ProcessedTTL); err != nil {
		logger.Error("failed to store idempotent response", "key", key, "error", err)
	}
	return body, false, nil
}

func (s *IdempotencyService) release(ctx context.Context, lockKey string) {
	if err := s.redis.Del(context.WithoutCancel(ctx), lockKey); err != nil {
		logger.Warn("failed to release idempotency lock", "key", lockKey, "error", err)
	}
}
