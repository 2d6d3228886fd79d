package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/prom"
	"github.com/nimasrn/hero-points/pkg/redis"
)

const (
	leaderboardCacheKey = "leaderboard:ranked:"
	leaderboardGenKey   = "leaderboard:gen"
)

// LeaderboardService serves the ranked projection, read through a short
// lived cache when one is configured. Cache errors never fail a read.
//
// Cached rows are keyed by a generation counter that Invalidate bumps. A
// read that raced a contribution stores its rows under the generation it
// started with, which later reads no longer look at.
type LeaderboardService struct {
	repo  LeaderboardRepository
	cache redis.RedisAdapter
	ttl   time.Duration
}

func NewLeaderboardService(repo LeaderboardRepository, cache redis.RedisAdapter, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

func (s *LeaderboardService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func (s *LeaderboardService) Ranked(ctx context.Context) ([]*model.LeaderboardRow, error) {
	var key string
	if s.cacheEnabled() {
		key = s.cacheKey(ctx)
	}
	if key != "" {
		if rows, ok := s.fromCache(ctx, key); ok {
			prom.IncLeaderboardCache("hit")
			return rows, nil
		}
		prom.IncLeaderboardCache("miss")
	}

	rows, err := s.repo.Ranked(ctx, 0)
	if err != nil {
		return nil, classify("rank leaderboard", err)
	}

	if key != "" {
		s.store(ctx, key, rows)
	}
	return rows, nil
}

// Top returns at most n ranked rows straight from the store.
func (s *LeaderboardService) Top(ctx context.Context, n int) ([]*model.LeaderboardRow, error) {
	rows, err := s.repo.Ranked(ctx, n)
	return rows, classify("rank leaderboard", err)
}

func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, leaderboardGenKey); err != nil {
		logger.Warn("leaderboard cache invalidation failed", "error", err)
	}
}

// cacheKey returns the key of the current generation, or "" when the
// generation cannot be read.
func (s *LeaderboardService) cacheKey(ctx context.Context) string {
	raw, err := s.cache.Get(ctx, leaderboardGenKey)
	switch {
	case err == nil:
		return leaderboardCacheKey + string(raw)
	case redis.IsNil(err):
		return leaderboardCacheKey + "0"
	}
	logger.Warn("leaderboard cache generation read failed", "error", err)
	return ""
}

func (s *LeaderboardService) fromCache(ctx context.Context, key string) ([]*model.LeaderboardRow, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			logger.Warn("leaderboard cache read failed", "error", err)
		}
		return nil, false
	}

	var rows []*model.LeaderboardRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		logger.Warn("leaderboard cache entry is corrupt", "error", err)
		return nil, false
	}
	return rows, true
}

func (s *LeaderboardService) store(ctx context.Context, key string, rows []*model.LeaderboardRow) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		logger.Warn("leaderboard cache write failed", "error", err)
	}
}
