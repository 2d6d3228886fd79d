package services

import (
	"context"
	"fmt"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	db    Pinger
	cache Pinger
}

func NewHealthService(db Pinger, cache Pinger) *HealthService {
	return &HealthService{db: db, cache: cache}
}

// Get fails when the store is unreachable. The cache is optional and only
// reported.
func (s *HealthService) Get(ctx context.Context) (map[string]string, error) {
	status := map[string]string{"db": "ok"}
	if err := s.db.Ping(ctx); err != nil {
		status["db"] = "down"
		return status, fmt.Errorf("database ping: %w", err)
	}
	if s.cache != nil {
		status["cache"] = "ok"
		if err := s.cache.Ping(ctx); err != nil {
			status["cache"] = "down"
		}
	}
	return status, nil
}
