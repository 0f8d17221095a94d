package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/store"
)

// cacheTTL keeps aggregate responses hot between syncs without letting the
// dashboard lag far behind a fresh sweep
const cacheTTL = 60 * time.Second

// Service serves read-side aggregates over synced data, fronted by a short
// Redis cache. Cache failures degrade to the database, never to an error.
type Service struct {
	repo   store.AnalyticsRepository
	cache  *redis.Client
	logger *zap.Logger
}

// NewService creates an analytics Service. A nil cache disables caching.
func NewService(repo store.AnalyticsRepository, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Summary returns the tenant's headline figures
func (s *Service) Summary(ctx context.Context, tenantID uuid.UUID) (*store.Summary, error) {
	key := fmt.Sprintf("analytics:%s:summary", tenantID)

	var cached store.Summary
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	summary, err := s.repo.Summary(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, summary)
	return summary, nil
}

// OrdersByDate returns per-day order counts and revenue within [from, to]
func (s *Service) OrdersByDate(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]store.DailyOrderStats, error) {
	key := fmt.Sprintf("analytics:%s:orders:%s:%s",
		tenantID, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var cached []store.DailyOrderStats
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	stats, err := s.repo.OrdersByDate(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, stats)
	return stats, nil
}

// TopCustomers returns the tenant's highest-spending customers
func (s *Service) TopCustomers(ctx context.Context, tenantID uuid.UUID, limit int) ([]store.CustomerSpend, error) {
	key := fmt.Sprintf("analytics:%s:top-customers:%d", tenantID, limit)

	var cached []store.CustomerSpend
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	spenders, err := s.repo.TopCustomers(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, spenders)
	return spenders, nil
}

func (s *Service) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("analytics cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}
