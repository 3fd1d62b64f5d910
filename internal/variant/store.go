package variant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/logger"
)

const (
	keyPrefix  = "variant"
	counterTTL = 90 * 24 * time.Hour
)

// StrategyStats are the raw engagement counters for one strategy.
type StrategyStats struct {
	Strategy    domain.Strategy `json:"strategy"`
	Impressions int64           `json:"impressions"`
	Engagement  int64           `json:"engagement"`
	Weight      float64         `json:"weight"`
}

// Store keeps per-strategy impression and engagement counters in Redis.
type Store struct {
	client *redis.Client
	logger logger.Logger
}

func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{client: client, logger: log}
}

func impressionsKey(s domain.Strategy) string {
	return fmt.Sprintf("%s:%s:impressions", keyPrefix, s)
}

func engagementKey(s domain.Strategy) string {
	return fmt.Sprintf("%s:%s:engagement", keyPrefix, s)
}

// RecordImpression counts a posted variant for its strategy.
func (s *Store) RecordImpression(ctx context.Context, strategy domain.Strategy) error {
	key := impressionsKey(strategy)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		s.logger.Warn("Failed to increment impression counter",
			logger.String("strategy", string(strategy)),
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return fmt.Errorf("increment impressions: %w", err)
	}

	return nil
}

// RecordEngagement adds observed engagement (likes, reposts, replies)
// for a strategy.
func (s *Store) RecordEngagement(ctx context.Context, strategy domain.Strategy, amount int64) error {
	key := engagementKey(strategy)

	pipe := s.client.Pipeline()
	pipe.IncrBy(ctx, key, amount)
	pipe.Expire(ctx, key, counterTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		s.logger.Warn("Failed to increment engagement counter",
			logger.String("strategy", string(strategy)),
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return fmt.Errorf("increment engagement: %w", err)
	}

	return nil
}

// Stats reads the counters for every strategy in one pipeline round trip.
func (s *Store) Stats(ctx context.Context) ([]StrategyStats, error) {
	strategies := domain.Strategies()

	pipe := s.client.Pipeline()
	impCmds := make(map[domain.Strategy]*redis.StringCmd, len(strategies))
	engCmds := make(map[domain.Strategy]*redis.StringCmd, len(strategies))
	for _, st := range strategies {
		impCmds[st] = pipe.Get(ctx, impressionsKey(st))
		engCmds[st] = pipe.Get(ctx, engagementKey(st))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read strategy counters: %w", err)
	}

	stats := make([]StrategyStats, 0, len(strategies))
	for _, st := range strategies {
		row := StrategyStats{Strategy: st}
		if v, err := impCmds[st].Int64(); err == nil {
			row.Impressions = v
		}
		if v, err := engCmds[st].Int64(); err == nil {
			row.Engagement = v
		}
		row.Weight = LaplaceWeight(row.Engagement, row.Impressions)
		stats = append(stats, row)
	}

	return stats, nil
}

// LaplaceWeight is the smoothed engagement rate. New strategies start at
// 0.5 instead of zero, so they keep getting explored.
func LaplaceWeight(engagement, impressions int64) float64 {
	return float64(engagement+1) / float64(impressions+2)
}
