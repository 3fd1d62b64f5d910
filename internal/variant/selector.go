package variant

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/logger"
)

// StatsProvider reports engagement-derived weights per strategy.
type StatsProvider interface {
	Stats(ctx context.Context) ([]StrategyStats, error)
}

// Selector picks one variant by weighted random draw over strategy
// weights. With no engagement history every strategy weighs the same and
// selection is uniform. One instance is shared by every concurrent
// article worker, so draws on the seeded source go through a mutex.
type Selector struct {
	stats  StatsProvider
	logger logger.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

func NewSelector(stats StatsProvider, seed int64, log logger.Logger) *Selector {
	return &Selector{
		stats:  stats,
		rand:   rand.New(rand.NewSource(seed)),
		logger: log,
	}
}

// Select draws one of the variants and fills in its weight and counter
// snapshot. A stats read failure degrades to uniform selection.
func (s *Selector) Select(ctx context.Context, variants []domain.Variant) (*domain.Variant, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variants to select from")
	}

	weights := make(map[domain.Strategy]StrategyStats)
	if s.stats != nil {
		rows, err := s.stats.Stats(ctx)
		if err != nil {
			s.logger.Warn("Strategy stats unavailable, selecting uniformly",
				logger.Error(err),
			)
		} else {
			for _, row := range rows {
				weights[row.Strategy] = row
			}
		}
	}

	total := 0.0
	for i := range variants {
		w := 0.5
		if row, ok := weights[variants[i].Strategy]; ok {
			w = row.Weight
			variants[i].Impressions = row.Impressions
			variants[i].Engagement = row.Engagement
		}
		variants[i].Weight = w
		total += w
	}

	s.mu.Lock()
	draw := s.rand.Float64() * total
	s.mu.Unlock()
	for i := range variants {
		draw -= variants[i].Weight
		if draw < 0 {
			s.logger.Debug("variant selected",
				logger.String("strategy", string(variants[i].Strategy)),
				logger.Float64("weight", variants[i].Weight),
			)
			return &variants[i], nil
		}
	}

	// float rounding can leave a sliver past the last bucket
	return &variants[len(variants)-1], nil
}
