package fetcher

import (
	"context"
	"errors"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/metrics"
	"github.com/pulselabs/pulse/internal/ratelimit"
)

// Hybrid orchestrates sources in priority order with fallback on failure.
// By default it stops at the first source that returns at least one
// article; with enrich set it keeps accumulating from later sources until
// the limit is met.
type Hybrid struct {
	sources []Source
	enrich  bool
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewHybrid builds the chain. Sources are tried in the given order; a nil
// metrics instance disables recording.
func NewHybrid(sources []Source, enrich bool, m *metrics.Metrics, log logger.Logger) *Hybrid {
	return &Hybrid{
		sources: sources,
		enrich:  enrich,
		metrics: m,
		logger:  log,
	}
}

// Fetch tries each source in order. Per-source failures become non-fatal
// notes; when every source fails the returned error is *ExhaustedError
// and notes still describe each failure.
func (h *Hybrid) Fetch(ctx context.Context, niche string, limit int) ([]domain.Article, []string, error) {
	var (
		articles []domain.Article
		notes    []string
		failures []error
	)

	for _, src := range h.sources {
		if len(articles) >= limit {
			break
		}

		got, err := src.Fetch(ctx, niche, limit-len(articles))
		if err != nil {
			var denied *ratelimit.DeniedError
			if h.metrics != nil && errors.As(err, &denied) {
				h.metrics.RateLimitHits.WithLabelValues(denied.Service).Inc()
			}
			h.logger.Warn("source failed, trying next",
				logger.String("source", src.Name()),
				logger.String("niche", niche),
				logger.Error(err),
			)
			notes = append(notes, err.Error())
			failures = append(failures, err)
			continue
		}
		if len(got) == 0 {
			continue
		}

		articles = append(articles, got...)
		if !h.enrich {
			break
		}
	}

	if len(articles) == 0 {
		return nil, notes, &ExhaustedError{Errors: failures}
	}

	h.logger.Info("articles fetched",
		logger.String("niche", niche),
		logger.Int("count", len(articles)),
		logger.Int("source_failures", len(failures)),
	)

	return articles, notes, nil
}
