package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/metrics"
	"github.com/pulselabs/pulse/internal/ratelimit"
)

type stubSource struct {
	name     string
	articles []domain.Article
	err      error
	calls    int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, _ string, _ int) ([]domain.Article, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

func makeArticles(n int, prefix string) []domain.Article {
	out := make([]domain.Article, n)
	for i := range out {
		out[i] = domain.Article{
			Title: prefix,
			URL:   prefix + "-" + string(rune('a'+i)),
		}
	}
	return out
}

func TestHybridFallsBackOnRateLimit(t *testing.T) {
	primary := &stubSource{
		name: "search",
		err:  &ratelimit.DeniedError{Service: "search", Wait: 90 * time.Second},
	}
	secondary := &stubSource{name: "feed", articles: makeArticles(2, "feed")}

	h := NewHybrid([]Source{primary, secondary}, false, nil, logger.NewNopLogger())
	articles, notes, err := h.Fetch(context.Background(), "technology", 5)

	require.NoError(t, err)
	assert.Len(t, articles, 2)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "rate limit exceeded")
}

func TestHybridCountsRateLimitHits(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	primary := &stubSource{
		name: "search",
		err:  &ratelimit.DeniedError{Service: "search_api", Wait: time.Minute},
	}
	secondary := &stubSource{name: "feed", articles: makeArticles(1, "feed")}

	h := NewHybrid([]Source{primary, secondary}, false, m, logger.NewNopLogger())
	_, _, err := h.Fetch(context.Background(), "technology", 5)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits.WithLabelValues("search_api")))
}

func TestHybridStopsAtFirstSuccess(t *testing.T) {
	primary := &stubSource{name: "search", articles: makeArticles(3, "search")}
	secondary := &stubSource{name: "feed", articles: makeArticles(2, "feed")}

	h := NewHybrid([]Source{primary, secondary}, false, nil, logger.NewNopLogger())
	articles, notes, err := h.Fetch(context.Background(), "technology", 5)

	require.NoError(t, err)
	assert.Len(t, articles, 3)
	assert.Empty(t, notes)
	assert.Equal(t, 0, secondary.calls, "fallback source must not be contacted after success")
}

func TestHybridEnrichAccumulates(t *testing.T) {
	primary := &stubSource{name: "search", articles: makeArticles(3, "search")}
	secondary := &stubSource{name: "feed", articles: makeArticles(2, "feed")}

	h := NewHybrid([]Source{primary, secondary}, true, nil, logger.NewNopLogger())
	articles, _, err := h.Fetch(context.Background(), "technology", 5)

	require.NoError(t, err)
	assert.Len(t, articles, 5)
	assert.Equal(t, 1, secondary.calls)
}

func TestHybridAllSourcesExhausted(t *testing.T) {
	sources := []Source{
		&stubSource{name: "search", err: &SourceError{Source: "search", Err: errors.New("boom")}},
		&stubSource{name: "feed", err: &SourceError{Source: "feed", Err: errors.New("down")}},
		&stubSource{name: "scrape", err: &SourceError{Source: "scrape", Err: errors.New("blocked")}},
	}

	h := NewHybrid(sources, false, nil, logger.NewNopLogger())
	articles, notes, err := h.Fetch(context.Background(), "technology", 5)

	assert.Nil(t, articles)
	assert.Len(t, notes, 3)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.Errors, 3)
}

func TestMockSourceFiltersAndLimits(t *testing.T) {
	m := NewMockSource()
	m.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	articles, err := m.Fetch(context.Background(), "technology", 3)
	require.NoError(t, err)
	require.Len(t, articles, 3)

	seen := map[string]bool{}
	for _, a := range articles {
		assert.Equal(t, "technology", a.Niche)
		assert.NotEmpty(t, a.Title)
		assert.False(t, seen[a.URL], "urls must be unique")
		seen[a.URL] = true
	}
}

func TestQueryForNiche(t *testing.T) {
	assert.Contains(t, queryForNiche("Technology"), "technology")
	assert.Equal(t, "knitting news", queryForNiche("knitting"))
}
