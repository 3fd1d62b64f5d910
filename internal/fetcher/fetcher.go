// Package fetcher provides the article source adapters and the hybrid
// fallback chain that feeds the pipeline.
package fetcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/pulselabs/pulse/internal/domain"
)

// Source fetches candidate articles for a niche from one upstream.
// Implementations consult their own rate limiter before any request and
// fail fast with *ratelimit.DeniedError when denied.
type Source interface {
	// Name identifies the source in logs, notes and metrics.
	Name() string

	// Fetch returns up to limit candidate articles for the niche.
	Fetch(ctx context.Context, niche string, limit int) ([]domain.Article, error)
}

// SourceError wraps a failure of one named source.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ExhaustedError reports that every source in the chain failed, carrying
// the per-source errors. The fetch stage treats it as "zero articles
// available this cycle", not as a job failure.
type ExhaustedError struct {
	Errors []error
}

func (e *ExhaustedError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return "all sources exhausted: " + strings.Join(msgs, "; ")
}

// nicheQueries maps known niches to richer search queries. Unknown niches
// fall back to "<niche> news".
var nicheQueries = map[string]string{
	"technology":              "technology OR tech OR AI OR software news",
	"artificial intelligence": "artificial intelligence OR AI OR machine learning news",
	"business":                "business OR finance OR economy OR startup news",
	"science":                 "science OR research OR discovery news",
	"health":                  "health OR medical OR healthcare news",
	"climate":                 "climate change OR environment OR sustainability news",
	"cybersecurity":           "cybersecurity OR security OR data breach news",
	"fintech":                 "fintech OR cryptocurrency OR blockchain news",
}

func queryForNiche(niche string) string {
	if q, ok := nicheQueries[strings.ToLower(niche)]; ok {
		return q
	}
	return niche + " news"
}
