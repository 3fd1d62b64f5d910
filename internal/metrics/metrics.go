// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the pipeline records into. One instance
// is shared between the worker and the API layer.
type Metrics struct {
	ArticlesFetched   *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec
	DuplicatesSkipped prometheus.Counter
	LLMRequests       *prometheus.CounterVec
	SocialPosts       *prometheus.CounterVec
	Jobs              *prometheus.CounterVec
	JobDuration       prometheus.Histogram
	SummaryConfidence prometheus.Histogram
}

// New registers all collectors on the given registerer. Passing a fresh
// registry keeps tests independent.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ArticlesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_articles_fetched_total",
			Help: "Articles fetched, by source adapter and niche.",
		}, []string{"source", "niche"}),

		RateLimitHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_rate_limit_hits_total",
			Help: "Requests denied by a local rate limiter, by service.",
		}, []string{"service"}),

		DuplicatesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_duplicate_articles_skipped_total",
			Help: "Articles dropped as duplicates.",
		}),

		LLMRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_llm_requests_total",
			Help: "LLM completion requests, by outcome.",
		}, []string{"status"}),

		SocialPosts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_social_posts_total",
			Help: "Social posts attempted, by platform and outcome.",
		}, []string{"platform", "status"}),

		Jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_jobs_total",
			Help: "Jobs finished, by terminal status.",
		}, []string{"status"}),

		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_job_duration_seconds",
			Help:    "End-to-end pipeline job duration.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),

		SummaryConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_summary_confidence",
			Help:    "Overall confidence of produced summaries.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

// NewDefault registers on the default Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
