// Package jobs runs the pipeline: fetch, dedup, rank, summarize, select
// a variant and post, all under a persisted job state machine.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/fetcher"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/metrics"
	"github.com/pulselabs/pulse/internal/poster"
	"github.com/pulselabs/pulse/internal/summarizer"
	"github.com/pulselabs/pulse/internal/variant"
)

// JobStore persists the job state machine.
type JobStore interface {
	Create(ctx context.Context, niche string, preview bool) (*domain.Job, error)
	ClaimPending(ctx context.Context, limit int) ([]domain.Job, error)
	MarkCompleted(ctx context.Context, id string, result *domain.JobResult) error
	MarkFailed(ctx context.Context, id, errorMsg string) error
	FailStale(ctx context.Context, olderThan time.Duration) (int64, error)
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context, limit int) ([]domain.Job, error)
}

// ArticleStore persists fetched articles.
type ArticleStore interface {
	Insert(ctx context.Context, article *domain.Article) error
}

// PostStore persists post attempts, successful or not.
type PostStore interface {
	Insert(ctx context.Context, post *domain.Post) error
}

// Fetcher produces candidate articles plus non-fatal source notes.
type Fetcher interface {
	Fetch(ctx context.Context, niche string, limit int) ([]domain.Article, []string, error)
}

// Deduplicator drops already-seen candidates.
type Deduplicator interface {
	Filter(ctx context.Context, candidates []domain.Article) ([]domain.Article, int, error)
}

// Ranker orders candidates and keeps the best n.
type Ranker interface {
	Top(articles []domain.Article, niche string, n int) []domain.RankedArticle
}

// Summarizer produces a verified summary for one article.
type Summarizer interface {
	Summarize(ctx context.Context, article *domain.Article, tone string) (*domain.Summary, error)
}

// VariantSelector picks one post variant by engagement weight.
type VariantSelector interface {
	Select(ctx context.Context, variants []domain.Variant) (*domain.Variant, error)
}

// ImpressionRecorder counts posted variants per strategy.
type ImpressionRecorder interface {
	RecordImpression(ctx context.Context, strategy domain.Strategy) error
}

// Options tune one manager instance.
type Options struct {
	FetchLimit  int
	TopN        int
	Concurrency int
	// FailOnExhausted treats total source exhaustion as a job failure
	// instead of an empty completed run.
	FailOnExhausted bool
	// ToneFor returns the summary tone for a niche.
	ToneFor func(niche string) string
}

// Manager executes jobs. Stateless apart from its dependencies; safe for
// concurrent Run calls on distinct jobs.
type Manager struct {
	jobs        JobStore
	articles    ArticleStore
	posts       PostStore
	fetcher     Fetcher
	dedup       Deduplicator
	ranker      Ranker
	summarizer  Summarizer
	selector    VariantSelector
	impressions ImpressionRecorder
	poster      poster.Poster
	metrics     *metrics.Metrics
	logger      logger.Logger
	tracer      trace.Tracer

	opts Options
}

func NewManager(
	jobStore JobStore,
	articleStore ArticleStore,
	postStore PostStore,
	fetch Fetcher,
	dedup Deduplicator,
	rank Ranker,
	summarize Summarizer,
	selector VariantSelector,
	impressions ImpressionRecorder,
	post poster.Poster,
	m *metrics.Metrics,
	opts Options,
	log logger.Logger,
) *Manager {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 20
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.ToneFor == nil {
		opts.ToneFor = func(string) string { return "professional" }
	}

	return &Manager{
		jobs:        jobStore,
		articles:    articleStore,
		posts:       postStore,
		fetcher:     fetch,
		dedup:       dedup,
		ranker:      rank,
		summarizer:  summarize,
		selector:    selector,
		impressions: impressions,
		poster:      post,
		metrics:     m,
		logger:      log,
		tracer:      otel.Tracer("job-manager"),
		opts:        opts,
	}
}

// Submit creates a new pending job for a niche.
func (m *Manager) Submit(ctx context.Context, niche string, preview bool) (*domain.Job, error) {
	job, err := m.jobs.Create(ctx, niche, preview)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	m.logger.Info("job submitted",
		logger.String("job_id", job.ID),
		logger.String("niche", job.Niche),
		logger.Bool("preview", job.Preview),
	)
	return job, nil
}

// Run executes one claimed job to a terminal state. Per-article failures
// are recorded in the result without failing the job; fatal conditions
// are storage errors, configured exhaustion, and summarization failing
// for every candidate.
func (m *Manager) Run(ctx context.Context, job *domain.Job) {
	ctx, span := m.tracer.Start(ctx, "job.run",
		trace.WithAttributes(
			attribute.String("job_id", job.ID),
			attribute.String("niche", job.Niche),
			attribute.Bool("preview", job.Preview),
		))
	defer span.End()

	started := time.Now()
	result := &domain.JobResult{}

	if fatal := m.execute(ctx, job, result); fatal != nil {
		m.finish(ctx, job, result, fatal, started)
		return
	}
	m.finish(ctx, job, result, nil, started)
}

func (m *Manager) execute(ctx context.Context, job *domain.Job, result *domain.JobResult) error {
	articles, notes, err := m.fetcher.Fetch(ctx, job.Niche, m.opts.FetchLimit)
	for _, note := range notes {
		result.AddError(note)
	}
	if err != nil {
		var exhausted *fetcher.ExhaustedError
		if errors.As(err, &exhausted) && !m.opts.FailOnExhausted {
			// every source failed; the job still completes, with
			// nothing fetched and the causes in the result
			result.AddError(exhausted.Error())
			return nil
		}
		return fmt.Errorf("fetch: %w", err)
	}
	result.Fetched = len(articles)
	if m.metrics != nil {
		for _, a := range articles {
			m.metrics.ArticlesFetched.WithLabelValues(a.Source, job.Niche).Inc()
		}
	}

	unique, duplicates, err := m.dedup.Filter(ctx, articles)
	if err != nil {
		return fmt.Errorf("dedup: %w", err)
	}
	result.Duplicates = duplicates
	if m.metrics != nil && duplicates > 0 {
		m.metrics.DuplicatesSkipped.Add(float64(duplicates))
	}

	for i := range unique {
		if insertErr := m.articles.Insert(ctx, &unique[i]); insertErr != nil {
			return fmt.Errorf("store article: %w", insertErr)
		}
	}

	ranked := m.ranker.Top(unique, job.Niche, m.opts.TopN)
	result.Ranked = len(ranked)

	hardFailures := m.processRanked(ctx, job, ranked, result)
	if len(ranked) > 0 && hardFailures == len(ranked) {
		return fmt.Errorf("summarization failed for all %d candidates", len(ranked))
	}
	return nil
}

// processRanked summarizes and posts the ranked articles with bounded
// concurrency. Result counters are shared, so they update under a lock.
// It returns the number of hard summarization failures; low-confidence
// skips stay non-fatal and do not count.
func (m *Manager) processRanked(ctx context.Context, job *domain.Job, ranked []domain.RankedArticle, result *domain.JobResult) int {
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		sem          = make(chan struct{}, m.opts.Concurrency)
		hardFailures int
	)

	for i := range ranked {
		wg.Add(1)
		sem <- struct{}{}
		go func(article *domain.Article) {
			defer wg.Done()
			defer func() { <-sem }()

			summarized, posted, procErr := m.processArticle(ctx, job, article)

			mu.Lock()
			defer mu.Unlock()
			if summarized {
				result.Summarized++
			}
			if posted {
				result.Posted++
			}
			if procErr != nil {
				result.AddError(procErr.Error())
				if !summarized && !errors.Is(procErr, summarizer.ErrLowConfidence) {
					hardFailures++
				}
			}
		}(&ranked[i].Article)
	}

	wg.Wait()
	return hardFailures
}

func (m *Manager) processArticle(ctx context.Context, job *domain.Job, article *domain.Article) (summarized, posted bool, err error) {
	ctx, span := m.tracer.Start(ctx, "job.article",
		trace.WithAttributes(
			attribute.String("article_id", article.ID),
			attribute.String("source", article.Source),
		))
	defer span.End()

	summary, err := m.summarizer.Summarize(ctx, article, m.opts.ToneFor(job.Niche))
	if err != nil {
		if errors.Is(err, summarizer.ErrLowConfidence) {
			m.logger.Info("article skipped on low confidence",
				logger.String("article_id", article.ID),
				logger.Float64("confidence", summaryConfidence(summary)),
			)
		}
		return false, false, fmt.Errorf("summarize %s: %w", article.URL, err)
	}
	if m.metrics != nil {
		m.metrics.SummaryConfidence.Observe(summary.Confidence)
	}

	variants := variant.Generate(summary, article)
	chosen, err := m.selector.Select(ctx, variants)
	if err != nil {
		return true, false, fmt.Errorf("select variant for %s: %v", article.URL, err)
	}

	post := &domain.Post{
		JobID:     job.ID,
		ArticleID: article.ID,
		Content:   poster.Compose(chosen.Content, article.URL),
		Summary:   summary.Text,
		Strategy:  string(chosen.Strategy),
		Platform:  m.poster.Platform(),
		Status:    domain.PostStatusPending,
	}

	if job.Preview {
		// preview jobs record what would have been posted
		if insertErr := m.posts.Insert(ctx, post); insertErr != nil {
			return true, false, fmt.Errorf("store preview post for %s: %v", article.URL, insertErr)
		}
		return true, false, nil
	}

	externalID, postErr := m.poster.Post(ctx, post.Content)
	if postErr != nil {
		msg := postErr.Error()
		post.Status = domain.PostStatusFailed
		post.ErrorMessage = &msg
		if m.metrics != nil {
			m.metrics.SocialPosts.WithLabelValues(post.Platform, "failed").Inc()
		}
		if insertErr := m.posts.Insert(ctx, post); insertErr != nil {
			m.logger.Error("failed to store failed post",
				logger.String("article_id", article.ID),
				logger.Error(insertErr),
			)
		}
		return true, false, fmt.Errorf("post %s: %v", article.URL, postErr)
	}

	now := time.Now().UTC()
	post.Status = domain.PostStatusPosted
	post.ExternalID = &externalID
	post.PostedAt = &now
	if insertErr := m.posts.Insert(ctx, post); insertErr != nil {
		return true, true, fmt.Errorf("store post for %s: %v", article.URL, insertErr)
	}

	if m.metrics != nil {
		m.metrics.SocialPosts.WithLabelValues(post.Platform, "posted").Inc()
	}
	if m.impressions != nil {
		if recErr := m.impressions.RecordImpression(ctx, chosen.Strategy); recErr != nil {
			m.logger.Warn("failed to record impression",
				logger.String("strategy", string(chosen.Strategy)),
				logger.Error(recErr),
			)
		}
	}

	return true, true, nil
}

func (m *Manager) finish(ctx context.Context, job *domain.Job, result *domain.JobResult, fatal error, started time.Time) {
	status := domain.JobStatusCompleted
	if fatal != nil {
		status = domain.JobStatusFailed
		if err := m.jobs.MarkFailed(ctx, job.ID, fatal.Error()); err != nil {
			m.logger.Error("failed to mark job failed",
				logger.String("job_id", job.ID),
				logger.Error(err),
			)
		}
	} else {
		if err := m.jobs.MarkCompleted(ctx, job.ID, result); err != nil {
			m.logger.Error("failed to mark job completed",
				logger.String("job_id", job.ID),
				logger.Error(err),
			)
		}
	}

	if m.metrics != nil {
		m.metrics.Jobs.WithLabelValues(string(status)).Inc()
		m.metrics.JobDuration.Observe(time.Since(started).Seconds())
	}

	m.logger.Info("job finished",
		logger.String("job_id", job.ID),
		logger.String("status", string(status)),
		logger.Int("fetched", result.Fetched),
		logger.Int("duplicates", result.Duplicates),
		logger.Int("summarized", result.Summarized),
		logger.Int("posted", result.Posted),
		logger.Int("errors", len(result.Errors)),
		logger.Duration("elapsed", time.Since(started)),
	)
}

func summaryConfidence(s *domain.Summary) float64 {
	if s == nil {
		return 0
	}
	return s.Confidence
}
