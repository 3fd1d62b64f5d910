// Package app wires configuration, storage, sources, the summarization
// pipeline and the HTTP API into a runnable service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pulselabs/pulse/internal/api"
	"github.com/pulselabs/pulse/internal/config"
	"github.com/pulselabs/pulse/internal/database"
	"github.com/pulselabs/pulse/internal/dedup"
	"github.com/pulselabs/pulse/internal/fetcher"
	"github.com/pulselabs/pulse/internal/jobs"
	"github.com/pulselabs/pulse/internal/llm"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/metrics"
	"github.com/pulselabs/pulse/internal/poster"
	"github.com/pulselabs/pulse/internal/ranker"
	"github.com/pulselabs/pulse/internal/ratelimit"
	"github.com/pulselabs/pulse/internal/redis"
	"github.com/pulselabs/pulse/internal/summarizer"
	"github.com/pulselabs/pulse/internal/variant"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second

	seenCacheTTL = 7 * 24 * time.Hour
)

// Mode selects which components an App run starts.
type Mode int

const (
	ModeBoth Mode = iota
	ModeAPI
	ModeWorker
)

// Options contains configuration for creating a new App
type Options struct {
	ConfigPath string
	Version    string
}

// App holds every wired dependency of the service
type App struct {
	config      *config.Config
	logger      logger.Logger
	db          *sqlx.DB
	redisClient *goredis.Client
	manager     *jobs.Manager
	worker      *jobs.Worker
	server      *api.Server
	version     string
}

// New creates an App with all dependencies initialized
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "pulse"),
		logger.String("version", opts.Version),
	)

	redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		_ = redisClient.Close()
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	m := metrics.NewDefault()

	jobStore := database.NewJobRepository(db.DB)
	articleStore := database.NewArticleRepository(db.DB)
	postStore := database.NewPostRepository(db.DB)

	hybrid := buildFetcher(cfg, m, appLogger)

	seenCache := dedup.NewSeenCache(redisClient, seenCacheTTL, appLogger)
	deduper := dedup.New(articleStore, seenCache, appLogger)

	rank := ranker.New(ranker.Options{
		HalfLifeHours: cfg.Pipeline.HalfLifeHours,
		MaxAgeHours:   cfg.Pipeline.MaxAgeHours,
		Authority:     cfg.Pipeline.Authority,
	}, appLogger)

	completer := buildCompleter(cfg, m, appLogger)
	summ := summarizer.New(completer, summarizer.Options{
		MinFactConfidence:    cfg.Pipeline.MinFactConfidence,
		MinSummaryConfidence: cfg.Pipeline.MinSummaryConfidence,
		SkipStages:           cfg.Pipeline.SkipStages,
		MaxTokens:            cfg.LLM.MaxTokens,
	}, appLogger)

	variantStore := variant.NewStore(redisClient, appLogger)
	selector := variant.NewSelector(variantStore, time.Now().UnixNano(), appLogger)

	post := buildPoster(cfg, appLogger)

	manager := jobs.NewManager(
		jobStore, articleStore, postStore,
		hybrid, deduper, rank, summ,
		selector, variantStore, post,
		m,
		jobs.Options{
			FetchLimit:      cfg.Pipeline.FetchLimit,
			TopN:            cfg.Pipeline.TopN,
			Concurrency:     cfg.Pipeline.Concurrency,
			FailOnExhausted: cfg.Pipeline.FailOnExhausted,
			ToneFor:         cfg.Pipeline.Tone,
		},
		appLogger,
	)

	worker := jobs.NewWorker(manager, jobStore, jobs.WorkerConfig{
		PollInterval: cfg.Jobs.PollInterval(),
		ClaimBatch:   cfg.Jobs.Workers,
		StaleAfter:   cfg.Jobs.StaleAfter(),
	}, appLogger)

	handlers := api.NewHandlers(manager, jobStore, postStore, variantStore, appLogger, opts.Version)
	server := api.NewServer(cfg.Server, handlers, cfg.Debug, appLogger)

	return &App{
		config:      cfg,
		logger:      appLogger,
		db:          db,
		redisClient: redisClient,
		manager:     manager,
		worker:      worker,
		server:      server,
		version:     opts.Version,
	}, nil
}

// Run starts the selected components and blocks until ctx is canceled,
// then shuts everything down gracefully.
func (a *App) Run(ctx context.Context, mode Mode) error {
	serverErr := make(chan error, 1)

	if mode == ModeBoth || mode == ModeWorker {
		a.worker.Start(ctx)
	}
	if mode == ModeBoth || mode == ModeAPI {
		go func() {
			serverErr <- a.server.Start()
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			a.shutdown(mode)
			return fmt.Errorf("api server: %w", err)
		}
	}

	a.shutdown(mode)
	return nil
}

func (a *App) shutdown(mode Mode) {
	if mode == ModeBoth || mode == ModeAPI {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("api server shutdown failed", logger.Error(err))
		}
	}
	if mode == ModeBoth || mode == ModeWorker {
		a.worker.Stop()
	}

	if err := database.Close(a.db); err != nil {
		a.logger.Error("database close failed", logger.Error(err))
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close failed", logger.Error(err))
	}
	_ = a.logger.Sync()
}

// buildFetcher assembles the source chain in fallback order: search,
// feed, scrape, then the mock source when enabled.
func buildFetcher(cfg *config.Config, m *metrics.Metrics, log logger.Logger) *fetcher.Hybrid {
	var sources []fetcher.Source

	sources = append(sources, fetcher.NewSearchSource(
		cfg.Sources.Search,
		ratelimit.New("search_api", cfg.Sources.Search.Rate.MaxRequests, cfg.Sources.Search.Rate.Window()),
		log,
	))
	sources = append(sources, fetcher.NewFeedSource(
		cfg.Sources.Feed,
		ratelimit.New("feed_api", cfg.Sources.Feed.Rate.MaxRequests, cfg.Sources.Feed.Rate.Window()),
		log,
	))
	sources = append(sources, fetcher.NewScrapeSource(
		cfg.Sources.Scrape,
		ratelimit.New("scraper", cfg.Sources.Scrape.Rate.MaxRequests, cfg.Sources.Scrape.Rate.Window()),
		log,
	))
	if cfg.Sources.EnableMock {
		sources = append(sources, fetcher.NewMockSource())
	}

	return fetcher.NewHybrid(sources, cfg.Sources.Enrich, m, log)
}

func buildCompleter(cfg *config.Config, m *metrics.Metrics, log logger.Logger) llm.Completer {
	if cfg.LLM.Mock {
		return llm.NewMockCompleter()
	}
	return llm.NewAnthropicClient(
		cfg.LLM,
		ratelimit.New("llm_api", cfg.LLM.Rate.MaxRequests, cfg.LLM.Rate.Window()),
		m,
		log,
	)
}

func buildPoster(cfg *config.Config, log logger.Logger) poster.Poster {
	if cfg.Poster.Mock {
		return poster.NewMockPoster(log)
	}
	return poster.NewXPoster(
		cfg.Poster.BearerToken,
		cfg.Poster.BaseURL+"/tweets",
		ratelimit.New("x_post", cfg.Poster.Rate.MaxRequests, cfg.Poster.Rate.Window()),
		log,
	)
}
