package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/pulselabs/pulse/internal/logger"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultClaimBatch   = 4
	defaultStaleAfter   = 30 * time.Minute
	recoveryInterval    = time.Minute
)

// WorkerConfig holds configuration options
type WorkerConfig struct {
	PollInterval time.Duration
	ClaimBatch   int
	// StaleAfter is how long a job may stay running before the recovery
	// loop fails it.
	StaleAfter time.Duration
}

// Worker polls for pending jobs and runs them through the manager. A
// second loop fails jobs left running by a crashed worker.
type Worker struct {
	manager *Manager
	jobs    JobStore
	logger  logger.Logger

	pollInterval time.Duration
	claimBatch   int
	staleAfter   time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

func NewWorker(manager *Manager, jobStore JobStore, cfg WorkerConfig, log logger.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ClaimBatch <= 0 {
		cfg.ClaimBatch = defaultClaimBatch
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}

	return &Worker{
		manager:      manager,
		jobs:         jobStore,
		logger:       log,
		pollInterval: cfg.PollInterval,
		claimBatch:   cfg.ClaimBatch,
		staleAfter:   cfg.StaleAfter,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the polling and recovery loops
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.wg.Add(1)
	go w.runRecovery(ctx)

	w.logger.Info("job worker started",
		logger.Duration("poll_interval", w.pollInterval),
		logger.Int("claim_batch", w.claimBatch),
	)
}

// Stop gracefully stops the worker, waiting for in-flight jobs
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("job worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.processOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.processOnce(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) {
	claimed, err := w.jobs.ClaimPending(ctx, w.claimBatch)
	if err != nil {
		w.logger.Error("failed to claim pending jobs", logger.Error(err))
		return
	}

	for i := range claimed {
		select {
		case <-w.stopChan:
			// shutting down; the recovery loop of the next worker
			// picks up anything left running
			return
		default:
		}
		w.manager.Run(ctx, &claimed[i])
	}
}

func (w *Worker) runRecovery(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(recoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			failed, err := w.jobs.FailStale(ctx, w.staleAfter)
			if err != nil {
				w.logger.Error("stale job recovery failed", logger.Error(err))
			} else if failed > 0 {
				w.logger.Warn("failed stale running jobs",
					logger.Int64("count", failed),
				)
			}
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}
