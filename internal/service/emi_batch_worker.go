package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/rs/zerolog"
)

// BatchRunner runs one daily batch pass
type BatchRunner interface {
	RunDailyBatch(ctx context.Context, today time.Time) (*BatchSummary, error)
}

// BatchWorker is a background worker that periodically runs the EMI daily batch
type BatchWorker struct {
	runner   BatchRunner
	logger   zerolog.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// BatchWorkerConfig holds configuration for the batch worker
type BatchWorkerConfig struct {
	Interval time.Duration // How often to run the batch
}

// DefaultBatchWorkerConfig returns sensible defaults
func DefaultBatchWorkerConfig() BatchWorkerConfig {
	return BatchWorkerConfig{
		Interval: 24 * time.Hour,
	}
}

// NewBatchWorker creates a new batch worker
func NewBatchWorker(runner BatchRunner, logger zerolog.Logger, config BatchWorkerConfig) *BatchWorker {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}

	return &BatchWorker{
		runner:   runner,
		logger:   logger.With().Str("component", "emi_batch_worker").Logger(),
		interval: config.Interval,
		now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background batch loop
func (w *BatchWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting EMI batch worker")

	go w.run(ctx)
}

// Stop gracefully stops the batch worker, waiting for an in-flight run
func (w *BatchWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping EMI batch worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("EMI batch worker stopped")
}

// run is the main loop for the batch worker
func (w *BatchWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Run immediately on startup to catch up after downtime
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-w.stopCh:
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce executes one batch pass and logs its outcome
func (w *BatchWorker) runOnce(ctx context.Context) {
	summary, err := w.runner.RunDailyBatch(ctx, w.now())
	if err != nil {
		if errors.Is(err, domain.ErrBatchInProgress) {
			w.logger.Info().Msg("EMI batch already running elsewhere, skipping tick")
			return
		}
		w.logger.Error().Err(err).Msg("EMI batch failed")
		return
	}

	w.logger.Debug().
		Str("run_date", summary.RunDate).
		Int("auto_paid", summary.AutoPaid).
		Int("newly_late", summary.NewlyLate).
		Int("failed", summary.Failed).
		Msg("EMI batch tick finished")
}

// IsRunning returns whether the worker is currently running
func (w *BatchWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
