package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// countingRunner records batch invocations
type countingRunner struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (r *countingRunner) RunDailyBatch(ctx context.Context, today time.Time) (*BatchSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, today)
	if r.err != nil {
		return nil, r.err
	}
	return &BatchSummary{RunDate: today.Format("2006-01-02")}, nil
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func setupBatchWorker(runner BatchRunner) *BatchWorker {
	logger := zerolog.Nop() // Silent logger for tests

	config := BatchWorkerConfig{
		Interval: 50 * time.Millisecond, // Fast interval for testing
	}
	return NewBatchWorker(runner, logger, config)
}

func TestBatchWorker_NewBatchWorker(t *testing.T) {
	worker := setupBatchWorker(&countingRunner{})

	assert.NotNil(t, worker)
	assert.Equal(t, 50*time.Millisecond, worker.interval)
	assert.False(t, worker.IsRunning())
}

func TestBatchWorker_DefaultConfig(t *testing.T) {
	config := DefaultBatchWorkerConfig()
	assert.Equal(t, 24*time.Hour, config.Interval)

	worker := NewBatchWorker(&countingRunner{}, zerolog.Nop(), BatchWorkerConfig{Interval: 0})
	assert.Equal(t, 24*time.Hour, worker.interval)
}

func TestBatchWorker_RunsOnStartAndOnTick(t *testing.T) {
	runner := &countingRunner{}
	worker := setupBatchWorker(runner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, worker.IsRunning())
	assert.Equal(t, 1, runner.count(), "runs immediately on start")

	time.Sleep(120 * time.Millisecond)
	worker.Stop()

	assert.False(t, worker.IsRunning())
	assert.GreaterOrEqual(t, runner.count(), 2)
}

func TestBatchWorker_StartTwice(t *testing.T) {
	worker := setupBatchWorker(&countingRunner{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the worker twice (should be idempotent)
	worker.Start(ctx)
	worker.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, worker.IsRunning())

	worker.Stop()
	assert.False(t, worker.IsRunning())
}

func TestBatchWorker_StopWithoutStart(t *testing.T) {
	worker := setupBatchWorker(&countingRunner{})

	// Stop without starting should not panic
	worker.Stop()
	assert.False(t, worker.IsRunning())
}

func TestBatchWorker_ContextCancellation(t *testing.T) {
	worker := setupBatchWorker(&countingRunner{})

	ctx, cancel := context.WithCancel(context.Background())

	worker.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, worker.IsRunning())

	cancel()
	time.Sleep(20 * time.Millisecond)

	assert.False(t, worker.IsRunning())
}

func TestBatchWorker_SurvivesRunnerErrors(t *testing.T) {
	runner := &countingRunner{err: errors.New("database unavailable")}
	worker := setupBatchWorker(runner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	time.Sleep(80 * time.Millisecond)
	assert.True(t, worker.IsRunning())
	assert.GreaterOrEqual(t, runner.count(), 2)

	runner.mu.Lock()
	runner.err = domain.ErrBatchInProgress
	runner.mu.Unlock()
	time.Sleep(60 * time.Millisecond)
	assert.True(t, worker.IsRunning())

	worker.Stop()
}
