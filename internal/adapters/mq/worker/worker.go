// Package worker applies queued game results. A single worker is the only
// writer of ratings, so results are applied one at a time in queue order.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/rally/internal/adapters/mq/queue"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
)

// Recorder applies a game result to the roster.
type Recorder interface {
	RecordGame(ctx context.Context, g model.GameResult) error
}

// Queue defines how the worker receives games.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// Worker processes queued games.
type Worker interface {
	// Run applies games until the queue is drained and closed or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown waits for Run to finish draining. If ctx expires first the
	// worker is stopped and remaining games are dropped.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	recorder Recorder
	name     string

	processed atomic.Int64
	failed    atomic.Int64

	stop chan struct{}
	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		recorder: recorder,
		name:     "recorder",
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	games := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case g, ok := <-games:
			if !ok {
				return
			}
			if err := w.process(ctx, g); err != nil {
				w.logger.Error(ctx, "error recording game", logger.String("game_id", g.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown waits for the worker to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		close(w.stop)
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of games applied successfully.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns the number of games the recorder rejected.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, g model.GameResult) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.RecordGame(ctx, g); err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		return fmt.Errorf("record game %s: %w", g.ID, err)
	}
	w.processed.Add(1)
	return nil
}
