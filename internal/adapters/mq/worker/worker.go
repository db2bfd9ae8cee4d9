// Package worker drains queued rounds into the journal.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/eventdraw/internal/adapters/mq/queue"
	"github.com/okian/eventdraw/internal/domain/model"
	"github.com/okian/eventdraw/pkg/logger"
	"github.com/okian/eventdraw/pkg/metrics"
)

// Appender persists one round of a session.
type Appender interface {
	Append(ctx context.Context, sessionID string, r model.Round) error
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Record
	Done()
}

// Worker writes queued rounds using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until the queue is drained or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown waits for Run to drain the closed queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker with a single writer, matching the
// journal's single connection.
type InMemoryWorker struct {
	queue    Queue
	appender Appender
	name     string

	// Shutdown control
	abort chan struct{}
	done  chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, appender Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		appender: appender,
		name:     "journal-writer",
		abort:    make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Discard(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run processes records until the queue channel is closed and empty. ctx only
// cancels the loop early; records left behind are not written.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.abort:
			return
		case r, ok := <-records:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "journal append failed",
					logger.String("session", r.SessionID),
					logger.Int("round", r.Round.Number),
					logger.Error(err))
			}
			w.queue.Done()
		}
	}
}

// Shutdown waits for the worker to finish. The queue must be closed first so
// Run can drain it. When ctx ends first the worker is aborted.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		close(w.abort)
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, r queue.Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordJournalWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.appender.Append(ctx, r.SessionID, r.Round); err != nil {
		metrics.RecordJournalError()
		return fmt.Errorf("append round %d of %s: %w", r.Round.Number, r.SessionID, err)
	}
	metrics.RecordJournalWrite()
	return nil
}
