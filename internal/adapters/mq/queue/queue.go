// Package queue buffers completed rounds on their way to the journal.
//
// Draws must never wait on storage, so rounds are handed to a bounded
// in-memory queue and written by a worker. A full or closed queue refuses the
// round instead of blocking.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/eventdraw/internal/domain/model"
	"github.com/okian/eventdraw/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
	flushPollInterval    = time.Millisecond
)

// Record is one round owned by a session.
type Record struct {
	SessionID string
	Round     model.Round
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a record to the queue.
	// Returns false if the queue is full or closed and the record was dropped.
	Enqueue(ctx context.Context, r Record) bool

	// Dequeue returns the channel records arrive on. It is closed once the
	// queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Record

	// Done marks one dequeued record as fully handled.
	Done()

	// Len returns the current number of queued records.
	Len(ctx context.Context) int

	// Close stops accepting records. Queued records stay readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	records  chan Record
	capacity int
	pending  atomic.Int64 // enqueued and not yet Done

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.records = make(chan Record, q.capacity)
	metrics.UpdateJournalQueueSize(0)

	return q
}

// Enqueue adds a record to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Record) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.records <- r:
		q.pending.Add(1)
		metrics.UpdateJournalQueueSize(len(q.records))
		return true
	case <-ctx.Done():
		return false
	default:
		return false // queue is full
	}
}

// Dequeue returns the receive side of the buffer.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Record {
	return q.records
}

// Done implements Queue.Done.
func (q *InMemoryQueue) Done() {
	q.pending.Add(-1)
	metrics.UpdateJournalQueueSize(len(q.records))
}

// Len returns the current number of queued records.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.records)
}

// Pending returns the records enqueued but not yet marked Done.
func (q *InMemoryQueue) Pending() int64 {
	return q.pending.Load()
}

// Flush blocks until every enqueued record has been marked Done or ctx ends.
func (q *InMemoryQueue) Flush(ctx context.Context) error {
	if q.pending.Load() == 0 {
		return nil
	}
	ticker := time.NewTicker(flushPollInterval)
	defer ticker.Stop()

	for q.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.records)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
