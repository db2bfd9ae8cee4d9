package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/eventdraw/internal/domain/model"
)

func record(session string, n int) Record {
	return Record{SessionID: session, Round: model.Round{Number: n, Items: []string{fmt.Sprintf("e%d", n)}}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, record("s1", 1)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}
	if p := q.Pending(); p != 1 {
		t.Errorf("expected 1 pending, got %d", p)
	}

	r := <-q.Dequeue(ctx)
	if r.SessionID != "s1" || r.Round.Number != 1 {
		t.Errorf("unexpected record %+v", r)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if p := q.Pending(); p != 1 {
		t.Errorf("dequeued record must stay pending until Done, got %d", p)
	}

	q.Done()
	if p := q.Pending(); p != 0 {
		t.Errorf("expected 0 pending, got %d", p)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, record("s", 1)) || !q.Enqueue(ctx, record("s", 2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, record("s", 3)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context still enqueues when there is room; select picks
	// whichever case is ready, so only the full case is deterministic.
	_ = q.Enqueue(ctx, record("s", 1))
	q.Enqueue(context.Background(), record("s", 2))
	if q.Enqueue(ctx, record("s", 3)) {
		t.Error("expected enqueue to fail when full and cancelled")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	q.Enqueue(ctx, record("s", 1))
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, record("s", 2)) {
		t.Error("expected enqueue to fail after close")
	}

	// queued records drain before the channel reports closed
	var got []int
	for r := range q.Dequeue(ctx) {
		got = append(got, r.Round.Number)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestInMemoryQueue_Flush(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		q.Enqueue(ctx, record("s", i))
	}

	go func() {
		for range q.Dequeue(ctx) {
			time.Sleep(time.Millisecond)
			q.Done()
		}
	}()

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := q.Flush(flushCtx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if p := q.Pending(); p != 0 {
		t.Errorf("expected 0 pending after flush, got %d", p)
	}
	_ = q.Close()
}

func TestInMemoryQueue_FlushTimeout(t *testing.T) {
	q := NewInMemoryQueue()
	q.Enqueue(context.Background(), record("s", 1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.Flush(ctx); err == nil {
		t.Error("expected flush to time out without a consumer")
	}
}

func TestInMemoryQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				q.Enqueue(ctx, record(fmt.Sprintf("s%d", g), i))
			}
		}(g)
	}
	wg.Wait()

	if l := q.Len(ctx); l != 500 {
		t.Errorf("expected length 500, got %d", l)
	}
}
