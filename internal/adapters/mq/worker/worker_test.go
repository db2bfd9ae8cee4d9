package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/eventdraw/internal/adapters/mq/queue"
	worker "github.com/okian/eventdraw/internal/adapters/mq/worker"
	model "github.com/okian/eventdraw/internal/domain/model"
	logging "github.com/okian/eventdraw/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockAppender struct {
	mu      sync.Mutex
	rounds  map[string][]int
	failFor string
}

func newMockAppender() *mockAppender {
	return &mockAppender{rounds: make(map[string][]int)}
}

func (m *mockAppender) Append(ctx context.Context, sessionID string, r model.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sessionID == m.failFor {
		return errors.New("disk full")
	}
	m.rounds[sessionID] = append(m.rounds[sessionID], r.Number)
	return nil
}

func (m *mockAppender) get(sessionID string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.rounds[sessionID]...)
}

func rec(session string, n int) queue.Record {
	return queue.Record{SessionID: session, Round: model.Round{Number: n, Items: []string{"a"}}}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		app := newMockAppender()
		w := worker.NewInMemoryWorker(q, app,
			worker.WithName("journal-test"),
			worker.WithLogger(logging.Discard()))
		go w.Run(ctx)

		convey.Convey("When records are enqueued and flushed", func() {
			for i := 1; i <= 5; i++ {
				q.Enqueue(ctx, rec("s1", i))
			}
			q.Enqueue(ctx, rec("s2", 1))

			flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			convey.So(q.Flush(flushCtx), convey.ShouldBeNil)

			convey.Convey("Then every round is appended in order", func() {
				convey.So(app.get("s1"), convey.ShouldResemble, []int{1, 2, 3, 4, 5})
				convey.So(app.get("s2"), convey.ShouldResemble, []int{1})
			})

			convey.Convey("Then shutdown after close returns promptly", func() {
				convey.So(q.Close(), convey.ShouldBeNil)
				convey.So(w.Shutdown(flushCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When an append fails", func() {
			app.failFor = "broken"
			q.Enqueue(ctx, rec("broken", 1))
			q.Enqueue(ctx, rec("ok", 1))

			flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			convey.So(q.Flush(flushCtx), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(app.get("broken"), convey.ShouldBeEmpty)
				convey.So(app.get("ok"), convey.ShouldResemble, []int{1})
			})
		})

		convey.Convey("When the queue is closed with records left", func() {
			for i := 1; i <= 3; i++ {
				q.Enqueue(ctx, rec("s", i))
			}
			convey.So(q.Close(), convey.ShouldBeNil)

			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then shutdown drains them first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(app.get("s"), convey.ShouldResemble, []int{1, 2, 3})
				convey.So(q.Pending(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestInMemoryWorker_ShutdownTimeout(t *testing.T) {
	convey.Convey("Given a worker whose queue is never closed", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, newMockAppender())
		go w.Run(context.Background())

		convey.Convey("When shutdown times out", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then it reports the timeout and aborts the loop", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryWorker_ContextCancel(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, newMockAppender())
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		convey.Convey("When its context is cancelled", func() {
			cancel()

			convey.Convey("Then Run returns", func() {
				waitCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				convey.So(w.Shutdown(waitCtx), convey.ShouldBeNil)
			})
		})
	})
}
