package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/rally/internal/adapters/mq/queue"
	"github.com/okian/rally/internal/adapters/mq/worker"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	games chan queue.Event
}

func newMockQueue() *mockQueue {
	return &mockQueue{games: make(chan queue.Event, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Event { return mq.games }

type mockRecorder struct {
	mu       sync.Mutex
	recorded []string
	fail     map[string]error
}

func (m *mockRecorder) RecordGame(_ context.Context, g model.GameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[g.ID]; err != nil {
		return err
	}
	m.recorded = append(m.recorded, g.ID)
	return nil
}

func (m *mockRecorder) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.recorded...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue of games", t, func() {
		q := newMockQueue()
		rec := &mockRecorder{fail: map[string]error{"bad": errors.New("unknown team")}}
		w := worker.NewInMemoryWorker(q, rec, worker.WithName("test-recorder"), worker.WithLogger(logger.Nop()))
		ctx := context.Background()

		convey.Convey("When games arrive and the queue closes", func() {
			q.games <- model.GameResult{ID: "g1"}
			q.games <- model.GameResult{ID: "bad"}
			q.games <- model.GameResult{ID: "g2"}
			close(q.games)

			go w.Run(ctx)
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			err := w.Shutdown(sctx)

			convey.Convey("Then every good game is recorded in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.ids(), convey.ShouldResemble, []string{"g1", "g2"})
				convey.So(w.Processed(), convey.ShouldEqual, 2)
				convey.So(w.Failed(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			go w.Run(cctx)
			cancel()

			convey.Convey("Then the worker stops", func() {
				sctx, stop := context.WithTimeout(ctx, time.Second)
				defer stop()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutdown times out with the queue still open", func() {
			go w.Run(ctx)
			sctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			convey.Convey("Then an error is returned and the worker is stopped", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldNotBeNil)
			})
		})
	})
}
