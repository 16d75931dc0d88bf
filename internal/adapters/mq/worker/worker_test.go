package worker_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/overlay/internal/adapters/mq/worker"
	model "github.com/okian/overlay/internal/domain/model"
	logging "github.com/okian/overlay/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	updates chan model.Update
}

func newMockQueue() *mockQueue {
	return &mockQueue{updates: make(chan model.Update, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan model.Update {
	return mq.updates
}

type mockApplier struct {
	mu      sync.Mutex
	applied []model.MatchSnapshot
}

func (ma *mockApplier) Apply(ctx context.Context, snap model.MatchSnapshot) uint64 {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	ma.applied = append(ma.applied, snap)
	return uint64(len(ma.applied))
}

func (ma *mockApplier) golds() []int {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	out := make([]int, 0, len(ma.applied))
	for _, s := range ma.applied {
		out = append(out, s.OrderTeam.GetGold())
	}
	return out
}

func pushUpdate(gold int) model.Update {
	return model.NewUpdate(model.SourcePush, model.MatchSnapshot{
		OrderTeam: &model.TeamStats{Gold: model.Int(gold)},
	})
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		_ = logging.InitWithWriter(io.Discard)
		q := newMockQueue()
		applier := &mockApplier{}
		w := worker.NewInMemoryWorker(q, applier, worker.WithName("applier"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When updates are queued and the queue is closed", func() {
			q.updates <- pushUpdate(1)
			q.updates <- pushUpdate(2)
			q.updates <- pushUpdate(3)
			close(q.updates)

			convey.Convey("Then they are applied in queue order before shutdown returns", func() {
				shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
				defer stop()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(applier.golds(), convey.ShouldResemble, []int{1, 2, 3})
			})
		})

		convey.Convey("When the context is canceled", func() {
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})
	})

	convey.Convey("Given a worker whose queue never closes", t, func() {
		_ = logging.InitWithWriter(io.Discard)
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, &mockApplier{})
		go w.Run(context.Background())

		convey.Convey("When shutdown times out", func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer stop()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it reports the timeout and stops the loop", func() {
				convey.So(err, convey.ShouldNotBeNil)
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerOptions(t *testing.T) {
	convey.Convey("Given worker options", t, func() {
		_ = logging.InitWithWriter(io.Discard)

		convey.Convey("Then empty values are ignored", func() {
			w := worker.NewInMemoryWorker(newMockQueue(), &mockApplier{},
				worker.WithName(""),
				worker.WithLogger(nil),
			)
			convey.So(w, convey.ShouldNotBeNil)
		})

		convey.Convey("Then a custom logger is accepted", func() {
			w := worker.NewInMemoryWorker(newMockQueue(), &mockApplier{},
				worker.WithLogger(logging.Named("custom")),
			)
			convey.So(w, convey.ShouldNotBeNil)
		})
	})
}
