// Package worker applies queued snapshot updates to the store.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/overlay/internal/domain/model"
	"github.com/okian/overlay/pkg/logger"
	"github.com/okian/overlay/pkg/metrics"
)

// Applier replaces the current snapshot.
type Applier interface {
	Apply(ctx context.Context, snap model.MatchSnapshot) uint64
}

// Queue defines how the worker receives updates.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Update
}

// Worker drains updates into the store.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is closed.
	Run(ctx context.Context)

	// Shutdown waits for Run to drain the closed queue, or gives up when ctx is done.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker is the only writer of the snapshot store. Running a
// single instance keeps application order equal to queue order.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
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

// Run implements Worker.Run.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	updates := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			w.apply(ctx, u)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown implements Worker.Shutdown.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		close(w.shutdown)
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) apply(ctx context.Context, u model.Update) { //nolint:gocritic // hugeParam: Update is passed by value for channel semantics
	rev := w.applier.Apply(ctx, u.Snapshot)
	latency := float64(time.Since(u.ReceivedAt).Microseconds()) / 1000
	metrics.RecordUpdateApplied(string(u.Source), rev, latency)
	w.logger.Debug(ctx, "snapshot applied",
		logger.String("update_id", u.ID.String()),
		logger.String("source", string(u.Source)),
		logger.Uint64("revision", rev),
	)
}
