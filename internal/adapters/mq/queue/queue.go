// Package queue carries snapshot updates from the refresh channels to the
// single writer.
//
// The queue conflates: when it is full the oldest pending update is dropped
// to make room, so a burst of pushes can delay the newest snapshot but never
// lose it.
package queue

import (
	"context"
	"sync"

	"github.com/okian/overlay/internal/domain/model"
	"github.com/okian/overlay/pkg/metrics"
)

const defaultCapacity = 16

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an update, discarding the oldest pending one when full.
	// Returns false only if the queue is closed or ctx is done.
	Enqueue(ctx context.Context, u model.Update) bool

	// Dequeue returns a channel that receives updates in arrival order.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan model.Update

	// Len returns the current number of pending updates.
	Len(ctx context.Context) int

	// Close stops accepting updates.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	updates  chan model.Update
	capacity int

	// mu is held exclusively by Enqueue so that making room and sending
	// happen as one step.
	mu     sync.Mutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.updates = make(chan model.Update, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, u model.Update) bool { //nolint:gocritic // hugeParam: Update is passed by value for channel semantics
	if ctx.Err() != nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	for {
		select {
		case q.updates <- u:
			metrics.UpdateQueueSize(len(q.updates))
			return true
		default:
		}
		// Full: drop the oldest pending update and retry.
		select {
		case <-q.updates:
			metrics.RecordUpdateConflated()
		default:
		}
	}
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Update {
	out := make(chan model.Update)
	go func() {
		defer close(out)
		for u := range q.updates {
			select {
			case out <- u:
				metrics.UpdateQueueSize(len(q.updates))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.updates)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the maximum number of pending updates.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close implements Queue.Close. Updates already queued remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.updates)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
