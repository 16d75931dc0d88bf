package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/overlay/internal/domain/model"
)

// SnapshotStore is an in-memory Store holding a single snapshot.
//
// Readers and the writer share one RWMutex so a reader never observes a
// snapshot from one update combined with the revision of another.
type SnapshotStore struct {
	mu        sync.RWMutex
	current   model.MatchSnapshot
	revision  uint64
	updatedAt time.Time

	subMu  sync.Mutex
	subs   map[uint64]chan Change
	nextID uint64
	closed bool
}

// NewSnapshotStore constructs a store seeded with model.Default.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		current: model.Default(),
		subs:    make(map[uint64]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply implements Store.Apply.
func (s *SnapshotStore) Apply(_ context.Context, snap model.MatchSnapshot) uint64 {
	now := time.Now()

	s.mu.Lock()
	s.current = snap
	s.revision++
	rev := s.revision
	s.updatedAt = now
	s.mu.Unlock()

	s.notify(Change{Revision: rev, Snapshot: snap, At: now})
	return rev
}

// Current implements Store.Current.
func (s *SnapshotStore) Current(_ context.Context) model.MatchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Snapshot implements Store.Snapshot.
func (s *SnapshotStore) Snapshot(_ context.Context) (uint64, model.MatchSnapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision, s.current
}

// Revision implements Store.Revision.
func (s *SnapshotStore) Revision(_ context.Context) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// UpdatedAt implements Store.UpdatedAt.
func (s *SnapshotStore) UpdatedAt(_ context.Context) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Subscribe implements Store.Subscribe. The returned cancel func is idempotent.
func (s *SnapshotStore) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (s *SnapshotStore) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// Close ends every subscription. The snapshot stays readable.
func (s *SnapshotStore) Close() error {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	return nil
}

// Reopen accepts subscriptions again after Close.
func (s *SnapshotStore) Reopen() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.closed = false
}

// notify hands c to every subscriber without blocking. A full buffer
// loses its oldest change so the newest one always fits.
func (s *SnapshotStore) notify(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c:
		default:
		}
	}
}
