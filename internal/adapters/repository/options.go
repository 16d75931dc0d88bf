package repository

import "github.com/okian/overlay/internal/domain/model"

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithInitial sets the snapshot returned before the first Apply.
func WithInitial(snap model.MatchSnapshot) Option {
	return func(s *SnapshotStore) {
		s.current = snap
	}
}
