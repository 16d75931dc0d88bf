// Package repository holds the current match snapshot.
package repository

import (
	"context"
	"time"

	"github.com/okian/overlay/internal/domain/model"
)

// Change is delivered to subscribers after every applied snapshot.
type Change struct {
	Revision uint64
	Snapshot model.MatchSnapshot
	At       time.Time
}

// Store provides read/write access to the current snapshot.
type Store interface {
	// Apply replaces the current snapshot wholesale and returns its revision.
	Apply(ctx context.Context, snap model.MatchSnapshot) uint64

	// Current returns the latest snapshot. It never fails; before the first
	// Apply it returns the store's initial snapshot.
	Current(ctx context.Context) model.MatchSnapshot

	// Snapshot returns the current snapshot together with its revision,
	// read under one lock.
	Snapshot(ctx context.Context) (uint64, model.MatchSnapshot)

	// Revision counts applied snapshots; 0 means none yet.
	Revision(ctx context.Context) uint64

	// UpdatedAt returns when the current snapshot was applied, zero before the first Apply.
	UpdatedAt(ctx context.Context) time.Time

	// Subscribe registers for changes. Slow subscribers only miss
	// intermediate changes; the latest is always delivered.
	Subscribe(buffer int) (<-chan Change, func())
}
