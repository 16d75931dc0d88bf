package model

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies the channel an update arrived on.
type Source string

const (
	SourcePush Source = "push"
	SourcePoll Source = "poll"
)

// Update wraps a snapshot on its way from a refresh channel to the store.
type Update struct {
	ID         uuid.UUID
	Source     Source
	ReceivedAt time.Time
	Snapshot   MatchSnapshot
}

// NewUpdate stamps snap with a fresh id and the current time.
func NewUpdate(source Source, snap MatchSnapshot) Update {
	return Update{
		ID:         uuid.New(),
		Source:     source,
		ReceivedAt: time.Now(),
		Snapshot:   snap,
	}
}
