package feed

import "time"

// Mode selects how generated snapshots reach the overlay service.
type Mode string

const (
	// ModePush posts every snapshot to the service's push endpoint.
	ModePush Mode = "push"
	// ModeServe exposes the snapshots as a game data endpoint for the
	// service to poll.
	ModeServe Mode = "serve"
)

// Config holds configuration for a feed run.
type Config struct {
	Mode      Mode          // push or serve
	BaseURL   string        // Base URL of the overlay service (push mode)
	Addr      string        // Listen address of the game data endpoint (serve mode)
	Interval  time.Duration // Time between generated snapshots
	Ticks     int           // Snapshots to generate; 0 runs until canceled
	Timeout   time.Duration // HTTP request timeout
	Seed      uint64        // Generator seed; equal seeds give equal matches
	FailEvery int           // Serve mode: answer every Nth request with 503; 0 never
}

// Stats holds run statistics.
type Stats struct {
	Generated int
	Pushed    int
	Failed    int
	Served    int
	Refused   int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
