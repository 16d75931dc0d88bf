// Package poller pulls snapshots from the game data API on a fixed period.
//
// There is no backoff: a failed tick is reported and the next tick runs on
// schedule. The store is never touched on failure, so the overlay keeps
// showing the last good snapshot.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/overlay/internal/adapters/gamedata"
	"github.com/okian/overlay/internal/domain/model"
	"github.com/okian/overlay/pkg/logger"
	"github.com/okian/overlay/pkg/metrics"
)

const defaultInterval = time.Second

// Source fetches one snapshot.
type Source interface {
	Fetch(ctx context.Context) (model.MatchSnapshot, error)
}

// Sink receives fetched snapshots.
type Sink interface {
	Enqueue(ctx context.Context, u model.Update) bool
}

// Poller runs Source.Fetch every interval and hands results to Sink.
type Poller struct {
	source   Source
	sink     Sink
	interval time.Duration
	timeout  time.Duration
	logger   logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a poller with configuration options.
func New(source Source, sink Sink, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		sink:     sink,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout <= 0 {
		p.timeout = p.interval
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("poller")
	}
	return p
}

// Interval returns the poll period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start launches the poll loop. The first fetch happens one interval after
// Start.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx, p.done)

	p.logger.Info(ctx, "poller started",
		logger.Duration("interval", p.interval),
		logger.Duration("timeout", p.timeout),
	)
	return nil
}

// Stop cancels the loop, including a fetch in flight, and waits for it to
// exit. It is safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll performs one bounded fetch.
func (p *Poller) poll(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	snap, err := p.source.Fetch(tickCtx)
	latency := float64(time.Since(start).Microseconds()) / 1000

	// Stopped while the request was in flight: drop the result quietly.
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		reason := failureReason(err)
		metrics.RecordPollFailure(reason, latency)
		p.logger.Warn(ctx, "game data poll failed",
			logger.String("reason", reason),
			logger.Float64("latency_ms", latency),
			logger.Error(err),
		)
		return
	}

	metrics.RecordPollSuccess(latency)
	// Sources other than the HTTP client hand over unchecked values.
	if !p.sink.Enqueue(ctx, model.NewUpdate(model.SourcePoll, model.Normalize(snap))) {
		metrics.RecordUpdateRejected(metrics.SourcePoll, "queue_closed")
		return
	}
	metrics.RecordUpdateReceived(metrics.SourcePoll)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, gamedata.ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, gamedata.ErrDecode):
		return "decode"
	default:
		return "transport"
	}
}
