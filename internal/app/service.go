// Package service wires the snapshot store, the refresh channels and the
// derived view into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/overlay/internal/adapters/gamedata"
	"github.com/okian/overlay/internal/adapters/mq/queue"
	"github.com/okian/overlay/internal/adapters/mq/worker"
	"github.com/okian/overlay/internal/adapters/poller"
	"github.com/okian/overlay/internal/adapters/repository"
	"github.com/okian/overlay/internal/domain/model"
	"github.com/okian/overlay/internal/domain/overlay"
	"github.com/okian/overlay/pkg/logger"
	"github.com/okian/overlay/pkg/metrics"
)

const (
	defaultQueueSize      = 16
	defaultPollInterval   = time.Second
	workerShutdownTimeout = 5 * time.Second
)

var (
	// ErrMalformedPayload is returned by UpdateGameDataJSON for a payload that
	// is not a JSON object.
	ErrMalformedPayload = errors.New("malformed game data payload")

	// ErrUpdateRejected is returned when a push could not be queued because
	// its context ended or the service is stopping.
	ErrUpdateRejected = errors.New("game data update rejected")
)

// Service holds the current match snapshot and keeps it fresh from the push
// and poll channels.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  *repository.SnapshotStore
	queue  *queue.InMemoryQueue
	worker *worker.InMemoryWorker
	poller *poller.Poller
	source poller.Source

	// Configuration
	queueSize    int
	pollEnabled  bool
	pollURL      string
	pollInterval time.Duration
	pollTimeout  time.Duration

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. The store is ready immediately and holds the
// default snapshot until the first update is applied.
func New(opts ...Option) *Service {
	s := &Service{
		store:        repository.NewSnapshotStore(),
		queueSize:    defaultQueueSize,
		pollEnabled:  true,
		pollURL:      gamedata.DefaultURL,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the applier and, when enabled, the poll channel.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting overlay service...")

	// Components outlive the caller's context; Stop ends them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	// A previous Stop ended every subscription; accept new ones again.
	s.store.Reopen()

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s.store,
		worker.WithName("applier"),
		worker.WithLogger(s.logger.Named("applier")),
	)
	go s.worker.Run(runCtx)

	if s.pollEnabled {
		source := s.source
		if source == nil {
			source = gamedata.NewClient(s.pollURL, gamedata.WithTimeout(s.effectivePollTimeout()))
		}
		s.poller = poller.New(source, s.queue,
			poller.WithInterval(s.pollInterval),
			poller.WithTimeout(s.pollTimeout),
			poller.WithLogger(s.logger.Named("poller")),
		)
		if err := s.poller.Start(runCtx); err != nil {
			cancel()
			return fmt.Errorf("start poller: %w", err)
		}
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "overlay service started",
		logger.Int("queueSize", s.queueSize),
		logger.Any("pollEnabled", s.pollEnabled),
		logger.String("pollURL", s.pollURL),
		logger.Duration("pollInterval", s.pollInterval),
	)
	return nil
}

// Stop releases the poll timer, drains pending pushes and ends live
// subscriptions. A fetch still in flight is discarded.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping overlay service...")

	if s.poller != nil {
		s.poller.Stop()
		s.poller = nil
	}

	_ = s.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "applier did not drain", logger.Error(err))
	}
	cancel()
	s.cancel()

	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "overlay service stopped")
}

// UpdateGameData is the push channel: snap replaces the current snapshot
// wholesale. Counts are clamped the same way decoded payloads are. Pushes
// are never deduplicated or rate limited.
func (s *Service) UpdateGameData(ctx context.Context, snap model.MatchSnapshot) error {
	return s.push(ctx, model.Normalize(snap))
}

// UpdateGameDataJSON decodes an untrusted payload and pushes it.
func (s *Service) UpdateGameDataJSON(ctx context.Context, payload []byte) error {
	snap, err := model.DecodeSnapshot(payload)
	if err != nil {
		metrics.RecordUpdateRejected(metrics.SourcePush, "malformed")
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return s.push(ctx, snap)
}

func (s *Service) push(ctx context.Context, snap model.MatchSnapshot) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Without a running applier the caller is the only writer.
	if !s.started {
		rev := s.store.Apply(ctx, snap)
		metrics.RecordUpdateApplied(metrics.SourcePush, rev, 0)
		return nil
	}
	if !s.queue.Enqueue(ctx, model.NewUpdate(model.SourcePush, snap)) {
		metrics.RecordUpdateRejected(metrics.SourcePush, "canceled")
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrUpdateRejected, err)
		}
		return ErrUpdateRejected
	}
	metrics.RecordUpdateReceived(metrics.SourcePush)
	return nil
}

// Current returns the latest snapshot. It never fails.
func (s *Service) Current(ctx context.Context) model.MatchSnapshot {
	return s.store.Current(ctx)
}

// View returns the derived presentation of the latest snapshot.
func (s *Service) View(ctx context.Context) overlay.View {
	return overlay.BuildView(s.store.Current(ctx))
}

// Snapshot returns the latest snapshot with its revision in one read.
func (s *Service) Snapshot(ctx context.Context) (uint64, model.MatchSnapshot) {
	return s.store.Snapshot(ctx)
}

// Revision returns how many snapshots have been applied.
func (s *Service) Revision(ctx context.Context) uint64 {
	return s.store.Revision(ctx)
}

// Subscribe registers for applied snapshots.
func (s *Service) Subscribe(buffer int) (<-chan repository.Change, func()) {
	return s.store.Subscribe(buffer)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"queueSize":      s.queueSize,
		"pollEnabled":    s.pollEnabled,
		"pollURL":        s.pollURL,
		"pollIntervalMs": s.pollInterval.Milliseconds(),
		"revision":       s.store.Revision(ctx),
		"subscribers":    s.store.Subscribers(),
	}
	if updated := s.store.UpdatedAt(ctx); !updated.IsZero() {
		stats["lastUpdate"] = updated.UTC().Format(time.RFC3339Nano)
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}

func (s *Service) effectivePollTimeout() time.Duration {
	if s.pollTimeout > 0 {
		return s.pollTimeout
	}
	return s.pollInterval
}
