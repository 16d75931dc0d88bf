// Package feed generates a synthetic match and delivers it to the overlay
// service, either by pushing snapshots or by serving them for polling.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/okian/overlay/pkg/logger"
)

// ErrUnknownMode is returned by Run for a mode other than push or serve.
var ErrUnknownMode = errors.New("unknown feed mode")

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Run executes a feed until the configured ticks are spent or ctx ends.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting overlay feed",
		logger.String("mode", string(cfg.Mode)),
		logger.String("baseURL", cfg.BaseURL),
		logger.String("addr", cfg.Addr),
		logger.Duration("interval", cfg.Interval),
		logger.Int("ticks", cfg.Ticks),
		logger.Uint64("seed", cfg.Seed))

	var err error
	switch cfg.Mode {
	case ModePush:
		err = runPush(ctx, cfg, stats)
	case ModeServe:
		err = runServe(ctx, cfg, stats)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)
	return stats, err
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModePush
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}

// runPush posts a new snapshot every interval. A failed push is logged and
// counted; the feed carries on with the next tick.
func runPush(ctx context.Context, cfg *Config, stats *Stats) error {
	gen := NewGenerator(cfg.Seed)
	pusher := NewPusher(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})

	return everyTick(ctx, cfg, func() {
		snap := gen.Next()
		stats.Generated++
		if err := pusher.Push(ctx, snap); err != nil {
			if ctx.Err() != nil {
				return
			}
			stats.Failed++
			logger.Get().Warn(ctx, "push failed", logger.Int("tick", gen.Tick()), logger.Error(err))
			return
		}
		stats.Pushed++
		logger.Get().Debug(ctx, "pushed snapshot", logger.Int("tick", gen.Tick()))
	})
}

// runServe listens on cfg.Addr and advances the served snapshot every
// interval.
func runServe(ctx context.Context, cfg *Config, stats *Stats) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	return serve(ctx, ln, cfg, stats)
}

func serve(ctx context.Context, ln net.Listener, cfg *Config, stats *Stats) error {
	gen := NewGenerator(cfg.Seed)
	endpoint, err := NewEndpoint(gen.Snapshot(), cfg.FailEvery)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(gameDataPath, endpoint)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	serveErr := make(chan error, 1)
	go func() {
		logger.Get().Info(ctx, "serving game data", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := <-serveErr; err != nil {
			logger.Get().Error(ctx, "game data server failed", logger.Error(err))
		}
		cancel()
	}()

	err = everyTick(runCtx, cfg, func() {
		if err := endpoint.Set(gen.Next()); err != nil {
			logger.Get().Warn(ctx, "failed to update served snapshot", logger.Error(err))
			return
		}
		stats.Generated++
	})

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Get().Warn(ctx, "game data server shutdown failed", logger.Error(shutdownErr))
	}

	stats.Served = endpoint.Requests()
	stats.Refused = endpoint.Refused()
	return err
}

// everyTick calls fn once per interval until cfg.Ticks calls were made or
// ctx ends. Cancellation is a normal stop and is not reported as an error.
func everyTick(ctx context.Context, cfg *Config, fn func()) error {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for n := 0; cfg.Ticks == 0 || n < cfg.Ticks; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
	return nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("pushed", stats.Pushed),
		logger.Int("failed", stats.Failed),
		logger.Int("served", stats.Served),
		logger.Int("refused", stats.Refused),
		logger.Duration("duration", stats.Duration))
}
