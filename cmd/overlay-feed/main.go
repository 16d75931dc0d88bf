package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/overlay/internal/feed"
	"github.com/okian/overlay/pkg/logger"
)

func main() {
	var (
		mode      = flag.String("mode", string(feed.ModePush), "push or serve")
		baseURL   = flag.String("url", feed.DefaultBaseURL, "Base URL of the overlay service")
		addr      = flag.String("addr", feed.DefaultAddr, "Listen address of the game data endpoint")
		interval  = flag.Duration("interval", feed.DefaultInterval, "Time between snapshots")
		ticks     = flag.Int("ticks", 0, "Number of snapshots to generate; 0 runs until interrupted")
		timeout   = flag.Duration("timeout", feed.DefaultTimeout, "HTTP request timeout")
		seed      = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		failEvery = flag.Int("fail-every", 0, "Serve mode: answer every Nth poll with 503")
		verbose   = flag.Bool("verbose", false, "Log every snapshot")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		feed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &feed.Config{
		Mode:      feed.Mode(*mode),
		BaseURL:   *baseURL,
		Addr:      *addr,
		Interval:  *interval,
		Ticks:     *ticks,
		Timeout:   *timeout,
		Seed:      *seed,
		FailEvery: *failEvery,
	}

	if _, err := feed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "feed failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
