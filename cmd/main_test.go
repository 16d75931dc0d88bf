package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/overlay/internal/adapters/http/api"
	"github.com/okian/overlay/internal/adapters/http/swagger"
	app "github.com/okian/overlay/internal/app"
	"github.com/okian/overlay/internal/config"
	"github.com/okian/overlay/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("OVERLAY_ADDR", ":8080")
			t.Setenv("OVERLAY_QUEUE_SIZE", "32")
			t.Setenv("OVERLAY_POLL_INTERVAL_MS", "250")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 32)
				convey.So(cfg.PollInterval(), convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.PollTimeout(), convey.ShouldEqual, 250*time.Millisecond)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithQueueSize(8),
					app.WithPolling(false),
					app.WithPollInterval(500*time.Millisecond),
				)
				convey.So(svc, convey.ShouldNotBeNil)
				convey.So(svc.GetStats()["pollEnabled"], convey.ShouldEqual, false)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When running the system metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns once the context ends", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When running the service metrics updater", func() {
			svc := app.New(app.WithPolling(false))
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns once the context ends", func() {
				convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When sampling metrics directly", func() {
			svc := app.New(app.WithPolling(false))

			convey.Convey("Then neither update panics", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given the wired application", t, func() {
		ctx := context.Background()

		svc := app.New(app.WithPolling(false))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		swagger.Register(ctx, mux)
		apiServer := api.NewServer(svc, svc)
		apiServer.Register(ctx, mux)
		defer apiServer.Close()

		ts := httptest.NewServer(mux)
		defer ts.Close()

		convey.Convey("When a snapshot is pushed", func() {
			body := `{"orderTeam":{"gold":15000,"cs":300},"chaosTeam":{"gold":5000,"cs":100}}`
			resp, err := http.Post(ts.URL+"/api/game-data", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)

			convey.Convey("Then the overlay view reflects it", func() {
				deadline := time.Now().Add(2 * time.Second)
				for svc.Revision(ctx) == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				view := svc.View(ctx)
				convey.So(view.Order.GoldShare, convey.ShouldEqual, 75.0)
				convey.So(view.Order.GoldK, convey.ShouldEqual, "15.0k")
			})
		})

		convey.Convey("When the docs are requested", func() {
			resp, err := http.Get(ts.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then the document is served", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When the listen address is empty", func() {
			t.Setenv("OVERLAY_ADDR", "")

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			t.Setenv("OVERLAY_CONFIG", os.TempDir()+"/does-not-exist.yaml")

			convey.Convey("Then configuration loading should fail", func() {
				_, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When options carry zero values", func() {
			svc := app.New(
				app.WithQueueSize(0),
				app.WithPollInterval(0),
			)

			convey.Convey("Then the defaults are kept", func() {
				stats := svc.GetStats()
				convey.So(stats["queueSize"], convey.ShouldEqual, 16)
				convey.So(stats["pollIntervalMs"], convey.ShouldEqual, int64(1000))
			})
		})
	})
}
