package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/overlay/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.PollEnabled, convey.ShouldBeTrue)
			convey.So(cfg.PollURL, convey.ShouldEqual, "http://localhost:8000/api/game-data")
			convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 1000)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 16)
			convey.So(cfg.WSBuffer, convey.ShouldEqual, 4)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the poll timeout follows the interval", func() {
			convey.So(cfg.PollInterval(), convey.ShouldEqual, time.Second)
			convey.So(cfg.PollTimeout(), convey.ShouldEqual, time.Second)

			cfg.PollTimeoutMS = 250
			convey.So(cfg.PollTimeout(), convey.ShouldEqual, 250*time.Millisecond)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"zero interval":     func(c *config.Config) { c.PollIntervalMS = 0 },
			"negative timeout":  func(c *config.Config) { c.PollTimeoutMS = -1 },
			"zero queue":        func(c *config.Config) { c.QueueSize = 0 },
			"zero ws buffer":    func(c *config.Config) { c.WSBuffer = 0 },
			"unknown log level": func(c *config.Config) { c.LogLevel = "loud" },
			"relative poll url": func(c *config.Config) { c.PollURL = "/api/game-data" },
			"ftp poll url":      func(c *config.Config) { c.PollURL = "ftp://localhost/api" },
		}

		for name, mutate := range cases {
			cfg := config.New(context.Background())
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(name, convey.ShouldNotBeEmpty)
		}
	})

	convey.Convey("Given polling disabled", t, func() {
		cfg := config.New(context.Background())
		cfg.PollEnabled = false
		cfg.PollURL = ""

		convey.Convey("Then the poll URL is not checked", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
