package service

import (
	"time"

	"github.com/okian/overlay/internal/adapters/poller"
	"github.com/okian/overlay/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize bounds the number of pending updates.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPolling enables or disables the poll channel.
func WithPolling(enabled bool) Option {
	return func(s *Service) { s.pollEnabled = enabled }
}

// WithPollURL sets the game data endpoint.
func WithPollURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.pollURL = url
		}
	}
}

// WithPollInterval sets the poll period.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithPollTimeout bounds each poll request. Defaults to the interval.
func WithPollTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.pollTimeout = timeout
		}
	}
}

// WithPollSource replaces the HTTP game data client.
func WithPollSource(source poller.Source) Option {
	return func(s *Service) {
		if source != nil {
			s.source = source
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
