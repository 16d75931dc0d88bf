// Package gamedata reads match snapshots from the game data API.
package gamedata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/overlay/internal/domain/model"
)

const (
	// DefaultURL is the local game data endpoint.
	DefaultURL = "http://localhost:8000/api/game-data"

	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client fetches the current snapshot over HTTP. It does not log; callers
// decide how failures are reported.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for url with configuration options.
func NewClient(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint being polled.
func (c *Client) URL() string {
	return c.url
}

// Fetch performs one GET and decodes the body as a snapshot.
func (c *Client) Fetch(ctx context.Context) (model.MatchSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return model.MatchSnapshot{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.MatchSnapshot{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return model.MatchSnapshot{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.MatchSnapshot{}, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	snap, err := model.DecodeSnapshot(body)
	if err != nil {
		return model.MatchSnapshot{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return snap, nil
}
