package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/okian/overlay/internal/domain/model"
)

// ErrUnexpectedStatus is returned by Pusher.Push when the service does not
// accept a snapshot.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Pusher posts snapshots to an overlay service.
type Pusher struct {
	client *http.Client
	url    string
}

// NewPusher creates a Pusher for the service at baseURL.
func NewPusher(baseURL string, client *http.Client) *Pusher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Pusher{client: client, url: baseURL + gameDataPath}
}

// Push sends one snapshot. Anything but 202 Accepted is an error.
func (p *Pusher) Push(ctx context.Context, snap model.MatchSnapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push snapshot: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// Endpoint serves the latest generated snapshot the way a game client's
// local data endpoint does.
type Endpoint struct {
	mu        sync.RWMutex
	body      []byte
	failEvery int
	requests  atomic.Int64
	refused   atomic.Int64
}

// NewEndpoint creates an Endpoint that answers every failEvery-th request
// with 503. A failEvery of 0 never fails.
func NewEndpoint(initial model.MatchSnapshot, failEvery int) (*Endpoint, error) {
	e := &Endpoint{failEvery: failEvery}
	if err := e.Set(initial); err != nil {
		return nil, err
	}
	return e, nil
}

// Set replaces the snapshot served from now on.
func (e *Endpoint) Set(snap model.MatchSnapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	e.mu.Lock()
	e.body = body
	e.mu.Unlock()
	return nil
}

// Requests returns how many requests were served, refused ones included.
func (e *Endpoint) Requests() int { return int(e.requests.Load()) }

// Refused returns how many requests were answered with 503.
func (e *Endpoint) Refused() int { return int(e.refused.Load()) }

// ServeHTTP implements http.Handler.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n := e.requests.Add(1)
	if e.failEvery > 0 && n%int64(e.failEvery) == 0 {
		e.refused.Add(1)
		http.Error(w, "game data unavailable", http.StatusServiceUnavailable)
		return
	}

	e.mu.RLock()
	body := e.body
	e.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
