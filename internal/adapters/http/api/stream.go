package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/overlay/internal/adapters/repository"
	"github.com/okian/overlay/internal/domain/model"
	"github.com/okian/overlay/internal/domain/overlay"
	"github.com/okian/overlay/pkg/logger"
	"github.com/okian/overlay/pkg/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = time.Minute

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Viewers only send control frames.
	maxMessageSize = 512

	defaultViewerBuffer = 4
)

// StreamDependencies defines what the live stream needs.
type StreamDependencies interface {
	Snapshot(ctx context.Context) (uint64, model.MatchSnapshot)
	Subscribe(buffer int) (<-chan repository.Change, func())
}

// StreamOption applies a configuration option to the StreamHub.
type StreamOption func(*StreamHub)

// WithViewerBuffer sets how many views may wait for a slow viewer.
func WithViewerBuffer(size int) StreamOption {
	return func(h *StreamHub) {
		if size > 0 {
			h.buffer = size
		}
	}
}

// WithStreamLogger sets a custom logger for the hub.
func WithStreamLogger(l logger.Logger) StreamOption {
	return func(h *StreamHub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithCheckOrigin overrides the websocket origin check. By default every
// origin is accepted since overlays are loaded from local browser sources.
func WithCheckOrigin(check func(r *http.Request) bool) StreamOption {
	return func(h *StreamHub) {
		if check != nil {
			h.upgrader.CheckOrigin = check
		}
	}
}

// streamMessage is one frame of the live stream.
type streamMessage struct {
	Revision uint64       `json:"revision"`
	View     overlay.View `json:"view"`
}

// StreamHub fans the derived view out to websocket viewers after every
// applied snapshot.
type StreamHub struct {
	deps     StreamDependencies
	upgrader websocket.Upgrader
	buffer   int
	logger   logger.Logger

	mu      sync.Mutex
	viewers map[*viewer]struct{}
	stopped bool

	cancel func()
	done   chan struct{}
}

// NewStreamHub creates a hub with configuration options.
func NewStreamHub(deps StreamDependencies, opts ...StreamOption) *StreamHub {
	h := &StreamHub{
		deps:    deps,
		buffer:  defaultViewerBuffer,
		viewers: make(map[*viewer]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("stream")
	}
	return h
}

// Start subscribes to snapshot changes. It is a no-op when already started.
func (h *StreamHub) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil || h.stopped {
		return
	}

	changes, cancel := h.deps.Subscribe(1)
	h.cancel = cancel
	h.done = make(chan struct{})
	go h.run(ctx, changes, h.done)
}

// Stop ends the subscription and disconnects every viewer.
func (h *StreamHub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	cancel, done := h.cancel, h.done
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	h.dropAll()
}

// Viewers returns the number of connected viewers.
func (h *StreamHub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

func (h *StreamHub) run(ctx context.Context, changes <-chan repository.Change, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				// Store closed: nothing more will be published.
				h.dropAll()
				return
			}
			msg, err := json.Marshal(streamMessage{Revision: c.Revision, View: overlay.BuildView(c.Snapshot)})
			if err != nil {
				h.logger.Error(ctx, "encode view failed", logger.Error(err))
				continue
			}
			h.broadcast(msg)
		}
	}
}

// broadcast queues msg for every viewer. A viewer whose buffer is full
// loses its oldest pending view.
func (h *StreamHub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		select {
		case v.send <- msg:
			continue
		default:
		}
		select {
		case <-v.send:
			metrics.RecordStreamDropped()
		default:
		}
		select {
		case v.send <- msg:
		default:
		}
	}
}

// HandleStream handles GET /ws/overlay. The current view is sent as soon as
// the connection opens.
func (h *StreamHub) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if stopped {
		writeError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Debug(ctx, "websocket upgrade failed", logger.Error(err))
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, h.buffer)}
	if !h.join(ctx, v) {
		_ = conn.Close()
		return
	}

	go v.writePump()
	v.readPump()
	h.leave(v)
}

// join registers v and queues the current view. Both happen under the hub
// lock so a concurrent broadcast is either included in the first frame or
// delivered after it.
func (h *StreamHub) join(ctx context.Context, v *viewer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	rev, snap := h.deps.Snapshot(ctx)
	first, err := json.Marshal(streamMessage{Revision: rev, View: overlay.BuildView(snap)})
	if err != nil {
		h.logger.Error(ctx, "encode view failed", logger.Error(err))
		return false
	}
	v.send <- first
	h.viewers[v] = struct{}{}
	metrics.UpdateStreamClients(len(h.viewers))
	return true
}

func (h *StreamHub) leave(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; ok {
		delete(h.viewers, v)
		close(v.send)
		metrics.UpdateStreamClients(len(h.viewers))
	}
}

func (h *StreamHub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		delete(h.viewers, v)
		close(v.send)
	}
	metrics.UpdateStreamClients(0)
}

// viewer is one websocket connection.
type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// readPump discards client frames and returns when the connection ends.
func (v *viewer) readPump() {
	v.conn.SetReadLimit(maxMessageSize)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump owns all writes to the connection.
func (v *viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = v.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			metrics.RecordStreamMessage()
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
