// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/overlay/internal/adapters/repository"
	"github.com/okian/overlay/internal/domain/model"
	"github.com/okian/overlay/internal/domain/overlay"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// UpdateGameDataJSON pushes an untrusted snapshot payload.
	UpdateGameDataJSON(ctx context.Context, payload []byte) error

	// Read operations expose the current snapshot and its derived view.
	Current(ctx context.Context) model.MatchSnapshot
	View(ctx context.Context) overlay.View
	Snapshot(ctx context.Context) (uint64, model.MatchSnapshot)

	// Subscribe registers for applied snapshots.
	Subscribe(buffer int) (<-chan repository.Change, func())
}

// Server wires HTTP routes for the overlay API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	gameDataHandler *GameDataHandler
	overlayHandler  *OverlayHandler
	hub             *StreamHub
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...StreamOption) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		gameDataHandler: NewGameDataHandler(deps),
		overlayHandler:  NewOverlayHandler(deps),
		hub:             NewStreamHub(deps, opts...),
	}
}

// Register attaches all HTTP routes to mux and starts the live stream hub.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	s.hub.Start(ctx)

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/game-data", MetricsMiddleware(s.gameDataHandler.HandleGameData, "game_data"))
	mux.HandleFunc("/api/overlay", MetricsMiddleware(s.overlayHandler.HandleView, "overlay"))
	mux.HandleFunc("/ws/overlay", MetricsMiddleware(s.hub.HandleStream, "overlay_stream"))
}

// Close disconnects live stream clients.
func (s *Server) Close() {
	s.hub.Stop()
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, op string, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
}
