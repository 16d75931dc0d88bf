package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/okian/overlay/internal/domain/model"
)

const maxPayloadBytes = 1 << 20

// GameDataDependencies defines what the game data endpoint needs.
type GameDataDependencies interface {
	UpdateGameDataJSON(ctx context.Context, payload []byte) error
	Current(ctx context.Context) model.MatchSnapshot
}

// GameDataHandler serves the push channel and the raw snapshot.
type GameDataHandler struct {
	deps GameDataDependencies
}

// NewGameDataHandler creates a new game data handler.
func NewGameDataHandler(deps GameDataDependencies) *GameDataHandler {
	return &GameDataHandler{deps: deps}
}

// HandleGameData handles GET and POST /api/game-data.
//
// GET returns the current snapshot in the same shape the poll endpoint
// serves, so one overlay instance can act as the poll source of another.
func (h *GameDataHandler) HandleGameData(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Current(r.Context()))
	case http.MethodPost:
		h.handlePush(w, r)
	default:
		methodNotAllowed(w, "api.game_data", "GET, POST")
	}
}

func (h *GameDataHandler) handlePush(w http.ResponseWriter, r *http.Request) {
	const op = "api.push_game_data"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.UpdateGameDataJSON(r.Context(), body); err != nil {
		if errors.Is(err, model.ErrMalformedSnapshot) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		// Not queued: the request ended or the service is stopping.
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
