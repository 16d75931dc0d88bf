package api

import (
	"context"
	"net/http"

	"github.com/okian/overlay/internal/domain/overlay"
)

// ViewProvider returns the derived overlay view.
type ViewProvider interface {
	View(ctx context.Context) overlay.View
}

// OverlayHandler serves the derived view.
type OverlayHandler struct {
	views ViewProvider
}

// NewOverlayHandler creates a new overlay handler.
func NewOverlayHandler(views ViewProvider) *OverlayHandler {
	return &OverlayHandler{views: views}
}

// HandleView handles GET /api/overlay.
func (h *OverlayHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "api.overlay_view", "GET")
		return
	}
	writeJSON(w, http.StatusOK, h.views.View(r.Context()))
}
