package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/creatorhub/creator-hub-api/internal/usecase"
)

// DashboardHandler serves the composed dashboard statistics.
type DashboardHandler struct {
	dashboard usecase.DashboardUsecase
	logger    *zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard usecase.DashboardUsecase, logger *zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// Routes mounts the dashboard endpoint on the router.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Get("/users/{id}/dashboard", h.Stats)
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
