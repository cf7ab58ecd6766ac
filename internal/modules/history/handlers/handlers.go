// Package handlers provides HTTP handlers for portfolio history.
package handlers

import (
	"net/http"

	"github.com/aristath/folio/internal/modules/history"
	"github.com/aristath/folio/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles history HTTP requests
type Handler struct {
	service *history.Service
	log     zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(service *history.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "history").Logger(),
	}
}

// RegisterRoutes registers history routes on a router scoped to /users/{userID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.HandleGetHistory)
}

// HandleGetHistory handles GET /api/users/{userID}/history?range=1M
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	preset, err := history.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	result, err := h.service.History(r.Context(), chi.URLParam(r, "userID"), preset)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	response.Data(w, h.log, http.StatusOK, result)
}
