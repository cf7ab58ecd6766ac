// Package handlers provides HTTP handlers for portfolio valuation.
package handlers

import (
	"net/http"

	"github.com/aristath/folio/internal/modules/valuation"
	"github.com/aristath/folio/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles valuation HTTP requests
type Handler struct {
	service *valuation.Service
	log     zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(service *valuation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "valuation").Logger(),
	}
}

// RegisterRoutes registers valuation routes on a router scoped to /users/{userID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio", h.HandleGetPortfolio)
}

// HandleGetPortfolio handles GET /api/users/{userID}/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.service.Portfolio(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	response.Data(w, h.log, http.StatusOK, portfolio)
}
