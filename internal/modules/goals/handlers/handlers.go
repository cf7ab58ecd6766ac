// Package handlers provides HTTP handlers for savings goals.
package handlers

import (
	"net/http"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/goals"
	"github.com/aristath/folio/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles goal HTTP requests
type Handler struct {
	service *goals.Service
	log     zerolog.Logger
}

// NewHandler creates a new goal handler
func NewHandler(service *goals.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "goals").Logger(),
	}
}

// RegisterRoutes registers goal routes on a router scoped to /users/{userID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/goals", func(r chi.Router) {
		r.Get("/", h.HandleListGoals)
		r.Put("/", h.HandleSetGoal)
		r.Get("/progress", h.HandleGetProgress)
		r.Delete("/{category}", h.HandleDeleteGoal)
	})
}

// HandleListGoals handles GET /api/users/{userID}/goals
func (h *Handler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListGoals(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, list)
}

// HandleSetGoal handles PUT /api/users/{userID}/goals
func (h *Handler) HandleSetGoal(w http.ResponseWriter, r *http.Request) {
	var in goals.GoalInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Err(w, h.log, err)
		return
	}

	g, err := h.service.SetGoal(r.Context(), chi.URLParam(r, "userID"), in)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, g)
}

// HandleDeleteGoal handles DELETE /api/users/{userID}/goals/{category}
func (h *Handler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	category := domain.GoalCategory(chi.URLParam(r, "category"))
	if err := h.service.DeleteGoal(r.Context(), chi.URLParam(r, "userID"), category); err != nil {
		response.Err(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetProgress handles GET /api/users/{userID}/goals/progress
func (h *Handler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Progress(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, report)
}
