// Package handlers provides HTTP handlers for the income calendar and the investment log.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/income"
	"github.com/aristath/folio/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles income HTTP requests
type Handler struct {
	service *income.Service
	log     zerolog.Logger
}

// NewHandler creates a new income handler
func NewHandler(service *income.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "income").Logger(),
	}
}

// RegisterRoutes registers income routes on a router scoped to /users/{userID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/income", func(r chi.Router) {
		r.Get("/", h.HandleListIncome)
		r.Post("/", h.HandleAddIncome)
		r.Get("/matrix", h.HandleIncomeMatrix)
		r.Delete("/{id}", h.HandleDeleteIncome)
	})
	r.Get("/investments/matrix", h.HandleInvestmentMatrix)
}

// HandleListIncome handles GET /api/users/{userID}/income?year=
func (h *Handler) HandleListIncome(w http.ResponseWriter, r *http.Request) {
	var year int
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			response.Err(w, h.log, domain.NewValidationError("year", "must be an integer"))
			return
		}
		year = y
	}

	records, err := h.service.ListRecords(r.Context(), chi.URLParam(r, "userID"), year)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, records)
}

// HandleAddIncome handles POST /api/users/{userID}/income
func (h *Handler) HandleAddIncome(w http.ResponseWriter, r *http.Request) {
	var in income.RecordInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Err(w, h.log, err)
		return
	}

	rec, err := h.service.AddRecord(r.Context(), chi.URLParam(r, "userID"), in)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusCreated, rec)
}

// HandleDeleteIncome handles DELETE /api/users/{userID}/income/{id}
func (h *Handler) HandleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRecord(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "id")); err != nil {
		response.Err(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleIncomeMatrix handles GET /api/users/{userID}/income/matrix?currency=TRY|USD
func (h *Handler) HandleIncomeMatrix(w http.ResponseWriter, r *http.Request) {
	currency, err := income.ParseCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	view, err := h.service.IncomeMatrix(r.Context(), chi.URLParam(r, "userID"), currency)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, view)
}

// HandleInvestmentMatrix handles GET /api/users/{userID}/investments/matrix?currency=TRY|USD
func (h *Handler) HandleInvestmentMatrix(w http.ResponseWriter, r *http.Request) {
	currency, err := income.ParseCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	view, err := h.service.InvestmentMatrix(r.Context(), chi.URLParam(r, "userID"), currency)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, view)
}
