// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleRecordTransaction handles POST /api/users/{userID}/transactions
func (h *Handler) HandleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.TransactionInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Err(w, h.log, err)
		return
	}
	in.UserID = chi.URLParam(r, "userID")

	result, err := h.service.RecordTransaction(r.Context(), in)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	response.Data(w, h.log, http.StatusCreated, map[string]interface{}{
		"transaction":     result.Transaction,
		"holding":         result.Holding,
		"holding_deleted": result.Deleted,
		"income_records":  result.SideEffects,
	})
}

// HandleListTransactions handles GET /api/users/{userID}/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := ledger.TransactionQuery{
		Category: domain.Category(strings.TrimSpace(r.URL.Query().Get("category"))),
		Cursor:   r.URL.Query().Get("cursor"),
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			response.Err(w, h.log, domain.NewValidationError("limit", "must be an integer"))
			return
		}
		q.Limit = limit
	}

	page, err := h.service.ListTransactions(r.Context(), chi.URLParam(r, "userID"), q)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	response.Data(w, h.log, http.StatusOK, page)
}

// HandleListHoldings handles GET /api/users/{userID}/holdings
func (h *Handler) HandleListHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.ListHoldings(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	response.Data(w, h.log, http.StatusOK, holdings)
}

// HandleGetHolding handles GET /api/users/{userID}/holdings/{symbol}
func (h *Handler) HandleGetHolding(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	holding, err := h.service.GetHolding(r.Context(), chi.URLParam(r, "userID"), symbol)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	response.Data(w, h.log, http.StatusOK, holding)
}

// HandleRebuildHoldings handles POST /api/users/{userID}/holdings/rebuild
func (h *Handler) HandleRebuildHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.RebuildHoldings(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		response.Err(w, h.log, err)
		return
	}

	response.Data(w, h.log, http.StatusOK, holdings)
}
