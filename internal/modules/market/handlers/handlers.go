// Package handlers provides HTTP handlers for market data lookups.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// MarketData is the subset of the market data service the handlers use
type MarketData interface {
	Quote(ctx context.Context, symbol string) (*domain.Quote, error)
	Search(ctx context.Context, text string) ([]domain.SearchResult, error)
}

// Handler handles market data HTTP requests
type Handler struct {
	marketData MarketData
	log        zerolog.Logger
}

// NewHandler creates a new market handler
func NewHandler(marketData MarketData, log zerolog.Logger) *Handler {
	return &Handler{
		marketData: marketData,
		log:        log.With().Str("handler", "market").Logger(),
	}
}

// RegisterRoutes registers market routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/quote/{symbol}", h.HandleGetQuote)
		r.Get("/search", h.HandleSearch)
	})
}

// HandleGetQuote handles GET /api/market/quote/{symbol}
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		response.Err(w, h.log, domain.NewValidationError("symbol", "is required"))
		return
	}

	q, err := h.marketData.Quote(r.Context(), symbol)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, q)
}

// HandleSearch handles GET /api/market/search?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.Err(w, h.log, domain.NewValidationError("q", "is required"))
		return
	}

	results, err := h.marketData.Search(r.Context(), q)
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, results)
}
