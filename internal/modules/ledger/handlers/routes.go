package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers ledger routes on a router scoped to /users/{userID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.HandleListTransactions)
		r.Post("/", h.HandleRecordTransaction)
	})

	r.Route("/holdings", func(r chi.Router) {
		r.Get("/", h.HandleListHoldings)
		r.Post("/rebuild", h.HandleRebuildHoldings)
		r.Get("/{symbol}", h.HandleGetHolding)
	})
}
