package server

import (
	"net/http"

	"github.com/aristath/folio/internal/server/response"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, s.log, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "folio",
	})
}
