// Package response writes the JSON envelopes shared by all HTTP handlers.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

// Envelope wraps every successful response
type Envelope struct {
	Data     interface{}            `json:"data"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ErrorBody is the payload of every failed response
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// JSON writes data as-is with the given status
func JSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Data writes data inside the standard envelope
func Data(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	JSON(w, log, status, Envelope{
		Data: data,
		Metadata: map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// Error writes a plain error message
func Error(w http.ResponseWriter, log zerolog.Logger, status int, message string) {
	JSON(w, log, status, ErrorBody{Error: message})
}

// Err maps a domain error to its HTTP status and writes it.
// Unknown errors are logged and reported as 500 without their detail.
func Err(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := StatusFor(err)
	body := ErrorBody{Error: err.Error()}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		body.Field = validation.Field
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		body.Error = "internal server error"
	}

	JSON(w, log, status, body)
}

// StatusFor returns the HTTP status matching an error
func StatusFor(err error) int {
	var (
		validation   *domain.ValidationError
		insufficient *domain.InsufficientQuantityError
		conflict     *domain.ConcurrencyConflictError
		unavailable  *domain.MarketDataUnavailableError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("", "malformed request body: %v", err)
	}
	return nil
}
