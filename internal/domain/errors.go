package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input. It is raised before any store interaction.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InsufficientQuantityError reports a SELL beyond the owned quantity, or a
// SELL/DIVIDEND on a symbol that is not owned at all.
type InsufficientQuantityError struct {
	Symbol    string
	Held      float64
	Requested float64
	Owned     bool
}

func (e *InsufficientQuantityError) Error() string {
	if !e.Owned {
		return fmt.Sprintf("cannot use %s: asset is not owned", e.Symbol)
	}
	return fmt.Sprintf("insufficient quantity of %s: held %g, requested %g", e.Symbol, e.Held, e.Requested)
}

// ConcurrencyConflictError reports that a concurrent write changed the holding
// between read and write of an atomic unit.
type ConcurrencyConflictError struct {
	Symbol string
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Symbol == "" {
		return "concurrent ledger update detected, please retry"
	}
	return fmt.Sprintf("concurrent update detected for %s, please retry", e.Symbol)
}

// MarketDataUnavailableError reports that neither the provider nor any cache
// could supply the requested market data.
type MarketDataUnavailableError struct {
	Symbol string
	Err    error
}

func (e *MarketDataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("market data unavailable for %s", e.Symbol)
	}
	return fmt.Sprintf("market data unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *MarketDataUnavailableError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err is a ConcurrencyConflictError
func IsConflict(err error) bool {
	var conflict *ConcurrencyConflictError
	return errors.As(err, &conflict)
}
