package income

import (
	"math"
	"strings"

	"github.com/aristath/folio/internal/domain"
)

// RecordInput is an income record as submitted by a client
type RecordInput struct {
	AmountForeign *float64 `json:"amount_foreign,omitempty"`
	Category      string   `json:"category"`
	Description   string   `json:"description,omitempty"`
	Company       string   `json:"company,omitempty"`
	Year          int      `json:"year"`
	Month         int      `json:"month"`
	Amount        float64  `json:"amount"`
}

// Validate checks the record bounds
func (in RecordInput) Validate() error {
	if in.Year < 2000 || in.Year > 2100 {
		return domain.NewValidationError("year", "must be between 2000 and 2100")
	}
	if in.Month < 0 || in.Month > 11 {
		return domain.NewValidationError("month", "must be between 0 and 11")
	}
	if !positive(in.Amount) {
		return domain.NewValidationError("amount", "must be positive")
	}
	if in.AmountForeign != nil && !positive(*in.AmountForeign) {
		return domain.NewValidationError("amount_foreign", "must be positive when set")
	}
	if strings.TrimSpace(in.Category) == "" {
		return domain.NewValidationError("category", "is required")
	}
	return nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
