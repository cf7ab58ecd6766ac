package ledger

import (
	"math"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// totalTolerance is the largest accepted gap between an entered total and quantity*price
const totalTolerance = 0.01

// TransactionInput is a new transaction as submitted by a client
type TransactionInput struct {
	Date                 time.Time              `json:"date"`
	Total                *float64               `json:"total,omitempty"`
	TotalForeignValue    *float64               `json:"total_foreign_value,omitempty"`
	UserID               string                 `json:"-"`
	Symbol               string                 `json:"symbol"`
	Name                 string                 `json:"name,omitempty"`
	Category             domain.Category        `json:"category"`
	Type                 domain.TransactionType `json:"type"`
	Quantity             float64                `json:"quantity"`
	Price                float64                `json:"price"`
	IsDividendReinvested bool                   `json:"is_dividend_reinvested"`
}

// Normalize trims and upper-cases identifiers and resolves legacy category names
func (in TransactionInput) Normalize() TransactionInput {
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	in.Name = strings.TrimSpace(in.Name)
	in.UserID = strings.TrimSpace(in.UserID)
	in.Type = domain.TransactionType(strings.ToUpper(strings.TrimSpace(string(in.Type))))
	if c, err := domain.ParseCategory(string(in.Category)); err == nil {
		in.Category = c
	}
	return in
}

// Validate rejects malformed input before any store interaction
func (in TransactionInput) Validate() error {
	if in.UserID == "" {
		return domain.NewValidationError("user_id", "is required")
	}
	if in.Symbol == "" {
		return domain.NewValidationError("symbol", "is required")
	}
	if !in.Category.Valid() {
		return domain.NewValidationError("category", "unknown category %q", in.Category)
	}
	if !in.Type.Valid() {
		return domain.NewValidationError("type", "must be BUY, SELL or DIVIDEND")
	}
	if in.Date.IsZero() {
		return domain.NewValidationError("date", "is required")
	}
	if in.TotalForeignValue != nil && (*in.TotalForeignValue < 0 || !finite(*in.TotalForeignValue)) {
		return domain.NewValidationError("total_foreign_value", "must not be negative")
	}

	if in.Type == domain.TransactionDividend {
		return in.validateDividend()
	}
	return in.validateTrade()
}

func (in TransactionInput) validateTrade() error {
	if in.Quantity <= 0 || !finite(in.Quantity) {
		return domain.NewValidationError("quantity", "must be positive")
	}
	if in.Price <= 0 || !finite(in.Price) {
		return domain.NewValidationError("price", "must be positive")
	}
	if in.Category.WholeShares() && math.Floor(in.Quantity) < 1 {
		return domain.NewValidationError("quantity", "must be at least one whole share for %s", in.Category)
	}
	if in.Total != nil {
		expected := in.Quantity * in.Price
		if math.Abs(*in.Total-expected) > totalTolerance && !domain.NearlyEqual(*in.Total, expected) {
			return domain.NewValidationError("total", "%.2f does not match quantity × price (%.2f)", *in.Total, expected)
		}
	}
	return nil
}

func (in TransactionInput) validateDividend() error {
	if in.Total == nil || *in.Total <= 0 || !finite(*in.Total) {
		return domain.NewValidationError("total", "dividend amount must be positive")
	}
	if in.Quantity != 0 {
		return domain.NewValidationError("quantity", "must be empty for dividends")
	}
	if in.Price < 0 || !finite(in.Price) {
		return domain.NewValidationError("price", "must not be negative")
	}
	return nil
}

// ToTransaction builds the immutable transaction record
func (in TransactionInput) ToTransaction(id string, now time.Time) domain.Transaction {
	tx := domain.Transaction{
		ID:                   id,
		UserID:               in.UserID,
		Symbol:               in.Symbol,
		Name:                 in.Name,
		Category:             in.Category,
		Type:                 in.Type,
		Quantity:             in.Quantity,
		Price:                in.Price,
		Date:                 in.Date.UTC(),
		IsDividendReinvested: in.IsDividendReinvested && in.Type == domain.TransactionDividend,
		TotalForeignValue:    in.TotalForeignValue,
		CreatedAt:            now.UTC(),
	}

	switch {
	case in.Type == domain.TransactionDividend:
		tx.Quantity = 0
		tx.Total = *in.Total
	default:
		tx.Total = in.Quantity * in.Price
	}

	return tx
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
