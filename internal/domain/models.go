// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyUSD Currency = "USD"
)

// Category is the structural asset category of a holding
type Category string

const (
	// CategoryLocalEquity covers the local equity index (priced in TRY)
	CategoryLocalEquity Category = "LOCAL_EQUITY"
	// CategoryForeignEquity covers foreign equities (priced in USD)
	CategoryForeignEquity Category = "FOREIGN_EQUITY"
	// CategoryPreciousMetal covers gold, silver and similar (priced in TRY, fractional quantities)
	CategoryPreciousMetal Category = "PRECIOUS_METAL"
)

// AllCategories lists categories in display order
var AllCategories = []Category{
	CategoryLocalEquity,
	CategoryForeignEquity,
	CategoryPreciousMetal,
}

// legacyCategories maps the category names used by older exports
var legacyCategories = map[string]Category{
	"BIST100":         CategoryLocalEquity,
	"US_MARKETS":      CategoryForeignEquity,
	"PRECIOUS_METALS": CategoryPreciousMetal,
}

// ParseCategory parses a category name, accepting legacy aliases
func ParseCategory(s string) (Category, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if c := Category(name); c.Valid() {
		return c, nil
	}
	if c, ok := legacyCategories[name]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryLocalEquity, CategoryForeignEquity, CategoryPreciousMetal:
		return true
	}
	return false
}

// Currency returns the native currency of the category
func (c Category) Currency() Currency {
	if c == CategoryForeignEquity {
		return CurrencyUSD
	}
	return CurrencyTRY
}

// WholeShares reports whether quantities in this category are truncated to whole units.
// Precious metals keep fractional quantities.
func (c Category) WholeShares() bool {
	return c == CategoryLocalEquity || c == CategoryForeignEquity
}

// TransactionType is the kind of ledger event
type TransactionType string

const (
	TransactionBuy      TransactionType = "BUY"
	TransactionSell     TransactionType = "SELL"
	TransactionDividend TransactionType = "DIVIDEND"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionBuy, TransactionSell, TransactionDividend:
		return true
	}
	return false
}

// Transaction is an immutable ledger event
type Transaction struct {
	Date                 time.Time       `json:"date"`
	CreatedAt            time.Time       `json:"created_at"`
	TotalForeignValue    *float64        `json:"total_foreign_value,omitempty"`
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	Symbol               string          `json:"symbol"`
	Name                 string          `json:"name,omitempty"`
	Category             Category        `json:"category"`
	Type                 TransactionType `json:"type"`
	Quantity             float64         `json:"quantity"`
	Price                float64         `json:"price"`
	Total                float64         `json:"total"`
	IsDividendReinvested bool            `json:"is_dividend_reinvested"`
}

// Holding is the derived per-symbol position of a user
type Holding struct {
	UpdatedAt           time.Time `json:"updated_at"`
	UserID              string    `json:"user_id"`
	Symbol              string    `json:"symbol"`
	Name                string    `json:"name,omitempty"`
	Category            Category  `json:"category"`
	Quantity            float64   `json:"quantity"`
	AverageCost         float64   `json:"average_cost"`
	TotalCost           float64   `json:"total_cost"`
	TotalDividends      float64   `json:"total_dividends"`
	CashDividends       float64   `json:"cash_dividends"`
	ReinvestedDividends float64   `json:"reinvested_dividends"`
	// Version is the optimistic concurrency token of the stored snapshot
	Version int64 `json:"-"`
}

// DisplayName returns the name when known, otherwise the symbol
func (h Holding) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.Symbol
}

// DividendIncomeCategory is the income category used for dividend side effects
const DividendIncomeCategory = "Dividend"

// IncomeRecord is one entry of the income calendar
type IncomeRecord struct {
	CreatedAt     time.Time `json:"created_at"`
	AmountForeign *float64  `json:"amount_foreign,omitempty"`
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Category      string    `json:"category"`
	Description   string    `json:"description,omitempty"`
	Company       string    `json:"company,omitempty"`
	Currency      Currency  `json:"currency"` // Currency of Amount
	Year          int       `json:"year"`
	Month         int       `json:"month"` // 0-11
	Amount        float64   `json:"amount"`
}

// NativeCurrency returns the currency of Amount. Records without one are TRY.
func (r IncomeRecord) NativeCurrency() Currency {
	if r.Currency == "" {
		return CurrencyTRY
	}
	return r.Currency
}

// GoalCategory is the closed set of goal buckets. It overlaps the structural
// categories and adds buckets that are only reachable through name heuristics.
type GoalCategory string

const (
	GoalLocalEquity   GoalCategory = "LOCAL_EQUITY"
	GoalForeignEquity GoalCategory = "FOREIGN_EQUITY"
	GoalPreciousMetal GoalCategory = "PRECIOUS_METAL"
	GoalEurobond      GoalCategory = "EUROBOND"
	GoalMoneyMarket   GoalCategory = "MONEY_MARKET"
)

// AllGoalCategories lists goal categories in display order
var AllGoalCategories = []GoalCategory{
	GoalLocalEquity,
	GoalForeignEquity,
	GoalPreciousMetal,
	GoalEurobond,
	GoalMoneyMarket,
}

// Valid reports whether g is a known goal category
func (g GoalCategory) Valid() bool {
	for _, c := range AllGoalCategories {
		if c == g {
			return true
		}
	}
	return false
}

// GoalCategoryFor returns the structural goal bucket of an asset category
func GoalCategoryFor(c Category) (GoalCategory, bool) {
	switch c {
	case CategoryLocalEquity:
		return GoalLocalEquity, true
	case CategoryForeignEquity:
		return GoalForeignEquity, true
	case CategoryPreciousMetal:
		return GoalPreciousMetal, true
	}
	return "", false
}

// Goal is a savings target in the goal currency (USD)
type Goal struct {
	UpdatedAt    time.Time    `json:"updated_at"`
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Category     GoalCategory `json:"category"`
	TargetAmount float64      `json:"target_amount"`
}

// HistoricalDataPoint is one computed point of the wealth time series. Never persisted.
type HistoricalDataPoint struct {
	Date       time.Time            `json:"date"`
	ByCategory map[Category]float64 `json:"by_category"`
	Total      float64              `json:"total"`
}

// Value returns the value of one category on this point
func (p HistoricalDataPoint) Value(c Category) float64 {
	return p.ByCategory[c]
}

// MarshalJSON adds flat per-category fields next to by_category
func (p HistoricalDataPoint) MarshalJSON() ([]byte, error) {
	type point HistoricalDataPoint
	return json.Marshal(struct {
		point
		LocalEquity   float64 `json:"local_equity"`
		ForeignEquity float64 `json:"foreign_equity"`
		PreciousMetal float64 `json:"precious_metal"`
	}{
		point:         point(p),
		LocalEquity:   p.Value(CategoryLocalEquity),
		ForeignEquity: p.Value(CategoryForeignEquity),
		PreciousMetal: p.Value(CategoryPreciousMetal),
	})
}
