package domain

import (
	"context"
	"time"
)

// Granularity is the bar size of a historical price series
type Granularity string

const (
	GranularityDaily   Granularity = "1d"
	GranularityWeekly  Granularity = "1wk"
	GranularityMonthly Granularity = "1mo"
)

// Valid reports whether g is a supported granularity
func (g Granularity) Valid() bool {
	return g == GranularityDaily || g == GranularityWeekly || g == GranularityMonthly
}

// PricePoint is one close of a historical series. Date is a civil date (YYYY-MM-DD).
type PricePoint struct {
	Date  string  `json:"date" msgpack:"d"`
	Close float64 `json:"close" msgpack:"c"`
}

// Quote is a current market price
type Quote struct {
	FetchedAt time.Time `json:"fetched_at" msgpack:"t"`
	Symbol    string    `json:"symbol" msgpack:"s"`
	Name      string    `json:"name,omitempty" msgpack:"n"`
	Currency  string    `json:"currency,omitempty" msgpack:"cur"`
	Price     float64   `json:"price" msgpack:"p"`
	// Stale is set when the price was served from an expired cache entry
	Stale bool `json:"stale" msgpack:"-"`
}

// SearchResult is a symbol candidate returned by a symbol search
type SearchResult struct {
	Symbol    string `json:"symbol" msgpack:"s"`
	Name      string `json:"name" msgpack:"n"`
	Exchange  string `json:"exchange,omitempty" msgpack:"e"`
	QuoteType string `json:"quote_type,omitempty" msgpack:"q"`
}

// MarketData provides quotes, search and history to the engines' services.
// This interface breaks the dependency between the modules and the market-data service.
type MarketData interface {
	// Quotes returns prices for the symbols that could be resolved.
	// Missing symbols are absent from the map, never zero.
	Quotes(ctx context.Context, symbols []string) (map[string]float64, error)

	// USDTRYRate returns the current USD/TRY rate
	USDTRYRate(ctx context.Context) (float64, error)

	// History returns closes between start and end, ascending by date
	History(ctx context.Context, symbol string, start, end time.Time, granularity Granularity) ([]PricePoint, error)

	// Search finds symbols matching free text
	Search(ctx context.Context, text string) ([]SearchResult, error)
}

// HoldingSource provides read access to current holdings
type HoldingSource interface {
	ListHoldings(ctx context.Context, userID string) ([]Holding, error)
}

// TransactionSource provides read access to the full transaction log
type TransactionSource interface {
	// AllTransactions returns every transaction of the user in ascending date order
	AllTransactions(ctx context.Context, userID string) ([]Transaction, error)
}
