// Package history reconstructs the value of a portfolio over time.
//
// Replay walks the calendar day by day and re-applies the transaction log to a
// running per-symbol quantity. Only quantities are replayed; value on each day is
// re-derived from historical closes, so no historical cost state is needed.
package history

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
)

type replayOptions struct {
	fallbackFX float64
}

// Option configures Replay
type Option func(*replayOptions)

// WithFallbackFX sets the USD/TRY rate used when the FX series has no usable entry
func WithFallbackFX(rate float64) Option {
	return func(o *replayOptions) {
		if rate > 0 {
			o.fallbackFX = rate
		}
	}
}

type position struct {
	category domain.Category
	quantity float64
}

// Replay returns one point per UTC calendar day from start to end inclusive.
// A transaction counts on day D when it is dated anywhere up to the end of D.
// A symbol without any close on or before D contributes 0 on D.
func Replay(
	txs []domain.Transaction,
	prices map[string]Series,
	fx Series,
	start, end time.Time,
	opts ...Option,
) []domain.HistoricalDataPoint {
	o := replayOptions{fallbackFX: domain.DefaultUSDTRYRate}
	for _, opt := range opts {
		opt(&o)
	}

	first := truncateDay(start)
	last := truncateDay(end)
	if last.Before(first) {
		return []domain.HistoricalDataPoint{}
	}

	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	positions := make(map[string]*position)
	// Symbols in first-seen order keep the float sums deterministic
	order := make([]string, 0)
	next := 0

	points := make([]domain.HistoricalDataPoint, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		endOfDay := day.AddDate(0, 0, 1)
		for next < len(sorted) && sorted[next].Date.Before(endOfDay) {
			tx := sorted[next]
			p, ok := positions[tx.Symbol]
			if !ok {
				p = &position{category: tx.Category}
				positions[tx.Symbol] = p
				order = append(order, tx.Symbol)
			}
			p.quantity += quantityDelta(tx, p.category)
			next++
		}

		point := domain.HistoricalDataPoint{
			Date:       day,
			ByCategory: make(map[domain.Category]float64, len(domain.AllCategories)),
		}
		for _, c := range domain.AllCategories {
			point.ByCategory[c] = 0
		}

		rate := o.fallbackFX
		if r, ok := fx.AtDay(day); ok && r > 0 {
			rate = r
		}

		for _, sym := range order {
			p := positions[sym]
			if p.quantity <= domain.Epsilon {
				continue
			}
			price, _ := prices[sym].AtDay(day)
			value := p.quantity * price
			if p.category.Currency() == domain.CurrencyUSD {
				value *= rate
			}
			point.ByCategory[p.category] += value
			point.Total += value
		}

		points = append(points, point)
	}

	return points
}

// quantityDelta is the change in held quantity caused by tx, truncated the
// same way the ledger truncates it
func quantityDelta(tx domain.Transaction, c domain.Category) float64 {
	switch tx.Type {
	case domain.TransactionBuy:
		return domain.TruncateQuantity(tx.Quantity, c)
	case domain.TransactionSell:
		return -domain.TruncateQuantity(tx.Quantity, c)
	case domain.TransactionDividend:
		if tx.IsDividendReinvested && tx.Price > 0 {
			return math.Floor(tx.Total / tx.Price)
		}
	}
	return 0
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
