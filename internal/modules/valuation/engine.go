// Package valuation values holdings at current prices.
//
// Valuate is pure: it takes holdings, a quote map and a USD/TRY rate and
// returns per-item and per-category figures. A missing quote falls back to
// the holding's average cost so that an unreachable provider never shows a
// position as worthless; every item records which price it used.
package valuation

import (
	"github.com/aristath/folio/internal/domain"
)

// PriceSource tells where the price of a valued item came from
type PriceSource string

const (
	PriceSourceQuote     PriceSource = "quote"
	PriceSourceCostBasis PriceSource = "cost_basis"
)

// Item is one holding valued at the current price, in its native currency
type Item struct {
	domain.Holding
	DisplayName      string          `json:"display_name"`
	CurrentPrice     float64         `json:"current_price"`
	CurrentValue     float64         `json:"current_value"`
	Profit           float64         `json:"profit"`
	ProfitPercentage float64         `json:"profit_percentage"`
	ValueLocal       float64         `json:"value_local"`
	Currency         domain.Currency `json:"currency"`
	PriceSource      PriceSource     `json:"price_source"`
	FormattedValue   string          `json:"formatted_value"`
}

// CategorySummary aggregates the items of one category in its native currency
type CategorySummary struct {
	TotalValue       float64         `json:"total_value"`
	TotalCost        float64         `json:"total_cost"`
	TotalProfit      float64         `json:"total_profit"`
	ProfitPercentage float64         `json:"profit_percentage"`
	Currency         domain.Currency `json:"currency"`
	Items            int             `json:"items"`
}

// Valuation is the full result for a portfolio
type Valuation struct {
	Items      []Item                              `json:"items"`
	Categories map[domain.Category]CategorySummary `json:"categories"`

	// Grand totals in the local currency. Foreign figures are converted at FXRate.
	TotalValue       float64 `json:"total_value"`
	TotalCost        float64 `json:"total_cost"`
	TotalProfit      float64 `json:"total_profit"`
	ProfitPercentage float64 `json:"profit_percentage"`
	FormattedTotal   string  `json:"formatted_total"`
	FXRate           float64 `json:"fx_rate"`
}

// Valuate values holdings at quotes, converting foreign figures with fxRate.
// A non-positive fxRate is replaced by the default rate.
func Valuate(holdings []domain.Holding, quotes map[string]float64, fxRate float64) Valuation {
	rate := domain.EffectiveRate(fxRate)

	v := Valuation{
		Items:      make([]Item, 0, len(holdings)),
		Categories: make(map[domain.Category]CategorySummary),
		FXRate:     rate,
	}

	for _, h := range holdings {
		item := valueHolding(h, quotes, rate)
		v.Items = append(v.Items, item)

		s := v.Categories[h.Category]
		s.Currency = item.Currency
		s.TotalValue += item.CurrentValue
		s.TotalCost += h.TotalCost
		s.TotalProfit += item.Profit
		s.Items++
		v.Categories[h.Category] = s

		v.TotalValue += item.ValueLocal
		v.TotalCost += domain.ToLocal(h.TotalCost, h.Category, rate)
		v.TotalProfit += domain.ToLocal(item.Profit, h.Category, rate)
	}

	for c, s := range v.Categories {
		s.ProfitPercentage = percentOf(s.TotalProfit, s.TotalCost)
		v.Categories[c] = s
	}

	v.ProfitPercentage = percentOf(v.TotalProfit, v.TotalCost)
	v.FormattedTotal = domain.FormatMoney(v.TotalValue, domain.CurrencyTRY)

	return v
}

func valueHolding(h domain.Holding, quotes map[string]float64, rate float64) Item {
	item := Item{
		Holding:      h,
		DisplayName:  h.DisplayName(),
		Currency:     h.Category.Currency(),
		CurrentPrice: h.AverageCost,
		PriceSource:  PriceSourceCostBasis,
	}

	if q, ok := quotes[h.Symbol]; ok && q > 0 {
		item.CurrentPrice = q
		item.PriceSource = PriceSourceQuote
	}

	qty := domain.TruncateQuantity(h.Quantity, h.Category)
	item.CurrentValue = qty * item.CurrentPrice

	// Cash dividends are realised gain; reinvested ones already raised the quantity
	item.Profit = item.CurrentValue - h.TotalCost + h.CashDividends
	item.ProfitPercentage = percentOf(item.Profit, h.TotalCost)
	item.ValueLocal = domain.ToLocal(item.CurrentValue, h.Category, rate)
	item.FormattedValue = domain.FormatMoney(item.CurrentValue, item.Currency)

	return item
}

// Distribution returns the share of each category in the total local value, in percent.
// The result is empty when the total is zero.
func Distribution(items []Item) map[domain.Category]float64 {
	total := 0.0
	for _, item := range items {
		total += item.ValueLocal
	}

	dist := make(map[domain.Category]float64)
	if total == 0 {
		return dist
	}

	for _, item := range items {
		dist[item.Category] += item.ValueLocal
	}
	for c, v := range dist {
		dist[c] = v / total * 100
	}
	return dist
}

func percentOf(profit, cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	return profit / cost * 100
}
