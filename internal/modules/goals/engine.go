// Package goals tracks savings targets per goal category.
//
// Aggregate maps valued holdings to goal buckets in USD. The structural mapping
// comes from the asset category; classifiers add heuristic buckets on top of it,
// so one holding may count towards several goals.
package goals

import (
	"strings"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/valuation"
)

// Classifier assigns an extra goal category to a holding
type Classifier func(h domain.Holding) (domain.GoalCategory, bool)

// NameContains returns a classifier matching any fragment in the name or
// symbol, case-insensitively
func NameContains(category domain.GoalCategory, fragments ...string) Classifier {
	lowered := make([]string, len(fragments))
	for i, f := range fragments {
		lowered[i] = strings.ToLower(f)
	}

	return func(h domain.Holding) (domain.GoalCategory, bool) {
		name := strings.ToLower(h.Name)
		symbol := strings.ToLower(h.Symbol)
		for _, f := range lowered {
			if strings.Contains(name, f) || strings.Contains(symbol, f) {
				return category, true
			}
		}
		return "", false
	}
}

// DefaultClassifiers are the heuristics applied when none are given
func DefaultClassifiers() []Classifier {
	return []Classifier{
		NameContains(domain.GoalEurobond, "eurobond"),
		NameContains(domain.GoalMoneyMarket, "money market", "para piyasası", "ppf"),
	}
}

// Aggregate sums the current value of items per goal category, in USD.
// TRY values are divided by fxRate; a non-positive rate uses the default.
func Aggregate(items []valuation.Item, fxRate float64, classifiers ...Classifier) map[domain.GoalCategory]float64 {
	rate := domain.EffectiveRate(fxRate)

	totals := make(map[domain.GoalCategory]float64, len(domain.AllGoalCategories))
	for _, c := range domain.AllGoalCategories {
		totals[c] = 0
	}

	for _, item := range items {
		usd := item.CurrentValue
		if item.Category.Currency() != domain.CurrencyUSD {
			usd = item.CurrentValue / rate
		}

		if c, ok := domain.GoalCategoryFor(item.Category); ok {
			totals[c] += usd
		}

		// Each heuristic bucket counts a holding at most once
		matched := make(map[domain.GoalCategory]bool)
		for _, classify := range classifiers {
			if c, ok := classify(item.Holding); ok && !matched[c] {
				matched[c] = true
				totals[c] += usd
			}
		}
	}

	return totals
}

// GoalProgress is the state of one goal
type GoalProgress struct {
	Goal      domain.Goal `json:"goal"`
	Current   float64     `json:"current"`
	Remaining float64     `json:"remaining"`
	// Percent is capped at 100
	Percent   float64 `json:"percent"`
	Completed bool    `json:"completed"`
}

// ProgressReport is the progress of all goals of a user
type ProgressReport struct {
	Goals        []GoalProgress                  `json:"goals"`
	Current      map[domain.GoalCategory]float64 `json:"current"`
	TotalTarget  float64                         `json:"total_target"`
	TotalCurrent float64                         `json:"total_current"`
	// TotalPercent is not capped
	TotalPercent float64 `json:"total_percent"`
	FXRate       float64 `json:"fx_rate"`
}

// Progress measures goals against current per-category amounts
func Progress(goals []domain.Goal, current map[domain.GoalCategory]float64) ProgressReport {
	report := ProgressReport{
		Goals:   make([]GoalProgress, 0, len(goals)),
		Current: current,
	}

	for _, g := range goals {
		cur := current[g.Category]
		p := GoalProgress{Goal: g, Current: cur}

		if g.TargetAmount > 0 {
			p.Percent = cur / g.TargetAmount * 100
			if p.Percent > 100 {
				p.Percent = 100
			}
		}
		if rem := g.TargetAmount - cur; rem > 0 {
			p.Remaining = rem
		}
		p.Completed = p.Percent >= 100

		report.Goals = append(report.Goals, p)
		report.TotalTarget += g.TargetAmount
		report.TotalCurrent += cur
	}

	if report.TotalTarget > 0 {
		report.TotalPercent = report.TotalCurrent / report.TotalTarget * 100
	}

	return report
}
