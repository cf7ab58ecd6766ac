// Package income aggregates the income calendar and the monthly investment log.
package income

import "github.com/aristath/folio/internal/domain"

const (
	// DefaultMinYear is the first year shown when no earlier data exists
	DefaultMinYear = 2025
	// DefaultMaxYear is the last year shown when no later data exists
	DefaultMaxYear = 2036
	// MonthsPerYear is the number of month cells per year row
	MonthsPerYear = 12
)

// Cell is one year×month bucket of income records
type Cell struct {
	Entries []domain.IncomeRecord `json:"entries"`
}

// Grid maps year → month (0-11) → cell
type Grid map[int]map[int]Cell

// YearSpan returns the year range covering years, widened to the default span
func YearSpan(years []int) (int, int) {
	minYear, maxYear := DefaultMinYear, DefaultMaxYear
	for _, y := range years {
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	return minYear, maxYear
}

// Matrix groups records into a year×month grid spanning minYear..maxYear.
// Every cell of the span exists; records outside the span are dropped.
func Matrix(records []domain.IncomeRecord, minYear, maxYear int) Grid {
	grid := make(Grid, maxYear-minYear+1)
	for y := minYear; y <= maxYear; y++ {
		grid[y] = make(map[int]Cell, MonthsPerYear)
		for m := 0; m < MonthsPerYear; m++ {
			grid[y][m] = Cell{Entries: []domain.IncomeRecord{}}
		}
	}

	for _, rec := range records {
		months, ok := grid[rec.Year]
		if !ok || rec.Month < 0 || rec.Month >= MonthsPerYear {
			continue
		}
		cell := months[rec.Month]
		cell.Entries = append(cell.Entries, rec)
		months[rec.Month] = cell
	}

	return grid
}

// Converted returns the cell total in currency. Each record's amount is in
// its own currency; the USD view prefers a recorded foreign amount.
func Converted(cell Cell, rate float64, currency domain.Currency) float64 {
	rate = domain.EffectiveRate(rate)

	var sum float64
	for _, rec := range cell.Entries {
		native := rec.NativeCurrency()
		switch {
		case currency != domain.CurrencyUSD && native == domain.CurrencyUSD:
			sum += rec.Amount * rate
		case currency != domain.CurrencyUSD:
			sum += rec.Amount
		case rec.AmountForeign != nil:
			sum += *rec.AmountForeign
		case native == domain.CurrencyUSD:
			sum += rec.Amount
		default:
			sum += rec.Amount / rate
		}
	}
	return sum
}
