package income

import (
	"testing"

	"github.com/aristath/folio/internal/domain"
	testutil "github.com/aristath/folio/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, year, month int, amount float64, foreign *float64) domain.IncomeRecord {
	return domain.IncomeRecord{ID: id, UserID: "user-1", Year: year, Month: month, Amount: amount, AmountForeign: foreign, Category: "Salary"}
}

func TestYearSpan(t *testing.T) {
	tests := []struct {
		name     string
		years    []int
		min, max int
	}{
		{"no data", nil, 2025, 2036},
		{"inside default span", []int{2026, 2030}, 2025, 2036},
		{"earlier data", []int{2021, 2027}, 2021, 2036},
		{"later data", []int{2040}, 2025, 2040},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minYear, maxYear := YearSpan(tt.years)
			assert.Equal(t, tt.min, minYear)
			assert.Equal(t, tt.max, maxYear)
		})
	}
}

func TestMatrix(t *testing.T) {
	records := []domain.IncomeRecord{
		record("a", 2025, 0, 1000, testutil.Float64Ptr(30)),
		record("b", 2025, 0, 500, nil),
		record("c", 2026, 11, 200, nil),
		record("d", 2019, 3, 999, nil),
	}

	grid := Matrix(records, 2025, 2027)

	require.Len(t, grid, 3)
	for _, months := range grid {
		assert.Len(t, months, MonthsPerYear)
	}

	jan := grid[2025][0]
	assert.Len(t, jan.Entries, 2)
	assert.InDelta(t, 1500, Converted(jan, 40, domain.CurrencyTRY), 1e-9)

	require.Len(t, grid[2026][11].Entries, 1)
	assert.Equal(t, "c", grid[2026][11].Entries[0].ID)
	assert.Empty(t, grid[2027][5].Entries)
	for _, months := range grid {
		for _, cell := range months {
			for _, rec := range cell.Entries {
				assert.NotEqual(t, "d", rec.ID)
			}
		}
	}
}

func TestConverted(t *testing.T) {
	cell := Cell{
		Entries: []domain.IncomeRecord{
			record("a", 2025, 0, 1000, testutil.Float64Ptr(30)),
			record("b", 2025, 0, 400, nil),
		},
	}

	assert.InDelta(t, 1400, Converted(cell, 40, domain.CurrencyTRY), 1e-9)
	assert.InDelta(t, 40, Converted(cell, 40, domain.CurrencyUSD), 1e-9)
	assert.InDelta(t, 30+400/domain.DefaultUSDTRYRate, Converted(cell, 0, domain.CurrencyUSD), 1e-9)
}

func TestConverted_USDRecords(t *testing.T) {
	dividend := record("div", 2025, 4, 10, testutil.Float64Ptr(10))
	dividend.Currency = domain.CurrencyUSD
	cell := Cell{Entries: []domain.IncomeRecord{dividend, record("rent", 2025, 4, 500, nil)}}

	assert.InDelta(t, 10*30+500, Converted(cell, 30, domain.CurrencyTRY), 1e-9)
	assert.InDelta(t, 10+500.0/30, Converted(cell, 30, domain.CurrencyUSD), 1e-9)

	bare := record("usd", 2025, 4, 7, nil)
	bare.Currency = domain.CurrencyUSD
	assert.InDelta(t, 7, Converted(Cell{Entries: []domain.IncomeRecord{bare}}, 30, domain.CurrencyUSD), 1e-9)
}
