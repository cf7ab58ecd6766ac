package income

import (
	"sort"

	"github.com/aristath/folio/internal/domain"
)

// InvestmentCell is one year×month bucket of BUY transactions.
// Total is in TRY and TotalForeign in USD.
type InvestmentCell struct {
	Entries      []domain.Transaction `json:"entries"`
	Total        float64              `json:"total"`
	TotalForeign float64              `json:"total_foreign"`
}

// InvestmentGrid maps year → month (0-11) → cell
type InvestmentGrid map[int]map[int]InvestmentCell

// InvestmentYears returns the years of the BUY transactions in txs
func InvestmentYears(txs []domain.Transaction) []int {
	seen := make(map[int]bool)
	var years []int
	for _, tx := range txs {
		if tx.Type != domain.TransactionBuy {
			continue
		}
		y := tx.Date.UTC().Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// InvestmentMatrix groups BUY transactions by year and month of their UTC date.
// USD amounts use TotalForeignValue when recorded; everything else converts at rate.
func InvestmentMatrix(txs []domain.Transaction, minYear, maxYear int, rate float64) InvestmentGrid {
	rate = domain.EffectiveRate(rate)

	grid := make(InvestmentGrid, maxYear-minYear+1)
	for y := minYear; y <= maxYear; y++ {
		grid[y] = make(map[int]InvestmentCell, MonthsPerYear)
		for m := 0; m < MonthsPerYear; m++ {
			grid[y][m] = InvestmentCell{Entries: []domain.Transaction{}}
		}
	}

	for _, tx := range txs {
		if tx.Type != domain.TransactionBuy {
			continue
		}
		date := tx.Date.UTC()
		months, ok := grid[date.Year()]
		if !ok {
			continue
		}
		month := int(date.Month()) - 1

		local, foreign := investedAmounts(tx, rate)
		cell := months[month]
		cell.Entries = append(cell.Entries, tx)
		cell.Total += local
		cell.TotalForeign += foreign
		months[month] = cell
	}

	return grid
}

func investedAmounts(tx domain.Transaction, rate float64) (float64, float64) {
	if tx.Category.Currency() == domain.CurrencyUSD {
		usd := tx.Total
		if tx.TotalForeignValue != nil && *tx.TotalForeignValue > 0 {
			usd = *tx.TotalForeignValue
		}
		return usd * rate, usd
	}

	if tx.TotalForeignValue != nil && *tx.TotalForeignValue > 0 {
		return tx.Total, *tx.TotalForeignValue
	}
	return tx.Total, tx.Total / rate
}
