package income

import (
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	testutil "github.com/aristath/folio/internal/testing"
	"github.com/stretchr/testify/assert"
)

func TestInvestmentMatrix(t *testing.T) {
	withForeign := testutil.Buy("tx-6", "ASELS.IS", domain.CategoryLocalEquity, 10, 60, testutil.Day(2024, time.January, 20))
	withForeign.TotalForeignValue = testutil.Float64Ptr(20)

	txs := append(testutil.NewTransactionFixtures(), withForeign)

	assert.Equal(t, []int{2024}, InvestmentYears(txs))

	grid := InvestmentMatrix(txs, 2024, 2036, 30)
	jan := grid[2024][0]

	// THYAO 1000 TRY, AAPL 900 USD, GAU 5000 TRY, ASELS 600 TRY with recorded 20 USD
	assert.Len(t, jan.Entries, 4)
	assert.InDelta(t, 1000+900*30+5000+600, jan.Total, 1e-9)
	assert.InDelta(t, 1000.0/30+900+5000.0/30+20, jan.TotalForeign, 1e-9)

	// SELL and DIVIDEND are not investments
	assert.Empty(t, grid[2024][1].Entries)
	assert.Empty(t, grid[2024][2].Entries)
}

func TestInvestmentMatrix_ForeignValueOnUSDTransaction(t *testing.T) {
	tx := testutil.Buy("tx-1", "MSFT", domain.CategoryForeignEquity, 1, 400, testutil.Day(2025, time.June, 1))
	tx.TotalForeignValue = testutil.Float64Ptr(410)

	grid := InvestmentMatrix([]domain.Transaction{tx}, 2025, 2025, 30)
	cell := grid[2025][5]
	assert.InDelta(t, 410, cell.TotalForeign, 1e-9)
	assert.InDelta(t, 410*30, cell.Total, 1e-9)
}
