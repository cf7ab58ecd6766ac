package testing

import (
	"time"

	"github.com/aristath/folio/internal/domain"
)

// Day returns midnight UTC of the given civil date
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Buy builds a BUY transaction with Total = quantity * price
func Buy(id, symbol string, category domain.Category, quantity, price float64, date time.Time) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		UserID:    "user-1",
		Symbol:    symbol,
		Name:      symbol,
		Category:  category,
		Type:      domain.TransactionBuy,
		Quantity:  quantity,
		Price:     price,
		Total:     quantity * price,
		Date:      date,
		CreatedAt: date,
	}
}

// Sell builds a SELL transaction with Total = quantity * price
func Sell(id, symbol string, category domain.Category, quantity, price float64, date time.Time) domain.Transaction {
	tx := Buy(id, symbol, category, quantity, price, date)
	tx.Type = domain.TransactionSell
	return tx
}

// Dividend builds a DIVIDEND transaction. A reinvested dividend buys whole shares at price.
func Dividend(id, symbol string, category domain.Category, total, price float64, reinvested bool, date time.Time) domain.Transaction {
	return domain.Transaction{
		ID:                   id,
		UserID:               "user-1",
		Symbol:               symbol,
		Name:                 symbol,
		Category:             category,
		Type:                 domain.TransactionDividend,
		Price:                price,
		Total:                total,
		IsDividendReinvested: reinvested,
		Date:                 date,
		CreatedAt:            date,
	}
}

// NewTransactionFixtures returns a small mixed log in ascending date order
func NewTransactionFixtures() []domain.Transaction {
	return []domain.Transaction{
		Buy("tx-1", "THYAO.IS", domain.CategoryLocalEquity, 10, 100, Day(2024, time.January, 2)),
		Buy("tx-2", "AAPL", domain.CategoryForeignEquity, 5, 180, Day(2024, time.January, 3)),
		Buy("tx-3", "GAU", domain.CategoryPreciousMetal, 2.5, 2000, Day(2024, time.January, 4)),
		Sell("tx-4", "THYAO.IS", domain.CategoryLocalEquity, 4, 150, Day(2024, time.February, 1)),
		Dividend("tx-5", "AAPL", domain.CategoryForeignEquity, 12, 0, false, Day(2024, time.March, 15)),
	}
}

// Float64Ptr returns a pointer to f
func Float64Ptr(f float64) *float64 {
	return &f
}
