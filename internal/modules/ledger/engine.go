// Package ledger turns the append-only transaction stream into per-symbol holdings.
//
// ApplyTransaction is the pure reconciliation step; Service runs it inside the
// store's atomic unit of work so that the holding read, the holding write, the
// transaction insert and any dividend income insert commit together or not at all.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// Result is the outcome of applying one transaction to a holding snapshot
type Result struct {
	// Holding is the new snapshot. Nil when Deleted is true.
	Holding     *domain.Holding
	Deleted     bool
	Transaction domain.Transaction
	SideEffects []domain.IncomeRecord
}

// ApplyTransaction applies tx to the current holding of the same symbol.
// current is nil when the symbol is not held. current is never modified.
func ApplyTransaction(current *domain.Holding, tx domain.Transaction) (Result, error) {
	if current != nil && current.Symbol != tx.Symbol {
		return Result{}, fmt.Errorf("holding %s does not match transaction symbol %s", current.Symbol, tx.Symbol)
	}

	switch tx.Type {
	case domain.TransactionBuy:
		return applyBuy(current, tx), nil
	case domain.TransactionSell:
		return applySell(current, tx)
	case domain.TransactionDividend:
		return applyDividend(current, tx)
	default:
		return Result{}, domain.NewValidationError("type", "unsupported transaction type %q", tx.Type)
	}
}

func applyBuy(current *domain.Holding, tx domain.Transaction) Result {
	qty := domain.TruncateQuantity(tx.Quantity, categoryOf(current, tx))

	var next domain.Holding
	if current == nil {
		next = domain.Holding{
			UserID:    tx.UserID,
			Symbol:    tx.Symbol,
			Name:      tx.Name,
			Category:  tx.Category,
			Quantity:  qty,
			TotalCost: tx.Total,
		}
	} else {
		next = *current
		next.Quantity += qty
		next.TotalCost += tx.Total
	}

	if next.Name == "" {
		next.Name = tx.Name
	}
	next.AverageCost = averageCost(next.TotalCost, next.Quantity)
	if current == nil && tx.Price > 0 {
		// A new holding starts at the paid unit price, even when the quantity was floored
		next.AverageCost = tx.Price
	}
	next.UpdatedAt = effectiveTime(tx)

	return Result{Holding: &next, Transaction: tx}
}

func applySell(current *domain.Holding, tx domain.Transaction) (Result, error) {
	if current == nil {
		return Result{}, &domain.InsufficientQuantityError{Symbol: tx.Symbol, Requested: tx.Quantity}
	}

	qty := domain.TruncateQuantity(tx.Quantity, current.Category)
	if current.Quantity+domain.Epsilon < qty {
		return Result{}, &domain.InsufficientQuantityError{
			Symbol:    tx.Symbol,
			Held:      current.Quantity,
			Requested: qty,
			Owned:     true,
		}
	}

	costPerShare := 0.0
	if current.Quantity > 0 {
		costPerShare = current.TotalCost / current.Quantity
	}

	next := *current
	next.Quantity = current.Quantity - qty
	next.TotalCost = current.TotalCost - costPerShare*qty
	next.UpdatedAt = effectiveTime(tx)

	if math.Abs(next.Quantity) < domain.Epsilon {
		return Result{Deleted: true, Transaction: tx}, nil
	}

	next.AverageCost = averageCost(next.TotalCost, next.Quantity)
	return Result{Holding: &next, Transaction: tx}, nil
}

func applyDividend(current *domain.Holding, tx domain.Transaction) (Result, error) {
	if current == nil {
		return Result{}, &domain.InsufficientQuantityError{Symbol: tx.Symbol}
	}

	next := *current
	next.TotalDividends += tx.Total

	if tx.IsDividendReinvested {
		next.ReinvestedDividends += tx.Total
		next.Quantity += ReinvestedShares(tx)
	} else {
		next.CashDividends += tx.Total
	}

	next.AverageCost = averageCost(next.TotalCost, next.Quantity)
	next.UpdatedAt = effectiveTime(tx)

	return Result{
		Holding:     &next,
		Transaction: tx,
		SideEffects: []domain.IncomeRecord{DividendIncome(tx)},
	}, nil
}

// ReinvestedShares returns the whole shares bought by a reinvested dividend.
// A dividend without a positive price adds no shares.
func ReinvestedShares(tx domain.Transaction) float64 {
	if tx.Type != domain.TransactionDividend || !tx.IsDividendReinvested || tx.Price <= 0 {
		return 0
	}
	return math.Floor(tx.Total / tx.Price)
}

// DividendIncome builds the income record emitted by a dividend transaction.
// ID and CreatedAt are assigned by the caller.
func DividendIncome(tx domain.Transaction) domain.IncomeRecord {
	date := tx.Date.UTC()
	description := "Dividend from " + tx.Symbol
	if tx.IsDividendReinvested {
		description += " (Reinvested)"
	}

	rec := domain.IncomeRecord{
		UserID:      tx.UserID,
		Year:        date.Year(),
		Month:       int(date.Month()) - 1,
		Amount:      tx.Total,
		Currency:    tx.Category.Currency(),
		Category:    domain.DividendIncomeCategory,
		Description: description,
		Company:     tx.Symbol,
	}
	if tx.Category == domain.CategoryForeignEquity {
		// Foreign dividends are paid in USD already
		amount := tx.Total
		rec.AmountForeign = &amount
	}
	return rec
}

// FoldHoldings replays a transaction log into holdings keyed by symbol.
// Transactions are applied in ascending date order; side effects are dropped.
func FoldHoldings(txs []domain.Transaction) (map[string]domain.Holding, error) {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	holdings := make(map[string]domain.Holding)
	for _, tx := range sorted {
		var current *domain.Holding
		if h, ok := holdings[tx.Symbol]; ok {
			current = &h
		}

		res, err := ApplyTransaction(current, tx)
		if err != nil {
			return nil, fmt.Errorf("failed to apply transaction %s: %w", tx.ID, err)
		}

		if res.Deleted {
			delete(holdings, tx.Symbol)
		} else {
			holdings[tx.Symbol] = *res.Holding
		}
	}

	return holdings, nil
}

func averageCost(totalCost, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}
	return totalCost / quantity
}

func categoryOf(current *domain.Holding, tx domain.Transaction) domain.Category {
	if current != nil {
		return current.Category
	}
	return tx.Category
}

func effectiveTime(tx domain.Transaction) time.Time {
	if !tx.CreatedAt.IsZero() {
		return tx.CreatedAt
	}
	return tx.Date
}
