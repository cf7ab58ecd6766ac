package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

// Repository is the SQLite ledger store (ledger.db)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

const transactionColumns = `id, user_id, symbol, name, category, type, quantity, price, total,
	date, is_dividend_reinvested, total_foreign_value, created_at`

const holdingColumns = `user_id, symbol, name, category, quantity, average_cost, total_cost,
	total_dividends, cash_dividends, reinvested_dividends, version, updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// RunAtomic runs work inside one SQLite transaction.
// Lock contention from a concurrent writer is reported as ConcurrencyConflictError.
func (r *Repository) RunAtomic(ctx context.Context, work func(ctx context.Context, tx LedgerTx) error) error {
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		return work(ctx, &sqlLedgerTx{q: tx})
	})
	if err != nil && isBusy(err) && !domain.IsConflict(err) {
		r.log.Debug().Err(err).Msg("Ledger write lost a lock race")
		return fmt.Errorf("%w: %v", &domain.ConcurrencyConflictError{}, err)
	}
	return err
}

// ListTransactions returns one page of transactions, newest first
func (r *Repository) ListTransactions(ctx context.Context, userID string, q TransactionQuery) (Page, error) {
	q = q.normalized()

	after, err := decodeCursor(q.Cursor)
	if err != nil {
		return Page{}, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}

	if q.Category != "" {
		query += " AND category = ?"
		args = append(args, string(q.Category))
	}
	if after != nil {
		query += " AND (date < ? OR (date = ? AND id < ?))"
		args = append(args, after.date, after.date, after.id)
	}

	// One extra row tells whether another page exists
	query += " ORDER BY date DESC, id DESC LIMIT ?"
	args = append(args, q.Limit+1)

	items, err := scanTransactions(r.db.QueryContext(ctx, query, args...))
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: items}
	if len(items) > q.Limit {
		page.Items = items[:q.Limit]
		page.NextCursor = encodeCursor(page.Items[q.Limit-1])
	}
	return page, nil
}

// AllTransactions returns the user's full log in ascending date order
func (r *Repository) AllTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return transactionsForUser(ctx, r.db, userID)
}

// ListHoldings returns all holdings of a user ordered by category then symbol
func (r *Repository) ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE user_id = ? ORDER BY category, symbol`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]domain.Holding, 0)
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// HeldSymbols returns every symbol held by any user
func (r *Repository) HeldSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT symbol FROM holdings ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query held symbols: %w", err)
	}
	defer rows.Close()

	symbols := make([]string, 0)
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// GetHolding returns one holding, or nil when the symbol is not held
func (r *Repository) GetHolding(ctx context.Context, userID, symbol string) (*domain.Holding, error) {
	return getHolding(ctx, r.db, userID, symbol)
}

// sqlLedgerTx implements LedgerTx on an open SQL transaction
type sqlLedgerTx struct {
	q queryer
}

func (t *sqlLedgerTx) GetHolding(ctx context.Context, userID, symbol string) (*domain.Holding, error) {
	return getHolding(ctx, t.q, userID, symbol)
}

func (t *sqlLedgerTx) PutHolding(ctx context.Context, h domain.Holding) error {
	updatedAt := h.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if h.Version == 0 {
		_, err := t.q.ExecContext(ctx, `INSERT INTO holdings (`+holdingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			h.UserID, h.Symbol, h.Name, string(h.Category), h.Quantity, h.AverageCost, h.TotalCost,
			h.TotalDividends, h.CashDividends, h.ReinvestedDividends, updatedAt.Unix())
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.ConcurrencyConflictError{Symbol: h.Symbol}
			}
			return fmt.Errorf("failed to insert holding %s: %w", h.Symbol, err)
		}
		return nil
	}

	result, err := t.q.ExecContext(ctx, `UPDATE holdings SET
			name = ?, category = ?, quantity = ?, average_cost = ?, total_cost = ?,
			total_dividends = ?, cash_dividends = ?, reinvested_dividends = ?,
			version = version + 1, updated_at = ?
		WHERE user_id = ? AND symbol = ? AND version = ?`,
		h.Name, string(h.Category), h.Quantity, h.AverageCost, h.TotalCost,
		h.TotalDividends, h.CashDividends, h.ReinvestedDividends, updatedAt.Unix(),
		h.UserID, h.Symbol, h.Version)
	if err != nil {
		return fmt.Errorf("failed to update holding %s: %w", h.Symbol, err)
	}
	return expectOneRow(result, h.Symbol)
}

func (t *sqlLedgerTx) DeleteHolding(ctx context.Context, h domain.Holding) error {
	result, err := t.q.ExecContext(ctx,
		"DELETE FROM holdings WHERE user_id = ? AND symbol = ? AND version = ?",
		h.UserID, h.Symbol, h.Version)
	if err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", h.Symbol, err)
	}
	return expectOneRow(result, h.Symbol)
}

func (t *sqlLedgerTx) InsertTransaction(ctx context.Context, tx domain.Transaction) error {
	var foreign sql.NullFloat64
	if tx.TotalForeignValue != nil {
		foreign = sql.NullFloat64{Float64: *tx.TotalForeignValue, Valid: true}
	}

	reinvested := 0
	if tx.IsDividendReinvested {
		reinvested = 1
	}

	_, err := t.q.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Symbol, tx.Name, string(tx.Category), string(tx.Type),
		tx.Quantity, tx.Price, tx.Total, tx.Date.Unix(), reinvested, foreign, tx.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (t *sqlLedgerTx) InsertIncome(ctx context.Context, rec domain.IncomeRecord) error {
	return InsertIncomeRecord(ctx, t.q, rec)
}

func (t *sqlLedgerTx) TransactionsForUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return transactionsForUser(ctx, t.q, userID)
}

func (t *sqlLedgerTx) DeleteHoldings(ctx context.Context, userID string) error {
	if _, err := t.q.ExecContext(ctx, "DELETE FROM holdings WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete holdings: %w", err)
	}
	return nil
}

// InsertIncomeRecord writes one income record using q.
// Shared with the income repository so both paths write identical rows.
func InsertIncomeRecord(ctx context.Context, q interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}, rec domain.IncomeRecord) error {
	var foreign sql.NullFloat64
	if rec.AmountForeign != nil {
		foreign = sql.NullFloat64{Float64: *rec.AmountForeign, Valid: true}
	}

	_, err := q.ExecContext(ctx, `INSERT INTO income_records
		(id, user_id, year, month, amount, amount_foreign, category, description, company, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Year, rec.Month, rec.Amount, foreign,
		rec.Category, rec.Description, rec.Company, string(rec.NativeCurrency()), rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert income record: %w", err)
	}
	return nil
}

func getHolding(ctx context.Context, q queryer, userID, symbol string) (*domain.Holding, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE user_id = ? AND symbol = ?`, userID, symbol)

	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding %s: %w", symbol, err)
	}
	return &h, nil
}

func transactionsForUser(ctx context.Context, q queryer, userID string) ([]domain.Transaction, error) {
	return scanTransactions(q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date ASC, created_at ASC, id ASC`,
		userID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(row rowScanner) (domain.Holding, error) {
	var h domain.Holding
	var category string
	var updatedAt int64

	err := row.Scan(&h.UserID, &h.Symbol, &h.Name, &category, &h.Quantity, &h.AverageCost,
		&h.TotalCost, &h.TotalDividends, &h.CashDividends, &h.ReinvestedDividends,
		&h.Version, &updatedAt)
	if err != nil {
		return h, err
	}

	h.Category = domain.Category(category)
	h.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return h, nil
}

func scanTransactions(rows *sql.Rows, err error) ([]domain.Transaction, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		var category, txType string
		var date, createdAt int64
		var reinvested int
		var foreign sql.NullFloat64

		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Symbol, &tx.Name, &category, &txType,
			&tx.Quantity, &tx.Price, &tx.Total, &date, &reinvested, &foreign, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		tx.Category = domain.Category(category)
		tx.Type = domain.TransactionType(txType)
		tx.Date = time.Unix(date, 0).UTC()
		tx.CreatedAt = time.Unix(createdAt, 0).UTC()
		tx.IsDividendReinvested = reinvested == 1
		if foreign.Valid {
			v := foreign.Float64
			tx.TotalForeignValue = &v
		}

		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

func expectOneRow(result sql.Result, symbol string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", symbol, err)
	}
	if affected != 1 {
		return &domain.ConcurrencyConflictError{Symbol: symbol}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLITE_CONSTRAINT")
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
