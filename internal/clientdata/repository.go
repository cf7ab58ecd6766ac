// Package clientdata provides persistent caching for market data provider responses.
// Payloads are msgpack blobs with expiration timestamps for cache-first behavior
// and stale reads when the provider fails.
package clientdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache tables in client_data.db
const (
	TableCurrentPrices = "current_prices"
	TablePriceHistory  = "price_history"
	TableExchangeRates = "exchange_rates"
	TableSymbolSearch  = "symbol_search"
)

// AllTables lists all tables in client_data.db for cleanup operations.
var AllTables = []string{
	TableCurrentPrices,
	TablePriceHistory,
	TableExchangeRates,
	TableSymbolSearch,
}

// keyColumns maps each table to its primary key column and doubles as the
// table name allow-list.
var keyColumns = map[string]string{
	TableCurrentPrices: "symbol",
	TablePriceHistory:  "series_key",
	TableExchangeRates: "pair",
	TableSymbolSearch:  "query",
}

// Repository provides cache operations for client data.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func keyColumn(table string) (string, error) {
	col, ok := keyColumns[table]
	if !ok {
		return "", fmt.Errorf("invalid table name: %s", table)
	}
	return col, nil
}

// Store saves v with expiration = now + ttl, replacing any previous entry.
func (r *Repository) Store(ctx context.Context, table, key string, v interface{}, ttl time.Duration) error {
	col, err := keyColumn(table)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, data, expires_at) VALUES (?, ?, ?)", table, col)
	if _, err := r.db.ExecContext(ctx, query, key, data, r.now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}
	return nil
}

// GetIfFresh decodes the entry into dst only if it has not expired.
// It reports whether dst was filled.
func (r *Repository) GetIfFresh(ctx context.Context, table, key string, dst interface{}) (bool, error) {
	return r.load(ctx, table, key, dst, true)
}

// Get decodes the entry into dst regardless of expiration.
// Used as the fallback when the provider fails.
func (r *Repository) Get(ctx context.Context, table, key string, dst interface{}) (bool, error) {
	return r.load(ctx, table, key, dst, false)
}

func (r *Repository) load(ctx context.Context, table, key string, dst interface{}, freshOnly bool) (bool, error) {
	col, err := keyColumn(table)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ?", table, col)
	args := []interface{}{key}
	if freshOnly {
		query += " AND expires_at > ?"
		args = append(args, r.now().Unix())
	}

	var data []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	if err := msgpack.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s/%s: %w", table, key, err)
	}
	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(ctx context.Context, table, key string) error {
	col, err := keyColumn(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col)
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(ctx context.Context, table string) (int64, error) {
	if _, err := keyColumn(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)
	result, err := r.db.ExecContext(ctx, query, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}
	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	results := make(map[string]int64, len(AllTables))

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(ctx, table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}

	return results, nil
}
