package clientdata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/aristath/folio/internal/database"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedQuote struct {
	Symbol string
	Price  float64
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)

	require.NoError(t, database.ApplySchema(db, database.NameClientData))
	return db
}

func newTestRepository(t *testing.T, now time.Time) (*Repository, *sql.DB) {
	t.Helper()
	db := setupTestDB(t)
	repo := NewRepository(db)
	repo.now = func() time.Time { return now }
	return repo, db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	now := time.Now()
	repo, db := newTestRepository(t, now)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableCurrentPrices, "AAPL", cachedQuote{Symbol: "AAPL", Price: 190.5}, time.Hour))

	var got cachedQuote
	ok, err := repo.GetIfFresh(ctx, TableCurrentPrices, "AAPL", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cachedQuote{Symbol: "AAPL", Price: 190.5}, got)

	ok, err = repo.GetIfFresh(ctx, TableCurrentPrices, "MSFT", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreReplaces(t *testing.T) {
	repo, db := newTestRepository(t, time.Now())
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableExchangeRates, "USD:TRY", 30.0, time.Hour))
	require.NoError(t, repo.Store(ctx, TableExchangeRates, "USD:TRY", 31.5, time.Hour))

	var rate float64
	ok, err := repo.GetIfFresh(ctx, TableExchangeRates, "USD:TRY", &rate)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 31.5, rate)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM exchange_rates").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestExpiredEntryIsStaleButReadable(t *testing.T) {
	now := time.Now()
	repo, db := newTestRepository(t, now)
	defer db.Close()
	ctx := context.Background()

	series := []float64{1, 2, 3}
	require.NoError(t, repo.Store(ctx, TablePriceHistory, "AAPL|1d", series, -time.Minute))

	var got []float64
	ok, err := repo.GetIfFresh(ctx, TablePriceHistory, "AAPL|1d", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Get(ctx, TablePriceHistory, "AAPL|1d", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, series, got)
}

func TestInvalidTable(t *testing.T) {
	repo, db := newTestRepository(t, time.Now())
	defer db.Close()
	ctx := context.Background()

	assert.Error(t, repo.Store(ctx, "users; DROP TABLE x", "k", 1, time.Hour))

	var v int
	_, err := repo.Get(ctx, "nope", "k", &v)
	assert.Error(t, err)

	_, err = repo.DeleteExpired(ctx, "nope")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo, db := newTestRepository(t, time.Now())
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableSymbolSearch, "apple", []string{"AAPL"}, time.Hour))
	require.NoError(t, repo.Delete(ctx, TableSymbolSearch, "apple"))

	var got []string
	ok, err := repo.Get(ctx, TableSymbolSearch, "apple", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAllExpired(t *testing.T) {
	now := time.Now()
	repo, db := newTestRepository(t, now)
	defer db.Close()
	ctx := context.Background()

	for _, table := range AllTables {
		require.NoError(t, repo.Store(ctx, table, "old", 1, -time.Hour))
		require.NoError(t, repo.Store(ctx, table, "new", 2, time.Hour))
	}

	results, err := repo.DeleteAllExpired(ctx)
	require.NoError(t, err)
	require.Len(t, results, len(AllTables))
	for _, table := range AllTables {
		assert.Equal(t, int64(1), results[table], table)

		var v int
		ok, err := repo.Get(ctx, table, "new", &v)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
