package clientdata

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	repo, db := newTestRepository(t, time.Now())
	defer db.Close()

	assert.Equal(t, "client_data_cleanup", NewCleanupJob(repo, zerolog.Nop()).Name())
}

func TestCleanupJobRun(t *testing.T) {
	repo, db := newTestRepository(t, time.Now())
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableCurrentPrices, "AAPL", 1.0, -time.Hour))
	require.NoError(t, repo.Store(ctx, TableCurrentPrices, "MSFT", 2.0, time.Hour))
	require.NoError(t, repo.Store(ctx, TableExchangeRates, "USD:TRY", 30.0, -time.Hour))

	require.NoError(t, NewCleanupJob(repo, zerolog.Nop()).Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT (SELECT COUNT(*) FROM current_prices) + (SELECT COUNT(*) FROM exchange_rates)").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCleanupJobRunEmptyTables(t *testing.T) {
	repo, db := newTestRepository(t, time.Now())
	defer db.Close()

	assert.NoError(t, NewCleanupJob(repo, zerolog.Nop()).Run())
}
