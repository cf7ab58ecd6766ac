package goals

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	testutil "github.com/aristath/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_UpsertKeepsOneGoalPerCategory(t *testing.T) {
	repo := NewRepository(testutil.NewLedgerDB(t), zerolog.Nop())
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	first, err := repo.Upsert(ctx, domain.Goal{ID: "g1", UserID: "u1", Category: domain.GoalEurobond, TargetAmount: 1000, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "g1", first.ID)

	second, err := repo.Upsert(ctx, domain.Goal{ID: "g2", UserID: "u1", Category: domain.GoalEurobond, TargetAmount: 2500, UpdatedAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "g1", second.ID)
	assert.Equal(t, 2500.0, second.TargetAmount)
	assert.Equal(t, now.Add(time.Hour), second.UpdatedAt)

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRepository_ListOrderAndIsolation(t *testing.T) {
	repo := NewRepository(testutil.NewLedgerDB(t), zerolog.Nop())
	ctx := context.Background()
	now := time.Now().UTC()

	for i, c := range []domain.GoalCategory{domain.GoalMoneyMarket, domain.GoalLocalEquity, domain.GoalPreciousMetal} {
		_, err := repo.Upsert(ctx, domain.Goal{ID: string(rune('a' + i)), UserID: "u1", Category: c, TargetAmount: 10, UpdatedAt: now})
		require.NoError(t, err)
	}
	_, err := repo.Upsert(ctx, domain.Goal{ID: "other", UserID: "u2", Category: domain.GoalEurobond, TargetAmount: 10, UpdatedAt: now})
	require.NoError(t, err)

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.GoalLocalEquity, list[0].Category)
	assert.Equal(t, domain.GoalPreciousMetal, list[1].Category)
	assert.Equal(t, domain.GoalMoneyMarket, list[2].Category)
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(testutil.NewLedgerDB(t), zerolog.Nop())
	ctx := context.Background()

	_, err := repo.Upsert(ctx, domain.Goal{ID: "g1", UserID: "u1", Category: domain.GoalLocalEquity, TargetAmount: 10, UpdatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "u1", domain.GoalLocalEquity))
	assert.ErrorIs(t, repo.Delete(ctx, "u1", domain.GoalLocalEquity), domain.ErrNotFound)

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
