package valuation

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/folio/internal/domain"
	testutil "github.com/aristath/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type holdingSource []domain.Holding

func (h holdingSource) ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	return h, nil
}

var sampleHoldings = holdingSource{
	{Symbol: "THYAO.IS", Category: domain.CategoryLocalEquity, Quantity: 10, AverageCost: 100, TotalCost: 1000},
	{Symbol: "AAPL", Category: domain.CategoryForeignEquity, Quantity: 2, AverageCost: 150, TotalCost: 300},
}

func TestService_Portfolio(t *testing.T) {
	md := testutil.NewStaticMarketData(32)
	md.SetPrice("THYAO.IS", 120)
	md.SetPrice("AAPL", 200)

	svc := NewService(sampleHoldings, md, 34, zerolog.Nop())

	p, err := svc.Portfolio(context.Background(), "user-1")
	require.NoError(t, err)

	assert.InDelta(t, 32, p.FXRate, delta)
	assert.InDelta(t, 1200+400*32, p.TotalValue, delta)
	assert.Empty(t, p.MissingQuotes)
	assert.Len(t, p.Distribution, 2)
}

func TestService_PortfolioDegradesWhenMarketDataFails(t *testing.T) {
	md := &testutil.MockMarketData{}
	md.On("Quotes", mock.Anything, []string{"THYAO.IS", "AAPL"}).
		Return(nil, &domain.MarketDataUnavailableError{Symbol: "THYAO.IS"})
	md.On("USDTRYRate", mock.Anything).Return(0.0, errors.New("timeout"))

	svc := NewService(sampleHoldings, md, 34, zerolog.Nop())

	p, err := svc.Portfolio(context.Background(), "user-1")
	require.NoError(t, err)

	assert.InDelta(t, 34, p.FXRate, delta)
	assert.ElementsMatch(t, []string{"THYAO.IS", "AAPL"}, p.MissingQuotes)
	assert.InDelta(t, 1000+300*34, p.TotalValue, delta)
	assert.InDelta(t, 0, p.TotalProfit, delta)
	md.AssertExpectations(t)
}

func TestService_PortfolioPartialQuotes(t *testing.T) {
	md := testutil.NewStaticMarketData(30)
	md.SetPrice("AAPL", 200)

	svc := NewService(sampleHoldings, md, 34, zerolog.Nop())

	p, err := svc.Portfolio(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"THYAO.IS"}, p.MissingQuotes)
}

func TestService_EmptyPortfolioSkipsQuotes(t *testing.T) {
	md := &testutil.MockMarketData{}
	md.On("USDTRYRate", mock.Anything).Return(31.5, nil)

	svc := NewService(holdingSource{}, md, 34, zerolog.Nop())

	p, err := svc.Portfolio(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Empty(t, p.Distribution)
	md.AssertNotCalled(t, "Quotes", mock.Anything, mock.Anything)
}
