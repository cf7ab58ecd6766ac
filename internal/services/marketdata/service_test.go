package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/domain"
	testutil "github.com/aristath/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Quotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Quote), args.Error(1)
}

func (m *mockProvider) Search(ctx context.Context, text string) ([]domain.SearchResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchResult), args.Error(1)
}

func (m *mockProvider) History(ctx context.Context, symbol string, start, end time.Time, g domain.Granularity) ([]domain.PricePoint, error) {
	args := m.Called(ctx, symbol, start, end, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricePoint), args.Error(1)
}

var errUpstream = errors.New("upstream down")

func quote(symbol string, price float64) domain.Quote {
	return domain.Quote{Symbol: symbol, Price: price, FetchedAt: time.Now().UTC()}
}

func TestQuotesUsesMemoryCache(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Quotes", mock.Anything, []string{"AAPL", "MSFT"}).
		Return(map[string]domain.Quote{"AAPL": quote("AAPL", 190), "MSFT": quote("MSFT", 400)}, nil).Once()

	svc := NewService(provider, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	prices, err := svc.Quotes(ctx, []string{"AAPL", "MSFT", "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 190, "MSFT": 400}, prices)

	prices, err = svc.Quotes(ctx, []string{"MSFT"})
	require.NoError(t, err)
	assert.Equal(t, 400.0, prices["MSFT"])

	provider.AssertExpectations(t)
}

func TestQuotesFallsBackToStaleStore(t *testing.T) {
	store := clientdata.NewRepository(testutil.NewClientDataDB(t))
	ctx := context.Background()

	warm := new(mockProvider)
	warm.On("Quotes", mock.Anything, []string{"AAPL"}).Return(map[string]domain.Quote{"AAPL": quote("AAPL", 190)}, nil)
	_, err := NewService(warm, store, time.Minute, zerolog.Nop()).Quotes(ctx, []string{"AAPL"})
	require.NoError(t, err)

	failing := new(mockProvider)
	failing.On("Quotes", mock.Anything, mock.Anything).Return(nil, errUpstream)
	svc := NewService(failing, store, time.Minute, zerolog.Nop())

	details, err := svc.QuoteDetails(ctx, []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Contains(t, details, "AAPL")
	assert.NotContains(t, details, "MSFT")
	assert.Equal(t, 190.0, details["AAPL"].Price)
	assert.True(t, details["AAPL"].Stale)
}

func TestQuotesFillsOmittedSymbolsFromStore(t *testing.T) {
	store := clientdata.NewRepository(testutil.NewClientDataDB(t))
	ctx := context.Background()

	warm := new(mockProvider)
	warm.On("Quotes", mock.Anything, []string{"AAPL", "MSFT"}).
		Return(map[string]domain.Quote{"AAPL": quote("AAPL", 190), "MSFT": quote("MSFT", 400)}, nil)
	_, err := NewService(warm, store, time.Minute, zerolog.Nop()).Quotes(ctx, []string{"AAPL", "MSFT"})
	require.NoError(t, err)

	partial := new(mockProvider)
	partial.On("Quotes", mock.Anything, []string{"AAPL", "MSFT", "NOPE"}).
		Return(map[string]domain.Quote{"AAPL": quote("AAPL", 195)}, nil)
	svc := NewService(partial, store, time.Minute, zerolog.Nop())

	details, err := svc.QuoteDetails(ctx, []string{"AAPL", "MSFT", "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, 195.0, details["AAPL"].Price)
	assert.False(t, details["AAPL"].Stale)
	require.Contains(t, details, "MSFT")
	assert.Equal(t, 400.0, details["MSFT"].Price)
	assert.True(t, details["MSFT"].Stale)
	assert.NotContains(t, details, "NOPE")
}

func TestQuotesUnavailable(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Quotes", mock.Anything, mock.Anything).Return(nil, errUpstream)

	svc := NewService(provider, clientdata.NewRepository(testutil.NewClientDataDB(t)), time.Minute, zerolog.Nop())

	_, err := svc.Quotes(context.Background(), []string{"AAPL"})
	var unavailable *domain.MarketDataUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.ErrorIs(t, err, errUpstream)
}

func TestQuotesPartialWhenProviderFails(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Quotes", mock.Anything, []string{"AAPL"}).Return(map[string]domain.Quote{"AAPL": quote("AAPL", 190)}, nil).Once()
	provider.On("Quotes", mock.Anything, []string{"MSFT"}).Return(nil, errUpstream).Once()

	svc := NewService(provider, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Quotes(ctx, []string{"AAPL"})
	require.NoError(t, err)

	prices, err := svc.Quotes(ctx, []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 190}, prices)
}

func TestQuoteNotFound(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Quotes", mock.Anything, []string{"NOPE"}).Return(map[string]domain.Quote{}, nil)

	_, err := NewService(provider, nil, time.Minute, zerolog.Nop()).Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUSDTRYRate(t *testing.T) {
	store := clientdata.NewRepository(testutil.NewClientDataDB(t))
	ctx := context.Background()

	provider := new(mockProvider)
	provider.On("Quotes", mock.Anything, []string{domain.FXSymbolUSDTRY}).
		Return(map[string]domain.Quote{domain.FXSymbolUSDTRY: quote(domain.FXSymbolUSDTRY, 32.5)}, nil)

	rate, err := NewService(provider, store, time.Minute, zerolog.Nop()).USDTRYRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 32.5, rate)

	var cached float64
	ok, err := store.Get(ctx, clientdata.TableExchangeRates, "USD:TRY", &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 32.5, cached)
}

type stubRates struct {
	rate float64
	err  error
}

func (s stubRates) GetRate(ctx context.Context, from, to string) (float64, error) {
	return s.rate, s.err
}

func TestUSDTRYRateUsesFallbackSource(t *testing.T) {
	store := clientdata.NewRepository(testutil.NewClientDataDB(t))
	ctx := context.Background()

	provider := new(mockProvider)
	provider.On("Quotes", mock.Anything, []string{domain.FXSymbolUSDTRY}).Return(nil, errUpstream)

	svc := NewService(provider, store, time.Minute, zerolog.Nop())
	svc.SetFallbackRates(stubRates{rate: 33})

	rate, err := svc.USDTRYRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 33.0, rate)

	// The fallback rate is kept for when every source is down
	svc.SetFallbackRates(stubRates{err: errUpstream})
	rate, err = svc.USDTRYRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 33.0, rate)
}

func TestUSDTRYRateUnavailable(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Quotes", mock.Anything, []string{domain.FXSymbolUSDTRY}).Return(nil, errUpstream)

	svc := NewService(provider, nil, time.Minute, zerolog.Nop())
	svc.SetFallbackRates(stubRates{err: errUpstream})

	_, err := svc.USDTRYRate(context.Background())
	var mdErr *domain.MarketDataUnavailableError
	assert.ErrorAs(t, err, &mdErr)
}

func TestHistory(t *testing.T) {
	store := clientdata.NewRepository(testutil.NewClientDataDB(t))
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	provider := new(mockProvider)
	provider.On("History", mock.Anything, "AAPL", start, end, domain.GranularityDaily).
		Return([]domain.PricePoint{{Date: "2024-01-03", Close: 2}, {Date: "2024-01-02", Close: 1}}, nil).Once()

	svc := NewService(provider, store, time.Minute, zerolog.Nop())
	points, err := svc.History(ctx, "AAPL", start, end, domain.GranularityDaily)
	require.NoError(t, err)
	assert.Equal(t, []domain.PricePoint{{Date: "2024-01-02", Close: 1}, {Date: "2024-01-03", Close: 2}}, points)

	again, err := svc.History(ctx, "AAPL", start, end, domain.GranularityDaily)
	require.NoError(t, err)
	assert.Equal(t, points, again)
	provider.AssertExpectations(t)

	// A fresh service reads the persisted series without calling the provider
	idle := new(mockProvider)
	persisted, err := NewService(idle, store, time.Minute, zerolog.Nop()).History(ctx, "AAPL", start, end, domain.GranularityDaily)
	require.NoError(t, err)
	assert.Equal(t, points, persisted)
	idle.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHistoryUnavailable(t *testing.T) {
	provider := new(mockProvider)
	provider.On("History", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errUpstream)

	_, err := NewService(provider, nil, time.Minute, zerolog.Nop()).
		History(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now(), domain.GranularityDaily)

	var unavailable *domain.MarketDataUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "AAPL", unavailable.Symbol)
}

func TestSearch(t *testing.T) {
	store := clientdata.NewRepository(testutil.NewClientDataDB(t))
	ctx := context.Background()
	results := []domain.SearchResult{{Symbol: "AAPL", Name: "Apple Inc."}}

	provider := new(mockProvider)
	provider.On("Search", mock.Anything, "Apple").Return(results, nil).Once()

	svc := NewService(provider, store, time.Minute, zerolog.Nop())
	got, err := svc.Search(ctx, "Apple")
	require.NoError(t, err)
	assert.Equal(t, results, got)

	got, err = svc.Search(ctx, " apple ")
	require.NoError(t, err)
	assert.Equal(t, results, got)
	provider.AssertExpectations(t)

	failing := new(mockProvider)
	failing.On("Search", mock.Anything, mock.Anything).Return(nil, errUpstream)
	got, err = NewService(failing, store, time.Minute, zerolog.Nop()).Search(ctx, "APPLE")
	require.NoError(t, err)
	assert.Equal(t, results, got)
}

func TestSearchBlank(t *testing.T) {
	provider := new(mockProvider)
	got, err := NewService(provider, nil, time.Minute, zerolog.Nop()).Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
	provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestRefreshBypassesMemory(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Quotes", mock.Anything, []string{"AAPL"}).Return(map[string]domain.Quote{"AAPL": quote("AAPL", 190)}, nil).Twice()

	svc := NewService(provider, nil, time.Minute, zerolog.Nop())
	_, err := svc.Quotes(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	n, err := svc.Refresh(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	provider.AssertExpectations(t)
}
