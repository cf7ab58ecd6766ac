package testing

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockMarketData is a testify mock of domain.MarketData
type MockMarketData struct {
	mock.Mock
}

// Quotes returns the mocked quotes
func (m *MockMarketData) Quotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

// USDTRYRate returns the mocked rate
func (m *MockMarketData) USDTRYRate(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

// History returns the mocked series
func (m *MockMarketData) History(ctx context.Context, symbol string, start, end time.Time, granularity domain.Granularity) ([]domain.PricePoint, error) {
	args := m.Called(ctx, symbol, start, end, granularity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricePoint), args.Error(1)
}

// Search returns the mocked results
func (m *MockMarketData) Search(ctx context.Context, text string) ([]domain.SearchResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchResult), args.Error(1)
}

// StaticMarketData is a canned domain.MarketData for tests that only need fixed values
type StaticMarketData struct {
	mu      sync.RWMutex
	prices  map[string]float64
	series  map[string][]domain.PricePoint
	rate    float64
	err     error
	results []domain.SearchResult
}

// NewStaticMarketData creates a static market data source with the given USD/TRY rate
func NewStaticMarketData(rate float64) *StaticMarketData {
	return &StaticMarketData{
		prices: make(map[string]float64),
		series: make(map[string][]domain.PricePoint),
		rate:   rate,
	}
}

// SetPrice sets the current price of a symbol
func (s *StaticMarketData) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// SetSeries sets the historical closes of a symbol
func (s *StaticMarketData) SetSeries(symbol string, points []domain.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[symbol] = points
}

// SetError makes every call fail with err
func (s *StaticMarketData) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetSearchResults sets the results returned by Search
func (s *StaticMarketData) SetSearchResults(results []domain.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
}

// Quotes returns the known prices of symbols
func (s *StaticMarketData) Quotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		if p, ok := s.prices[sym]; ok {
			out[sym] = p
		}
	}
	return out, nil
}

// USDTRYRate returns the configured rate
func (s *StaticMarketData) USDTRYRate(ctx context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.rate, nil
}

// History returns the configured series of a symbol, unfiltered
func (s *StaticMarketData) History(ctx context.Context, symbol string, start, end time.Time, granularity domain.Granularity) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	points, ok := s.series[symbol]
	if !ok {
		return nil, &domain.MarketDataUnavailableError{Symbol: symbol}
	}
	return points, nil
}

// Search returns the configured results
func (s *StaticMarketData) Search(ctx context.Context, text string) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}
