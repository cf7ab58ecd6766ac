package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds parallel series requests per history call
const maxConcurrentFetches = 8

// Result is a computed wealth series
type Result struct {
	Window  Window                       `json:"window"`
	Points  []domain.HistoricalDataPoint `json:"points"`
	Summary Summary                      `json:"summary"`
	// MissingSeries lists symbols whose prices could not be loaded; they count as 0
	MissingSeries []string `json:"missing_series,omitempty"`
}

// Service builds wealth series from the transaction log and historical prices
type Service struct {
	transactions domain.TransactionSource
	marketData   domain.MarketData
	fallbackFX   float64
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates a new history service
func NewService(transactions domain.TransactionSource, marketData domain.MarketData, fallbackFX float64, log zerolog.Logger) *Service {
	return &Service{
		transactions: transactions,
		marketData:   marketData,
		fallbackFX:   fallbackFX,
		now:          time.Now,
		log:          log.With().Str("service", "history").Logger(),
	}
}

// History replays the user's log over the preset window ending now
func (s *Service) History(ctx context.Context, userID string, preset RangePreset) (*Result, error) {
	txs, err := s.transactions.AllTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	window := ResolveRange(preset, s.now().UTC())

	symbols := uniqueSymbols(txs)
	series, missing, err := s.fetchSeries(ctx, append(symbols, domain.FXSymbolUSDTRY), window)
	if err != nil {
		return nil, err
	}

	fx := series[domain.FXSymbolUSDTRY]
	delete(series, domain.FXSymbolUSDTRY)

	points := Replay(txs, series, fx, window.Start, window.End, WithFallbackFX(s.fallbackFX))

	return &Result{
		Window:        window,
		Points:        points,
		Summary:       Summarize(points),
		MissingSeries: missing,
	}, nil
}

// fetchSeries loads every symbol concurrently. A failed symbol is logged and
// reported as missing; only cancellation of ctx fails the whole call.
func (s *Service) fetchSeries(ctx context.Context, symbols []string, w Window) (map[string]Series, []string, error) {
	var mu sync.Mutex
	series := make(map[string]Series, len(symbols))
	missing := make([]string, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			points, err := s.marketData.History(gctx, symbol, w.Start, w.End, w.Granularity)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("Price history unavailable, counting as 0")
				mu.Lock()
				missing = append(missing, symbol)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			series[symbol] = NewSeries(points)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch price history: %w", err)
	}

	sort.Strings(missing)
	return series, missing, nil
}

func uniqueSymbols(txs []domain.Transaction) []string {
	seen := make(map[string]bool)
	symbols := make([]string, 0)
	for _, tx := range txs {
		if !seen[tx.Symbol] && tx.Symbol != domain.FXSymbolUSDTRY {
			seen[tx.Symbol] = true
			symbols = append(symbols, tx.Symbol)
		}
	}
	return symbols
}
