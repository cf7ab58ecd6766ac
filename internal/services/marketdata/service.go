// Package marketdata serves quotes, history and symbol search to the portfolio
// modules. A provider sits behind an in-memory cache and a persistent cache;
// when the provider fails, expired persistent entries are served instead.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/domain"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// DefaultQuoteTTL is the in-memory lifetime of quotes and history
const DefaultQuoteTTL = 5 * time.Minute

// Provider fetches market data from an upstream source
type Provider interface {
	Quotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error)
	Search(ctx context.Context, text string) ([]domain.SearchResult, error)
	History(ctx context.Context, symbol string, start, end time.Time, granularity domain.Granularity) ([]domain.PricePoint, error)
}

// RateSource is a secondary exchange rate source
type RateSource interface {
	GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error)
}

// Service implements domain.MarketData with layered caching
type Service struct {
	provider Provider
	store    *clientdata.Repository // Optional
	fallback RateSource             // Optional
	memory   *cache.Cache
	log      zerolog.Logger
}

// NewService creates a new market data service. store may be nil to disable
// persistent caching.
func NewService(provider Provider, store *clientdata.Repository, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &Service{
		provider: provider,
		store:    store,
		memory:   cache.New(ttl, 2*ttl),
		log:      log.With().Str("service", "marketdata").Logger(),
	}
}

// SetFallbackRates sets the source consulted for USD/TRY when the provider fails
func (s *Service) SetFallbackRates(src RateSource) {
	s.fallback = src
}

const usdTRYKey = "USD:TRY"

func quoteKey(symbol string) string { return "quote:" + symbol }

func historyKey(symbol string, start, end time.Time, g domain.Granularity) string {
	return fmt.Sprintf("%s|%s|%s|%s", symbol, g, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
}

func searchKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// QuoteDetails returns the full quote of each resolvable symbol.
// Symbols that no source can resolve are absent from the result. An error is
// returned only when the provider failed and nothing could be served.
func (s *Service) QuoteDetails(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	result := make(map[string]domain.Quote, len(symbols))
	var misses []string

	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true

		if v, ok := s.memory.Get(quoteKey(sym)); ok {
			result[sym] = v.(domain.Quote)
			continue
		}
		misses = append(misses, sym)
	}
	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := s.provider.Quotes(ctx, misses)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		stale := s.staleQuotes(ctx, misses)
		for sym, q := range stale {
			result[sym] = q
		}
		s.log.Warn().Err(err).Int("requested", len(misses)).Int("stale", len(stale)).Msg("Quote provider failed, serving cached quotes")

		if len(result) == 0 {
			return nil, &domain.MarketDataUnavailableError{Symbol: strings.Join(misses, ","), Err: err}
		}
		return result, nil
	}

	for sym, q := range fetched {
		s.memory.SetDefault(quoteKey(sym), q)
		s.persist(ctx, clientdata.TableCurrentPrices, sym, q, clientdata.TTLCurrentPrice)
		result[sym] = q
	}

	// Symbols the provider skipped may still have a cached quote
	var unresolved []string
	for _, sym := range misses {
		if _, ok := fetched[sym]; !ok {
			unresolved = append(unresolved, sym)
		}
	}
	if len(unresolved) > 0 {
		stale := s.staleQuotes(ctx, unresolved)
		for sym, q := range stale {
			result[sym] = q
		}
		if len(stale) > 0 {
			s.log.Warn().Int("unresolved", len(unresolved)).Int("stale", len(stale)).Msg("Provider omitted symbols, serving cached quotes")
		}
	}
	return result, nil
}

func (s *Service) staleQuotes(ctx context.Context, symbols []string) map[string]domain.Quote {
	stale := make(map[string]domain.Quote)
	if s.store == nil {
		return stale
	}
	for _, sym := range symbols {
		var q domain.Quote
		ok, err := s.store.Get(ctx, clientdata.TableCurrentPrices, sym, &q)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", sym).Msg("Failed to read cached quote")
			continue
		}
		if ok {
			q.Stale = true
			stale[sym] = q
		}
	}
	return stale
}

// Quotes returns prices of the resolvable symbols
func (s *Service) Quotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	details, err := s.QuoteDetails(ctx, symbols)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(details))
	for sym, q := range details {
		prices[sym] = q.Price
	}
	return prices, nil
}

// Quote returns the quote of one symbol
func (s *Service) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	details, err := s.QuoteDetails(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	q, ok := details[strings.TrimSpace(symbol)]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", symbol, domain.ErrNotFound)
	}
	return &q, nil
}

// USDTRYRate returns the current USD/TRY rate
func (s *Service) USDTRYRate(ctx context.Context) (float64, error) {
	q, err := s.Quote(ctx, domain.FXSymbolUSDTRY)
	if err != nil && s.fallback != nil && ctx.Err() == nil {
		if rate, ferr := s.fallback.GetRate(ctx, string(domain.CurrencyUSD), string(domain.CurrencyTRY)); ferr == nil {
			s.log.Warn().Err(err).Float64("rate", rate).Msg("USD/TRY quote unavailable, using fallback source")
			s.persist(ctx, clientdata.TableExchangeRates, usdTRYKey, rate, clientdata.TTLExchangeRate)
			return rate, nil
		}
	}
	if err != nil {
		if s.store != nil && ctx.Err() == nil {
			var rate float64
			if ok, serr := s.store.Get(ctx, clientdata.TableExchangeRates, usdTRYKey, &rate); serr == nil && ok && rate > 0 {
				s.log.Warn().Err(err).Float64("rate", rate).Msg("USD/TRY unavailable, using cached rate")
				return rate, nil
			}
		}
		return 0, err
	}
	if !q.Stale {
		s.persist(ctx, clientdata.TableExchangeRates, usdTRYKey, q.Price, clientdata.TTLExchangeRate)
	}
	return q.Price, nil
}

// History returns closes between start and end
func (s *Service) History(ctx context.Context, symbol string, start, end time.Time, granularity domain.Granularity) ([]domain.PricePoint, error) {
	key := historyKey(symbol, start, end, granularity)
	if v, ok := s.memory.Get("history:" + key); ok {
		return v.([]domain.PricePoint), nil
	}

	if s.store != nil {
		var points []domain.PricePoint
		if ok, err := s.store.GetIfFresh(ctx, clientdata.TablePriceHistory, key, &points); err == nil && ok {
			s.memory.SetDefault("history:"+key, points)
			return points, nil
		}
	}

	points, err := s.provider.History(ctx, symbol, start, end, granularity)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s.store != nil {
			var stale []domain.PricePoint
			if ok, serr := s.store.Get(ctx, clientdata.TablePriceHistory, key, &stale); serr == nil && ok {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("History provider failed, serving cached series")
				return stale, nil
			}
		}
		return nil, &domain.MarketDataUnavailableError{Symbol: symbol, Err: err}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	s.memory.SetDefault("history:"+key, points)
	s.persist(ctx, clientdata.TablePriceHistory, key, points, clientdata.TTLPriceHistory)
	return points, nil
}

// Search finds symbols matching free text. Blank text returns no results.
func (s *Service) Search(ctx context.Context, text string) ([]domain.SearchResult, error) {
	key := searchKey(text)
	if key == "" {
		return []domain.SearchResult{}, nil
	}

	if v, ok := s.memory.Get("search:" + key); ok {
		return v.([]domain.SearchResult), nil
	}

	if s.store != nil {
		var results []domain.SearchResult
		if ok, err := s.store.GetIfFresh(ctx, clientdata.TableSymbolSearch, key, &results); err == nil && ok {
			s.memory.SetDefault("search:"+key, results)
			return results, nil
		}
	}

	results, err := s.provider.Search(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s.store != nil {
			var stale []domain.SearchResult
			if ok, serr := s.store.Get(ctx, clientdata.TableSymbolSearch, key, &stale); serr == nil && ok {
				s.log.Warn().Err(err).Str("query", key).Msg("Search provider failed, serving cached results")
				return stale, nil
			}
		}
		return nil, &domain.MarketDataUnavailableError{Symbol: text, Err: err}
	}

	s.memory.SetDefault("search:"+key, results)
	s.persist(ctx, clientdata.TableSymbolSearch, key, results, clientdata.TTLSymbolSearch)
	return results, nil
}

// Refresh refetches quotes from the provider, bypassing the in-memory cache.
// It returns the number of symbols resolved.
func (s *Service) Refresh(ctx context.Context, symbols []string) (int, error) {
	for _, sym := range symbols {
		s.memory.Delete(quoteKey(sym))
	}
	quotes, err := s.QuoteDetails(ctx, symbols)
	if err != nil {
		return 0, err
	}
	return len(quotes), nil
}

func (s *Service) persist(ctx context.Context, table, key string, v interface{}, ttl time.Duration) {
	if s.store == nil {
		return
	}
	if err := s.store.Store(ctx, table, key, v, ttl); err != nil {
		s.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to persist market data")
	}
}
