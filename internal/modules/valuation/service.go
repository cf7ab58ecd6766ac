package valuation

import (
	"context"
	"fmt"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

// Portfolio is the valuation of a user's holdings plus its category distribution
type Portfolio struct {
	Valuation
	Distribution map[domain.Category]float64 `json:"distribution"`
	// MissingQuotes lists symbols valued at cost basis
	MissingQuotes []string `json:"missing_quotes,omitempty"`
}

// Service values a user's portfolio from stored holdings and live quotes
type Service struct {
	holdings   domain.HoldingSource
	marketData domain.MarketData
	fallbackFX float64
	log        zerolog.Logger
}

// NewService creates a new valuation service
func NewService(holdings domain.HoldingSource, marketData domain.MarketData, fallbackFX float64, log zerolog.Logger) *Service {
	return &Service{
		holdings:   holdings,
		marketData: marketData,
		fallbackFX: fallbackFX,
		log:        log.With().Str("service", "valuation").Logger(),
	}
}

// Portfolio values all holdings of the user.
// Quote and FX failures degrade to cost basis and the fallback rate.
func (s *Service) Portfolio(ctx context.Context, userID string) (*Portfolio, error) {
	holdings, err := s.holdings.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}

	quotes := map[string]float64{}
	if len(symbols) > 0 {
		q, err := s.marketData.Quotes(ctx, symbols)
		if err != nil {
			s.log.Warn().Err(err).Int("symbols", len(symbols)).Msg("Quotes unavailable, valuing at cost basis")
		} else {
			quotes = q
		}
	}

	rate := s.Rate(ctx)
	v := Valuate(holdings, quotes, rate)

	p := &Portfolio{
		Valuation:    v,
		Distribution: Distribution(v.Items),
	}
	for _, item := range v.Items {
		if item.PriceSource == PriceSourceCostBasis {
			p.MissingQuotes = append(p.MissingQuotes, item.Symbol)
		}
	}
	if len(p.MissingQuotes) > 0 {
		s.log.Warn().Strs("symbols", p.MissingQuotes).Msg("Valued at cost basis")
	}

	return p, nil
}

// Rate returns the current USD/TRY rate or the configured fallback
func (s *Service) Rate(ctx context.Context) float64 {
	rate, err := s.marketData.USDTRYRate(ctx)
	if err != nil || rate <= 0 {
		s.log.Warn().Err(err).Float64("fallback", s.fallbackFX).Msg("USD/TRY rate unavailable, using fallback")
		if s.fallbackFX > 0 {
			return s.fallbackFX
		}
		return domain.DefaultUSDTRYRate
	}
	return rate
}
