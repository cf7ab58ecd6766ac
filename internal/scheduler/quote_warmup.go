package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

// SymbolLister lists the symbols that are currently held
type SymbolLister interface {
	HeldSymbols(ctx context.Context) ([]string, error)
}

// QuoteRefresher refetches quotes into the caches
type QuoteRefresher interface {
	Refresh(ctx context.Context, symbols []string) (int, error)
}

// QuoteWarmupJob keeps quotes for held symbols and the USD/TRY rate warm,
// so valuation requests rarely wait on the provider
type QuoteWarmupJob struct {
	symbols   SymbolLister
	refresher QuoteRefresher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewQuoteWarmupJob creates a new quote warmup job
func NewQuoteWarmupJob(symbols SymbolLister, refresher QuoteRefresher, log zerolog.Logger) *QuoteWarmupJob {
	return &QuoteWarmupJob{
		symbols:   symbols,
		refresher: refresher,
		timeout:   2 * time.Minute,
		log:       log.With().Str("job", "quote_warmup").Logger(),
	}
}

// Name returns the job name
func (j *QuoteWarmupJob) Name() string {
	return "quote_warmup"
}

// Run executes the quote warmup job
func (j *QuoteWarmupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	held, err := j.symbols.HeldSymbols(ctx)
	if err != nil {
		return fmt.Errorf("failed to list held symbols: %w", err)
	}

	symbols := append([]string{domain.FXSymbolUSDTRY}, held...)
	resolved, err := j.refresher.Refresh(ctx, symbols)
	if err != nil {
		return fmt.Errorf("failed to refresh quotes: %w", err)
	}

	if resolved < len(symbols) {
		j.log.Warn().Int("requested", len(symbols)).Int("resolved", resolved).Msg("Some quotes could not be refreshed")
	} else {
		j.log.Debug().Int("resolved", resolved).Msg("Quotes refreshed")
	}
	return nil
}
