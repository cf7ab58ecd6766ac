package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// conflictBackoff is the base delay between re-runs of a conflicting unit of work
const conflictBackoff = 25 * time.Millisecond

// Service records transactions and serves ledger queries
type Service struct {
	store      Store
	maxRetries int
	newID      func() string
	now        func() time.Time
	log        zerolog.Logger
}

// NewService creates a new ledger service.
// maxRetries bounds how often a unit of work is re-run after a ConcurrencyConflictError.
func NewService(store Store, maxRetries int, log zerolog.Logger) *Service {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Service{
		store:      store,
		maxRetries: maxRetries,
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
		log:        log.With().Str("service", "ledger").Logger(),
	}
}

// RecordTransaction validates input and applies it to the holding of its symbol.
// The holding update, the transaction insert and any dividend income record are
// committed in one atomic unit. Conflicting units are re-run from a fresh read.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (Result, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	tx := in.ToTransaction(s.newID(), s.now())

	var result Result
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * conflictBackoff
			s.log.Warn().
				Str("symbol", tx.Symbol).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("Ledger conflict, retrying")

			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		result, err = s.apply(ctx, tx)
		if err == nil || !domain.IsConflict(err) {
			break
		}
	}
	if err != nil {
		return Result{}, err
	}

	s.log.Info().
		Str("user_id", tx.UserID).
		Str("symbol", tx.Symbol).
		Str("type", string(tx.Type)).
		Float64("quantity", tx.Quantity).
		Float64("total", tx.Total).
		Bool("holding_deleted", result.Deleted).
		Msg("Transaction recorded")

	return result, nil
}

// apply runs one attempt of the unit of work
func (s *Service) apply(ctx context.Context, tx domain.Transaction) (Result, error) {
	var result Result

	err := s.store.RunAtomic(ctx, func(ctx context.Context, lt LedgerTx) error {
		current, err := lt.GetHolding(ctx, tx.UserID, tx.Symbol)
		if err != nil {
			return err
		}

		res, err := ApplyTransaction(current, tx)
		if err != nil {
			return err
		}

		switch {
		case res.Deleted:
			err = lt.DeleteHolding(ctx, *current)
		default:
			next := *res.Holding
			if current == nil {
				next.Version = 0
			}
			err = lt.PutHolding(ctx, next)
		}
		if err != nil {
			return err
		}

		if err := lt.InsertTransaction(ctx, tx); err != nil {
			return err
		}

		for i := range res.SideEffects {
			res.SideEffects[i].ID = s.newID()
			res.SideEffects[i].CreatedAt = tx.CreatedAt
			if err := lt.InsertIncome(ctx, res.SideEffects[i]); err != nil {
				return err
			}
		}

		result = res
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

// ListTransactions returns one page of the user's transactions, newest first
func (s *Service) ListTransactions(ctx context.Context, userID string, q TransactionQuery) (Page, error) {
	if q.Category != "" {
		c, err := domain.ParseCategory(string(q.Category))
		if err != nil {
			return Page{}, domain.NewValidationError("category", "unknown category %q", q.Category)
		}
		q.Category = c
	}
	if q.Limit < 0 {
		return Page{}, domain.NewValidationError("limit", "must not be negative")
	}

	page, err := s.store.ListTransactions(ctx, userID, q)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	return page, nil
}

// AllTransactions returns the full log in ascending date order
func (s *Service) AllTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.store.AllTransactions(ctx, userID)
}

// ListHoldings returns the user's current holdings
func (s *Service) ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	return s.store.ListHoldings(ctx, userID)
}

// GetHolding returns one holding or domain.ErrNotFound
func (s *Service) GetHolding(ctx context.Context, userID, symbol string) (*domain.Holding, error) {
	h, err := s.store.GetHolding(ctx, userID, symbol)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("holding %s: %w", symbol, domain.ErrNotFound)
	}
	return h, nil
}

// RebuildHoldings recomputes every holding of the user from the transaction log
// and replaces the stored snapshots. It returns the rebuilt holdings.
func (s *Service) RebuildHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	var rebuilt []domain.Holding

	err := s.store.RunAtomic(ctx, func(ctx context.Context, lt LedgerTx) error {
		txs, err := lt.TransactionsForUser(ctx, userID)
		if err != nil {
			return err
		}

		folded, err := FoldHoldings(txs)
		if err != nil {
			return err
		}

		if err := lt.DeleteHoldings(ctx, userID); err != nil {
			return err
		}

		rebuilt = make([]domain.Holding, 0, len(folded))
		for _, h := range folded {
			h.Version = 0
			if err := lt.PutHolding(ctx, h); err != nil {
				return err
			}
			rebuilt = append(rebuilt, h)
		}
		sort.Slice(rebuilt, func(i, j int) bool {
			if rebuilt[i].Category != rebuilt[j].Category {
				return rebuilt[i].Category < rebuilt[j].Category
			}
			return rebuilt[i].Symbol < rebuilt[j].Symbol
		})
		return nil
	})
	if err != nil {
		var insufficient *domain.InsufficientQuantityError
		if errors.As(err, &insufficient) {
			return nil, fmt.Errorf("transaction log is inconsistent: %w", err)
		}
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Int("holdings", len(rebuilt)).
		Msg("Holdings rebuilt from transaction log")

	return rebuilt, nil
}
