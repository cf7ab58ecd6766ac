package ledger

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/aristath/folio/internal/domain"
)

// Page size limits for transaction listing
const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// LedgerTx is the view of the store available inside one atomic unit of work
type LedgerTx interface {
	// GetHolding returns nil, nil when the symbol is not held
	GetHolding(ctx context.Context, userID, symbol string) (*domain.Holding, error)
	// PutHolding inserts a holding with Version 0 or updates one whose stored
	// version still equals h.Version. A lost race yields ConcurrencyConflictError.
	PutHolding(ctx context.Context, h domain.Holding) error
	// DeleteHolding removes a holding whose stored version still equals h.Version
	DeleteHolding(ctx context.Context, h domain.Holding) error
	InsertTransaction(ctx context.Context, tx domain.Transaction) error
	InsertIncome(ctx context.Context, rec domain.IncomeRecord) error

	// TransactionsForUser returns the user's log in ascending date order
	TransactionsForUser(ctx context.Context, userID string) ([]domain.Transaction, error)
	// DeleteHoldings removes every holding of the user
	DeleteHoldings(ctx context.Context, userID string) error
}

// AtomicRunner runs work as a single all-or-nothing unit against the ledger store.
// If work returns an error nothing it wrote is kept.
type AtomicRunner interface {
	RunAtomic(ctx context.Context, work func(ctx context.Context, tx LedgerTx) error) error
}

// Reader provides the read-only queries of the ledger store
type Reader interface {
	ListTransactions(ctx context.Context, userID string, q TransactionQuery) (Page, error)
	AllTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error)
	GetHolding(ctx context.Context, userID, symbol string) (*domain.Holding, error)
}

// Store is a ledger store offering both the atomic unit and the queries
type Store interface {
	AtomicRunner
	Reader
}

// TransactionQuery selects a page of transactions ordered by date descending
type TransactionQuery struct {
	Category domain.Category
	Cursor   string
	Limit    int
}

// normalized applies the page size defaults
func (q TransactionQuery) normalized() TransactionQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	return q
}

// Page is one page of transactions
type Page struct {
	Items      []domain.Transaction `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// cursor is the position after the last item of a page
type cursor struct {
	date int64
	id   string
}

func encodeCursor(tx domain.Transaction) string {
	raw := strconv.FormatInt(tx.Date.Unix(), 10) + ":" + tx.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*cursor, error) {
	if s == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, domain.NewValidationError("cursor", "malformed")
	}

	datePart, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return nil, domain.NewValidationError("cursor", "malformed")
	}

	date, err := strconv.ParseInt(datePart, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError("cursor", "malformed")
	}

	return &cursor{date: date, id: id}, nil
}
