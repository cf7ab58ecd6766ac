package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockStore fails RunAtomic with the queued errors before running work on tx
type mockStore struct {
	mock.Mock
	tx       *memoryTx
	failures []error
	calls    int
}

func (m *mockStore) RunAtomic(ctx context.Context, work func(ctx context.Context, tx LedgerTx) error) error {
	m.calls++
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return err
	}
	return work(ctx, m.tx)
}

func (m *mockStore) ListTransactions(ctx context.Context, userID string, q TransactionQuery) (Page, error) {
	args := m.Called(ctx, userID, q)
	return args.Get(0).(Page), args.Error(1)
}

func (m *mockStore) AllTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *mockStore) ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Holding), args.Error(1)
}

func (m *mockStore) GetHolding(ctx context.Context, userID, symbol string) (*domain.Holding, error) {
	args := m.Called(ctx, userID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Holding), args.Error(1)
}

// memoryTx is a LedgerTx over plain maps
type memoryTx struct {
	holdings map[string]domain.Holding
	txs      []domain.Transaction
	income   []domain.IncomeRecord
}

func newMemoryTx() *memoryTx {
	return &memoryTx{holdings: make(map[string]domain.Holding)}
}

func (m *memoryTx) GetHolding(ctx context.Context, userID, symbol string) (*domain.Holding, error) {
	h, ok := m.holdings[symbol]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *memoryTx) PutHolding(ctx context.Context, h domain.Holding) error {
	h.Version++
	m.holdings[h.Symbol] = h
	return nil
}

func (m *memoryTx) DeleteHolding(ctx context.Context, h domain.Holding) error {
	delete(m.holdings, h.Symbol)
	return nil
}

func (m *memoryTx) InsertTransaction(ctx context.Context, tx domain.Transaction) error {
	m.txs = append(m.txs, tx)
	return nil
}

func (m *memoryTx) InsertIncome(ctx context.Context, rec domain.IncomeRecord) error {
	m.income = append(m.income, rec)
	return nil
}

func (m *memoryTx) TransactionsForUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return m.txs, nil
}

func (m *memoryTx) DeleteHoldings(ctx context.Context, userID string) error {
	m.holdings = make(map[string]domain.Holding)
	return nil
}

func TestService_RecordTransactionRetriesConflicts(t *testing.T) {
	store := &mockStore{
		tx: newMemoryTx(),
		failures: []error{
			&domain.ConcurrencyConflictError{Symbol: "XYZ"},
			&domain.ConcurrencyConflictError{Symbol: "XYZ"},
		},
	}
	svc := NewService(store, 3, zerolog.Nop())

	res, err := svc.RecordTransaction(context.Background(), validBuy())

	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
	assert.InDelta(t, 10, res.Holding.Quantity, delta)
	assert.Len(t, store.tx.txs, 1)
}

func TestService_RecordTransactionGivesUpAfterMaxRetries(t *testing.T) {
	conflict := &domain.ConcurrencyConflictError{Symbol: "XYZ"}
	store := &mockStore{
		tx:       newMemoryTx(),
		failures: []error{conflict, conflict, conflict},
	}
	svc := NewService(store, 2, zerolog.Nop())

	_, err := svc.RecordTransaction(context.Background(), validBuy())

	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, 3, store.calls)
	assert.Empty(t, store.tx.txs)
}

func TestService_RecordTransactionDoesNotRetryOtherErrors(t *testing.T) {
	store := &mockStore{
		tx:       newMemoryTx(),
		failures: []error{errors.New("disk full")},
	}
	svc := NewService(store, 3, zerolog.Nop())

	_, err := svc.RecordTransaction(context.Background(), validBuy())

	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 1, store.calls)
}

func TestService_RecordTransactionValidatesBeforeStore(t *testing.T) {
	store := &mockStore{tx: newMemoryTx()}
	svc := NewService(store, 3, zerolog.Nop())

	in := validBuy()
	in.Price = 0
	_, err := svc.RecordTransaction(context.Background(), in)

	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Zero(t, store.calls)
}

func TestService_RecordTransactionHonoursCancellation(t *testing.T) {
	conflict := &domain.ConcurrencyConflictError{Symbol: "XYZ"}
	store := &mockStore{
		tx:       newMemoryTx(),
		failures: []error{conflict, conflict},
	}
	svc := NewService(store, 3, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RecordTransaction(ctx, validBuy())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, store.calls)
}

func TestService_ListHoldingsDelegates(t *testing.T) {
	store := &mockStore{tx: newMemoryTx()}
	store.On("ListHoldings", mock.Anything, "user-1").Return([]domain.Holding{{Symbol: "XYZ"}}, nil)
	svc := NewService(store, 3, zerolog.Nop())

	holdings, err := svc.ListHoldings(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, holdings, 1)
	store.AssertExpectations(t)
}

func TestService_ListTransactionsWrapsStoreErrors(t *testing.T) {
	store := &mockStore{tx: newMemoryTx()}
	store.On("ListTransactions", mock.Anything, "user-1", mock.Anything).Return(Page{}, errors.New("boom"))
	svc := NewService(store, 3, zerolog.Nop())

	_, err := svc.ListTransactions(context.Background(), "user-1", TransactionQuery{})

	assert.ErrorContains(t, err, "failed to list transactions")
}
