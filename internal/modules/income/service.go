package income

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists income records
type Store interface {
	Create(ctx context.Context, rec domain.IncomeRecord) error
	List(ctx context.Context, userID string, year int) ([]domain.IncomeRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

// RateSource provides the current USD/TRY rate
type RateSource interface {
	Rate(ctx context.Context) float64
}

// MonthView is one rendered cell
type MonthView struct {
	Entries interface{} `json:"entries"`
	Month   int         `json:"month"`
	Total   float64     `json:"total"`
}

// YearView is one rendered year row
type YearView struct {
	Months []MonthView `json:"months"`
	Year   int         `json:"year"`
	Total  float64     `json:"total"`
}

// MatrixView is a year×month grid rendered in one currency
type MatrixView struct {
	Currency domain.Currency `json:"currency"`
	Years    []YearView      `json:"years"`
	Total    float64         `json:"total"`
	FXRate   float64         `json:"fx_rate"`
}

// Service manages the income calendar and renders the monthly matrices
type Service struct {
	store        Store
	transactions domain.TransactionSource
	rates        RateSource
	log          zerolog.Logger
	now          func() time.Time
}

// NewService creates a new income service
func NewService(store Store, transactions domain.TransactionSource, rates RateSource, log zerolog.Logger) *Service {
	return &Service{
		store:        store,
		transactions: transactions,
		rates:        rates,
		log:          log.With().Str("service", "income").Logger(),
		now:          time.Now,
	}
}

// ParseCurrency parses a matrix currency. Empty means TRY.
func ParseCurrency(s string) (domain.Currency, error) {
	switch domain.Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case "", domain.CurrencyTRY:
		return domain.CurrencyTRY, nil
	case domain.CurrencyUSD:
		return domain.CurrencyUSD, nil
	}
	return "", domain.NewValidationError("currency", "must be TRY or USD")
}

// AddRecord validates and stores a new income record
func (s *Service) AddRecord(ctx context.Context, userID string, in RecordInput) (domain.IncomeRecord, error) {
	if err := in.Validate(); err != nil {
		return domain.IncomeRecord{}, err
	}

	rec := domain.IncomeRecord{
		ID:            uuid.New().String(),
		UserID:        userID,
		Year:          in.Year,
		Month:         in.Month,
		Amount:        in.Amount,
		AmountForeign: in.AmountForeign,
		Currency:      domain.CurrencyTRY,
		Category:      strings.TrimSpace(in.Category),
		Description:   strings.TrimSpace(in.Description),
		Company:       strings.TrimSpace(in.Company),
		CreatedAt:     s.now().UTC().Truncate(time.Second),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return domain.IncomeRecord{}, err
	}

	s.log.Info().Str("user_id", userID).Int("year", rec.Year).Int("month", rec.Month).Float64("amount", rec.Amount).Msg("Income recorded")
	return rec, nil
}

// ListRecords returns the user's records, optionally restricted to one year
func (s *Service) ListRecords(ctx context.Context, userID string, year int) ([]domain.IncomeRecord, error) {
	if year != 0 && (year < 2000 || year > 2100) {
		return nil, domain.NewValidationError("year", "must be between 2000 and 2100")
	}
	return s.store.List(ctx, userID, year)
}

// DeleteRecord removes one record
func (s *Service) DeleteRecord(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}

// IncomeMatrix renders the income calendar in currency
func (s *Service) IncomeMatrix(ctx context.Context, userID string, currency domain.Currency) (*MatrixView, error) {
	records, err := s.store.List(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load income records: %w", err)
	}

	years := make([]int, 0, len(records))
	for _, rec := range records {
		years = append(years, rec.Year)
	}
	minYear, maxYear := YearSpan(years)
	grid := Matrix(records, minYear, maxYear)

	view := &MatrixView{Currency: currency, FXRate: s.rates.Rate(ctx), Years: make([]YearView, 0, maxYear-minYear+1)}

	for y := minYear; y <= maxYear; y++ {
		row := YearView{Year: y, Months: make([]MonthView, 0, MonthsPerYear)}
		for m := 0; m < MonthsPerYear; m++ {
			cell := grid[y][m]
			total := domain.RoundMoney(Converted(cell, view.FXRate, currency), currency)
			row.Months = append(row.Months, MonthView{Month: m, Total: total, Entries: cell.Entries})
			row.Total += total
		}
		row.Total = domain.RoundMoney(row.Total, currency)
		view.Total += row.Total
		view.Years = append(view.Years, row)
	}
	view.Total = domain.RoundMoney(view.Total, currency)

	return view, nil
}

// InvestmentMatrix renders invested capital per month in currency
func (s *Service) InvestmentMatrix(ctx context.Context, userID string, currency domain.Currency) (*MatrixView, error) {
	txs, err := s.transactions.AllTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	rate := s.rates.Rate(ctx)
	minYear, maxYear := YearSpan(InvestmentYears(txs))
	grid := InvestmentMatrix(txs, minYear, maxYear, rate)

	view := &MatrixView{Currency: currency, FXRate: rate, Years: make([]YearView, 0, maxYear-minYear+1)}
	for y := minYear; y <= maxYear; y++ {
		row := YearView{Year: y, Months: make([]MonthView, 0, MonthsPerYear)}
		for m := 0; m < MonthsPerYear; m++ {
			cell := grid[y][m]
			total := cell.Total
			if currency == domain.CurrencyUSD {
				total = cell.TotalForeign
			}
			total = domain.RoundMoney(total, currency)
			row.Months = append(row.Months, MonthView{Month: m, Total: total, Entries: cell.Entries})
			row.Total += total
		}
		row.Total = domain.RoundMoney(row.Total, currency)
		view.Total += row.Total
		view.Years = append(view.Years, row)
	}
	view.Total = domain.RoundMoney(view.Total, currency)

	return view, nil
}
