package income

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/rs/zerolog"
)

// Repository stores income records in the ledger database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new income repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "income").Logger(),
	}
}

// Create inserts a record
func (r *Repository) Create(ctx context.Context, rec domain.IncomeRecord) error {
	return ledger.InsertIncomeRecord(ctx, r.db, rec)
}

// List returns the user's records sorted by year descending then month ascending.
// A zero year returns every year.
func (r *Repository) List(ctx context.Context, userID string, year int) ([]domain.IncomeRecord, error) {
	query := `SELECT id, user_id, year, month, amount, amount_foreign, category, description, company, currency, created_at
		FROM income_records WHERE user_id = ?`
	args := []interface{}{userID}
	if year != 0 {
		query += " AND year = ?"
		args = append(args, year)
	}
	query += " ORDER BY year DESC, month ASC, created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query income records: %w", err)
	}
	defer rows.Close()

	records := []domain.IncomeRecord{}
	for rows.Next() {
		var rec domain.IncomeRecord
		var foreign sql.NullFloat64
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Year, &rec.Month, &rec.Amount, &foreign,
			&rec.Category, &rec.Description, &rec.Company, &rec.Currency, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan income record: %w", err)
		}
		if foreign.Valid {
			f := foreign.Float64
			rec.AmountForeign = &f
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating income records: %w", err)
	}

	return records, nil
}

// Delete removes one of the user's records. A missing record is ErrNotFound.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM income_records WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete income record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("income record %s: %w", id, domain.ErrNotFound)
	}

	r.log.Debug().Str("id", id).Msg("Income record deleted")
	return nil
}
