package goals

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

// Repository stores goals in the ledger database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new goal repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "goals").Logger(),
	}
}

// Upsert creates the goal of a category or replaces its target.
// The stored goal keeps its original ID when it already existed.
func (r *Repository) Upsert(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, category, target_amount, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, category) DO UPDATE SET
			target_amount = excluded.target_amount,
			updated_at = excluded.updated_at`,
		g.ID, g.UserID, string(g.Category), g.TargetAmount, g.UpdatedAt.Unix())
	if err != nil {
		return domain.Goal{}, fmt.Errorf("failed to upsert goal: %w", err)
	}

	stored, err := r.get(ctx, g.UserID, g.Category)
	if err != nil {
		return domain.Goal{}, err
	}
	return *stored, nil
}

// List returns the user's goals in goal category order
func (r *Repository) List(ctx context.Context, userID string) ([]domain.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, category, target_amount, updated_at FROM goals WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	byCategory := make(map[domain.GoalCategory]domain.Goal)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		byCategory[g.Category] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}

	goals := make([]domain.Goal, 0, len(byCategory))
	for _, c := range domain.AllGoalCategories {
		if g, ok := byCategory[c]; ok {
			goals = append(goals, g)
		}
	}
	return goals, nil
}

// Delete removes the goal of a category. A missing goal is ErrNotFound.
func (r *Repository) Delete(ctx context.Context, userID string, category domain.GoalCategory) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM goals WHERE user_id = ? AND category = ?", userID, string(category))
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("goal %s: %w", category, domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) get(ctx context.Context, userID string, category domain.GoalCategory) (*domain.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, category, target_amount, updated_at FROM goals WHERE user_id = ? AND category = ?",
		userID, string(category))

	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("goal %s: %w", category, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &g, nil
}

func scanGoal(row interface{ Scan(...interface{}) error }) (domain.Goal, error) {
	var g domain.Goal
	var category string
	var updatedAt int64

	if err := row.Scan(&g.ID, &g.UserID, &category, &g.TargetAmount, &updatedAt); err != nil {
		return g, err
	}
	g.Category = domain.GoalCategory(category)
	g.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return g, nil
}
