package goals

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/valuation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists goals
type Store interface {
	Upsert(ctx context.Context, g domain.Goal) (domain.Goal, error)
	List(ctx context.Context, userID string) ([]domain.Goal, error)
	Delete(ctx context.Context, userID string, category domain.GoalCategory) error
}

// PortfolioValuer values a user's holdings
type PortfolioValuer interface {
	Portfolio(ctx context.Context, userID string) (*valuation.Portfolio, error)
}

// GoalInput is a goal as submitted by a client
type GoalInput struct {
	Category     domain.GoalCategory `json:"category"`
	TargetAmount float64             `json:"target_amount"`
}

// Service manages goals and computes their progress
type Service struct {
	store       Store
	valuer      PortfolioValuer
	classifiers []Classifier
	log         zerolog.Logger
}

// NewService creates a new goal service. Without classifiers the defaults are used.
func NewService(store Store, valuer PortfolioValuer, log zerolog.Logger, classifiers ...Classifier) *Service {
	if len(classifiers) == 0 {
		classifiers = DefaultClassifiers()
	}
	return &Service{
		store:       store,
		valuer:      valuer,
		classifiers: classifiers,
		log:         log.With().Str("service", "goals").Logger(),
	}
}

// SetGoal creates or replaces the goal of a category
func (s *Service) SetGoal(ctx context.Context, userID string, in GoalInput) (domain.Goal, error) {
	category := domain.GoalCategory(strings.ToUpper(strings.TrimSpace(string(in.Category))))
	if !category.Valid() {
		return domain.Goal{}, domain.NewValidationError("category", "unknown goal category %q", in.Category)
	}
	if in.TargetAmount <= 0 || math.IsNaN(in.TargetAmount) || math.IsInf(in.TargetAmount, 0) {
		return domain.Goal{}, domain.NewValidationError("target_amount", "must be positive")
	}

	g, err := s.store.Upsert(ctx, domain.Goal{
		ID:           uuid.New().String(),
		UserID:       userID,
		Category:     category,
		TargetAmount: in.TargetAmount,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return domain.Goal{}, err
	}

	s.log.Info().Str("user_id", userID).Str("category", string(category)).Float64("target", in.TargetAmount).Msg("Goal set")
	return g, nil
}

// ListGoals returns the user's goals
func (s *Service) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	return s.store.List(ctx, userID)
}

// DeleteGoal removes the goal of a category
func (s *Service) DeleteGoal(ctx context.Context, userID string, category domain.GoalCategory) error {
	category = domain.GoalCategory(strings.ToUpper(string(category)))
	if !category.Valid() {
		return domain.NewValidationError("category", "unknown goal category %q", category)
	}
	return s.store.Delete(ctx, userID, category)
}

// Progress values the portfolio and measures every goal against it
func (s *Service) Progress(ctx context.Context, userID string) (*ProgressReport, error) {
	goals, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	portfolio, err := s.valuer.Portfolio(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to value portfolio: %w", err)
	}

	current := Aggregate(portfolio.Items, portfolio.FXRate, s.classifiers...)
	report := Progress(goals, current)
	report.FXRate = portfolio.FXRate

	return &report, nil
}
