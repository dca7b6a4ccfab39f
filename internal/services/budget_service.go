package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetService manages budgets and computes spending progress for the
// budget's current period window.
type BudgetService struct {
	repo       storage.Repository
	amqpClient *amqp.Client
}

func NewBudgetService(repo storage.Repository, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		repo:       repo,
		amqpClient: amqpClient,
	}
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.AlertThreshold == 0 {
		b.AlertThreshold = core.DefaultAlertThreshold
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	return s.repo.CreateBudget(ctx, b)
}

func (s *BudgetService) Get(ctx context.Context, owner, id string) (core.Budget, error) {
	return s.repo.GetBudget(ctx, owner, id)
}

func (s *BudgetService) List(ctx context.Context, owner string) ([]core.Budget, error) {
	return s.repo.ListBudgets(ctx, owner)
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.AlertThreshold == 0 {
		b.AlertThreshold = core.DefaultAlertThreshold
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.repo.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	return s.repo.GetBudget(ctx, b.Owner, b.ID)
}

func (s *BudgetService) Delete(ctx context.Context, owner, id string) error {
	return s.repo.DeleteBudget(ctx, owner, id)
}

// Progress computes spending against the budget for the period containing
// now. Only outflow transactions inside the half-open window count, and
// only those matching the budget's category when one is set.
func (s *BudgetService) Progress(ctx context.Context, owner, id string, now time.Time) (core.BudgetProgress, error) {
	b, err := s.repo.GetBudget(ctx, owner, id)
	if err != nil {
		return core.BudgetProgress{}, err
	}
	return s.progress(ctx, b, now)
}

// ProgressAll computes progress for every budget the owner has.
func (s *BudgetService) ProgressAll(ctx context.Context, owner string, now time.Time) (map[string]core.BudgetProgress, error) {
	budgets, err := s.repo.ListBudgets(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	progress := make(map[string]core.BudgetProgress, len(budgets))
	for _, b := range budgets {
		p, err := s.progress(ctx, b, now)
		if err != nil {
			return nil, err
		}
		progress[b.ID] = p
	}
	return progress, nil
}

func (s *BudgetService) progress(ctx context.Context, b core.Budget, now time.Time) (core.BudgetProgress, error) {
	start, end := core.PeriodWindow(b.Period, b.StartDate, now)
	txs, err := s.repo.ListTransactionsInRange(ctx, b.Owner, b.CategoryID, start, end)
	if err != nil {
		return core.BudgetProgress{}, fmt.Errorf("list transactions for budget %s: %w", b.ID, err)
	}
	return core.ComputeBudgetProgress(b, txs, now), nil
}

// CheckAlerts evaluates every budget for the owner and publishes an alert
// for each one at or past its threshold. Deduplication is left to the
// consumer; this publishes the current state whenever a spend lands.
func (s *BudgetService) CheckAlerts(ctx context.Context, owner string, now time.Time) error {
	if s.amqpClient == nil {
		return nil
	}

	budgets, err := s.repo.ListBudgets(ctx, owner)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	for _, b := range budgets {
		p, err := s.progress(ctx, b, now)
		if err != nil {
			return err
		}

		threshold := b.AlertThreshold
		if threshold == 0 {
			threshold = core.DefaultAlertThreshold
		}
		if p.PercentUsed < threshold && !p.IsOverBudget {
			continue
		}

		msg := &amqp.BudgetAlertMessage{
			Owner:       owner,
			BudgetID:    b.ID,
			Name:        b.Name,
			PercentUsed: p.PercentUsed,
			Spent:       p.Spent.StringFixed(2),
			Limit:       b.Amount.StringFixed(2),
			OverBudget:  p.IsOverBudget,
			Timestamp:   time.Now().UTC(),
		}
		if err := s.amqpClient.PublishBudgetAlert(ctx, msg); err != nil {
			return fmt.Errorf("publish budget alert for %s: %w", b.ID, err)
		}
	}

	return nil
}
