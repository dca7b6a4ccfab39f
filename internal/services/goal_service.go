package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// GoalService manages savings goals and their contributions. Completion is
// one-way: once a goal reaches its target it stays completed even if the
// target is later raised.
type GoalService struct {
	repo         storage.Repository
	amqpClient   *amqp.Client
	pacingBuffer float64
}

func NewGoalService(repo storage.Repository, amqpClient *amqp.Client, pacingBuffer float64) *GoalService {
	if pacingBuffer <= 0 {
		pacingBuffer = core.DefaultPacingBuffer
	}
	return &GoalService{
		repo:         repo,
		amqpClient:   amqpClient,
		pacingBuffer: pacingBuffer,
	}
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.repo.CreateGoal(ctx, g)
}

func (s *GoalService) Get(ctx context.Context, owner, id string) (core.SavingsGoal, error) {
	return s.repo.GetGoal(ctx, owner, id)
}

func (s *GoalService) List(ctx context.Context, owner string) ([]core.SavingsGoal, error) {
	return s.repo.ListGoals(ctx, owner)
}

// Update changes the goal's name, target and deadline. Completion state and
// accumulated amount are owned by Contribute and never overwritten here.
func (s *GoalService) Update(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	existing, err := s.repo.GetGoal(ctx, g.Owner, g.ID)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	existing.Name = g.Name
	existing.TargetAmount = g.TargetAmount
	existing.Deadline = g.Deadline
	if err := existing.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	if err := s.repo.UpdateGoal(ctx, existing); err != nil {
		return core.SavingsGoal{}, err
	}
	return existing, nil
}

func (s *GoalService) Delete(ctx context.Context, owner, id string) error {
	return s.repo.DeleteGoal(ctx, owner, id)
}

// Contribute records a contribution and advances the goal's current amount.
// The first time the total reaches the target, the goal is marked completed
// and a completion event is published.
func (s *GoalService) Contribute(ctx context.Context, owner, goalID string, amount decimal.Decimal, note string, date time.Time) (core.SavingsGoal, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return core.SavingsGoal{}, err
	}

	g, err := s.repo.GetGoal(ctx, owner, goalID)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}

	if _, err := s.repo.CreateContribution(ctx, core.GoalContribution{
		GoalID: goalID,
		Owner:  owner,
		Amount: amount,
		Note:   note,
		Date:   date,
	}); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create contribution: %w", err)
	}

	g.CurrentAmount = g.CurrentAmount.Add(amount)
	justCompleted := !g.IsCompleted && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
	if justCompleted {
		completedAt := date
		g.IsCompleted = true
		g.CompletedAt = &completedAt
	}

	if err := s.repo.UpdateGoal(ctx, g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal: %w", err)
	}

	if justCompleted {
		s.publishCompleted(ctx, g)
	}

	return g, nil
}

func (s *GoalService) Contributions(ctx context.Context, owner, goalID string) ([]core.GoalContribution, error) {
	if _, err := s.repo.GetGoal(ctx, owner, goalID); err != nil {
		return nil, err
	}
	return s.repo.ListContributions(ctx, owner, goalID)
}

// Progress computes the goal's completion percentage and pacing status.
func (s *GoalService) Progress(g core.SavingsGoal, now time.Time) core.GoalProgress {
	return core.ComputeGoalProgress(g, now, s.pacingBuffer)
}

func (s *GoalService) publishCompleted(ctx context.Context, g core.SavingsGoal) {
	if s.amqpClient == nil {
		return
	}

	msg := &amqp.GoalCompletedMessage{
		Owner:        g.Owner,
		GoalID:       g.ID,
		Name:         g.Name,
		TargetAmount: g.TargetAmount.StringFixed(2),
		Timestamp:    time.Now().UTC(),
	}
	if g.CompletedAt != nil {
		msg.CompletedAt = *g.CompletedAt
	}

	if err := s.amqpClient.PublishGoalCompleted(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish goal completed",
			"goal_id", g.ID, "error", err)
	}
}
