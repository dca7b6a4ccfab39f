package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestContributeAdvancesAndCompletes(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewGoalService(repo, nil, 0)
	ctx := context.Background()

	g, err := svc.Create(ctx, core.SavingsGoal{
		Owner:        "alice",
		Name:         "Emergency fund",
		TargetAmount: dec("1000.00"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	g, err = svc.Contribute(ctx, "alice", g.ID, dec("400.00"), "paycheck", date)
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if !g.CurrentAmount.Equal(dec("400.00")) {
		t.Errorf("current = %s, want 400.00", g.CurrentAmount)
	}
	if g.IsCompleted {
		t.Error("completed at 40%")
	}

	g, err = svc.Contribute(ctx, "alice", g.ID, dec("600.00"), "bonus", date.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if !g.IsCompleted {
		t.Error("not completed at 100%")
	}
	if g.CompletedAt == nil || !g.CompletedAt.Equal(date.AddDate(0, 1, 0)) {
		t.Errorf("CompletedAt = %v, want contribution date", g.CompletedAt)
	}

	contributions, err := svc.Contributions(ctx, "alice", g.ID)
	if err != nil {
		t.Fatalf("Contributions: %v", err)
	}
	if len(contributions) != 2 {
		t.Errorf("got %d contributions, want 2", len(contributions))
	}
}

func TestCompletionIsOneWay(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewGoalService(repo, nil, 0)
	ctx := context.Background()

	g, err := svc.Create(ctx, core.SavingsGoal{
		Owner:        "alice",
		Name:         "Bike",
		TargetAmount: dec("500.00"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	g, err = svc.Contribute(ctx, "alice", g.ID, dec("500.00"), "", date)
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if !g.IsCompleted {
		t.Fatal("goal not completed at target")
	}
	firstCompletedAt := *g.CompletedAt

	// Raising the target after completion does not reopen the goal.
	g.TargetAmount = dec("2000.00")
	g, err = svc.Update(ctx, g)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !g.IsCompleted {
		t.Error("completion reverted by target raise")
	}

	// A later contribution does not re-trigger completion.
	g, err = svc.Contribute(ctx, "alice", g.ID, dec("100.00"), "", date.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if !g.CompletedAt.Equal(firstCompletedAt) {
		t.Errorf("CompletedAt moved from %v to %v", firstCompletedAt, g.CompletedAt)
	}
}

func TestContributeValidation(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewGoalService(repo, nil, 0)
	ctx := context.Background()

	g, err := svc.Create(ctx, core.SavingsGoal{Owner: "alice", Name: "Trip", TargetAmount: dec("300.00")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Contribute(ctx, "alice", g.ID, dec("0"), "", time.Time{}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero contribution error = %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.Contribute(ctx, "alice", g.ID, dec("-10"), "", time.Time{}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative contribution error = %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.Contribute(ctx, "alice", "missing", dec("10"), "", time.Time{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing goal error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Contribute(ctx, "bob", g.ID, dec("10"), "", time.Time{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-owner contribution error = %v, want ErrNotFound", err)
	}
}
