package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedSpend(t *testing.T, ledger *BalanceLedger, accountID, category, amount string, date time.Time) {
	t.Helper()
	_, err := ledger.Record(context.Background(), core.Transaction{
		Owner:       "alice",
		AccountID:   accountID,
		Type:        core.Expense,
		Amount:      dec(amount),
		Description: "spend",
		CategoryID:  category,
		Date:        date,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestBudgetProgressWithinCurrentPeriod(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	svc := NewBudgetService(repo, nil)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "2000.00")

	b, err := svc.Create(ctx, core.Budget{
		Owner:      "alice",
		Name:       "Groceries",
		CategoryID: "food",
		Amount:     dec("500.00"),
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.AlertThreshold != core.DefaultAlertThreshold {
		t.Errorf("AlertThreshold = %v, want default %v", b.AlertThreshold, core.DefaultAlertThreshold)
	}

	// Two in the current month, one in a prior month, one other category.
	seedSpend(t, ledger, a.ID, "food", "120.00", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	seedSpend(t, ledger, a.ID, "food", "80.00", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	seedSpend(t, ledger, a.ID, "food", "300.00", time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC))
	seedSpend(t, ledger, a.ID, "rent", "900.00", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	p, err := svc.Progress(ctx, "alice", b.ID, now)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}

	if !p.Spent.Equal(dec("200.00")) {
		t.Errorf("Spent = %s, want 200.00", p.Spent)
	}
	if !p.Remaining.Equal(dec("300.00")) {
		t.Errorf("Remaining = %s, want 300.00", p.Remaining)
	}
	if p.PercentUsed != 40 {
		t.Errorf("PercentUsed = %v, want 40", p.PercentUsed)
	}
	if p.IsOverBudget {
		t.Error("over budget at 40%")
	}
}

func TestOverallBudgetCountsEveryCategory(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	svc := NewBudgetService(repo, nil)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "2000.00")

	b, err := svc.Create(ctx, core.Budget{
		Owner:     "alice",
		Name:      "Everything",
		Amount:    dec("1000.00"),
		Period:    core.PeriodMonthly,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	seedSpend(t, ledger, a.ID, "food", "400.00", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	seedSpend(t, ledger, a.ID, "rent", "700.00", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	p, err := svc.Progress(ctx, "alice", b.ID, now)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}

	if !p.Spent.Equal(dec("1100.00")) {
		t.Errorf("Spent = %s, want 1100.00", p.Spent)
	}
	if !p.IsOverBudget {
		t.Error("not flagged over budget at 1100/1000")
	}
	if p.PercentUsed != 100 {
		t.Errorf("PercentUsed = %v, want capped 100", p.PercentUsed)
	}
}

func TestProgressAllCoversEveryBudget(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewBudgetService(repo, nil)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, name := range []string{"Groceries", "Transport"} {
		_, err := svc.Create(ctx, core.Budget{
			Owner: "alice", Name: name, Amount: dec("100.00"),
			Period: core.PeriodWeekly, StartDate: start,
		})
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	progress, err := svc.ProgressAll(ctx, "alice", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProgressAll: %v", err)
	}
	if len(progress) != 2 {
		t.Errorf("got progress for %d budgets, want 2", len(progress))
	}
	for id, p := range progress {
		if !p.Spent.IsZero() {
			t.Errorf("budget %s shows spend %s with no transactions", id, p.Spent)
		}
	}
}
