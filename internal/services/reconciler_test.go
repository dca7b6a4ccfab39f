package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestReconcileCleanAccount(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	reconciler := NewReconciler(repo, nil)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "250.00")

	_, err := ledger.Record(ctx, core.Transaction{
		Owner: "alice", AccountID: a.ID, Type: core.Expense,
		Amount: dec("50.00"), Description: "groceries",
		Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	report, err := reconciler.Reconcile(ctx, "alice", a.ID, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !report.Drift.IsZero() {
		t.Errorf("drift = %s on a ledger-managed account", report.Drift)
	}
	if !report.Expected.Equal(dec("200.00")) {
		t.Errorf("expected = %s, want 200.00", report.Expected)
	}
	if report.Err() != nil {
		t.Errorf("clean report carries error %v", report.Err())
	}
}

func TestReconcileDetectsAndRepairsDrift(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	reconciler := NewReconciler(repo, nil)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "250.00")

	_, err := ledger.Record(ctx, core.Transaction{
		Owner: "alice", AccountID: a.ID, Type: core.Expense,
		Amount: dec("50.00"), Description: "groceries",
		Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Out-of-band write bypassing the ledger.
	if err := repo.SetAccountBalance(ctx, "alice", a.ID, dec("999.00")); err != nil {
		t.Fatalf("SetAccountBalance: %v", err)
	}

	report, err := reconciler.Reconcile(ctx, "alice", a.ID, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !report.Drift.Equal(dec("799.00")) {
		t.Errorf("drift = %s, want 799.00", report.Drift)
	}
	if !errors.Is(report.Err(), core.ErrInvariantViolation) {
		t.Errorf("report error = %v, want ErrInvariantViolation", report.Err())
	}
	if report.Repaired {
		t.Error("report claims repair without the repair flag")
	}

	report, err = reconciler.Reconcile(ctx, "alice", a.ID, true)
	if err != nil {
		t.Fatalf("Reconcile(repair): %v", err)
	}
	if !report.Repaired {
		t.Error("repair flag set but report says not repaired")
	}
	if got := accountBalance(t, repo, "alice", a.ID); !got.Equal(dec("200.00")) {
		t.Errorf("balance after repair = %s, want 200.00", got)
	}

	// Once repaired, a further check is clean.
	report, err = reconciler.Reconcile(ctx, "alice", a.ID, false)
	if err != nil {
		t.Fatalf("Reconcile after repair: %v", err)
	}
	if !report.Drift.IsZero() {
		t.Errorf("drift after repair = %s", report.Drift)
	}
}

func TestReconcileAllReportsOnlyDriftedAccounts(t *testing.T) {
	repo := storage.NewMemoryRepository()
	reconciler := NewReconciler(repo, nil)
	ctx := context.Background()

	newTestAccount(t, repo, "alice", "100.00")
	drifted := newTestAccount(t, repo, "alice", "100.00")
	if err := repo.SetAccountBalance(ctx, "alice", drifted.ID, dec("150.00")); err != nil {
		t.Fatalf("SetAccountBalance: %v", err)
	}

	reports, err := reconciler.ReconcileAll(ctx, "alice", false)
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d drift reports, want 1", len(reports))
	}
	if reports[0].AccountID != drifted.ID {
		t.Errorf("drift reported on account %s, want %s", reports[0].AccountID, drifted.ID)
	}
}
