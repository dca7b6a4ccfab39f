package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// runForEachBackend runs fn once against the in-memory repository and once
// against a throwaway SQLite database, so both stay behaviorally equivalent.
func runForEachBackend(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		repo := NewMemoryRepository()
		defer repo.Close()
		fn(t, repo)
	})

	t.Run("sqlite", func(t *testing.T) {
		repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("NewSQLiteRepository: %v", err)
		}
		defer repo.Close()
		fn(t, repo)
	})
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAccountCRUD(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		created, err := repo.CreateAccount(ctx, core.Account{
			Owner:          "alice",
			Name:           "Checking",
			Type:           core.AccountChecking,
			InitialBalance: dec("100.00"),
			Balance:        dec("100.00"),
			Active:         true,
		})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}
		if created.ID == "" {
			t.Fatal("CreateAccount returned empty ID")
		}

		got, err := repo.GetAccount(ctx, "alice", created.ID)
		if err != nil {
			t.Fatalf("GetAccount: %v", err)
		}
		if got.Name != "Checking" || !got.Balance.Equal(dec("100.00")) {
			t.Errorf("got account %+v", got)
		}

		if _, err := repo.GetAccount(ctx, "bob", created.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("cross-owner GetAccount error = %v, want ErrNotFound", err)
		}

		got.Name = "Main Checking"
		if err := repo.UpdateAccount(ctx, got); err != nil {
			t.Fatalf("UpdateAccount: %v", err)
		}

		accounts, err := repo.ListAccounts(ctx, "alice")
		if err != nil {
			t.Fatalf("ListAccounts: %v", err)
		}
		if len(accounts) != 1 || accounts[0].Name != "Main Checking" {
			t.Errorf("ListAccounts = %+v", accounts)
		}

		if err := repo.DeleteAccount(ctx, "alice", created.ID); err != nil {
			t.Fatalf("DeleteAccount: %v", err)
		}
		if err := repo.DeleteAccount(ctx, "alice", created.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("second DeleteAccount error = %v, want ErrNotFound", err)
		}
	})
}

func TestAdjustAccountBalance(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		a, err := repo.CreateAccount(ctx, core.Account{
			Owner:   "alice",
			Name:    "Checking",
			Type:    core.AccountChecking,
			Balance: dec("1000.00"),
			Active:  true,
		})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}

		if err := repo.AdjustAccountBalance(ctx, "alice", a.ID, dec("-200.50")); err != nil {
			t.Fatalf("AdjustAccountBalance: %v", err)
		}
		if err := repo.AdjustAccountBalance(ctx, "alice", a.ID, dec("50.25")); err != nil {
			t.Fatalf("AdjustAccountBalance: %v", err)
		}

		got, err := repo.GetAccount(ctx, "alice", a.ID)
		if err != nil {
			t.Fatalf("GetAccount: %v", err)
		}
		if !got.Balance.Equal(dec("849.75")) {
			t.Errorf("balance = %s, want 849.75", got.Balance)
		}

		if err := repo.AdjustAccountBalance(ctx, "alice", "missing", dec("1")); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("adjust missing account error = %v, want ErrNotFound", err)
		}
	})
}

func TestTransactionRangeQuery(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		day := func(d int) time.Time {
			return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
		}

		a, err := repo.CreateAccount(ctx, core.Account{Owner: "alice", Name: "Checking", Type: core.AccountChecking, Active: true})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}

		for i, tc := range []struct {
			date     time.Time
			category string
		}{
			{day(1), "food"},
			{day(10), "food"},
			{day(10), "rent"},
			{day(20), "food"},
		} {
			_, err := repo.CreateTransaction(ctx, core.Transaction{
				Owner:       "alice",
				AccountID:   a.ID,
				Type:        core.Expense,
				Amount:      dec("10.00"),
				Description: "tx",
				CategoryID:  tc.category,
				Date:        tc.date,
				CreatedAt:   day(1).Add(time.Duration(i) * time.Second),
			})
			if err != nil {
				t.Fatalf("CreateTransaction: %v", err)
			}
		}

		// Half-open window: day 20 excluded.
		txs, err := repo.ListTransactionsInRange(ctx, "alice", "", day(1), day(20))
		if err != nil {
			t.Fatalf("ListTransactionsInRange: %v", err)
		}
		if len(txs) != 3 {
			t.Errorf("range query returned %d transactions, want 3", len(txs))
		}

		txs, err = repo.ListTransactionsInRange(ctx, "alice", "food", day(1), day(30))
		if err != nil {
			t.Fatalf("ListTransactionsInRange(food): %v", err)
		}
		if len(txs) != 3 {
			t.Errorf("category query returned %d transactions, want 3", len(txs))
		}
		for _, tx := range txs {
			if tx.CategoryID != "food" {
				t.Errorf("category query returned transaction with category %q", tx.CategoryID)
			}
		}

		count, err := repo.CountTransactionsByAccount(ctx, "alice", a.ID)
		if err != nil {
			t.Fatalf("CountTransactionsByAccount: %v", err)
		}
		if count != 4 {
			t.Errorf("count = %d, want 4", count)
		}
	})
}

func TestEnsureDefaultCategoriesIdempotent(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		if err := repo.EnsureDefaultCategories(ctx, "alice"); err != nil {
			t.Fatalf("EnsureDefaultCategories: %v", err)
		}
		if err := repo.EnsureDefaultCategories(ctx, "alice"); err != nil {
			t.Fatalf("EnsureDefaultCategories (second call): %v", err)
		}

		cats, err := repo.ListCategories(ctx, "alice")
		if err != nil {
			t.Fatalf("ListCategories: %v", err)
		}
		if len(cats) != len(defaultCategories) {
			t.Errorf("got %d categories, want %d", len(cats), len(defaultCategories))
		}

		for _, c := range cats {
			if err := repo.DeleteCategory(ctx, "alice", c.ID); !errors.Is(err, core.ErrDefaultCategory) {
				t.Errorf("deleting default category %q: error = %v, want ErrDefaultCategory", c.Name, err)
			}
		}
	})
}

func TestGoalAndContributions(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		deadline := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

		g, err := repo.CreateGoal(ctx, core.SavingsGoal{
			Owner:        "alice",
			Name:         "Vacation",
			TargetAmount: dec("2000.00"),
			Deadline:     &deadline,
		})
		if err != nil {
			t.Fatalf("CreateGoal: %v", err)
		}

		got, err := repo.GetGoal(ctx, "alice", g.ID)
		if err != nil {
			t.Fatalf("GetGoal: %v", err)
		}
		if got.Deadline == nil || !got.Deadline.Equal(deadline) {
			t.Errorf("deadline = %v, want %v", got.Deadline, deadline)
		}
		if got.CompletedAt != nil {
			t.Errorf("CompletedAt = %v, want nil", got.CompletedAt)
		}

		for _, amount := range []string{"500.00", "250.50"} {
			_, err := repo.CreateContribution(ctx, core.GoalContribution{
				GoalID: g.ID,
				Owner:  "alice",
				Amount: dec(amount),
			})
			if err != nil {
				t.Fatalf("CreateContribution: %v", err)
			}
		}

		contributions, err := repo.ListContributions(ctx, "alice", g.ID)
		if err != nil {
			t.Fatalf("ListContributions: %v", err)
		}
		if len(contributions) != 2 {
			t.Fatalf("got %d contributions, want 2", len(contributions))
		}

		if err := repo.DeleteGoal(ctx, "alice", g.ID); err != nil {
			t.Fatalf("DeleteGoal: %v", err)
		}
		contributions, err = repo.ListContributions(ctx, "alice", g.ID)
		if err != nil {
			t.Fatalf("ListContributions after delete: %v", err)
		}
		if len(contributions) != 0 {
			t.Errorf("contributions survived goal deletion: %+v", contributions)
		}
	})
}

func TestRecurringSchedulePersistence(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		rec, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
			Owner:       "alice",
			AccountID:   "acct",
			Type:        core.Expense,
			Amount:      dec("15.99"),
			Description: "Streaming",
			Frequency:   core.Monthly,
			StartDate:   start,
			NextDate:    start,
			IsActive:    true,
		})
		if err != nil {
			t.Fatalf("CreateRecurring: %v", err)
		}

		generated := start.Add(12 * time.Hour)
		next := start.AddDate(0, 1, 0)
		if err := repo.UpdateRecurringSchedule(ctx, "alice", rec.ID, next, &generated, true); err != nil {
			t.Fatalf("UpdateRecurringSchedule: %v", err)
		}

		got, err := repo.GetRecurring(ctx, "alice", rec.ID)
		if err != nil {
			t.Fatalf("GetRecurring: %v", err)
		}
		if !got.NextDate.Equal(next) {
			t.Errorf("NextDate = %v, want %v", got.NextDate, next)
		}
		if got.LastGeneratedDate == nil || !got.LastGeneratedDate.Equal(generated) {
			t.Errorf("LastGeneratedDate = %v, want %v", got.LastGeneratedDate, generated)
		}

		if err := repo.UpdateRecurringSchedule(ctx, "alice", rec.ID, next, &generated, false); err != nil {
			t.Fatalf("UpdateRecurringSchedule(deactivate): %v", err)
		}
		active, err := repo.ListActiveRecurring(ctx, "alice")
		if err != nil {
			t.Fatalf("ListActiveRecurring: %v", err)
		}
		if len(active) != 0 {
			t.Errorf("deactivated recurring still listed as active: %+v", active)
		}

		owners, err := repo.ListOwnersWithActiveRecurring(ctx)
		if err != nil {
			t.Fatalf("ListOwnersWithActiveRecurring: %v", err)
		}
		if len(owners) != 0 {
			t.Errorf("owners = %v, want empty", owners)
		}
	})
}
