package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPeriodWindow(t *testing.T) {
	tests := []struct {
		name      string
		period    BudgetPeriod
		startDate time.Time
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "weekly is sunday to saturday",
			period:    PeriodWeekly,
			now:       time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC), // Wednesday
			wantStart: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),  // Sunday
			wantEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "weekly on sunday starts same day",
			period:    PeriodWeekly,
			now:       time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "biweekly anchored to start date",
			period:    PeriodBiweekly,
			startDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			now:       time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC), // day 19, second window
			wantStart: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "biweekly first window includes anchor day",
			period:    PeriodBiweekly,
			startDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			now:       time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monthly",
			period:    PeriodMonthly,
			now:       time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "yearly",
			period:    PeriodYearly,
			now:       time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PeriodWindow(tt.period, tt.startDate, tt.now)
			if !start.Equal(tt.wantStart) {
				t.Errorf("window start = %s, want %s", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("window end = %s, want %s", end, tt.wantEnd)
			}
		})
	}
}

func TestPeriodWindow_BiweeklyStableAcrossQueries(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Every query instant inside the same 14-day span must yield the same window.
	for hour := 0; hour < 14*24; hour += 7 {
		now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Add(time.Duration(hour) * time.Hour)
		start, _ := PeriodWindow(PeriodBiweekly, anchor, now)
		if !start.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("window start moved to %s when queried at %s", start, now)
		}
	}
}

func TestComputeBudgetProgress_OverBudgetBoundary(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	budget := Budget{
		Name:      "Monthly spend",
		Amount:    amt("500"),
		Period:    PeriodMonthly,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	txs := []Transaction{
		{Type: Expense, Amount: amt("500.01"), Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
	}

	p := ComputeBudgetProgress(budget, txs, now)

	if !p.IsOverBudget {
		t.Error("expected IsOverBudget = true for 500.01 spent against 500")
	}
	if p.PercentUsed != 100 {
		t.Errorf("PercentUsed = %v, want capped 100", p.PercentUsed)
	}
	if p.Remaining.String() != "-0.01" {
		t.Errorf("Remaining = %s, want -0.01", p.Remaining)
	}
	if p.Spent.String() != "500.01" {
		t.Errorf("Spent = %s, want 500.01", p.Spent)
	}
}

func TestComputeBudgetProgress_Filtering(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	inWindow := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	txs := []Transaction{
		{Type: Expense, Amount: amt("100"), CategoryID: "groceries", Date: inWindow},
		{Type: Expense, Amount: amt("40"), CategoryID: "dining", Date: inWindow},
		{Type: Expense, Amount: amt("999"), CategoryID: "groceries", Date: lastMonth},
		{Type: Income, Amount: amt("2000"), CategoryID: "groceries", Date: inWindow},
		{Type: TransferOut, Amount: amt("25"), CategoryID: "", Date: inWindow},
	}

	t.Run("category budget counts only its category", func(t *testing.T) {
		b := Budget{Name: "Groceries", Amount: amt("300"), Period: PeriodMonthly,
			StartDate: lastMonth, CategoryID: "groceries"}
		p := ComputeBudgetProgress(b, txs, now)
		if p.Spent.String() != "100" {
			t.Errorf("Spent = %s, want 100", p.Spent)
		}
		if p.IsOverBudget {
			t.Error("unexpected over-budget")
		}
	})

	t.Run("overall budget counts all outflows in window", func(t *testing.T) {
		b := Budget{Name: "Everything", Amount: amt("300"), Period: PeriodMonthly, StartDate: lastMonth}
		p := ComputeBudgetProgress(b, txs, now)
		if p.Spent.String() != "165" {
			t.Errorf("Spent = %s, want 165 (100+40+25)", p.Spent)
		}
	})
}

func TestComputeBudgetProgress_DaysRemaining(t *testing.T) {
	b := Budget{Name: "m", Amount: amt("100"), Period: PeriodMonthly,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	t.Run("mid-month", func(t *testing.T) {
		now := time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)
		p := ComputeBudgetProgress(b, nil, now)
		if p.DaysRemaining != 3 {
			t.Errorf("DaysRemaining = %d, want 3", p.DaysRemaining)
		}
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		now := time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)
		p := ComputeBudgetProgress(b, nil, now)
		if p.DaysRemaining != 1 {
			t.Errorf("DaysRemaining = %d, want 1", p.DaysRemaining)
		}
	})
}

func TestComputeBudgetProgress_ZeroAmountBudget(t *testing.T) {
	b := Budget{Name: "z", Amount: decimal.Zero, Period: PeriodMonthly,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := ComputeBudgetProgress(b, nil, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if p.PercentUsed != 0 {
		t.Errorf("PercentUsed = %v, want 0 for zero-amount budget", p.PercentUsed)
	}
}
