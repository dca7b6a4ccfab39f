package core

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetProgress is the derived state of a budget within its current period
// window. Spent, Remaining and IsOverBudget come from the uncapped total;
// PercentUsed is capped at 100 for display.
type BudgetProgress struct {
	Spent         decimal.Decimal
	Remaining     decimal.Decimal
	PercentUsed   float64
	IsOverBudget  bool
	DaysRemaining int
	PeriodStart   time.Time
	PeriodEnd     time.Time
}

// PeriodWindow derives the half-open [start, end) date range a budget
// currently tracks, as a pure function of the period type, the budget's
// anchor date and "now".
//
//   - weekly: Sunday-to-Saturday of the current calendar week
//   - biweekly: a stable 14-day window anchored to startDate
//   - monthly: the current calendar month
//   - yearly: the current calendar year
func PeriodWindow(period BudgetPeriod, startDate, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch period {
	case PeriodWeekly:
		start := StartOfDay(now.AddDate(0, 0, -int(now.Weekday())))
		return start, start.AddDate(0, 0, 7)
	case PeriodBiweekly:
		anchor := StartOfDay(startDate)
		elapsed := int(StartOfDay(now).Sub(anchor).Hours() / 24)
		if elapsed < 0 {
			elapsed = 0
		}
		start := anchor.AddDate(0, 0, 14*(elapsed/14))
		return start, start.AddDate(0, 0, 14)
	case PeriodYearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	default: // monthly
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
}

// ComputeBudgetProgress sums the outflow transactions that fall inside the
// budget's current period window and derives spent/remaining/percent-used.
// Transactions outside the window, inflow types, and (for category budgets)
// other categories are ignored.
func ComputeBudgetProgress(b Budget, txs []Transaction, now time.Time) BudgetProgress {
	start, end := PeriodWindow(b.Period, b.StartDate, now)

	spent := decimal.Zero
	for _, tx := range txs {
		if !tx.Type.IsOutflow() {
			continue
		}
		if b.CategoryID != "" && tx.CategoryID != b.CategoryID {
			continue
		}
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		spent = spent.Add(tx.Amount)
	}

	progress := BudgetProgress{
		Spent:        spent,
		Remaining:    b.Amount.Sub(spent),
		IsOverBudget: spent.GreaterThan(b.Amount),
		PeriodStart:  start,
		PeriodEnd:    end,
	}

	if b.Amount.Sign() > 0 {
		pct, _ := spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
		progress.PercentUsed = math.Min(pct, 100)
	}

	days := int(math.Ceil(end.Sub(now.UTC()).Hours() / 24))
	if days < 0 {
		days = 0
	}
	progress.DaysRemaining = days

	return progress
}
