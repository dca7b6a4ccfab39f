package core

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// GoalProgress is the derived state of a savings goal. DaysUntilDeadline is
// nil when the goal has no deadline, in which case no pacing is evaluated
// and the goal is always on track.
type GoalProgress struct {
	PercentComplete   float64
	AmountRemaining   decimal.Decimal
	DaysUntilDeadline *int
	IsOnTrack         bool
}

// ComputeGoalProgress derives percent complete, remaining amount and pacing
// for a savings goal.
//
// Pacing compares actual percent complete against the time-proportional
// expected progress between CreatedAt and the deadline, with pacingBuffer
// percentage points of tolerance.
func ComputeGoalProgress(g SavingsGoal, now time.Time, pacingBuffer float64) GoalProgress {
	progress := GoalProgress{
		AmountRemaining: decimal.Zero,
		IsOnTrack:       true,
	}

	if g.TargetAmount.Sign() > 0 {
		pct, _ := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
		progress.PercentComplete = math.Min(math.Max(pct, 0), 100)

		if remaining := g.TargetAmount.Sub(g.CurrentAmount); remaining.Sign() > 0 {
			progress.AmountRemaining = remaining
		}
	}

	if g.Deadline == nil {
		return progress
	}

	days := int(math.Ceil(g.Deadline.Sub(now).Hours() / 24))
	progress.DaysUntilDeadline = &days

	totalDays := g.Deadline.Sub(g.CreatedAt).Hours() / 24
	if totalDays <= 0 {
		progress.IsOnTrack = progress.PercentComplete >= 100-pacingBuffer
		return progress
	}

	daysElapsed := totalDays - float64(days)
	expected := daysElapsed / totalDays * 100
	progress.IsOnTrack = progress.PercentComplete >= expected-pacingBuffer

	return progress
}
