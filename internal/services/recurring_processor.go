package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// sweepConcurrency bounds how many owners are swept in parallel.
const sweepConcurrency = 4

// RecurringProcessor materializes due occurrences from recurring transaction
// templates. A sweep walks each active template's schedule forward, records
// one transaction per elapsed occurrence through the ledger, and persists
// the advanced schedule after every occurrence so an interrupted sweep never
// duplicates work.
type RecurringProcessor struct {
	repo   storage.Repository
	ledger *BalanceLedger
}

func NewRecurringProcessor(repo storage.Repository, ledger *BalanceLedger) *RecurringProcessor {
	return &RecurringProcessor{
		repo:   repo,
		ledger: ledger,
	}
}

// Sweep processes all active recurring templates for one owner and returns
// the number of transactions generated. Failures on one template are logged
// and do not stop the others.
func (p *RecurringProcessor) Sweep(ctx context.Context, owner string, now time.Time) (int, error) {
	templates, err := p.repo.ListActiveRecurring(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("list active recurring: %w", err)
	}

	slog.InfoContext(ctx, "Sweeping recurring transactions",
		"owner", owner,
		"active_templates", len(templates),
		"sweep_date", now.Format("2006-01-02"))

	generated := 0
	for _, rec := range templates {
		n, err := p.expand(ctx, rec, now)
		generated += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to expand recurring template",
				"owner", owner,
				"recurring_id", rec.ID,
				"description", rec.Description,
				"generated_before_failure", n,
				"error", err)
			continue
		}
	}

	if generated > 0 {
		slog.InfoContext(ctx, "Sweep complete",
			"owner", owner,
			"generated", generated)
	}
	return generated, nil
}

// expand catches one template up to now, generating every occurrence whose
// date has elapsed.
func (p *RecurringProcessor) expand(ctx context.Context, rec core.RecurringTransaction, now time.Time) (int, error) {
	// A persisted template with a frequency that does not advance would
	// loop forever below.
	if !rec.Frequency.Valid() {
		return 0, fmt.Errorf("template %s frequency %q: %w", rec.ID, rec.Frequency, core.ErrInvalidFrequency)
	}

	// An end date already behind us retires the template outright; the
	// occurrences between nextDate and the end date are not backfilled.
	if rec.EndDate != nil && core.EndOfDay(*rec.EndDate).Before(now) {
		if err := p.repo.UpdateRecurringSchedule(ctx, rec.Owner, rec.ID, rec.NextDate, rec.LastGeneratedDate, false); err != nil {
			return 0, fmt.Errorf("deactivate template: %w", err)
		}
		slog.InfoContext(ctx, "Deactivated expired recurring template",
			"recurring_id", rec.ID,
			"end_date", rec.EndDate.Format("2006-01-02"))
		return 0, nil
	}

	generated := 0
	for !rec.NextDate.After(now) {
		due := rec.NextDate
		_, err := p.ledger.Record(ctx, core.Transaction{
			Owner:       rec.Owner,
			AccountID:   rec.AccountID,
			Type:        rec.Type,
			Amount:      rec.Amount,
			Description: rec.Description,
			CategoryID:  rec.CategoryID,
			Date:        due,
			Notes:       "auto-generated from recurring " + rec.ID,
		})
		if err != nil {
			return generated, fmt.Errorf("record occurrence for %s: %w", due.Format("2006-01-02"), err)
		}

		rec.NextDate = core.NextOccurrence(rec.Frequency, due)
		rec.LastGeneratedDate = &due

		// The template retires as soon as its schedule steps past the
		// end date; the boundary occurrence itself is never generated.
		active := rec.EndDate == nil || !rec.NextDate.After(core.EndOfDay(*rec.EndDate))

		// Persist after each occurrence so a crash mid-sweep resumes
		// exactly where it stopped.
		if err := p.repo.UpdateRecurringSchedule(ctx, rec.Owner, rec.ID, rec.NextDate, rec.LastGeneratedDate, active); err != nil {
			return generated, fmt.Errorf("advance schedule: %w", err)
		}
		generated++

		if !active {
			slog.InfoContext(ctx, "Deactivated recurring template at its end date",
				"recurring_id", rec.ID,
				"end_date", rec.EndDate.Format("2006-01-02"))
			break
		}
	}

	return generated, nil
}

// SweepAll runs one sweep per owner that has active templates, a few owners
// at a time, and returns the total number of transactions generated.
func (p *RecurringProcessor) SweepAll(ctx context.Context, now time.Time) (int, error) {
	owners, err := p.repo.ListOwnersWithActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, owner := range owners {
		g.Go(func() error {
			n, err := p.Sweep(ctx, owner, now)
			total.Add(int64(n))
			if err != nil {
				return fmt.Errorf("sweep owner %s: %w", owner, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(total.Load()), err
	}
	return int(total.Load()), nil
}
