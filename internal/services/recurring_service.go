package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringService manages recurring transaction templates. Materializing
// due occurrences is the RecurringProcessor's job.
type RecurringService struct {
	repo storage.Repository
}

func NewRecurringService(repo storage.Repository) *RecurringService {
	return &RecurringService{repo: repo}
}

func (s *RecurringService) Create(ctx context.Context, rec core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rec.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := s.repo.GetAccount(ctx, rec.Owner, rec.AccountID); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("load account: %w", err)
	}

	// The schedule starts at the start date; the first sweep at or after
	// it generates the first occurrence.
	rec.NextDate = rec.StartDate
	rec.IsActive = true
	rec.LastGeneratedDate = nil

	return s.repo.CreateRecurring(ctx, rec)
}

func (s *RecurringService) Get(ctx context.Context, owner, id string) (core.RecurringTransaction, error) {
	return s.repo.GetRecurring(ctx, owner, id)
}

func (s *RecurringService) List(ctx context.Context, owner string) ([]core.RecurringTransaction, error) {
	return s.repo.ListRecurring(ctx, owner)
}

// Update edits the template fields but preserves sweep progress: next and
// last generated dates stay where the processor left them unless the start
// date moved forward past the current next date.
func (s *RecurringService) Update(ctx context.Context, rec core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rec.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}

	existing, err := s.repo.GetRecurring(ctx, rec.Owner, rec.ID)
	if err != nil {
		return core.RecurringTransaction{}, err
	}

	rec.AccountID = existing.AccountID
	rec.NextDate = existing.NextDate
	rec.LastGeneratedDate = existing.LastGeneratedDate
	if rec.StartDate.After(existing.NextDate) {
		rec.NextDate = rec.StartDate
	}

	if err := s.repo.UpdateRecurring(ctx, rec); err != nil {
		return core.RecurringTransaction{}, err
	}
	return rec, nil
}

func (s *RecurringService) Delete(ctx context.Context, owner, id string) error {
	return s.repo.DeleteRecurring(ctx, owner, id)
}
