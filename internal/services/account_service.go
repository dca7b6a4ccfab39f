package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AccountService manages accounts. Creating an account also seeds the
// owner's default categories so a fresh owner can categorize immediately.
type AccountService struct {
	repo storage.Repository
}

func NewAccountService(repo storage.Repository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) Create(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	// The stored balance starts at the initial balance; from here on only
	// the ledger moves it.
	a.Balance = a.InitialBalance
	a.Active = true
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	created, err := s.repo.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	if err := s.repo.EnsureDefaultCategories(ctx, a.Owner); err != nil {
		return core.Account{}, fmt.Errorf("seed default categories: %w", err)
	}

	return created, nil
}

func (s *AccountService) Get(ctx context.Context, owner, id string) (core.Account, error) {
	return s.repo.GetAccount(ctx, owner, id)
}

func (s *AccountService) List(ctx context.Context, owner string) ([]core.Account, error) {
	return s.repo.ListAccounts(ctx, owner)
}

// Update changes descriptive fields only. Balances are owned by the ledger.
func (s *AccountService) Update(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.repo.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	return s.repo.GetAccount(ctx, a.Owner, a.ID)
}

// Delete removes an account, refusing while transactions still reference it.
func (s *AccountService) Delete(ctx context.Context, owner, id string) error {
	count, err := s.repo.CountTransactionsByAccount(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if count > 0 {
		return core.ErrAccountNotEmpty
	}
	return s.repo.DeleteAccount(ctx, owner, id)
}
