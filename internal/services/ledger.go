// Package services provides business logic on top of the storage layer:
// the balance ledger, recurring expansion, budget and goal progress, and
// reconciliation.
package services

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BalanceLedger keeps account balances and transaction history in lockstep.
// Every mutation of an account's history goes through here under a
// per-account lock, so the stored balance always equals the initial balance
// plus the sum of signed effects.
type BalanceLedger struct {
	repo storage.Repository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBalanceLedger(repo storage.Repository) *BalanceLedger {
	return &BalanceLedger{
		repo:  repo,
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *BalanceLedger) accountLock(owner, accountID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := owner + "/" + accountID
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	return lock
}

// Record validates and persists a transaction, then applies its signed
// effect to the owning account's balance.
func (l *BalanceLedger) Record(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	lock := l.accountLock(tx.Owner, tx.AccountID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := l.repo.GetAccount(ctx, tx.Owner, tx.AccountID); err != nil {
		return core.Transaction{}, fmt.Errorf("load account: %w", err)
	}

	created, err := l.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	if err := l.repo.AdjustAccountBalance(ctx, tx.Owner, tx.AccountID, created.SignedEffect()); err != nil {
		return core.Transaction{}, fmt.Errorf("apply balance effect: %w", err)
	}

	return created, nil
}

// Edit replaces a transaction's mutable fields and adjusts the account
// balance by the difference between the new and old signed effects, so the
// net result equals reversing the old transaction and recording the new one.
func (l *BalanceLedger) Edit(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	old, err := l.repo.GetTransaction(ctx, tx.Owner, tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	// The account a transaction belongs to is fixed at creation.
	tx.AccountID = old.AccountID
	tx.CreatedAt = old.CreatedAt

	lock := l.accountLock(tx.Owner, tx.AccountID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.repo.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	delta := tx.SignedEffect().Sub(old.SignedEffect())
	if !delta.IsZero() {
		if err := l.repo.AdjustAccountBalance(ctx, tx.Owner, tx.AccountID, delta); err != nil {
			return core.Transaction{}, fmt.Errorf("apply balance effect: %w", err)
		}
	}

	return tx, nil
}

// Remove deletes a transaction and reverses its effect on the account
// balance.
func (l *BalanceLedger) Remove(ctx context.Context, owner, id string) error {
	tx, err := l.repo.GetTransaction(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	lock := l.accountLock(owner, tx.AccountID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.repo.DeleteTransaction(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := l.repo.AdjustAccountBalance(ctx, owner, tx.AccountID, tx.SignedEffect().Neg()); err != nil {
		return fmt.Errorf("reverse balance effect: %w", err)
	}

	return nil
}
