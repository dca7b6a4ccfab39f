package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionService orchestrates transaction operations: ledger writes,
// running-balance projection and budget alert checks.
type TransactionService struct {
	repo    storage.Repository
	ledger  *BalanceLedger
	budgets *BudgetService
}

func NewTransactionService(repo storage.Repository, ledger *BalanceLedger, budgets *BudgetService) *TransactionService {
	return &TransactionService{
		repo:    repo,
		ledger:  ledger,
		budgets: budgets,
	}
}

// Record writes a transaction through the ledger and checks budget alerts
// for outflows. Alert failures are logged, never surfaced: the transaction
// is already committed.
func (s *TransactionService) Record(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := s.ledger.Record(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	s.checkBudgets(ctx, created)
	return created, nil
}

// Edit rewrites a transaction through the ledger, reversing the old effect
// and applying the new one.
func (s *TransactionService) Edit(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	updated, err := s.ledger.Edit(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	s.checkBudgets(ctx, updated)
	return updated, nil
}

// Remove deletes a transaction through the ledger.
func (s *TransactionService) Remove(ctx context.Context, owner, id string) error {
	return s.ledger.Remove(ctx, owner, id)
}

func (s *TransactionService) Get(ctx context.Context, owner, id string) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, owner, id)
}

func (s *TransactionService) ListByAccount(ctx context.Context, owner, accountID string) ([]core.Transaction, error) {
	return s.repo.ListTransactionsByAccount(ctx, owner, accountID)
}

// Ledger returns the account's full transaction history annotated with
// running balances, newest first, anchored on the stored balance.
func (s *TransactionService) Ledger(ctx context.Context, owner, accountID string) ([]core.LedgerLine, error) {
	account, err := s.repo.GetAccount(ctx, owner, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	txs, err := s.repo.ListTransactionsByAccount(ctx, owner, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return core.ProjectRunningBalances(account.Balance, txs), nil
}

func (s *TransactionService) checkBudgets(ctx context.Context, tx core.Transaction) {
	if s.budgets == nil || !tx.Type.IsOutflow() {
		return
	}
	if err := s.budgets.CheckAlerts(ctx, tx.Owner, tx.Date); err != nil {
		slog.ErrorContext(ctx, "Failed to check budget alerts",
			"owner", tx.Owner,
			"transaction_id", tx.ID,
			"error", err)
	}
}
