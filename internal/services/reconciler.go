package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// DriftReport describes the outcome of reconciling one account.
type DriftReport struct {
	AccountID string
	Expected  decimal.Decimal
	Actual    decimal.Decimal
	Drift     decimal.Decimal
	Repaired  bool
}

// Err returns the invariant violation a drifted report represents, nil for
// a clean one. Callers that treat drift as a failure match on
// core.ErrInvariantViolation.
func (d DriftReport) Err() error {
	if d.Drift.IsZero() {
		return nil
	}
	return fmt.Errorf("account %s balance off by %s: %w",
		d.AccountID, d.Drift.StringFixed(2), core.ErrInvariantViolation)
}

// Reconciler verifies the ledger invariant: every stored account balance
// must equal the initial balance plus the sum of signed transaction effects.
// Drift means a bug or an out-of-band write; it is reported and optionally
// repaired by resetting the stored balance to the recomputed value.
type Reconciler struct {
	repo       storage.Repository
	amqpClient *amqp.Client
}

func NewReconciler(repo storage.Repository, amqpClient *amqp.Client) *Reconciler {
	return &Reconciler{
		repo:       repo,
		amqpClient: amqpClient,
	}
}

// Reconcile checks one account and, when repair is set, rewrites a drifted
// balance to the recomputed value.
func (r *Reconciler) Reconcile(ctx context.Context, owner, accountID string, repair bool) (DriftReport, error) {
	account, err := r.repo.GetAccount(ctx, owner, accountID)
	if err != nil {
		return DriftReport{}, fmt.Errorf("load account: %w", err)
	}

	txs, err := r.repo.ListTransactionsByAccount(ctx, owner, accountID)
	if err != nil {
		return DriftReport{}, fmt.Errorf("list transactions: %w", err)
	}

	expected := core.RecomputeBalance(account.InitialBalance, txs)
	report := DriftReport{
		AccountID: accountID,
		Expected:  expected,
		Actual:    account.Balance,
		Drift:     account.Balance.Sub(expected),
	}

	if report.Drift.IsZero() {
		return report, nil
	}

	slog.WarnContext(ctx, "Balance drift detected",
		"owner", owner,
		"account_id", accountID,
		"expected", expected.StringFixed(2),
		"actual", account.Balance.StringFixed(2),
		"drift", report.Drift.StringFixed(2),
		"error", report.Err())

	if repair {
		if err := r.repo.SetAccountBalance(ctx, owner, accountID, expected); err != nil {
			return report, fmt.Errorf("repair balance: %w", err)
		}
		report.Repaired = true
	}

	r.publishDrift(ctx, owner, report)
	return report, nil
}

// ReconcileAll checks every account the owner has and returns reports only
// for accounts that drifted.
func (r *Reconciler) ReconcileAll(ctx context.Context, owner string, repair bool) ([]DriftReport, error) {
	accounts, err := r.repo.ListAccounts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	var drifted []DriftReport
	for _, a := range accounts {
		report, err := r.Reconcile(ctx, owner, a.ID, repair)
		if err != nil {
			return drifted, err
		}
		if !report.Drift.IsZero() {
			drifted = append(drifted, report)
		}
	}
	return drifted, nil
}

func (r *Reconciler) publishDrift(ctx context.Context, owner string, report DriftReport) {
	if r.amqpClient == nil {
		return
	}

	msg := &amqp.BalanceDriftMessage{
		Owner:     owner,
		AccountID: report.AccountID,
		Expected:  report.Expected.StringFixed(2),
		Actual:    report.Actual.StringFixed(2),
		Drift:     report.Drift.StringFixed(2),
		Repaired:  report.Repaired,
		Timestamp: time.Now().UTC(),
	}
	if err := r.amqpClient.PublishBalanceDrift(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish balance drift",
			"account_id", report.AccountID, "error", err)
	}
}
