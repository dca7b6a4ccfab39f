package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LedgerLine is a transaction annotated with the account balance as of the
// moment right after the transaction applied.
type LedgerLine struct {
	Transaction
	RunningBalance decimal.Decimal
}

// ProjectRunningBalances annotates the given transactions with a running
// balance and returns them newest-first for display.
//
// balance is the account's current stored balance. The starting balance is
// recovered by subtracting every signed effect from it, so the projection is
// a pure function of its inputs and is independent of the input order.
// Ties on date are broken by creation time, then ID, so the result is
// reproducible across runs.
func ProjectRunningBalances(balance decimal.Decimal, txs []Transaction) []LedgerLine {
	if len(txs) == 0 {
		return []LedgerLine{}
	}

	starting := balance
	for _, tx := range txs {
		starting = starting.Sub(tx.SignedEffect())
	}

	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	lines := make([]LedgerLine, len(ordered))
	running := starting
	for i, tx := range ordered {
		running = running.Add(tx.SignedEffect())
		lines[i] = LedgerLine{Transaction: tx, RunningBalance: running}
	}

	// Newest first for display
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines
}

// RecomputeBalance derives the authoritative balance from an initial balance
// and the full transaction history. This is the reconciliation routine used
// to repair a drifted stored balance.
func RecomputeBalance(initial decimal.Decimal, txs []Transaction) decimal.Decimal {
	balance := initial
	for _, tx := range txs {
		balance = balance.Add(tx.SignedEffect())
	}
	return balance
}
