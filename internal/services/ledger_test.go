package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestAccount(t *testing.T, repo storage.Repository, owner, balance string) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.Account{
		Owner:          owner,
		Name:           "Checking",
		Type:           core.AccountChecking,
		InitialBalance: dec(balance),
		Balance:        dec(balance),
		Active:         true,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a
}

func accountBalance(t *testing.T, repo storage.Repository, owner, id string) decimal.Decimal {
	t.Helper()
	a, err := repo.GetAccount(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	return a.Balance
}

func TestLedgerRecordAppliesSignedEffect(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "1000.00")
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		txType  core.TransactionType
		amount  string
		balance string
	}{
		{"expense subtracts", core.Expense, "200.00", "800.00"},
		{"income adds", core.Income, "500.00", "1300.00"},
		{"transfer-out subtracts", core.TransferOut, "100.50", "1199.50"},
		{"transfer-in adds", core.TransferIn, "0.50", "1200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Record(ctx, core.Transaction{
				Owner:       "alice",
				AccountID:   a.ID,
				Type:        tt.txType,
				Amount:      dec(tt.amount),
				Description: tt.name,
				Date:        date,
			})
			if err != nil {
				t.Fatalf("Record: %v", err)
			}
			if got := accountBalance(t, repo, "alice", a.ID); !got.Equal(dec(tt.balance)) {
				t.Errorf("balance = %s, want %s", got, tt.balance)
			}
		})
	}
}

func TestLedgerRecordValidation(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "100.00")
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tx      core.Transaction
		wantErr error
	}{
		{
			name:    "zero amount",
			tx:      core.Transaction{Owner: "alice", AccountID: a.ID, Type: core.Expense, Amount: dec("0"), Description: "x", Date: date},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			tx:      core.Transaction{Owner: "alice", AccountID: a.ID, Type: core.Expense, Amount: dec("-5"), Description: "x", Date: date},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "bad type",
			tx:      core.Transaction{Owner: "alice", AccountID: a.ID, Type: "withdrawal", Amount: dec("5"), Description: "x", Date: date},
			wantErr: core.ErrInvalidType,
		},
		{
			name:    "missing account",
			tx:      core.Transaction{Owner: "alice", AccountID: "nope", Type: core.Expense, Amount: dec("5"), Description: "x", Date: date},
			wantErr: core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Record(ctx, tt.tx)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Record error = %v, want %v", err, tt.wantErr)
			}
			// Failed records must not move the balance.
			if got := accountBalance(t, repo, "alice", a.ID); !got.Equal(dec("100.00")) {
				t.Errorf("balance moved to %s after failed record", got)
			}
		})
	}
}

func TestLedgerEditReversesOldEffect(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "100.00")
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tx, err := ledger.Record(ctx, core.Transaction{
		Owner: "alice", AccountID: a.ID, Type: core.Expense,
		Amount: dec("50.00"), Description: "groceries", Date: date,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got := accountBalance(t, repo, "alice", a.ID); !got.Equal(dec("50.00")) {
		t.Fatalf("balance after record = %s, want 50.00", got)
	}

	// Flip a 50 expense into a 30 income: net effect +80.
	tx.Type = core.Income
	tx.Amount = dec("30.00")
	if _, err := ledger.Edit(ctx, tx); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got := accountBalance(t, repo, "alice", a.ID); !got.Equal(dec("130.00")) {
		t.Errorf("balance after edit = %s, want 130.00", got)
	}
}

func TestLedgerRemoveReversesEffect(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "100.00")
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tx, err := ledger.Record(ctx, core.Transaction{
		Owner: "alice", AccountID: a.ID, Type: core.Expense,
		Amount: dec("25.00"), Description: "lunch", Date: date,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := ledger.Remove(ctx, "alice", tx.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := accountBalance(t, repo, "alice", a.ID); !got.Equal(dec("100.00")) {
		t.Errorf("balance after remove = %s, want 100.00", got)
	}

	if err := ledger.Remove(ctx, "alice", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Remove error = %v, want ErrNotFound", err)
	}
}

// The ledger invariant: after any interleaving of operations, the stored
// balance equals the initial balance plus the sum of signed effects.
func TestLedgerInvariantUnderConcurrentRecords(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ledger := NewBalanceLedger(repo)
	ctx := context.Background()
	a := newTestAccount(t, repo, "alice", "0.00")
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	const workers = 8
	const perWorker = 20

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				txType := core.Income
				if i%2 == 1 {
					txType = core.Expense
				}
				_, err := ledger.Record(ctx, core.Transaction{
					Owner: "alice", AccountID: a.ID, Type: txType,
					Amount: dec("1.50"), Description: "concurrent", Date: date,
				})
				if err != nil {
					t.Errorf("Record: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	txs, err := repo.ListTransactionsByAccount(ctx, "alice", a.ID)
	if err != nil {
		t.Fatalf("ListTransactionsByAccount: %v", err)
	}
	if len(txs) != workers*perWorker {
		t.Fatalf("got %d transactions, want %d", len(txs), workers*perWorker)
	}

	expected := core.RecomputeBalance(dec("0.00"), txs)
	if got := accountBalance(t, repo, "alice", a.ID); !got.Equal(expected) {
		t.Errorf("balance = %s, recomputed = %s", got, expected)
	}
}
