// Package storage implements the persistence collaborator of the finance
// engine. Services consume the Repository interface; SQLiteRepository is the
// durable implementation and MemoryRepository backs tests and the
// zero-config mode.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Repository is the pull-based storage interface the engine consumes.
// Every read and write is scoped to a single owner; the engine never
// operates across owners. Missing records surface as core.ErrNotFound.
type Repository interface {
	// Accounts. AdjustAccountBalance applies a signed delta to the stored
	// balance in a single atomic statement; it is the only balance write
	// path besides SetAccountBalance, which the reconciler uses to apply a
	// recomputed value.
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, owner, id string) (core.Account, error)
	ListAccounts(ctx context.Context, owner string) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, owner, id string) error
	AdjustAccountBalance(ctx context.Context, owner, id string, delta decimal.Decimal) error
	SetAccountBalance(ctx context.Context, owner, id string, balance decimal.Decimal) error

	// Transactions
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, owner, accountID string) ([]core.Transaction, error)
	ListTransactionsInRange(ctx context.Context, owner, categoryID string, from, to time.Time) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, owner, id string) error
	CountTransactionsByAccount(ctx context.Context, owner, accountID string) (int64, error)

	// Categories
	EnsureDefaultCategories(ctx context.Context, owner string) error
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, owner, id string) (core.Category, error)
	ListCategories(ctx context.Context, owner string) ([]core.Category, error)
	DeleteCategory(ctx context.Context, owner, id string) error

	// Budgets
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, owner, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, owner string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, owner, id string) error

	// Goals and contributions. Contributions are append-only.
	CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
	GetGoal(ctx context.Context, owner, id string) (core.SavingsGoal, error)
	ListGoals(ctx context.Context, owner string) ([]core.SavingsGoal, error)
	UpdateGoal(ctx context.Context, g core.SavingsGoal) error
	DeleteGoal(ctx context.Context, owner, id string) error
	CreateContribution(ctx context.Context, c core.GoalContribution) (core.GoalContribution, error)
	ListContributions(ctx context.Context, owner, goalID string) ([]core.GoalContribution, error)

	// Recurring transactions
	CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error)
	GetRecurring(ctx context.Context, owner, id string) (core.RecurringTransaction, error)
	ListRecurring(ctx context.Context, owner string) ([]core.RecurringTransaction, error)
	ListActiveRecurring(ctx context.Context, owner string) ([]core.RecurringTransaction, error)
	UpdateRecurring(ctx context.Context, r core.RecurringTransaction) error
	UpdateRecurringSchedule(ctx context.Context, owner, id string, next time.Time, lastGenerated *time.Time, active bool) error
	DeleteRecurring(ctx context.Context, owner, id string) error
	ListOwnersWithActiveRecurring(ctx context.Context) ([]string, error)

	Close() error
}

// defaultCategories is the per-owner seed set. Seeding happens once; the
// is_default flag exempts these from deletion.
var defaultCategories = []core.Category{
	{Name: "Groceries", Type: core.CategoryExpense, Icon: "cart", Color: "#4caf50"},
	{Name: "Dining", Type: core.CategoryExpense, Icon: "utensils", Color: "#ff9800"},
	{Name: "Housing", Type: core.CategoryExpense, Icon: "home", Color: "#795548"},
	{Name: "Transport", Type: core.CategoryExpense, Icon: "car", Color: "#2196f3"},
	{Name: "Utilities", Type: core.CategoryExpense, Icon: "bolt", Color: "#ffc107"},
	{Name: "Health", Type: core.CategoryExpense, Icon: "heart", Color: "#e91e63"},
	{Name: "Entertainment", Type: core.CategoryExpense, Icon: "film", Color: "#9c27b0"},
	{Name: "Shopping", Type: core.CategoryExpense, Icon: "bag", Color: "#00bcd4"},
	{Name: "Other", Type: core.CategoryExpense, Icon: "dots", Color: "#607d8b"},
	{Name: "Salary", Type: core.CategoryIncome, Icon: "briefcase", Color: "#8bc34a"},
	{Name: "Other Income", Type: core.CategoryIncome, Icon: "plus", Color: "#cddc39"},
}
