package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// SQLiteRepository implements Repository over a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func toUnix(t time.Time) int64 {
	return t.UTC().Unix()
}

func fromUnix(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}

func toNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(*t), Valid: true}
}

func fromNullUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUnix(v.Int64)
	return &t
}

// --- Accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, owner, name, type, initial_balance_cents, balance_cents, color, icon, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Owner, a.Name, string(a.Type), core.Cents(a.InitialBalance), core.Cents(a.Balance),
		a.Color, a.Icon, a.Active, toUnix(a.CreatedAt))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, owner, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner, name, type, initial_balance_cents, balance_cents, color, icon, active, created_at
		FROM accounts WHERE owner = ? AND id = ?`, owner, id)
	return scanAccount(row)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, type, initial_balance_cents, balance_cents, color, icon, active, created_at
		FROM accounts WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, color = ?, icon = ?, active = ?
		WHERE owner = ? AND id = ?`,
		a.Name, string(a.Type), a.Color, a.Icon, a.Active, a.Owner, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res)
}

// AdjustAccountBalance applies the delta in a single UPDATE so concurrent
// adjustments cannot interleave read and write.
func (r *SQLiteRepository) AdjustAccountBalance(ctx context.Context, owner, id string, delta decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + ? WHERE owner = ? AND id = ?`,
		core.Cents(delta), owner, id)
	if err != nil {
		return fmt.Errorf("adjust account balance: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) SetAccountBalance(ctx context.Context, owner, id string, balance decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET balance_cents = ? WHERE owner = ? AND id = ?`,
		core.Cents(balance), owner, id)
	if err != nil {
		return fmt.Errorf("set account balance: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a                          core.Account
		typ                        string
		initialCents, balanceCents int64
		createdAt                  int64
	)
	err := row.Scan(&a.ID, &a.Owner, &a.Name, &typ, &initialCents, &balanceCents, &a.Color, &a.Icon, &a.Active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Type = core.AccountType(typ)
	a.InitialBalance = core.FromCents(initialCents)
	a.Balance = core.FromCents(balanceCents)
	a.CreatedAt = fromUnix(createdAt)
	return a, nil
}

// --- Transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = newID()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner, account_id, type, amount_cents, description, category_id, date, cleared, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Owner, tx.AccountID, string(tx.Type), core.Cents(tx.Amount), tx.Description,
		tx.CategoryID, toUnix(tx.Date), tx.Cleared, tx.Notes, toUnix(tx.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

const transactionColumns = `id, owner, account_id, type, amount_cents, description, category_id, date, cleared, notes, created_at`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner = ? AND id = ?`, owner, id)
	return scanTransaction(row)
}

func (r *SQLiteRepository) ListTransactionsByAccount(ctx context.Context, owner, accountID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE owner = ? AND account_id = ? ORDER BY date, created_at, id`, owner, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by account: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsInRange(ctx context.Context, owner, categoryID string, from, to time.Time) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		 WHERE owner = ? AND date >= ? AND date < ?`
	args := []any{owner, toUnix(from), toUnix(to)}
	if categoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY date, created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET type = ?, amount_cents = ?, description = ?, category_id = ?, date = ?, cleared = ?, notes = ?
		WHERE owner = ? AND id = ?`,
		string(tx.Type), core.Cents(tx.Amount), tx.Description, tx.CategoryID,
		toUnix(tx.Date), tx.Cleared, tx.Notes, tx.Owner, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CountTransactionsByAccount(ctx context.Context, owner, accountID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE owner = ? AND account_id = ?`, owner, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx          core.Transaction
		typ         string
		amountCents int64
		date        int64
		createdAt   int64
	)
	err := row.Scan(&tx.ID, &tx.Owner, &tx.AccountID, &typ, &amountCents, &tx.Description,
		&tx.CategoryID, &date, &tx.Cleared, &tx.Notes, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Type = core.TransactionType(typ)
	tx.Amount = core.FromCents(amountCents)
	tx.Date = fromUnix(date)
	tx.CreatedAt = fromUnix(createdAt)
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// --- Categories ---

func (r *SQLiteRepository) EnsureDefaultCategories(ctx context.Context, owner string) error {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE owner = ? AND is_default = 1`, owner).Scan(&count)
	if err != nil {
		return fmt.Errorf("count default categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, c := range defaultCategories {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO categories (id, owner, name, type, icon, color, is_default)
			VALUES (?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT(owner, name, type) DO NOTHING`,
			newID(), owner, c.Name, string(c.Type), c.Icon, c.Color)
		if err != nil {
			return fmt.Errorf("seed default category %q: %w", c.Name, err)
		}
	}

	slog.InfoContext(ctx, "Seeded default categories", "owner", owner, "count", len(defaultCategories))
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, owner, name, type, icon, color, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Owner, c.Name, string(c.Type), c.Icon, c.Color, c.IsDefault)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, owner, id string) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner, name, type, icon, color, is_default
		FROM categories WHERE owner = ? AND id = ?`, owner, id).
		Scan(&c.ID, &c.Owner, &c.Name, &typ, &c.Icon, &c.Color, &c.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Type = core.CategoryType(typ)
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, type, icon, color, is_default
		FROM categories WHERE owner = ? ORDER BY type, name`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var (
			c   core.Category
			typ string
		)
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &typ, &c.Icon, &c.Color, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, owner, id string) error {
	c, err := r.GetCategory(ctx, owner, id)
	if err != nil {
		return err
	}
	if c.IsDefault {
		return core.ErrDefaultCategory
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

// --- Budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, owner, name, category_id, amount_cents, period, start_date, alert_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Owner, b.Name, b.CategoryID, core.Cents(b.Amount), string(b.Period),
		toUnix(b.StartDate), b.AlertThreshold, toUnix(b.CreatedAt))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, owner, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner, name, category_id, amount_cents, period, start_date, alert_threshold, created_at
		FROM budgets WHERE owner = ? AND id = ?`, owner, id)
	return scanBudget(row)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, category_id, amount_cents, period, start_date, alert_threshold, created_at
		FROM budgets WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET name = ?, category_id = ?, amount_cents = ?, period = ?, start_date = ?, alert_threshold = ?
		WHERE owner = ? AND id = ?`,
		b.Name, b.CategoryID, core.Cents(b.Amount), string(b.Period),
		toUnix(b.StartDate), b.AlertThreshold, b.Owner, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b              core.Budget
		period         string
		amountCents    int64
		startDate      int64
		createdAt      int64
		alertThreshold float64
	)
	err := row.Scan(&b.ID, &b.Owner, &b.Name, &b.CategoryID, &amountCents, &period, &startDate, &alertThreshold, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Period = core.BudgetPeriod(period)
	b.Amount = core.FromCents(amountCents)
	b.StartDate = fromUnix(startDate)
	b.AlertThreshold = alertThreshold
	b.CreatedAt = fromUnix(createdAt)
	return b, nil
}

// --- Goals ---

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.ID == "" {
		g.ID = newID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, owner, name, target_amount_cents, current_amount_cents, deadline, is_completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Owner, g.Name, core.Cents(g.TargetAmount), core.Cents(g.CurrentAmount),
		toNullUnix(g.Deadline), g.IsCompleted, toNullUnix(g.CompletedAt), toUnix(g.CreatedAt))
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, owner, id string) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner, name, target_amount_cents, current_amount_cents, deadline, is_completed, completed_at, created_at
		FROM goals WHERE owner = ? AND id = ?`, owner, id)
	return scanGoal(row)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, owner string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, target_amount_cents, current_amount_cents, deadline, is_completed, completed_at, created_at
		FROM goals WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET name = ?, target_amount_cents = ?, current_amount_cents = ?, deadline = ?, is_completed = ?, completed_at = ?
		WHERE owner = ? AND id = ?`,
		g.Name, core.Cents(g.TargetAmount), core.Cents(g.CurrentAmount),
		toNullUnix(g.Deadline), g.IsCompleted, toNullUnix(g.CompletedAt), g.Owner, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, owner, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM goal_contributions WHERE owner = ? AND goal_id = ?`, owner, id); err != nil {
		return fmt.Errorf("delete goal contributions: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateContribution(ctx context.Context, c core.GoalContribution) (core.GoalContribution, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goal_contributions (id, goal_id, owner, amount_cents, note, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.GoalID, c.Owner, core.Cents(c.Amount), c.Note, toUnix(c.Date))
	if err != nil {
		return core.GoalContribution{}, fmt.Errorf("insert contribution: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListContributions(ctx context.Context, owner, goalID string) ([]core.GoalContribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, owner, amount_cents, note, date
		FROM goal_contributions WHERE owner = ? AND goal_id = ? ORDER BY date, id`, owner, goalID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []core.GoalContribution
	for rows.Next() {
		var (
			c           core.GoalContribution
			amountCents int64
			date        int64
		)
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Owner, &amountCents, &c.Note, &date); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		c.Amount = core.FromCents(amountCents)
		c.Date = fromUnix(date)
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func scanGoal(row rowScanner) (core.SavingsGoal, error) {
	var (
		g                         core.SavingsGoal
		targetCents, currentCents int64
		deadline, completedAt     sql.NullInt64
		createdAt                 int64
	)
	err := row.Scan(&g.ID, &g.Owner, &g.Name, &targetCents, &currentCents, &deadline, &g.IsCompleted, &completedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("scan goal: %w", err)
	}
	g.TargetAmount = core.FromCents(targetCents)
	g.CurrentAmount = core.FromCents(currentCents)
	g.Deadline = fromNullUnix(deadline)
	g.CompletedAt = fromNullUnix(completedAt)
	g.CreatedAt = fromUnix(createdAt)
	return g, nil
}

// --- Recurring transactions ---

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rec core.RecurringTransaction) (core.RecurringTransaction, error) {
	if rec.ID == "" {
		rec.ID = newID()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (id, owner, account_id, type, amount_cents, description, category_id, frequency, start_date, next_date, end_date, is_active, last_generated_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Owner, rec.AccountID, string(rec.Type), core.Cents(rec.Amount), rec.Description,
		rec.CategoryID, string(rec.Frequency), toUnix(rec.StartDate), toUnix(rec.NextDate),
		toNullUnix(rec.EndDate), rec.IsActive, toNullUnix(rec.LastGeneratedDate))
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("insert recurring transaction: %w", err)
	}
	return rec, nil
}

const recurringColumns = `id, owner, account_id, type, amount_cents, description, category_id, frequency, start_date, next_date, end_date, is_active, last_generated_date`

func (r *SQLiteRepository) GetRecurring(ctx context.Context, owner, id string) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE owner = ? AND id = ?`, owner, id)
	return scanRecurring(row)
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, owner string) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE owner = ? ORDER BY next_date, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return collectRecurring(rows)
}

func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context, owner string) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions
		 WHERE owner = ? AND is_active = 1 ORDER BY next_date, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list active recurring transactions: %w", err)
	}
	return collectRecurring(rows)
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rec core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions SET account_id = ?, type = ?, amount_cents = ?, description = ?, category_id = ?, frequency = ?, start_date = ?, next_date = ?, end_date = ?, is_active = ?, last_generated_date = ?
		WHERE owner = ? AND id = ?`,
		rec.AccountID, string(rec.Type), core.Cents(rec.Amount), rec.Description, rec.CategoryID,
		string(rec.Frequency), toUnix(rec.StartDate), toUnix(rec.NextDate), toNullUnix(rec.EndDate),
		rec.IsActive, toNullUnix(rec.LastGeneratedDate), rec.Owner, rec.ID)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return requireRow(res)
}

// UpdateRecurringSchedule persists sweep progress: the advanced next_date,
// the last generation timestamp and the active flag, leaving the template
// fields untouched.
func (r *SQLiteRepository) UpdateRecurringSchedule(ctx context.Context, owner, id string, next time.Time, lastGenerated *time.Time, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions SET next_date = ?, last_generated_date = ?, is_active = ?
		WHERE owner = ? AND id = ?`,
		toUnix(next), toNullUnix(lastGenerated), active, owner, id)
	if err != nil {
		return fmt.Errorf("update recurring schedule: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListOwnersWithActiveRecurring(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT owner FROM recurring_transactions WHERE is_active = 1 ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("list owners with active recurring: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func scanRecurring(row rowScanner) (core.RecurringTransaction, error) {
	var (
		rec                  core.RecurringTransaction
		typ, freq            string
		amountCents          int64
		startDate, nextDate  int64
		endDate, lastGenDate sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.Owner, &rec.AccountID, &typ, &amountCents, &rec.Description,
		&rec.CategoryID, &freq, &startDate, &nextDate, &endDate, &rec.IsActive, &lastGenDate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTransaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("scan recurring transaction: %w", err)
	}
	rec.Type = core.TransactionType(typ)
	rec.Frequency = core.Frequency(freq)
	rec.Amount = core.FromCents(amountCents)
	rec.StartDate = fromUnix(startDate)
	rec.NextDate = fromUnix(nextDate)
	rec.EndDate = fromNullUnix(endDate)
	rec.LastGeneratedDate = fromNullUnix(lastGenDate)
	return rec, nil
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	defer rows.Close()
	var recs []core.RecurringTransaction
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
