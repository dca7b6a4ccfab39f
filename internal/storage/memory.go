package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// MemoryRepository is an in-memory Repository used for tests and for
// running without a database file. Safe for concurrent use.
type MemoryRepository struct {
	mu            sync.RWMutex
	accounts      map[string]core.Account
	transactions  map[string]core.Transaction
	categories    map[string]core.Category
	budgets       map[string]core.Budget
	goals         map[string]core.SavingsGoal
	contributions map[string]core.GoalContribution
	recurring     map[string]core.RecurringTransaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:      make(map[string]core.Account),
		transactions:  make(map[string]core.Transaction),
		categories:    make(map[string]core.Category),
		budgets:       make(map[string]core.Budget),
		goals:         make(map[string]core.SavingsGoal),
		contributions: make(map[string]core.GoalContribution),
		recurring:     make(map[string]core.RecurringTransaction),
	}
}

func (m *MemoryRepository) Close() error { return nil }

// --- Accounts ---

func (m *MemoryRepository) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.accounts[a.ID] = a
	return a, nil
}

func (m *MemoryRepository) GetAccount(_ context.Context, owner, id string) (core.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok || a.Owner != owner {
		return core.Account{}, core.ErrNotFound
	}
	return a, nil
}

func (m *MemoryRepository) ListAccounts(_ context.Context, owner string) ([]core.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []core.Account
	for _, a := range m.accounts {
		if a.Owner == owner {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (m *MemoryRepository) UpdateAccount(_ context.Context, a core.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.accounts[a.ID]
	if !ok || existing.Owner != a.Owner {
		return core.ErrNotFound
	}
	existing.Name = a.Name
	existing.Type = a.Type
	existing.Color = a.Color
	existing.Icon = a.Icon
	existing.Active = a.Active
	m.accounts[a.ID] = existing
	return nil
}

func (m *MemoryRepository) DeleteAccount(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.Owner != owner {
		return core.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *MemoryRepository) AdjustAccountBalance(_ context.Context, owner, id string, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.Owner != owner {
		return core.ErrNotFound
	}
	a.Balance = a.Balance.Add(delta)
	m.accounts[id] = a
	return nil
}

func (m *MemoryRepository) SetAccountBalance(_ context.Context, owner, id string, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.Owner != owner {
		return core.ErrNotFound
	}
	a.Balance = balance
	m.accounts[id] = a
	return nil
}

// --- Transactions ---

func (m *MemoryRepository) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == "" {
		tx.ID = newID()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	m.transactions[tx.ID] = tx
	return tx, nil
}

func (m *MemoryRepository) GetTransaction(_ context.Context, owner, id string) (core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	if !ok || tx.Owner != owner {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (m *MemoryRepository) ListTransactionsByAccount(_ context.Context, owner, accountID string) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txs []core.Transaction
	for _, tx := range m.transactions {
		if tx.Owner == owner && tx.AccountID == accountID {
			txs = append(txs, tx)
		}
	}
	sortTransactions(txs)
	return txs, nil
}

func (m *MemoryRepository) ListTransactionsInRange(_ context.Context, owner, categoryID string, from, to time.Time) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txs []core.Transaction
	for _, tx := range m.transactions {
		if tx.Owner != owner {
			continue
		}
		if categoryID != "" && tx.CategoryID != categoryID {
			continue
		}
		if tx.Date.Before(from) || !tx.Date.Before(to) {
			continue
		}
		txs = append(txs, tx)
	}
	sortTransactions(txs)
	return txs, nil
}

func (m *MemoryRepository) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.transactions[tx.ID]
	if !ok || existing.Owner != tx.Owner {
		return core.ErrNotFound
	}
	existing.Type = tx.Type
	existing.Amount = tx.Amount
	existing.Description = tx.Description
	existing.CategoryID = tx.CategoryID
	existing.Date = tx.Date
	existing.Cleared = tx.Cleared
	existing.Notes = tx.Notes
	m.transactions[tx.ID] = existing
	return nil
}

func (m *MemoryRepository) DeleteTransaction(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok || tx.Owner != owner {
		return core.ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

func (m *MemoryRepository) CountTransactionsByAccount(_ context.Context, owner, accountID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, tx := range m.transactions {
		if tx.Owner == owner && tx.AccountID == accountID {
			count++
		}
	}
	return count, nil
}

func sortTransactions(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.Before(txs[j].CreatedAt)
		}
		return txs[i].ID < txs[j].ID
	})
}

// --- Categories ---

func (m *MemoryRepository) EnsureDefaultCategories(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Owner == owner && c.IsDefault {
			return nil
		}
	}
	for _, seed := range defaultCategories {
		c := seed
		c.ID = newID()
		c.Owner = owner
		c.IsDefault = true
		m.categories[c.ID] = c
	}
	return nil
}

func (m *MemoryRepository) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *MemoryRepository) GetCategory(_ context.Context, owner, id string) (core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok || c.Owner != owner {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (m *MemoryRepository) ListCategories(_ context.Context, owner string) ([]core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cats []core.Category
	for _, c := range m.categories {
		if c.Owner == owner {
			cats = append(cats, c)
		}
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Type != cats[j].Type {
			return cats[i].Type < cats[j].Type
		}
		return cats[i].Name < cats[j].Name
	})
	return cats, nil
}

func (m *MemoryRepository) DeleteCategory(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.Owner != owner {
		return core.ErrNotFound
	}
	if c.IsDefault {
		return core.ErrDefaultCategory
	}
	delete(m.categories, id)
	return nil
}

// --- Budgets ---

func (m *MemoryRepository) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.budgets[b.ID] = b
	return b, nil
}

func (m *MemoryRepository) GetBudget(_ context.Context, owner, id string) (core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.budgets[id]
	if !ok || b.Owner != owner {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (m *MemoryRepository) ListBudgets(_ context.Context, owner string) ([]core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var budgets []core.Budget
	for _, b := range m.budgets {
		if b.Owner == owner {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool {
		if !budgets[i].CreatedAt.Equal(budgets[j].CreatedAt) {
			return budgets[i].CreatedAt.Before(budgets[j].CreatedAt)
		}
		return budgets[i].ID < budgets[j].ID
	})
	return budgets, nil
}

func (m *MemoryRepository) UpdateBudget(_ context.Context, b core.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.budgets[b.ID]
	if !ok || existing.Owner != b.Owner {
		return core.ErrNotFound
	}
	existing.Name = b.Name
	existing.CategoryID = b.CategoryID
	existing.Amount = b.Amount
	existing.Period = b.Period
	existing.StartDate = b.StartDate
	existing.AlertThreshold = b.AlertThreshold
	m.budgets[b.ID] = existing
	return nil
}

func (m *MemoryRepository) DeleteBudget(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.Owner != owner {
		return core.ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

// --- Goals ---

func (m *MemoryRepository) CreateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == "" {
		g.ID = newID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	m.goals[g.ID] = g
	return g, nil
}

func (m *MemoryRepository) GetGoal(_ context.Context, owner, id string) (core.SavingsGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[id]
	if !ok || g.Owner != owner {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	return g, nil
}

func (m *MemoryRepository) ListGoals(_ context.Context, owner string) ([]core.SavingsGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var goals []core.SavingsGoal
	for _, g := range m.goals {
		if g.Owner == owner {
			goals = append(goals, g)
		}
	}
	sort.Slice(goals, func(i, j int) bool {
		if !goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].CreatedAt.Before(goals[j].CreatedAt)
		}
		return goals[i].ID < goals[j].ID
	})
	return goals, nil
}

func (m *MemoryRepository) UpdateGoal(_ context.Context, g core.SavingsGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.goals[g.ID]
	if !ok || existing.Owner != g.Owner {
		return core.ErrNotFound
	}
	existing.Name = g.Name
	existing.TargetAmount = g.TargetAmount
	existing.CurrentAmount = g.CurrentAmount
	existing.Deadline = g.Deadline
	existing.IsCompleted = g.IsCompleted
	existing.CompletedAt = g.CompletedAt
	m.goals[g.ID] = existing
	return nil
}

func (m *MemoryRepository) DeleteGoal(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.Owner != owner {
		return core.ErrNotFound
	}
	delete(m.goals, id)
	for cid, c := range m.contributions {
		if c.GoalID == id {
			delete(m.contributions, cid)
		}
	}
	return nil
}

func (m *MemoryRepository) CreateContribution(_ context.Context, c core.GoalContribution) (core.GoalContribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	m.contributions[c.ID] = c
	return c, nil
}

func (m *MemoryRepository) ListContributions(_ context.Context, owner, goalID string) ([]core.GoalContribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var contributions []core.GoalContribution
	for _, c := range m.contributions {
		if c.Owner == owner && c.GoalID == goalID {
			contributions = append(contributions, c)
		}
	}
	sort.Slice(contributions, func(i, j int) bool {
		if !contributions[i].Date.Equal(contributions[j].Date) {
			return contributions[i].Date.Before(contributions[j].Date)
		}
		return contributions[i].ID < contributions[j].ID
	})
	return contributions, nil
}

// --- Recurring transactions ---

func (m *MemoryRepository) CreateRecurring(_ context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	m.recurring[r.ID] = r
	return r, nil
}

func (m *MemoryRepository) GetRecurring(_ context.Context, owner, id string) (core.RecurringTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recurring[id]
	if !ok || r.Owner != owner {
		return core.RecurringTransaction{}, core.ErrNotFound
	}
	return r, nil
}

func (m *MemoryRepository) ListRecurring(_ context.Context, owner string) ([]core.RecurringTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRecurringLocked(owner, false), nil
}

func (m *MemoryRepository) ListActiveRecurring(_ context.Context, owner string) ([]core.RecurringTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRecurringLocked(owner, true), nil
}

func (m *MemoryRepository) listRecurringLocked(owner string, activeOnly bool) []core.RecurringTransaction {
	var recs []core.RecurringTransaction
	for _, r := range m.recurring {
		if r.Owner != owner {
			continue
		}
		if activeOnly && !r.IsActive {
			continue
		}
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].NextDate.Equal(recs[j].NextDate) {
			return recs[i].NextDate.Before(recs[j].NextDate)
		}
		return recs[i].ID < recs[j].ID
	})
	return recs
}

func (m *MemoryRepository) UpdateRecurring(_ context.Context, r core.RecurringTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.recurring[r.ID]
	if !ok || existing.Owner != r.Owner {
		return core.ErrNotFound
	}
	m.recurring[r.ID] = r
	return nil
}

func (m *MemoryRepository) UpdateRecurringSchedule(_ context.Context, owner, id string, next time.Time, lastGenerated *time.Time, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recurring[id]
	if !ok || r.Owner != owner {
		return core.ErrNotFound
	}
	r.NextDate = next
	r.LastGeneratedDate = lastGenerated
	r.IsActive = active
	m.recurring[id] = r
	return nil
}

func (m *MemoryRepository) DeleteRecurring(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recurring[id]
	if !ok || r.Owner != owner {
		return core.ErrNotFound
	}
	delete(m.recurring, id)
	return nil
}

func (m *MemoryRepository) ListOwnersWithActiveRecurring(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	for _, r := range m.recurring {
		if r.IsActive {
			seen[r.Owner] = true
		}
	}
	owners := make([]string, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}
