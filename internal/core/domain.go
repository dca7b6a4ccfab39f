package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit-card"
	AccountCash       AccountType = "cash"
	AccountInvestment AccountType = "investment"
	AccountOther      AccountType = "other"
)

const (
	Income      TransactionType = "income"
	Expense     TransactionType = "expense"
	TransferIn  TransactionType = "transfer-in"
	TransferOut TransactionType = "transfer-out"
)

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
)

const (
	PeriodWeekly   BudgetPeriod = "weekly"
	PeriodBiweekly BudgetPeriod = "biweekly"
	PeriodMonthly  BudgetPeriod = "monthly"
	PeriodYearly   BudgetPeriod = "yearly"
)

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
)

// DefaultAlertThreshold is the percent-used level at which a budget starts
// alerting unless the budget overrides it.
const DefaultAlertThreshold = 80.0

// DefaultPacingBuffer is the tolerance, in percentage points, applied when
// judging whether a goal is on track against its time-proportional pace.
const DefaultPacingBuffer = 10.0

type (
	AccountType     string
	TransactionType string
	Frequency       string
	BudgetPeriod    string
	CategoryType    string

	Account struct {
		ID             string
		Owner          string
		Name           string
		Type           AccountType
		InitialBalance decimal.Decimal
		Balance        decimal.Decimal
		Color          string
		Icon           string
		Active         bool
		CreatedAt      time.Time
	}

	Transaction struct {
		ID          string
		Owner       string
		AccountID   string
		Type        TransactionType
		Amount      decimal.Decimal
		Description string
		CategoryID  string
		Date        time.Time
		Cleared     bool
		Notes       string
		CreatedAt   time.Time
	}

	Category struct {
		ID        string
		Owner     string
		Name      string
		Type      CategoryType
		Icon      string
		Color     string
		IsDefault bool
	}

	Budget struct {
		ID             string
		Owner          string
		Name           string
		CategoryID     string // empty = overall budget across all categories
		Amount         decimal.Decimal
		Period         BudgetPeriod
		StartDate      time.Time
		AlertThreshold float64
		CreatedAt      time.Time
	}

	SavingsGoal struct {
		ID            string
		Owner         string
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      *time.Time
		IsCompleted   bool
		CompletedAt   *time.Time
		CreatedAt     time.Time
	}

	GoalContribution struct {
		ID     string
		GoalID string
		Owner  string
		Amount decimal.Decimal
		Note   string
		Date   time.Time
	}

	RecurringTransaction struct {
		ID                string
		Owner             string
		AccountID         string
		Type              TransactionType
		Amount            decimal.Decimal
		Description       string
		CategoryID        string
		Frequency         Frequency
		StartDate         time.Time
		NextDate          time.Time
		EndDate           *time.Time
		IsActive          bool
		LastGeneratedDate *time.Time
	}
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvariantViolation = errors.New("balance invariant violation")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidType        = errors.New("invalid type")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrDefaultCategory    = errors.New("default category cannot be deleted")
	ErrAccountNotEmpty    = errors.New("account still has transactions")
)

// SignedEffect returns the directional impact of the transaction on an
// account balance: +amount for income-like types, -amount for expense-like
// types.
func (t Transaction) SignedEffect() decimal.Decimal {
	switch t.Type {
	case Income, TransferIn:
		return t.Amount
	default:
		return t.Amount.Neg()
	}
}

// IsOutflow reports whether the transaction type reduces the balance.
func (t TransactionType) IsOutflow() bool {
	return t == Expense || t == TransferOut
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, TransferIn, TransferOut:
		return true
	}
	return false
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountCash, AccountInvestment, AccountOther:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Yearly:
		return true
	}
	return false
}

func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodBiweekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := ValidateAmount(b.Amount); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if b.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return errors.New("alert threshold must be between 0 and 100")
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return err
	}
	if g.Deadline != nil && !g.CreatedAt.IsZero() && !g.Deadline.After(g.CreatedAt) {
		return errors.New("deadline must be after creation")
	}
	return nil
}

func (r RecurringTransaction) Validate() error {
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

// ValidateAmount rejects non-positive amounts. Transaction and contribution
// amounts are always positive; direction comes from the type.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
