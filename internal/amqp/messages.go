package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage is published when a budget crosses its alert threshold
// within the current period. Amounts are decimal strings so consumers never
// lose precision.
type BudgetAlertMessage struct {
	Owner       string    `json:"owner"`
	BudgetID    string    `json:"budget_id"`
	Name        string    `json:"name"`
	PercentUsed float64   `json:"percent_used"`
	Spent       string    `json:"spent"`
	Limit       string    `json:"limit"`
	OverBudget  bool      `json:"over_budget"`
	Timestamp   time.Time `json:"timestamp"`
}

// GoalCompletedMessage is published once, when a savings goal first reaches
// its target amount.
type GoalCompletedMessage struct {
	Owner        string    `json:"owner"`
	GoalID       string    `json:"goal_id"`
	Name         string    `json:"name"`
	TargetAmount string    `json:"target_amount"`
	CompletedAt  time.Time `json:"completed_at"`
	Timestamp    time.Time `json:"timestamp"`
}

// BalanceDriftMessage is published when reconciliation finds a stored account
// balance that disagrees with the transaction history.
type BalanceDriftMessage struct {
	Owner     string    `json:"owner"`
	AccountID string    `json:"account_id"`
	Expected  string    `json:"expected"`
	Actual    string    `json:"actual"`
	Drift     string    `json:"drift"`
	Repaired  bool      `json:"repaired"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error)   { return json.Marshal(m) }
func (m *GoalCompletedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }
func (m *BalanceDriftMessage) ToJSON() ([]byte, error)  { return json.Marshal(m) }

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func GoalCompletedMessageFromJSON(data []byte) (*GoalCompletedMessage, error) {
	var msg GoalCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func BalanceDriftMessageFromJSON(data []byte) (*BalanceDriftMessage, error) {
	var msg BalanceDriftMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
