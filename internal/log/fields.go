package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldOwner       = "owner"
	FieldAccountID   = "account_id"
	FieldBudgetID    = "budget_id"
	FieldGoalID      = "goal_id"
	FieldRecurringID = "recurring_id"
	FieldAmountCents = "amount_cents"
	FieldGenerated   = "generated"
	FieldDrift       = "drift"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentRecurring = "recurring"
	ComponentBudget    = "budget"
	ComponentGoal      = "goal"
	ComponentReconcile = "reconcile"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSweep    = "sweep"
	OpProject  = "project"
	OpContrib  = "contribute"
	OpAlert    = "alert"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
