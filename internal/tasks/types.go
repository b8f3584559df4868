package tasks

import "time"

// Task Types
const (
	TaskTypeSendEmail        = "email:send"
	TaskTypeStorageReconcile = "storage:reconcile"
)

// Task Queues
const (
	QueueCritical = "critical" // For time-sensitive tasks like email sending
	QueueDefault  = "default"  // For regular tasks
	QueueLow      = "low"      // For background tasks like cleanup
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task Retry Settings
const (
	RetryMax     = 5
	RetryDefault = 3
	RetryMin     = 1
)

// EmailPayload is the body of an email:send task.
type EmailPayload struct {
	To       string                 `json:"to"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data"`
}

// ReconcilePayload is the body of a storage:reconcile task. An empty AccountID checks every account.
type ReconcilePayload struct {
	AccountID string `json:"accountId,omitempty"`
	BatchSize int    `json:"batchSize,omitempty"`
}
