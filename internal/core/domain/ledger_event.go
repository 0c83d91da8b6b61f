package domain

import "time"

// LedgerEventType names the work a queued ledger event carries.
type LedgerEventType string

// LedgerEventOwnerIncome posts owner income for a completed payment.
const LedgerEventOwnerIncome LedgerEventType = "OWNER_INCOME"

// LedgerEventStatus is the lifecycle state of a queued ledger event.
// Completed is terminal; failed events stay eligible for retry with a
// growing backoff and no attempt ceiling.
type LedgerEventStatus string

const (
	LedgerEventStatusPending    LedgerEventStatus = "PENDING"
	LedgerEventStatusProcessing LedgerEventStatus = "PROCESSING"
	LedgerEventStatusFailed     LedgerEventStatus = "FAILED"
	LedgerEventStatusCompleted  LedgerEventStatus = "COMPLETED"
)

// LedgerEvent decouples payment completion from ledger posting. At most one
// non-terminal event exists per (type, paymentID); the processor claims due
// events with a conditional status update so two passes never process the
// same event concurrently.
type LedgerEvent struct {
	EventID       string            `json:"eventID"`
	Type          LedgerEventType   `json:"type"`
	PaymentID     string            `json:"paymentID"`
	Status        LedgerEventStatus `json:"status"`
	AttemptCount  int               `json:"attemptCount"`
	NextAttemptAt time.Time         `json:"nextAttemptAt"`
	LastError     string            `json:"lastError,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	LastUpdatedAt time.Time         `json:"lastUpdatedAt"`
}
