package models

import "time"

// LedgerEvent is the ledger_events row.
type LedgerEvent struct {
	EventID       string    `db:"event_id"`
	Type          string    `db:"type"`
	PaymentID     string    `db:"payment_id"`
	Status        string    `db:"status"`
	AttemptCount  int       `db:"attempt_count"`
	NextAttemptAt time.Time `db:"next_attempt_at"`
	LastError     string    `db:"last_error"`
	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

// MaintenanceJob is the maintenance_jobs row. Result is stored as JSONB.
type MaintenanceJob struct {
	JobID          string     `db:"job_id"`
	Operation      string     `db:"operation"`
	CompanyID      string     `db:"company_id"`
	Status         string     `db:"status"`
	Attempts       int        `db:"attempts"`
	MaxAttempts    int        `db:"max_attempts"`
	RunAfter       time.Time  `db:"run_after"`
	LeaseExpiresAt *time.Time `db:"lease_expires_at"`
	WorkerID       *string    `db:"worker_id"`
	StartedAt      *time.Time `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	Result         []byte     `db:"result"`
	LastError      string     `db:"last_error"`
	RequestedBy    string     `db:"requested_by"`
	CreatedAt      time.Time  `db:"created_at"`
	LastUpdatedAt  time.Time  `db:"last_updated_at"`
}

// SyncFailure is the sync_failures row. ErrorLabels is a text[] column.
type SyncFailure struct {
	FailureID     string    `db:"failure_id"`
	Type          string    `db:"type"`
	DocumentID    string    `db:"document_id"`
	ErrorMessage  string    `db:"error_message"`
	ErrorLabels   []string  `db:"error_labels"`
	Retriable     bool      `db:"retriable"`
	AttemptCount  int       `db:"attempt_count"`
	NextAttemptAt time.Time `db:"next_attempt_at"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}
