package domain

import "time"

// MaintenanceOperation names a bulk ledger routine runnable by the job queue.
type MaintenanceOperation string

const (
	// OpSyncPropertyAccounts replays every completed payment of a company
	// into its ledgers and migrates legacy sale-income ledgers.
	OpSyncPropertyAccounts MaintenanceOperation = "SYNC_PROPERTY_ACCOUNTS"
	// OpEnsureDevelopmentLedgers creates missing development ledgers and
	// backfills their payment-derived income.
	OpEnsureDevelopmentLedgers MaintenanceOperation = "ENSURE_DEVELOPMENT_LEDGERS"
)

// MaintenanceJobStatus is the lifecycle state of a maintenance job.
// Completed and failed are terminal.
type MaintenanceJobStatus string

const (
	MaintenanceJobStatusPending   MaintenanceJobStatus = "PENDING"
	MaintenanceJobStatusRunning   MaintenanceJobStatus = "RUNNING"
	MaintenanceJobStatusCompleted MaintenanceJobStatus = "COMPLETED"
	MaintenanceJobStatusFailed    MaintenanceJobStatus = "FAILED"
)

// MaintenanceJob is a leased unit of bulk ledger work. A time-bounded lease
// is the queue's only mutual-exclusion primitive: a crashed worker's job is
// requeued once the lease expires, so operations must be idempotent.
type MaintenanceJob struct {
	JobID          string               `json:"jobID"`
	Operation      MaintenanceOperation `json:"operation"`
	CompanyID      string               `json:"companyID"`
	Status         MaintenanceJobStatus `json:"status"`
	Attempts       int                  `json:"attempts"`
	MaxAttempts    int                  `json:"maxAttempts"`
	RunAfter       time.Time            `json:"runAfter"`
	LeaseExpiresAt *time.Time           `json:"leaseExpiresAt,omitempty"`
	WorkerID       *string              `json:"workerID,omitempty"`
	StartedAt      *time.Time           `json:"startedAt,omitempty"`
	CompletedAt    *time.Time           `json:"completedAt,omitempty"`
	Result         map[string]any       `json:"result,omitempty"`
	LastError      string               `json:"lastError,omitempty"`
	RequestedBy    string               `json:"requestedBy"`
	CreatedAt      time.Time            `json:"createdAt"`
	LastUpdatedAt  time.Time            `json:"lastUpdatedAt"`
}
