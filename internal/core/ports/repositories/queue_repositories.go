package repositories

import (
	"context"
	"time"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

// LedgerEventRepository persists the durable queue between payment
// completion and ledger posting.
type LedgerEventRepository interface {
	// EnqueueIfAbsent inserts a pending event unless a non-terminal event of
	// the same (type, paymentID) already exists. Returns the inserted or
	// pre-existing event and whether a new row was created.
	EnqueueIfAbsent(ctx context.Context, event domain.LedgerEvent) (*domain.LedgerEvent, bool, error)

	// FindDueEvents retrieves events with status pending or failed whose
	// nextAttemptAt has passed, oldest first, bounded by limit.
	FindDueEvents(ctx context.Context, now time.Time, limit int) ([]domain.LedgerEvent, error)

	// ClaimEvent conditionally moves an event from pending/failed to
	// processing. Returns ErrConflict when another pass claimed it first.
	ClaimEvent(ctx context.Context, eventID string, now time.Time) error

	// MarkCompleted terminally completes an event.
	MarkCompleted(ctx context.Context, eventID string, now time.Time) error

	// MarkFailed returns a processing event to failed with a new attempt
	// count, next attempt time and error message.
	MarkFailed(ctx context.Context, eventID string, attemptCount int, nextAttemptAt time.Time, lastError string, now time.Time) error

	// FindEventByID retrieves one event.
	FindEventByID(ctx context.Context, eventID string) (*domain.LedgerEvent, error)
}

// MaintenanceJobRepository persists the leased job queue for bulk ledger
// operations.
type MaintenanceJobRepository interface {
	// FindActiveJob retrieves the pending/running job of (operation,
	// companyID), or ErrNotFound. Used for enqueue dedup.
	FindActiveJob(ctx context.Context, operation domain.MaintenanceOperation, companyID string) (*domain.MaintenanceJob, error)

	// InsertJob inserts a pending job. Returns ErrDuplicate when an active
	// job of the same (operation, companyID) already exists.
	InsertJob(ctx context.Context, job domain.MaintenanceJob) error

	// RequeueExpiredLeases resets running jobs with expired leases back to
	// pending, clearing the worker assignment and delaying eligibility by
	// the given grace period. Returns the number of jobs requeued.
	RequeueExpiredLeases(ctx context.Context, now time.Time, grace time.Duration) (int, error)

	// ClaimNextJob atomically claims the oldest eligible pending job: sets
	// status running, assigns the worker, stamps startedAt, sets the lease
	// expiry and increments attempts. Returns ErrNotFound when no job is
	// eligible. This claim is the queue's sole mutual-exclusion mechanism.
	ClaimNextJob(ctx context.Context, workerID string, now time.Time, lease time.Duration) (*domain.MaintenanceJob, error)

	// CompleteJob terminally completes a running job with a result payload.
	CompleteJob(ctx context.Context, jobID string, result map[string]any, now time.Time) error

	// RetryJob returns a running job to pending with a delayed runAfter.
	RetryJob(ctx context.Context, jobID string, runAfter time.Time, lastError string, now time.Time) error

	// FailJob terminally fails a running job.
	FailJob(ctx context.Context, jobID string, lastError string, now time.Time) error

	// FindJobByID retrieves one job.
	FindJobByID(ctx context.Context, jobID string) (*domain.MaintenanceJob, error)
}
