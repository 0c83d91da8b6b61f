package services

import (
	"context"

	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/dto"
)

// LedgerEventSvcFacade manages the durable ledger event queue that decouples
// payment completion from ledger posting.
type LedgerEventSvcFacade interface {
	OwnerIncomeEnqueuer

	// ProcessDueEvents claims and executes every due event once. Returns
	// the number of events that completed successfully. Overlapping calls
	// collapse: a pass that finds one already running returns immediately.
	ProcessDueEvents(ctx context.Context) (int, error)

	// GetEventByID retrieves a single queued event.
	GetEventByID(ctx context.Context, eventID string) (*domain.LedgerEvent, error)

	// Start launches the background processing loop; Stop halts it and
	// waits for an in-flight pass to finish.
	Start(ctx context.Context)
	Stop()
}

// OwnerIncomeEnqueuer is the slice of the event queue the change
// synchronizer consumes: it only ever enqueues, never processes.
type OwnerIncomeEnqueuer interface {
	// EnqueueOwnerIncome records an OWNER_INCOME event for the payment
	// unless a non-terminal one already exists. The bool reports whether a
	// new event was created.
	EnqueueOwnerIncome(ctx context.Context, paymentID string) (*domain.LedgerEvent, bool, error)
}

// MaintenanceSvcFacade manages the lease-based maintenance job queue.
type MaintenanceSvcFacade interface {
	// EnqueueJob inserts a pending job unless an active one already exists
	// for the same (operation, company). The bool reports whether a new job
	// was created; when false the existing active job is returned.
	EnqueueJob(ctx context.Context, req dto.EnqueueMaintenanceJobRequest, userID string) (*domain.MaintenanceJob, bool, error)

	// GetJobByID retrieves a single job, including its result once done.
	GetJobByID(ctx context.Context, jobID string) (*domain.MaintenanceJob, error)

	// ProcessNextJob claims and runs at most one due job. The bool reports
	// whether a job was claimed.
	ProcessNextJob(ctx context.Context) (bool, error)

	// RequeueExpiredLeases returns running jobs whose lease lapsed to the
	// pending state. Returns the number requeued.
	RequeueExpiredLeases(ctx context.Context) (int, error)

	// Start launches the background worker loop; Stop halts it and waits
	// for an in-flight job to finish.
	Start(ctx context.Context)
	Stop()
}
