package services

import (
	"context"
	"time"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

// SyncReaderSvc defines read operations over the sync failure ledger.
type SyncReaderSvc interface {
	// ListFailures retrieves failures by status, newest first.
	ListFailures(ctx context.Context, status domain.SyncFailureStatus, limit int) ([]domain.SyncFailure, error)
}

// SyncWriterSvc defines the mirroring operations of the change synchronizer.
type SyncWriterSvc interface {
	// HandleChange mirrors one changed operational document into the
	// accounting store. Errors are recorded in the failure ledger and
	// returned.
	HandleChange(ctx context.Context, ev domain.ChangeEvent) error

	// RetrySyncFor re-mirrors a single entity immediately, resolving its
	// failure record on success.
	RetrySyncFor(ctx context.Context, entityType domain.SyncEntityType, documentID string) error

	// SyncRecent mirrors every operational document modified since the
	// given time. Returns the number of documents mirrored.
	SyncRecent(ctx context.Context, since time.Time) (int, error)

	// SyncAll mirrors the full operational dataset. Returns the number of
	// documents mirrored.
	SyncAll(ctx context.Context) (int, error)

	// ReprocessFailures retries every due pending failure. Returns the
	// number resolved.
	ReprocessFailures(ctx context.Context) (int, error)

	// CleanupTerminalFailures deletes resolved and discarded failure
	// records older than the given age. Returns the number deleted.
	CleanupTerminalFailures(ctx context.Context, olderThan time.Duration) (int, error)
}

// SyncValidatorSvc defines the cross-store consistency check.
type SyncValidatorSvc interface {
	// ValidateConsistency cross-checks operational documents against their
	// shadows over the lookback window, optionally remediating drift.
	// concurrency bounds the parallel existence checks; zero or negative
	// selects the default.
	ValidateConsistency(ctx context.Context, lookbackDays, concurrency int, remediate bool) (*domain.ConsistencyReport, error)
}

// SyncSvcFacade combines all synchronizer interfaces plus the change feed
// lifecycle. Start subscribes to the operational change feed (falling back
// to polling when the store cannot stream); Stop halts it.
type SyncSvcFacade interface {
	SyncReaderSvc
	SyncWriterSvc
	SyncValidatorSvc

	Start(ctx context.Context) error
	Stop()
}
