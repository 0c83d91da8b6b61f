package mapping

import (
	"encoding/json"

	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/models"
)

// ToDomainLedgerEvent converts a model LedgerEvent to a domain LedgerEvent.
func ToDomainLedgerEvent(m models.LedgerEvent) domain.LedgerEvent {
	return domain.LedgerEvent{
		EventID:       m.EventID,
		Type:          domain.LedgerEventType(m.Type),
		PaymentID:     m.PaymentID,
		Status:        domain.LedgerEventStatus(m.Status),
		AttemptCount:  m.AttemptCount,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
		CreatedAt:     m.CreatedAt,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}

// ToDomainMaintenanceJob converts a model MaintenanceJob to its domain form.
// An unparsable result payload is surfaced as a nil map rather than an error;
// the payload is informational only.
func ToDomainMaintenanceJob(m models.MaintenanceJob) domain.MaintenanceJob {
	var result map[string]any
	if len(m.Result) > 0 {
		_ = json.Unmarshal(m.Result, &result)
	}
	return domain.MaintenanceJob{
		JobID:          m.JobID,
		Operation:      domain.MaintenanceOperation(m.Operation),
		CompanyID:      m.CompanyID,
		Status:         domain.MaintenanceJobStatus(m.Status),
		Attempts:       m.Attempts,
		MaxAttempts:    m.MaxAttempts,
		RunAfter:       m.RunAfter,
		LeaseExpiresAt: m.LeaseExpiresAt,
		WorkerID:       m.WorkerID,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		Result:         result,
		LastError:      m.LastError,
		RequestedBy:    m.RequestedBy,
		CreatedAt:      m.CreatedAt,
		LastUpdatedAt:  m.LastUpdatedAt,
	}
}

// ToDomainSyncFailure converts a model SyncFailure to a domain SyncFailure.
func ToDomainSyncFailure(m models.SyncFailure) domain.SyncFailure {
	return domain.SyncFailure{
		FailureID:     m.FailureID,
		Type:          domain.SyncEntityType(m.Type),
		DocumentID:    m.DocumentID,
		ErrorMessage:  m.ErrorMessage,
		ErrorLabels:   m.ErrorLabels,
		Retriable:     m.Retriable,
		AttemptCount:  m.AttemptCount,
		NextAttemptAt: m.NextAttemptAt,
		Status:        domain.SyncFailureStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}

// ToDomainSyncFailureSlice converts a slice of model SyncFailures.
func ToDomainSyncFailureSlice(ms []models.SyncFailure) []domain.SyncFailure {
	ds := make([]domain.SyncFailure, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSyncFailure(m)
	}
	return ds
}
