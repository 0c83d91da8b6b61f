package dto

import (
	"time"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

// EnqueueMaintenanceJobRequest asks for a maintenance operation to be run
// for a company. Duplicate active requests collapse onto the existing job.
type EnqueueMaintenanceJobRequest struct {
	Operation domain.MaintenanceOperation `json:"operation" binding:"required,oneof=SYNC_PROPERTY_ACCOUNTS ENSURE_DEVELOPMENT_LEDGERS"`
	CompanyID string                      `json:"companyID" binding:"required"`
}

// MaintenanceJobResponse mirrors domain.MaintenanceJob for API consumers.
type MaintenanceJobResponse struct {
	JobID         string                      `json:"jobID"`
	Operation     domain.MaintenanceOperation `json:"operation"`
	CompanyID     string                      `json:"companyID"`
	Status        domain.MaintenanceJobStatus `json:"status"`
	Attempts      int                         `json:"attempts"`
	MaxAttempts   int                         `json:"maxAttempts"`
	RunAfter      time.Time                   `json:"runAfter"`
	StartedAt     *time.Time                  `json:"startedAt,omitempty"`
	CompletedAt   *time.Time                  `json:"completedAt,omitempty"`
	Result        map[string]any              `json:"result,omitempty"`
	LastError     string                      `json:"lastError,omitempty"`
	RequestedBy   string                      `json:"requestedBy"`
	CreatedAt     time.Time                   `json:"createdAt"`
	LastUpdatedAt time.Time                   `json:"lastUpdatedAt"`
}

// ToMaintenanceJobResponse converts a domain MaintenanceJob to its response DTO.
func ToMaintenanceJobResponse(j *domain.MaintenanceJob) MaintenanceJobResponse {
	return MaintenanceJobResponse{
		JobID:         j.JobID,
		Operation:     j.Operation,
		CompanyID:     j.CompanyID,
		Status:        j.Status,
		Attempts:      j.Attempts,
		MaxAttempts:   j.MaxAttempts,
		RunAfter:      j.RunAfter,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		Result:        j.Result,
		LastError:     j.LastError,
		RequestedBy:   j.RequestedBy,
		CreatedAt:     j.CreatedAt,
		LastUpdatedAt: j.LastUpdatedAt,
	}
}

// LedgerEventResponse mirrors domain.LedgerEvent for API consumers.
type LedgerEventResponse struct {
	EventID       string                   `json:"eventID"`
	Type          domain.LedgerEventType   `json:"type"`
	PaymentID     string                   `json:"paymentID"`
	Status        domain.LedgerEventStatus `json:"status"`
	AttemptCount  int                      `json:"attemptCount"`
	NextAttemptAt time.Time                `json:"nextAttemptAt"`
	LastError     string                   `json:"lastError,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	LastUpdatedAt time.Time                `json:"lastUpdatedAt"`
}

// ToLedgerEventResponse converts a domain LedgerEvent to its response DTO.
func ToLedgerEventResponse(e *domain.LedgerEvent) LedgerEventResponse {
	return LedgerEventResponse{
		EventID:       e.EventID,
		Type:          e.Type,
		PaymentID:     e.PaymentID,
		Status:        e.Status,
		AttemptCount:  e.AttemptCount,
		NextAttemptAt: e.NextAttemptAt,
		LastError:     e.LastError,
		CreatedAt:     e.CreatedAt,
		LastUpdatedAt: e.LastUpdatedAt,
	}
}
