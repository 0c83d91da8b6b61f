package dto

import (
	"time"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

// RetrySyncRequest asks for a single entity to be re-mirrored immediately.
type RetrySyncRequest struct {
	EntityType domain.SyncEntityType `json:"entityType" binding:"required,oneof=PAYMENT PROPERTY USER"`
	DocumentID string                `json:"documentID" binding:"required"`
}

// SyncFailureResponse mirrors domain.SyncFailure for API consumers.
type SyncFailureResponse struct {
	FailureID     string                   `json:"failureID"`
	Type          domain.SyncEntityType    `json:"type"`
	DocumentID    string                   `json:"documentID"`
	Status        domain.SyncFailureStatus `json:"status"`
	ErrorMessage  string                   `json:"errorMessage"`
	ErrorLabels   []string                 `json:"errorLabels,omitempty"`
	Retriable     bool                     `json:"retriable"`
	AttemptCount  int                      `json:"attemptCount"`
	NextAttemptAt time.Time                `json:"nextAttemptAt"`
	CreatedAt     time.Time                `json:"createdAt"`
	LastUpdatedAt time.Time                `json:"lastUpdatedAt"`
}

// ToSyncFailureResponse converts a domain SyncFailure to its response DTO.
func ToSyncFailureResponse(f *domain.SyncFailure) SyncFailureResponse {
	return SyncFailureResponse{
		FailureID:     f.FailureID,
		Type:          f.Type,
		DocumentID:    f.DocumentID,
		Status:        f.Status,
		ErrorMessage:  f.ErrorMessage,
		ErrorLabels:   f.ErrorLabels,
		Retriable:     f.Retriable,
		AttemptCount:  f.AttemptCount,
		NextAttemptAt: f.NextAttemptAt,
		CreatedAt:     f.CreatedAt,
		LastUpdatedAt: f.LastUpdatedAt,
	}
}

// ToSyncFailureResponses converts a slice of domain SyncFailures.
func ToSyncFailureResponses(fs []domain.SyncFailure) []SyncFailureResponse {
	res := make([]SyncFailureResponse, len(fs))
	for i := range fs {
		res[i] = ToSyncFailureResponse(&fs[i])
	}
	return res
}

// ConsistencyReportResponse mirrors domain.ConsistencyReport.
type ConsistencyReportResponse struct {
	LookbackDays      int       `json:"lookbackDays"`
	PaymentsScanned   int       `json:"paymentsScanned"`
	PropertiesScanned int       `json:"propertiesScanned"`
	MissingShadows    int       `json:"missingShadows"`
	OrphanedShadows   int       `json:"orphanedShadows"`
	DanglingOwnerRefs int       `json:"danglingOwnerRefs"`
	RemediatedShadows int       `json:"remediatedShadows"`
	MissingShadowIDs  []string  `json:"missingShadowIDs,omitempty"`
	OrphanedShadowIDs []string  `json:"orphanedShadowIDs,omitempty"`
	DanglingOwnerIDs  []string  `json:"danglingOwnerIDs,omitempty"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
}

// ToConsistencyReportResponse converts a domain ConsistencyReport.
func ToConsistencyReportResponse(r *domain.ConsistencyReport) ConsistencyReportResponse {
	return ConsistencyReportResponse{
		LookbackDays:      r.LookbackDays,
		PaymentsScanned:   r.PaymentsScanned,
		PropertiesScanned: r.PropertiesScanned,
		MissingShadows:    r.MissingShadows,
		OrphanedShadows:   r.OrphanedShadows,
		DanglingOwnerRefs: r.DanglingOwnerRefs,
		RemediatedShadows: r.RemediatedShadows,
		MissingShadowIDs:  r.MissingShadowIDs,
		OrphanedShadowIDs: r.OrphanedShadowIDs,
		DanglingOwnerIDs:  r.DanglingOwnerIDs,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
	}
}

// ScheduleStatusResponse describes one registered schedule.
type ScheduleStatusResponse struct {
	Name            string     `json:"name"`
	Spec            string     `json:"spec"`
	Enabled         bool       `json:"enabled"`
	RunCount        int64      `json:"runCount"`
	LastRunAt       *time.Time `json:"lastRunAt,omitempty"`
	LastDurationMs  int64      `json:"lastDurationMs"`
	AvgDurationMs   int64      `json:"avgDurationMs"`
	LastError       string     `json:"lastError,omitempty"`
	NextRunAt       *time.Time `json:"nextRunAt,omitempty"`
	ConsecutiveErrs int        `json:"consecutiveErrors"`
}

// UpdateScheduleRequest toggles a schedule on or off.
type UpdateScheduleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}
