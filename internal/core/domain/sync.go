package domain

import "time"

// SyncEntityType names the operational entity kinds mirrored into the
// accounting store.
type SyncEntityType string

const (
	SyncEntityPayment  SyncEntityType = "PAYMENT"
	SyncEntityProperty SyncEntityType = "PROPERTY"
	SyncEntityUser     SyncEntityType = "USER"
)

// ChangeOp distinguishes upserts from deletions on the change feed.
type ChangeOp string

const (
	ChangeOpUpsert ChangeOp = "UPSERT"
	ChangeOpDelete ChangeOp = "DELETE"
)

// ChangeEvent is the contract both change feed implementations emit: one
// mutated operational document, identified by entity type and id.
type ChangeEvent struct {
	Type       SyncEntityType `json:"type"`
	DocumentID string         `json:"documentID"`
	Op         ChangeOp       `json:"op"`
	ObservedAt time.Time      `json:"observedAt"`
}

// SyncFailureStatus is the lifecycle state of a persisted sync failure.
// Resolved and discarded are terminal.
type SyncFailureStatus string

const (
	SyncFailureStatusPending   SyncFailureStatus = "PENDING"
	SyncFailureStatusResolved  SyncFailureStatus = "RESOLVED"
	SyncFailureStatusDiscarded SyncFailureStatus = "DISCARDED"
)

// SyncFailure is the persistent failure ledger entry for one document that
// could not be mirrored. A single record exists per (type, documentID); it
// is upserted on error, resolved on successful retry and discarded after a
// max-attempt ceiling or a non-retriable classification.
type SyncFailure struct {
	FailureID     string            `json:"failureID"`
	Type          SyncEntityType    `json:"type"`
	DocumentID    string            `json:"documentID"`
	ErrorMessage  string            `json:"errorMessage"`
	ErrorLabels   []string          `json:"errorLabels,omitempty"`
	Retriable     bool              `json:"retriable"`
	AttemptCount  int               `json:"attemptCount"`
	NextAttemptAt time.Time         `json:"nextAttemptAt"`
	Status        SyncFailureStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	LastUpdatedAt time.Time         `json:"lastUpdatedAt"`
}

// ShadowPayment is the accounting-store mirror of an operational payment.
type ShadowPayment struct {
	PaymentID     string    `json:"paymentID"`
	CompanyID     string    `json:"companyID"`
	Payload       []byte    `json:"-"` // operational document snapshot
	SourceUpdated time.Time `json:"sourceUpdated"`
	MirroredAt    time.Time `json:"mirroredAt"`
}

// ShadowProperty is the accounting-store mirror of an operational property.
type ShadowProperty struct {
	PropertyID    string    `json:"propertyID"`
	CompanyID     string    `json:"companyID"`
	OwnerID       *string   `json:"ownerID,omitempty"`
	Payload       []byte    `json:"-"`
	SourceUpdated time.Time `json:"sourceUpdated"`
	MirroredAt    time.Time `json:"mirroredAt"`
}

// ShadowContact is the accounting-store mirror of an operational user.
type ShadowContact struct {
	UserID        string    `json:"userID"`
	CompanyID     string    `json:"companyID"`
	Payload       []byte    `json:"-"`
	SourceUpdated time.Time `json:"sourceUpdated"`
	MirroredAt    time.Time `json:"mirroredAt"`
}

// ConsistencyReport summarises one operational-vs-accounting cross-check.
type ConsistencyReport struct {
	LookbackDays      int       `json:"lookbackDays"`
	PaymentsScanned   int       `json:"paymentsScanned"`
	PropertiesScanned int       `json:"propertiesScanned"`
	MissingShadows    int       `json:"missingShadows"`    // source without shadow
	OrphanedShadows   int       `json:"orphanedShadows"`   // shadow without source
	DanglingOwnerRefs int       `json:"danglingOwnerRefs"` // shadow property pointing at a missing contact
	RemediatedShadows int       `json:"remediatedShadows"` // best-effort fixes applied
	MissingShadowIDs  []string  `json:"missingShadowIDs,omitempty"`
	OrphanedShadowIDs []string  `json:"orphanedShadowIDs,omitempty"`
	DanglingOwnerIDs  []string  `json:"danglingOwnerIDs,omitempty"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
}
