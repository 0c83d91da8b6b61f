package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus mirrors the payment collaborator's status field. Only the
// values the ledger core reacts to are enumerated.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusReversed  PaymentStatus = "REVERSED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// PaymentType mirrors the payment collaborator's rental/sale classification.
type PaymentType string

const (
	PaymentTypeRental PaymentType = "RENTAL"
	PaymentTypeSale   PaymentType = "SALE"
)

// Payment is the read-mostly view of the external payment entity consumed by
// the ledger core. The core writes back only the in-suspense flag when no
// ledger target can be resolved.
type Payment struct {
	PaymentID     string          `json:"paymentID"`
	CompanyID     string          `json:"companyID"`
	Status        PaymentStatus   `json:"status"`
	PaymentType   PaymentType     `json:"paymentType"`
	Amount        decimal.Decimal `json:"amount"`
	OwnerAmount   decimal.Decimal `json:"ownerAmount"`   // owner share of the commission breakdown
	AgencyAmount  decimal.Decimal `json:"agencyAmount"`  // agency commission share
	DepositAmount decimal.Decimal `json:"depositAmount"` // deposit portion, not owner income
	PropertyID    *string         `json:"propertyID,omitempty"`
	DevelopmentID *string         `json:"developmentID,omitempty"`
	UnitID        *string         `json:"unitID,omitempty"`
	// ReversalOfPaymentID marks this row as a reversal of another payment.
	ReversalOfPaymentID *string `json:"reversalOfPaymentID,omitempty"`
	// ReversedByPaymentID links a reversed payment to its reversal row.
	ReversedByPaymentID *string   `json:"reversedByPaymentID,omitempty"`
	InSuspense          bool      `json:"inSuspense"`
	SuspenseReason      string    `json:"suspenseReason,omitempty"`
	PaymentDate         time.Time `json:"paymentDate"`
	LastUpdatedAt       time.Time `json:"lastUpdatedAt"`
}

// IsReversal reports whether this payment row is itself a reversal entry.
func (p Payment) IsReversal() bool {
	return p.ReversalOfPaymentID != nil && *p.ReversalOfPaymentID != ""
}

// OwnerIncomeAmount is the portion of the payment that posts to the owner's
// ledger: the owner share when a commission breakdown exists, else the
// payment amount net of the deposit portion.
func (p Payment) OwnerIncomeAmount() decimal.Decimal {
	if p.OwnerAmount.IsPositive() {
		return p.OwnerAmount
	}
	return p.Amount.Sub(p.DepositAmount)
}

// IsDepositOnly reports whether the payment carries no owner income at all
// (the amount is fully consumed by the deposit portion).
func (p Payment) IsDepositOnly() bool {
	return !p.Amount.GreaterThan(p.DepositAmount)
}
