package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerType classifies a ledger as rental-income-bearing or sale-income-bearing.
type LedgerType string

const (
	LedgerTypeRental LedgerType = "RENTAL"
	LedgerTypeSale   LedgerType = "SALE"
)

// NormalizeLedgerType maps the legacy empty value onto RENTAL so that
// grouping and uniqueness checks treat pre-migration ledgers consistently.
func NormalizeLedgerType(t LedgerType) LedgerType {
	if t == "" {
		return LedgerTypeRental
	}
	return t
}

// LedgerAccount is one property's (or development's / unit's) financial
// record for one ledger type. It is the unit of consistency: concurrent
// writers race via conditional updates scoped to a single account.
//
// Among non-archived accounts at most one exists per (propertyID, ledgerType).
// Duplicates are archived, never hard-deleted.
type LedgerAccount struct {
	LedgerID          string          `json:"ledgerID"`
	CompanyID         string          `json:"companyID"`
	PropertyID        string          `json:"propertyID"` // property, development or unit reference
	LedgerType        LedgerType      `json:"ledgerType"` // empty on legacy records until migrated
	OwnerID           string          `json:"ownerID"`
	OwnerName         string          `json:"ownerName"`
	RunningBalance    decimal.Decimal `json:"runningBalance"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	TotalOwnerPayouts decimal.Decimal `json:"totalOwnerPayouts"`
	IsArchived        bool            `json:"isArchived"`
	Version           int64           `json:"-"` // optimistic concurrency counter
	AuditFields
}

// TransactionType distinguishes income from expense entries.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus is the lifecycle state of a ledger transaction.
// Completed and cancelled are terminal; only completed entries contribute
// to balance derivation.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is a single income or expense entry owned by exactly one
// ledger account. Amount and date are immutable after creation; the only
// permitted mutation is the completed -> cancelled status flip on reversal.
type Transaction struct {
	TransactionID   string            `json:"transactionID"`
	LedgerID        string            `json:"ledgerID"`
	Type            TransactionType   `json:"type"`
	Amount          decimal.Decimal   `json:"amount"` // always >= 0
	Date            time.Time         `json:"date"`
	PaymentID       *string           `json:"paymentID,omitempty"` // non-owning back-reference
	IdempotencyKey  string            `json:"idempotencyKey"`      // unique within the account
	Category        string            `json:"category"`
	Status          TransactionStatus `json:"status"`
	ReferenceNumber string            `json:"referenceNumber"`
	ProcessedBy     string            `json:"processedBy"`
	Notes           string            `json:"notes"`
	AuditFields
}

// DedupeKey identifies a transaction for cross-ledger merge deduplication:
// the payment back-reference when present, else a composite of the entry's
// immutable fields.
func (t Transaction) DedupeKey() string {
	if t.PaymentID != nil && *t.PaymentID != "" {
		return "payment:" + *t.PaymentID
	}
	return string(t.Type) + "|" + t.ReferenceNumber + "|" + t.Date.UTC().Format(time.RFC3339) + "|" + t.Amount.String()
}

// PayoutStatus is the lifecycle state of an owner payout.
// Completed, failed and cancelled are terminal.
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusCompleted PayoutStatus = "COMPLETED"
	PayoutStatusFailed    PayoutStatus = "FAILED"
	PayoutStatusCancelled PayoutStatus = "CANCELLED"
)

// IsTerminal reports whether the payout status permits no further transition.
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusCompleted || s == PayoutStatusFailed || s == PayoutStatusCancelled
}

// OwnerPayout is a disbursement of accumulated balance to the property owner.
// It is creatable only while runningBalance >= amount, and the pending ->
// completed transition re-validates the balance atomically because expenses
// may have landed in between.
type OwnerPayout struct {
	PayoutID        string          `json:"payoutID"`
	LedgerID        string          `json:"ledgerID"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"paymentMethod"`
	RecipientID     string          `json:"recipientID"`
	RecipientName   string          `json:"recipientName"`
	ReferenceNumber string          `json:"referenceNumber"` // unique within the account
	IdempotencyKey  string          `json:"idempotencyKey"`  // unique within the account
	Status          PayoutStatus    `json:"status"`
	Date            time.Time       `json:"date"`
	AuditFields
}

// LedgerTotals is the pure fold over an account's completed entries.
// Re-deriving it is always safe because it is order independent.
type LedgerTotals struct {
	TotalIncome       decimal.Decimal
	TotalExpenses     decimal.Decimal
	TotalOwnerPayouts decimal.Decimal
}

// RunningBalance derives the account balance from the totals.
func (t LedgerTotals) RunningBalance() decimal.Decimal {
	return t.TotalIncome.Sub(t.TotalExpenses).Sub(t.TotalOwnerPayouts)
}

// ComputeLedgerTotals folds completed transactions and payouts into totals.
// Income counts toward TotalIncome, every other completed transaction type
// toward TotalExpenses, completed payouts toward TotalOwnerPayouts.
func ComputeLedgerTotals(transactions []Transaction, payouts []OwnerPayout) LedgerTotals {
	totals := LedgerTotals{
		TotalIncome:       decimal.Zero,
		TotalExpenses:     decimal.Zero,
		TotalOwnerPayouts: decimal.Zero,
	}
	for _, txn := range transactions {
		if txn.Status != TransactionStatusCompleted {
			continue
		}
		if txn.Type == TransactionTypeIncome {
			totals.TotalIncome = totals.TotalIncome.Add(txn.Amount)
		} else {
			totals.TotalExpenses = totals.TotalExpenses.Add(txn.Amount)
		}
	}
	for _, p := range payouts {
		if p.Status == PayoutStatusCompleted {
			totals.TotalOwnerPayouts = totals.TotalOwnerPayouts.Add(p.Amount)
		}
	}
	return totals
}

// PaymentIdempotencyKey is the system-derived idempotency key for income
// posted from a payment, so that duplicate delivery is a no-op.
func PaymentIdempotencyKey(paymentID string) string {
	return "payment:" + paymentID
}
