package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerType is the persisted ledger classification. Empty on legacy rows.
type LedgerType string

const (
	LedgerTypeRental LedgerType = "RENTAL"
	LedgerTypeSale   LedgerType = "SALE"
)

// LedgerAccount is the ledger_accounts row.
type LedgerAccount struct {
	LedgerID          string          `db:"ledger_id"`
	CompanyID         string          `db:"company_id"`
	PropertyID        string          `db:"property_id"`
	LedgerType        LedgerType      `db:"ledger_type"`
	OwnerID           string          `db:"owner_id"`
	OwnerName         string          `db:"owner_name"`
	RunningBalance    decimal.Decimal `db:"running_balance"`
	TotalIncome       decimal.Decimal `db:"total_income"`
	TotalExpenses     decimal.Decimal `db:"total_expenses"`
	TotalOwnerPayouts decimal.Decimal `db:"total_owner_payouts"`
	IsArchived        bool            `db:"is_archived"`
	Version           int64           `db:"version"`
	AuditFields
}

// TransactionType is the persisted transaction classification.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus is the persisted transaction lifecycle state.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is the ledger_transactions row.
type Transaction struct {
	TransactionID   string            `db:"transaction_id"`
	LedgerID        string            `db:"ledger_id"`
	Type            TransactionType   `db:"type"`
	Amount          decimal.Decimal   `db:"amount"`
	Date            time.Time         `db:"date"`
	PaymentID       *string           `db:"payment_id"`
	IdempotencyKey  string            `db:"idempotency_key"`
	Category        string            `db:"category"`
	Status          TransactionStatus `db:"status"`
	ReferenceNumber string            `db:"reference_number"`
	ProcessedBy     string            `db:"processed_by"`
	Notes           string            `db:"notes"`
	AuditFields
}

// PayoutStatus is the persisted payout lifecycle state.
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusCompleted PayoutStatus = "COMPLETED"
	PayoutStatusFailed    PayoutStatus = "FAILED"
	PayoutStatusCancelled PayoutStatus = "CANCELLED"
)

// OwnerPayout is the owner_payouts row.
type OwnerPayout struct {
	PayoutID        string          `db:"payout_id"`
	LedgerID        string          `db:"ledger_id"`
	Amount          decimal.Decimal `db:"amount"`
	PaymentMethod   string          `db:"payment_method"`
	RecipientID     string          `db:"recipient_id"`
	RecipientName   string          `db:"recipient_name"`
	ReferenceNumber string          `db:"reference_number"`
	IdempotencyKey  string          `db:"idempotency_key"`
	Status          PayoutStatus    `db:"status"`
	Date            time.Time       `db:"date"`
	AuditFields
}
