package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

// GetOrCreateLedgerRequest identifies the entity whose ledger is wanted.
// LedgerType may be omitted; it is then inferred from the referenced entity.
type GetOrCreateLedgerRequest struct {
	EntityID   string             `json:"entityID" binding:"required"`
	LedgerType *domain.LedgerType `json:"ledgerType" binding:"omitempty,oneof=RENTAL SALE"`
}

// CreateExpenseRequest defines the data needed to record a manual expense.
type CreateExpenseRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Date            time.Time       `json:"date" binding:"required"`
	Category        string          `json:"category" binding:"required"`
	IdempotencyKey  string          `json:"idempotencyKey" binding:"required"`
	ReferenceNumber string          `json:"referenceNumber"`
	Notes           string          `json:"notes"`
}

// CreateOwnerPayoutRequest defines the data needed to create an owner payout.
type CreateOwnerPayoutRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod   string          `json:"paymentMethod" binding:"required"`
	RecipientID     string          `json:"recipientID" binding:"required"`
	RecipientName   string          `json:"recipientName"`
	ReferenceNumber string          `json:"referenceNumber" binding:"required"`
	IdempotencyKey  string          `json:"idempotencyKey" binding:"required"`
	Date            time.Time       `json:"date"`
}

// UpdatePayoutStatusRequest carries a payout status transition.
type UpdatePayoutStatusRequest struct {
	Status domain.PayoutStatus `json:"status" binding:"required,oneof=COMPLETED FAILED CANCELLED"`
}

// LedgerAccountResponse mirrors domain.LedgerAccount for API consumers.
type LedgerAccountResponse struct {
	LedgerID          string            `json:"ledgerID"`
	CompanyID         string            `json:"companyID"`
	PropertyID        string            `json:"propertyID"`
	LedgerType        domain.LedgerType `json:"ledgerType"`
	OwnerID           string            `json:"ownerID"`
	OwnerName         string            `json:"ownerName"`
	RunningBalance    decimal.Decimal   `json:"runningBalance"`
	TotalIncome       decimal.Decimal   `json:"totalIncome"`
	TotalExpenses     decimal.Decimal   `json:"totalExpenses"`
	TotalOwnerPayouts decimal.Decimal   `json:"totalOwnerPayouts"`
	IsArchived        bool              `json:"isArchived"`
	LastUpdatedAt     time.Time         `json:"lastUpdatedAt"`
}

// ToLedgerAccountResponse converts a domain LedgerAccount to its response DTO.
func ToLedgerAccountResponse(l *domain.LedgerAccount) LedgerAccountResponse {
	return LedgerAccountResponse{
		LedgerID:          l.LedgerID,
		CompanyID:         l.CompanyID,
		PropertyID:        l.PropertyID,
		LedgerType:        l.LedgerType,
		OwnerID:           l.OwnerID,
		OwnerName:         l.OwnerName,
		RunningBalance:    l.RunningBalance,
		TotalIncome:       l.TotalIncome,
		TotalExpenses:     l.TotalExpenses,
		TotalOwnerPayouts: l.TotalOwnerPayouts,
		IsArchived:        l.IsArchived,
		LastUpdatedAt:     l.LastUpdatedAt,
	}
}

// TransactionResponse mirrors domain.Transaction for API consumers.
type TransactionResponse struct {
	TransactionID   string                   `json:"transactionID"`
	LedgerID        string                   `json:"ledgerID"`
	Type            domain.TransactionType   `json:"type"`
	Amount          decimal.Decimal          `json:"amount"`
	Date            time.Time                `json:"date"`
	PaymentID       *string                  `json:"paymentID,omitempty"`
	Category        string                   `json:"category"`
	Status          domain.TransactionStatus `json:"status"`
	ReferenceNumber string                   `json:"referenceNumber"`
	ProcessedBy     string                   `json:"processedBy"`
	Notes           string                   `json:"notes"`
	CreatedAt       time.Time                `json:"createdAt"`
}

// ToTransactionResponse converts a domain Transaction to its response DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		LedgerID:        t.LedgerID,
		Type:            t.Type,
		Amount:          t.Amount,
		Date:            t.Date,
		PaymentID:       t.PaymentID,
		Category:        t.Category,
		Status:          t.Status,
		ReferenceNumber: t.ReferenceNumber,
		ProcessedBy:     t.ProcessedBy,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain Transactions.
func ToTransactionResponses(ts []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(ts))
	for i := range ts {
		res[i] = ToTransactionResponse(&ts[i])
	}
	return res
}

// OwnerPayoutResponse mirrors domain.OwnerPayout for API consumers.
type OwnerPayoutResponse struct {
	PayoutID        string              `json:"payoutID"`
	LedgerID        string              `json:"ledgerID"`
	Amount          decimal.Decimal     `json:"amount"`
	PaymentMethod   string              `json:"paymentMethod"`
	RecipientID     string              `json:"recipientID"`
	RecipientName   string              `json:"recipientName"`
	ReferenceNumber string              `json:"referenceNumber"`
	Status          domain.PayoutStatus `json:"status"`
	Date            time.Time           `json:"date"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// ToOwnerPayoutResponse converts a domain OwnerPayout to its response DTO.
func ToOwnerPayoutResponse(p *domain.OwnerPayout) OwnerPayoutResponse {
	return OwnerPayoutResponse{
		PayoutID:        p.PayoutID,
		LedgerID:        p.LedgerID,
		Amount:          p.Amount,
		PaymentMethod:   p.PaymentMethod,
		RecipientID:     p.RecipientID,
		RecipientName:   p.RecipientName,
		ReferenceNumber: p.ReferenceNumber,
		Status:          p.Status,
		Date:            p.Date,
		CreatedAt:       p.CreatedAt,
	}
}

// ToOwnerPayoutResponses converts a slice of domain OwnerPayouts.
func ToOwnerPayoutResponses(ps []domain.OwnerPayout) []OwnerPayoutResponse {
	res := make([]OwnerPayoutResponse, len(ps))
	for i := range ps {
		res[i] = ToOwnerPayoutResponse(&ps[i])
	}
	return res
}

// ListTransactionsParams defines query parameters for transaction history.
type ListTransactionsParams struct {
	Type      string  `form:"type" binding:"omitempty,oneof=INCOME EXPENSE"`
	Status    string  `form:"status" binding:"omitempty,oneof=PENDING COMPLETED CANCELLED"`
	Category  string  `form:"category"`
	DateFrom  string  `form:"dateFrom"` // RFC 3339
	DateTo    string  `form:"dateTo"`   // RFC 3339
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is a page of transaction history.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ListPayoutsParams defines query parameters for payout history.
type ListPayoutsParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListPayoutsResponse is a page of payout history.
type ListPayoutsResponse struct {
	Payouts   []OwnerPayoutResponse `json:"payouts"`
	NextToken *string               `json:"nextToken,omitempty"`
}
