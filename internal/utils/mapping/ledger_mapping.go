package mapping

import (
	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/models"
)

// ToModelLedgerAccount converts a domain LedgerAccount to a model LedgerAccount.
func ToModelLedgerAccount(d domain.LedgerAccount) models.LedgerAccount {
	return models.LedgerAccount{
		LedgerID:          d.LedgerID,
		CompanyID:         d.CompanyID,
		PropertyID:        d.PropertyID,
		LedgerType:        models.LedgerType(d.LedgerType),
		OwnerID:           d.OwnerID,
		OwnerName:         d.OwnerName,
		RunningBalance:    d.RunningBalance,
		TotalIncome:       d.TotalIncome,
		TotalExpenses:     d.TotalExpenses,
		TotalOwnerPayouts: d.TotalOwnerPayouts,
		IsArchived:        d.IsArchived,
		Version:           d.Version,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerAccount converts a model LedgerAccount to a domain LedgerAccount.
func ToDomainLedgerAccount(m models.LedgerAccount) domain.LedgerAccount {
	return domain.LedgerAccount{
		LedgerID:          m.LedgerID,
		CompanyID:         m.CompanyID,
		PropertyID:        m.PropertyID,
		LedgerType:        domain.LedgerType(m.LedgerType),
		OwnerID:           m.OwnerID,
		OwnerName:         m.OwnerName,
		RunningBalance:    m.RunningBalance,
		TotalIncome:       m.TotalIncome,
		TotalExpenses:     m.TotalExpenses,
		TotalOwnerPayouts: m.TotalOwnerPayouts,
		IsArchived:        m.IsArchived,
		Version:           m.Version,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelTransaction converts a domain Transaction to a model Transaction.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:   d.TransactionID,
		LedgerID:        d.LedgerID,
		Type:            models.TransactionType(d.Type),
		Amount:          d.Amount,
		Date:            d.Date,
		PaymentID:       d.PaymentID,
		IdempotencyKey:  d.IdempotencyKey,
		Category:        d.Category,
		Status:          models.TransactionStatus(d.Status),
		ReferenceNumber: d.ReferenceNumber,
		ProcessedBy:     d.ProcessedBy,
		Notes:           d.Notes,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction.
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:   m.TransactionID,
		LedgerID:        m.LedgerID,
		Type:            domain.TransactionType(m.Type),
		Amount:          m.Amount,
		Date:            m.Date,
		PaymentID:       m.PaymentID,
		IdempotencyKey:  m.IdempotencyKey,
		Category:        m.Category,
		Status:          domain.TransactionStatus(m.Status),
		ReferenceNumber: m.ReferenceNumber,
		ProcessedBy:     m.ProcessedBy,
		Notes:           m.Notes,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions.
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}

// ToModelOwnerPayout converts a domain OwnerPayout to a model OwnerPayout.
func ToModelOwnerPayout(d domain.OwnerPayout) models.OwnerPayout {
	return models.OwnerPayout{
		PayoutID:        d.PayoutID,
		LedgerID:        d.LedgerID,
		Amount:          d.Amount,
		PaymentMethod:   d.PaymentMethod,
		RecipientID:     d.RecipientID,
		RecipientName:   d.RecipientName,
		ReferenceNumber: d.ReferenceNumber,
		IdempotencyKey:  d.IdempotencyKey,
		Status:          models.PayoutStatus(d.Status),
		Date:            d.Date,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainOwnerPayout converts a model OwnerPayout to a domain OwnerPayout.
func ToDomainOwnerPayout(m models.OwnerPayout) domain.OwnerPayout {
	return domain.OwnerPayout{
		PayoutID:        m.PayoutID,
		LedgerID:        m.LedgerID,
		Amount:          m.Amount,
		PaymentMethod:   m.PaymentMethod,
		RecipientID:     m.RecipientID,
		RecipientName:   m.RecipientName,
		ReferenceNumber: m.ReferenceNumber,
		IdempotencyKey:  m.IdempotencyKey,
		Status:          domain.PayoutStatus(m.Status),
		Date:            m.Date,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainOwnerPayoutSlice converts a slice of model OwnerPayouts.
func ToDomainOwnerPayoutSlice(ms []models.OwnerPayout) []domain.OwnerPayout {
	ds := make([]domain.OwnerPayout, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainOwnerPayout(m)
	}
	return ds
}
