package mapping

import (
	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/models"
)

// ToDomainPayment converts a model Payment to a domain Payment.
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:           m.PaymentID,
		CompanyID:           m.CompanyID,
		Status:              domain.PaymentStatus(m.Status),
		PaymentType:         domain.PaymentType(m.PaymentType),
		Amount:              m.Amount,
		OwnerAmount:         m.OwnerAmount,
		AgencyAmount:        m.AgencyAmount,
		DepositAmount:       m.DepositAmount,
		PropertyID:          m.PropertyID,
		DevelopmentID:       m.DevelopmentID,
		UnitID:              m.UnitID,
		ReversalOfPaymentID: m.ReversalOfPaymentID,
		ReversedByPaymentID: m.ReversedByPaymentID,
		InSuspense:          m.InSuspense,
		SuspenseReason:      m.SuspenseReason,
		PaymentDate:         m.PaymentDate,
		LastUpdatedAt:       m.LastUpdatedAt,
	}
}

// ToDomainProperty converts a model Property to a domain Property.
func ToDomainProperty(m models.Property) domain.Property {
	return domain.Property{
		PropertyID:    m.PropertyID,
		CompanyID:     m.CompanyID,
		Type:          domain.PropertyType(m.Type),
		Name:          m.Name,
		OwnerID:       m.OwnerID,
		OwnerName:     m.OwnerName,
		IsDeleted:     m.IsDeleted,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}

// ToDomainDevelopment converts a model Development to a domain Development.
func ToDomainDevelopment(m models.Development) domain.Development {
	return domain.Development{
		DevelopmentID: m.DevelopmentID,
		CompanyID:     m.CompanyID,
		Name:          m.Name,
		OwnerID:       m.OwnerID,
		OwnerName:     m.OwnerName,
		IsDeleted:     m.IsDeleted,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}

// ToDomainDevelopmentUnit converts a model DevelopmentUnit to its domain form.
func ToDomainDevelopmentUnit(m models.DevelopmentUnit) domain.DevelopmentUnit {
	return domain.DevelopmentUnit{
		UnitID:        m.UnitID,
		DevelopmentID: m.DevelopmentID,
		CompanyID:     m.CompanyID,
		Name:          m.Name,
		IsDeleted:     m.IsDeleted,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}

// ToDomainUser converts a model User to a domain User.
func ToDomainUser(m models.User) domain.User {
	return domain.User{
		UserID:        m.UserID,
		CompanyID:     m.CompanyID,
		Name:          m.Name,
		Email:         m.Email,
		IsDeleted:     m.IsDeleted,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}
