package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the payments row (read-mostly external entity).
type Payment struct {
	PaymentID           string          `db:"payment_id"`
	CompanyID           string          `db:"company_id"`
	Status              string          `db:"status"`
	PaymentType         string          `db:"payment_type"`
	Amount              decimal.Decimal `db:"amount"`
	OwnerAmount         decimal.Decimal `db:"owner_amount"`
	AgencyAmount        decimal.Decimal `db:"agency_amount"`
	DepositAmount       decimal.Decimal `db:"deposit_amount"`
	PropertyID          *string         `db:"property_id"`
	DevelopmentID       *string         `db:"development_id"`
	UnitID              *string         `db:"unit_id"`
	ReversalOfPaymentID *string         `db:"reversal_of_payment_id"`
	ReversedByPaymentID *string         `db:"reversed_by_payment_id"`
	InSuspense          bool            `db:"in_suspense"`
	SuspenseReason      string          `db:"suspense_reason"`
	PaymentDate         time.Time       `db:"payment_date"`
	LastUpdatedAt       time.Time       `db:"last_updated_at"`
}

// Property is the properties row (read-only external entity).
type Property struct {
	PropertyID    string    `db:"property_id"`
	CompanyID     string    `db:"company_id"`
	Type          string    `db:"type"`
	Name          string    `db:"name"`
	OwnerID       string    `db:"owner_id"`
	OwnerName     string    `db:"owner_name"`
	IsDeleted     bool      `db:"is_deleted"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

// Development is the developments row (read-only external entity).
type Development struct {
	DevelopmentID string    `db:"development_id"`
	CompanyID     string    `db:"company_id"`
	Name          string    `db:"name"`
	OwnerID       string    `db:"owner_id"`
	OwnerName     string    `db:"owner_name"`
	IsDeleted     bool      `db:"is_deleted"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

// DevelopmentUnit is the development_units row (read-only external entity).
type DevelopmentUnit struct {
	UnitID        string    `db:"unit_id"`
	DevelopmentID string    `db:"development_id"`
	CompanyID     string    `db:"company_id"`
	Name          string    `db:"name"`
	IsDeleted     bool      `db:"is_deleted"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

// User is the users row (read-only external entity).
type User struct {
	UserID        string    `db:"user_id"`
	CompanyID     string    `db:"company_id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	IsDeleted     bool      `db:"is_deleted"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}
