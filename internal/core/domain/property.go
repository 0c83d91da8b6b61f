package domain

import "time"

// PropertyType is the external property entity's classification, used to
// infer the ledger type of a lazily created account.
type PropertyType string

const (
	PropertyTypeRental PropertyType = "RENTAL"
	PropertyTypeSale   PropertyType = "SALE"
)

// Property is the read-only view of the external property entity.
type Property struct {
	PropertyID    string       `json:"propertyID"`
	CompanyID     string       `json:"companyID"`
	Type          PropertyType `json:"type"`
	Name          string       `json:"name"`
	OwnerID       string       `json:"ownerID"`
	OwnerName     string       `json:"ownerName"`
	IsDeleted     bool         `json:"isDeleted"`
	LastUpdatedAt time.Time    `json:"lastUpdatedAt"`
}

// Development is the read-only view of a development (multi-unit sale
// project). Developments always carry sale ledgers.
type Development struct {
	DevelopmentID string    `json:"developmentID"`
	CompanyID     string    `json:"companyID"`
	Name          string    `json:"name"`
	OwnerID       string    `json:"ownerID"`
	OwnerName     string    `json:"ownerName"`
	IsDeleted     bool      `json:"isDeleted"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// DevelopmentUnit is the read-only view of a single unit within a
// development. Units always carry sale ledgers.
type DevelopmentUnit struct {
	UnitID        string    `json:"unitID"`
	DevelopmentID string    `json:"developmentID"`
	CompanyID     string    `json:"companyID"`
	Name          string    `json:"name"`
	IsDeleted     bool      `json:"isDeleted"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// User is the read-only view of the external user/contact entity mirrored
// into the accounting store.
type User struct {
	UserID        string    `json:"userID"`
	CompanyID     string    `json:"companyID"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	IsDeleted     bool      `json:"isDeleted"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}
