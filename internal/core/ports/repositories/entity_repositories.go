package repositories

import (
	"context"
	"time"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

// PaymentReader defines read operations on the external payment entity.
type PaymentReader interface {
	// FindPaymentByID retrieves one payment.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListCompletedPaymentsByCompany retrieves every completed payment of a
	// company, oldest first. Used by bulk resync.
	ListCompletedPaymentsByCompany(ctx context.Context, companyID string) ([]domain.Payment, error)

	// ListCompletedPaymentsByDevelopment retrieves completed payments that
	// reference a development or one of its units.
	ListCompletedPaymentsByDevelopment(ctx context.Context, developmentID string) ([]domain.Payment, error)

	// ListPaymentsModifiedSince retrieves payments mutated at or after the
	// given instant, keyset-paged on (last_updated_at, payment_id) past
	// afterID, oldest first, bounded by limit.
	ListPaymentsModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.Payment, error)
}

// PaymentWriter defines the single write-back the ledger core performs on
// payments: flagging unresolvable ones as in suspense.
type PaymentWriter interface {
	// MarkPaymentInSuspense flags a payment whose ledger targets cannot be
	// resolved. Suspense is terminal until manual intervention.
	MarkPaymentInSuspense(ctx context.Context, paymentID, reason string, now time.Time) error
}

// PaymentRepository combines payment read and write-back operations.
type PaymentRepository interface {
	PaymentReader
	PaymentWriter
}

// PropertyReader defines read operations on the external property entities.
type PropertyReader interface {
	// FindPropertyByID retrieves one property, or ErrNotFound.
	FindPropertyByID(ctx context.Context, propertyID string) (*domain.Property, error)

	// FindDevelopmentByID retrieves one development, or ErrNotFound.
	FindDevelopmentByID(ctx context.Context, developmentID string) (*domain.Development, error)

	// FindUnitByID retrieves one development unit, or ErrNotFound.
	FindUnitByID(ctx context.Context, unitID string) (*domain.DevelopmentUnit, error)

	// ListDevelopmentsByCompany retrieves every development of a company.
	ListDevelopmentsByCompany(ctx context.Context, companyID string) ([]domain.Development, error)

	// ListPropertiesModifiedSince retrieves properties mutated at or after
	// the given instant, keyset-paged on (last_updated_at, property_id)
	// past afterID, oldest first, bounded by limit.
	ListPropertiesModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.Property, error)
}

// UserReader defines read operations on the external user entity.
type UserReader interface {
	// FindUserByID retrieves one user, or ErrNotFound.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// ListUsersModifiedSince retrieves users mutated at or after the given
	// instant, keyset-paged on (last_updated_at, user_id) past afterID,
	// oldest first, bounded by limit.
	ListUsersModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.User, error)
}
