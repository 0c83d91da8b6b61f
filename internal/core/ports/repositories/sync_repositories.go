package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

// SyncFailureRepository persists the failure ledger of the change
// synchronizer: one row per (type, documentID).
type SyncFailureRepository interface {
	// UpsertFailure records a failed mirror attempt, inserting or updating
	// the single row for (type, documentID).
	UpsertFailure(ctx context.Context, failure domain.SyncFailure) error

	// DeleteFailure clears the failure row after an inline success.
	DeleteFailure(ctx context.Context, entityType domain.SyncEntityType, documentID string) error

	// MarkResolved terminally resolves the failure row after a successful
	// scheduled retry.
	MarkResolved(ctx context.Context, entityType domain.SyncEntityType, documentID string, now time.Time) error

	// MarkDiscarded terminally discards a failure that exhausted its attempt
	// ceiling or was classified non-retriable.
	MarkDiscarded(ctx context.Context, entityType domain.SyncEntityType, documentID string, now time.Time) error

	// FindFailure retrieves the failure row for (type, documentID).
	FindFailure(ctx context.Context, entityType domain.SyncEntityType, documentID string) (*domain.SyncFailure, error)

	// FindDueFailures retrieves pending failures whose nextAttemptAt has
	// passed, oldest first, bounded by limit.
	FindDueFailures(ctx context.Context, now time.Time, limit int) ([]domain.SyncFailure, error)

	// ListFailures retrieves failures filtered by status (empty = all),
	// newest first, bounded by limit.
	ListFailures(ctx context.Context, status domain.SyncFailureStatus, limit int) ([]domain.SyncFailure, error)

	// DeleteTerminalOlderThan removes resolved/discarded rows last updated
	// before the cutoff. Returns the number of rows removed.
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// ShadowRepository persists the accounting-store mirrors of operational
// entities plus the commission revenue postings derived from payments.
type ShadowRepository interface {
	UpsertPayment(ctx context.Context, shadow domain.ShadowPayment) error
	DeletePayment(ctx context.Context, paymentID string) error
	PaymentExists(ctx context.Context, paymentID string) (bool, error)

	UpsertProperty(ctx context.Context, shadow domain.ShadowProperty) error
	DeleteProperty(ctx context.Context, propertyID string) error
	PropertyExists(ctx context.Context, propertyID string) (bool, error)

	UpsertContact(ctx context.Context, shadow domain.ShadowContact) error
	DeleteContact(ctx context.Context, userID string) error
	ContactExists(ctx context.Context, userID string) (bool, error)

	// UpsertCommissionRevenue posts the agency commission share of a
	// completed payment into the accounting store, keyed by payment id so
	// replays are no-ops.
	UpsertCommissionRevenue(ctx context.Context, paymentID, companyID string, amount decimal.Decimal, paymentDate time.Time, now time.Time) error

	// DeleteCommissionRevenue removes the posting when a payment is
	// reversed or deleted.
	DeleteCommissionRevenue(ctx context.Context, paymentID string) error

	// ListShadowPaymentIDsSince retrieves shadow payment ids mirrored after
	// the cutoff. Used by the consistency validator to detect orphans.
	ListShadowPaymentIDsSince(ctx context.Context, since time.Time, limit int) ([]string, error)

	// ListShadowPropertyIDsSince retrieves shadow property ids mirrored
	// after the cutoff.
	ListShadowPropertyIDsSince(ctx context.Context, since time.Time, limit int) ([]string, error)

	// ListDanglingOwnerRefs retrieves shadow property ids whose owner
	// reference points at no existing contact shadow.
	ListDanglingOwnerRefs(ctx context.Context, limit int) ([]string, error)

	// ClearOwnerRef nulls a dangling owner reference on a shadow property.
	ClearOwnerRef(ctx context.Context, propertyID string) error
}

// ChangeFeed observes mutations of the operational entities. Two
// implementations exist: a push-based one driven by store notifications and
// a poll-based fallback; both emit the same ChangeEvent contract.
type ChangeFeed interface {
	// Start begins emitting events to the handler until ctx is cancelled or
	// Stop is called. It returns ErrFeedUnsupported when the backing store
	// cannot provide this feed mode, in which case the caller selects
	// another implementation. The handler is invoked sequentially.
	Start(ctx context.Context, handler func(context.Context, domain.ChangeEvent)) error

	// Stop terminates the feed and releases its resources.
	Stop()

	// Mode names the feed implementation for logging.
	Mode() string
}
