package repositories

import (
	"context"
	"time"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

// TransactionFilter bounds a transaction history query. Zero values mean
// "no constraint" for the corresponding field.
type TransactionFilter struct {
	Type     domain.TransactionType
	Status   domain.TransactionStatus
	Category string
	DateFrom time.Time
	DateTo   time.Time
}

// LedgerReader defines read operations for ledger accounts.
type LedgerReader interface {
	// FindLedgerByID retrieves a ledger account by its unique identifier.
	FindLedgerByID(ctx context.Context, ledgerID string) (*domain.LedgerAccount, error)

	// FindActiveLedger retrieves the non-archived ledger for
	// (propertyID, ledgerType), or ErrNotFound.
	FindActiveLedger(ctx context.Context, propertyID string, ledgerType domain.LedgerType) (*domain.LedgerAccount, error)

	// FindActiveLegacyLedger retrieves a non-archived ledger for propertyID
	// that has no ledger type set, or ErrNotFound.
	FindActiveLegacyLedger(ctx context.Context, propertyID string) (*domain.LedgerAccount, error)

	// ListActiveLedgersByCompany retrieves every non-archived ledger of a
	// company, including legacy rows without a ledger type.
	ListActiveLedgersByCompany(ctx context.Context, companyID string) ([]domain.LedgerAccount, error)
}

// LedgerWriter defines write operations for ledger accounts.
type LedgerWriter interface {
	// SaveLedger inserts a new ledger account.
	SaveLedger(ctx context.Context, ledger domain.LedgerAccount) error

	// AdoptLegacyLedger sets the ledger type on a legacy account, guarded on
	// the type still being unset. Returns ErrConflict if another writer set
	// it first.
	AdoptLegacyLedger(ctx context.Context, ledgerID string, ledgerType domain.LedgerType, updatedBy string, now time.Time) error

	// SetLedgerType flips the ledger type, guarded on the current value.
	SetLedgerType(ctx context.Context, ledgerID string, from, to domain.LedgerType, updatedBy string, now time.Time) error

	// ArchiveLedger soft-tombstones a ledger account. Archived accounts drop
	// out of the active-uniqueness scope and are never hard-deleted.
	ArchiveLedger(ctx context.Context, ledgerID string, updatedBy string, now time.Time) error

	// UpdateLedgerOwner refreshes the denormalised owner reference.
	UpdateLedgerOwner(ctx context.Context, ledgerID, ownerID, ownerName string, updatedBy string, now time.Time) error

	// ApplyTotals writes derived totals and running balance via a targeted
	// field update. Used by balance recalculation; does not touch history.
	ApplyTotals(ctx context.Context, ledgerID string, totals domain.LedgerTotals, updatedBy string, now time.Time) error
}

// TransactionWriter defines the guarded transaction mutations. Every method
// enforces its precondition inside a single database transaction; a violated
// precondition surfaces as ErrDuplicate (idempotency key present),
// ErrInsufficientBalance (balance guard failed) or ErrConflict.
type TransactionWriter interface {
	// AppendIncome appends a completed income transaction and credits the
	// running balance, guarded on the idempotency key being absent.
	AppendIncome(ctx context.Context, txn domain.Transaction) error

	// AppendExpense appends a completed expense transaction and debits the
	// running balance, guarded on (balance >= amount) AND (idempotency key
	// absent).
	AppendExpense(ctx context.Context, txn domain.Transaction) error

	// CancelTransaction flips a completed transaction to cancelled and
	// re-derives the owning ledger's totals. A transaction that is not
	// completed is left untouched (returns ErrConflict).
	CancelTransaction(ctx context.Context, transactionID string, updatedBy string, now time.Time) error

	// ReassignTransactions moves transactions onto another ledger account
	// (duplicate merge). Idempotency keys are re-scoped to the target.
	ReassignTransactions(ctx context.Context, transactionIDs []string, targetLedgerID string, updatedBy string, now time.Time) error

	// DeleteTransactions hard-deletes exact duplicate rows identified by the
	// duplicate-transaction reconciliation. Only reconciliation may delete.
	DeleteTransactions(ctx context.Context, transactionIDs []string) error
}

// TransactionReader defines read operations for ledger transactions.
type TransactionReader interface {
	// FindTransactionByID retrieves one transaction.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByIdempotencyKey retrieves the transaction carrying the
	// given key within one ledger account, or ErrNotFound.
	FindTransactionByIdempotencyKey(ctx context.Context, ledgerID, key string) (*domain.Transaction, error)

	// FindTransactionsByLedger retrieves all transactions of an account.
	FindTransactionsByLedger(ctx context.Context, ledgerID string) ([]domain.Transaction, error)

	// FindCompletedIncomeByPaymentIDs retrieves completed income
	// transactions referencing any of the given payment ids, across all
	// ledgers.
	FindCompletedIncomeByPaymentIDs(ctx context.Context, paymentIDs []string) ([]domain.Transaction, error)

	// ListTransactions retrieves a filtered, token-paginated transaction
	// history for one account, newest first.
	ListTransactions(ctx context.Context, ledgerID string, filter TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// PayoutWriter defines the guarded payout mutations.
type PayoutWriter interface {
	// CreatePayout inserts a pending payout, guarded on (balance >= amount)
	// AND (idempotency key absent).
	CreatePayout(ctx context.Context, payout domain.OwnerPayout) error

	// CompletePayout performs the pending -> completed transition: it
	// re-validates balance >= amount and debits it atomically. Returns
	// ErrConflict when the payout is no longer pending and
	// ErrInsufficientBalance when the balance guard fails.
	CompletePayout(ctx context.Context, ledgerID, payoutID string, updatedBy string, now time.Time) error

	// SetPayoutStatus performs an unconditioned transition to a non-completed
	// status (failed, cancelled) from pending.
	SetPayoutStatus(ctx context.Context, payoutID string, status domain.PayoutStatus, updatedBy string, now time.Time) error

	// ReassignPayouts moves payouts onto another ledger account.
	ReassignPayouts(ctx context.Context, payoutIDs []string, targetLedgerID string, updatedBy string, now time.Time) error
}

// PayoutReader defines read operations for owner payouts.
type PayoutReader interface {
	// FindPayoutByID retrieves one payout.
	FindPayoutByID(ctx context.Context, payoutID string) (*domain.OwnerPayout, error)

	// FindPayoutsByLedger retrieves all payouts of an account.
	FindPayoutsByLedger(ctx context.Context, ledgerID string) ([]domain.OwnerPayout, error)

	// ListPayouts retrieves a token-paginated payout history, newest first.
	ListPayouts(ctx context.Context, ledgerID string, limit int, nextToken *string) ([]domain.OwnerPayout, *string, error)
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
	TransactionReader
	TransactionWriter
	PayoutReader
	PayoutWriter
}
