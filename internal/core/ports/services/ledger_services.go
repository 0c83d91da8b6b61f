package services

import (
	"context"

	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/dto"
)

// LedgerReaderSvc defines read operations over ledger accounts and history.
type LedgerReaderSvc interface {
	// GetLedgerByID retrieves a single ledger account by its identifier.
	GetLedgerByID(ctx context.Context, ledgerID string) (*domain.LedgerAccount, error)

	// ListTransactions retrieves a filtered, token-paginated page of the
	// account's transaction history, newest first.
	ListTransactions(ctx context.Context, ledgerID string, params dto.ListTransactionsParams) ([]domain.Transaction, *string, error)

	// ListPayouts retrieves a token-paginated page of the account's payout
	// history, newest first.
	ListPayouts(ctx context.Context, ledgerID string, params dto.ListPayoutsParams) ([]domain.OwnerPayout, *string, error)
}

// LedgerWriterSvc defines write operations on a single ledger account.
type LedgerWriterSvc interface {
	// GetOrCreateLedger returns the active ledger for an entity and type,
	// creating it (or adopting a legacy typeless ledger) when absent.
	GetOrCreateLedger(ctx context.Context, companyID string, req dto.GetOrCreateLedgerRequest, userID string) (*domain.LedgerAccount, error)

	// AddExpense records a completed expense, guarded so the balance never
	// goes below zero.
	AddExpense(ctx context.Context, ledgerID string, req dto.CreateExpenseRequest, userID string) (*domain.Transaction, error)

	// CreateOwnerPayout creates a pending payout after validating available
	// balance.
	CreateOwnerPayout(ctx context.Context, ledgerID string, req dto.CreateOwnerPayoutRequest, userID string) (*domain.OwnerPayout, error)

	// UpdatePayoutStatus transitions a pending payout to a terminal status;
	// completion deducts the balance under the same guard as expenses.
	UpdatePayoutStatus(ctx context.Context, ledgerID string, payoutID string, status domain.PayoutStatus, userID string) (*domain.OwnerPayout, error)

	// RecalculateBalance re-derives totals and balance from the account's
	// completed entries and persists the result.
	RecalculateBalance(ctx context.Context, ledgerID string, userID string) (*domain.LedgerAccount, error)
}

// LedgerPostingSvc defines payment-driven income posting. These operations
// are idempotent per payment and are what the event queue invokes.
type LedgerPostingSvc interface {
	// RecordIncomeFromPayment posts the owner share of a completed payment
	// as income on the property's ledger. Replays are no-ops.
	RecordIncomeFromPayment(ctx context.Context, paymentID string) (*domain.Transaction, error)

	// ReverseIncomeFromPayment cancels the income entry previously posted
	// for the reversed payment and restores the balance.
	ReverseIncomeFromPayment(ctx context.Context, paymentID string) error
}

// LedgerReconcileSvc defines bulk self-healing routines run by maintenance
// jobs and schedules rather than per-request callers.
type LedgerReconcileSvc interface {
	// SyncPropertyAccounts replays every completed payment of the company
	// into its ledgers and reports per-step counts.
	SyncPropertyAccounts(ctx context.Context, companyID string, userID string) (map[string]any, error)

	// EnsureDevelopmentLedgers creates missing development ledgers and
	// backfills their payment-derived income.
	EnsureDevelopmentLedgers(ctx context.Context, companyID string, userID string) (map[string]any, error)

	// MergeDuplicateLedgers collapses duplicate active ledgers per
	// (property, type) group onto one keeper and archives the rest.
	// Returns the number of ledgers archived.
	MergeDuplicateLedgers(ctx context.Context, companyID string, userID string) (int, error)

	// MigrateLegacyLedgerTypes retypes typeless ledgers from their
	// property's type. Returns the number of ledgers migrated.
	MigrateLegacyLedgerTypes(ctx context.Context, companyID string, userID string) (int, error)

	// RemoveDuplicateTransactions hard-deletes exact duplicate entries in
	// one account, keeping the earliest of each group, then re-derives the
	// balance. Returns the number of entries removed.
	RemoveDuplicateTransactions(ctx context.Context, ledgerID string, userID string) (int, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerPostingSvc
	LedgerReconcileSvc
}
