package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/dto"
	"github.com/propstack/propstack_backend/internal/middleware"
)

// systemUserID attributes mutations performed by background machinery
// rather than an authenticated caller.
const systemUserID = "system"

// LedgerService implements the ledger engine: lazily created accounts,
// guarded balance mutations and payment-driven income posting.
type LedgerService struct {
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	paymentRepo  portsrepo.PaymentRepository
	propertyRepo portsrepo.PropertyReader
}

// NewLedgerService creates the ledger service.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, paymentRepo portsrepo.PaymentRepository, propertyRepo portsrepo.PropertyReader) *LedgerService {
	return &LedgerService{
		ledgerRepo:   ledgerRepo,
		paymentRepo:  paymentRepo,
		propertyRepo: propertyRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*LedgerService)(nil)

// GetLedgerByID retrieves a single ledger account.
func (s *LedgerService) GetLedgerByID(ctx context.Context, ledgerID string) (*domain.LedgerAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find ledger", slog.String("error", err.Error()), slog.String("ledger_id", ledgerID))
		}
		return nil, err
	}
	return ledger, nil
}

// ledgerTarget is a resolved entity a ledger can be attached to.
type ledgerTarget struct {
	entityID   string
	companyID  string
	ledgerType domain.LedgerType
	ownerID    string
	ownerName  string
}

// resolveLedgerTarget locates the entity behind entityID. Properties infer
// their ledger type from the property classification; developments and
// units always carry sale ledgers.
func (s *LedgerService) resolveLedgerTarget(ctx context.Context, entityID string) (*ledgerTarget, error) {
	property, err := s.propertyRepo.FindPropertyByID(ctx, entityID)
	if err == nil {
		ledgerType := domain.LedgerTypeRental
		if property.Type == domain.PropertyTypeSale {
			ledgerType = domain.LedgerTypeSale
		}
		return &ledgerTarget{
			entityID:   property.PropertyID,
			companyID:  property.CompanyID,
			ledgerType: ledgerType,
			ownerID:    property.OwnerID,
			ownerName:  property.OwnerName,
		}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	development, err := s.propertyRepo.FindDevelopmentByID(ctx, entityID)
	if err == nil {
		return &ledgerTarget{
			entityID:   development.DevelopmentID,
			companyID:  development.CompanyID,
			ledgerType: domain.LedgerTypeSale,
			ownerID:    development.OwnerID,
			ownerName:  development.OwnerName,
		}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	unit, err := s.propertyRepo.FindUnitByID(ctx, entityID)
	if err == nil {
		// Units have no owner of their own; the parent development's
		// owner receives their sale income.
		development, derr := s.propertyRepo.FindDevelopmentByID(ctx, unit.DevelopmentID)
		if derr != nil && !errors.Is(derr, apperrors.ErrNotFound) {
			return nil, derr
		}
		target := &ledgerTarget{
			entityID:   unit.UnitID,
			companyID:  unit.CompanyID,
			ledgerType: domain.LedgerTypeSale,
		}
		if derr == nil {
			target.ownerID = development.OwnerID
			target.ownerName = development.OwnerName
		}
		return target, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	return nil, fmt.Errorf("%w: no property, development or unit %s", apperrors.ErrNotFound, entityID)
}

// GetOrCreateLedger returns the active ledger for an entity and type,
// creating it (or adopting a legacy typeless ledger) when absent.
func (s *LedgerService) GetOrCreateLedger(ctx context.Context, companyID string, req dto.GetOrCreateLedgerRequest, userID string) (*domain.LedgerAccount, error) {
	target, err := s.resolveLedgerTarget(ctx, req.EntityID)
	if err != nil {
		return nil, err
	}
	if companyID != "" && target.companyID != companyID {
		return nil, fmt.Errorf("%w: entity %s belongs to another company", apperrors.ErrForbidden, req.EntityID)
	}
	if req.LedgerType != nil {
		target.ledgerType = *req.LedgerType
	}
	ledger, created, err := s.getOrCreateFor(ctx, target, userID)
	if err != nil {
		return nil, err
	}
	if created {
		return ledger, nil
	}
	// Existing accounts are re-derived from their entries so stale stored
	// balances never leak to the caller.
	return s.RecalculateBalance(ctx, ledger.LedgerID, userID)
}

// getOrCreateFor runs the lazy-creation protocol for a resolved target. The
// second return reports whether the account was created on this call.
// Every step is race safe: adoption is guarded on the type being unset and
// creation on the active-uniqueness index, and each loss falls back to a
// re-read.
func (s *LedgerService) getOrCreateFor(ctx context.Context, target *ledgerTarget, userID string) (*domain.LedgerAccount, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	ledger, err := s.ledgerRepo.FindActiveLedger(ctx, target.entityID, target.ledgerType)
	if err == nil {
		return ledger, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	// Legacy typeless ledgers count as rental; adopt instead of creating a
	// duplicate beside them.
	if target.ledgerType == domain.LedgerTypeRental {
		legacy, err := s.ledgerRepo.FindActiveLegacyLedger(ctx, target.entityID)
		if err == nil {
			now := time.Now().UTC()
			adoptErr := s.ledgerRepo.AdoptLegacyLedger(ctx, legacy.LedgerID, domain.LedgerTypeRental, userID, now)
			if adoptErr == nil {
				adopted, err := s.ledgerRepo.FindLedgerByID(ctx, legacy.LedgerID)
				return adopted, false, err
			}
			if errors.Is(adoptErr, apperrors.ErrConflict) || errors.Is(adoptErr, apperrors.ErrDuplicate) {
				// Another writer typed it first; re-read the winner.
				winner, err := s.ledgerRepo.FindActiveLedger(ctx, target.entityID, target.ledgerType)
				return winner, false, err
			}
			return nil, false, adoptErr
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, err
		}
	}

	now := time.Now().UTC()
	ledger = &domain.LedgerAccount{
		LedgerID:          uuid.NewString(),
		CompanyID:         target.companyID,
		PropertyID:        target.entityID,
		LedgerType:        target.ledgerType,
		OwnerID:           target.ownerID,
		OwnerName:         target.ownerName,
		RunningBalance:    decimal.Zero,
		TotalIncome:       decimal.Zero,
		TotalExpenses:     decimal.Zero,
		TotalOwnerPayouts: decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.ledgerRepo.SaveLedger(ctx, *ledger); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost the creation race; the winner's ledger is the account.
			winner, err := s.ledgerRepo.FindActiveLedger(ctx, target.entityID, target.ledgerType)
			return winner, false, err
		}
		logger.Error("Failed to create ledger", slog.String("error", err.Error()), slog.String("entity_id", target.entityID))
		return nil, false, err
	}

	logger.Info("Ledger created",
		slog.String("ledger_id", ledger.LedgerID),
		slog.String("entity_id", target.entityID),
		slog.String("ledger_type", string(target.ledgerType)),
	)
	return ledger, true, nil
}

// AddExpense records a completed expense under the balance guard. A guard
// failure triggers one reload-and-retry: if the re-read balance still covers
// the amount the first failure was a transient race, otherwise the caller
// gets ErrInsufficientBalance.
func (s *LedgerService) AddExpense(ctx context.Context, ledgerID string, req dto.CreateExpenseRequest, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: expense amount must be positive", apperrors.ErrValidation)
	}

	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if ledger.IsArchived {
		return nil, fmt.Errorf("%w: ledger %s is archived", apperrors.ErrValidation, ledgerID)
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID:   uuid.NewString(),
		LedgerID:        ledgerID,
		Type:            domain.TransactionTypeExpense,
		Amount:          req.Amount,
		Date:            req.Date,
		IdempotencyKey:  req.IdempotencyKey,
		Category:        req.Category,
		Status:          domain.TransactionStatusCompleted,
		ReferenceNumber: req.ReferenceNumber,
		ProcessedBy:     userID,
		Notes:           req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	err = s.ledgerRepo.AppendExpense(ctx, txn)
	if errors.Is(err, apperrors.ErrInsufficientBalance) {
		fresh, ferr := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
		if ferr != nil {
			return nil, ferr
		}
		if fresh.RunningBalance.LessThan(req.Amount) {
			return nil, err
		}
		// The balance covers it after all, so the guard lost to a
		// concurrent writer that has since settled. One retry.
		err = s.ledgerRepo.AppendExpense(ctx, txn)
		if errors.Is(err, apperrors.ErrInsufficientBalance) {
			return nil, fmt.Errorf("%w: expense on ledger %s keeps losing the balance guard", apperrors.ErrConflict, ledgerID)
		}
	}
	if errors.Is(err, apperrors.ErrDuplicate) {
		// Idempotent replay: hand back the earlier entry.
		existing, ferr := s.ledgerRepo.FindTransactionByIdempotencyKey(ctx, ledgerID, req.IdempotencyKey)
		if ferr != nil {
			return nil, ferr
		}
		return existing, nil
	}
	if err != nil {
		logger.Error("Failed to append expense", slog.String("error", err.Error()), slog.String("ledger_id", ledgerID))
		return nil, err
	}

	logger.Info("Expense recorded",
		slog.String("ledger_id", ledgerID),
		slog.String("transaction_id", txn.TransactionID),
		slog.String("amount", req.Amount.String()),
	)
	return &txn, nil
}

// CreateOwnerPayout creates a pending payout after validating available
// balance under a row lock.
func (s *LedgerService) CreateOwnerPayout(ctx context.Context, ledgerID string, req dto.CreateOwnerPayoutRequest, userID string) (*domain.OwnerPayout, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payout amount must be positive", apperrors.ErrValidation)
	}

	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if ledger.IsArchived {
		return nil, fmt.Errorf("%w: ledger %s is archived", apperrors.ErrValidation, ledgerID)
	}

	now := time.Now().UTC()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	payout := domain.OwnerPayout{
		PayoutID:        uuid.NewString(),
		LedgerID:        ledgerID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		RecipientID:     req.RecipientID,
		RecipientName:   req.RecipientName,
		ReferenceNumber: req.ReferenceNumber,
		IdempotencyKey:  req.IdempotencyKey,
		Status:          domain.PayoutStatusPending,
		Date:            date,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.ledgerRepo.CreatePayout(ctx, payout); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) && !errors.Is(err, apperrors.ErrInsufficientBalance) {
			logger.Error("Failed to create payout", slog.String("error", err.Error()), slog.String("ledger_id", ledgerID))
		}
		return nil, err
	}

	logger.Info("Payout created",
		slog.String("ledger_id", ledgerID),
		slog.String("payout_id", payout.PayoutID),
		slog.String("amount", req.Amount.String()),
	)
	return &payout, nil
}

// UpdatePayoutStatus transitions a pending payout to a terminal status.
// Re-running a transition that already happened is a no-op returning the
// payout as is.
func (s *LedgerService) UpdatePayoutStatus(ctx context.Context, ledgerID string, payoutID string, status domain.PayoutStatus, userID string) (*domain.OwnerPayout, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !status.IsTerminal() {
		return nil, fmt.Errorf("%w: payout status %s is not a valid target", apperrors.ErrValidation, status)
	}

	payout, err := s.ledgerRepo.FindPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout.LedgerID != ledgerID {
		return nil, fmt.Errorf("%w: payout %s does not belong to ledger %s", apperrors.ErrNotFound, payoutID, ledgerID)
	}
	if payout.Status == status {
		// Duplicate delivery of the same transition.
		return payout, nil
	}
	if payout.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: payout %s is already %s", apperrors.ErrConflict, payoutID, payout.Status)
	}

	now := time.Now().UTC()
	if status == domain.PayoutStatusCompleted {
		err = s.ledgerRepo.CompletePayout(ctx, ledgerID, payoutID, userID, now)
	} else {
		err = s.ledgerRepo.SetPayoutStatus(ctx, payoutID, status, userID, now)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Lost a race with another transition; report the winner.
			return s.ledgerRepo.FindPayoutByID(ctx, payoutID)
		}
		if !errors.Is(err, apperrors.ErrInsufficientBalance) {
			logger.Error("Failed to transition payout", slog.String("error", err.Error()), slog.String("payout_id", payoutID))
		}
		return nil, err
	}

	logger.Info("Payout transitioned",
		slog.String("payout_id", payoutID),
		slog.String("status", string(status)),
	)
	return s.ledgerRepo.FindPayoutByID(ctx, payoutID)
}

// RecalculateBalance re-derives totals and balance from completed entries.
func (s *LedgerService) RecalculateBalance(ctx context.Context, ledgerID string, userID string) (*domain.LedgerAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID); err != nil {
		return nil, err
	}
	transactions, err := s.ledgerRepo.FindTransactionsByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	payouts, err := s.ledgerRepo.FindPayoutsByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	totals := domain.ComputeLedgerTotals(transactions, payouts)
	now := time.Now().UTC()
	if err := s.ledgerRepo.ApplyTotals(ctx, ledgerID, totals, userID, now); err != nil {
		logger.Error("Failed to apply recalculated totals", slog.String("error", err.Error()), slog.String("ledger_id", ledgerID))
		return nil, err
	}

	logger.Info("Ledger balance recalculated",
		slog.String("ledger_id", ledgerID),
		slog.String("running_balance", totals.RunningBalance().String()),
	)
	return s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
}

// ListTransactions retrieves a filtered, token-paginated page of history.
func (s *LedgerService) ListTransactions(ctx context.Context, ledgerID string, params dto.ListTransactionsParams) ([]domain.Transaction, *string, error) {
	filter := portsrepo.TransactionFilter{
		Type:     domain.TransactionType(params.Type),
		Status:   domain.TransactionStatus(params.Status),
		Category: params.Category,
	}
	var err error
	if filter.DateFrom, err = parseDateParam(params.DateFrom); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid dateFrom", apperrors.ErrValidation)
	}
	if filter.DateTo, err = parseDateParam(params.DateTo); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid dateTo", apperrors.ErrValidation)
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ledgerRepo.ListTransactions(ctx, ledgerID, filter, limit, params.NextToken)
}

// ListPayouts retrieves a token-paginated page of payout history.
func (s *LedgerService) ListPayouts(ctx context.Context, ledgerID string, params dto.ListPayoutsParams) ([]domain.OwnerPayout, *string, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ledgerRepo.ListPayouts(ctx, ledgerID, limit, params.NextToken)
}

func parseDateParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
