package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/middleware"
)

// RecordIncomeFromPayment posts the owner share of a completed payment as
// income on the target entity's ledger. The payment-derived idempotency key
// makes replays no-ops. Payments whose ledger target cannot be resolved are
// parked in suspense and the operation completes without a transaction.
func (s *LedgerService) RecordIncomeFromPayment(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.IsReversal() {
		if payment.ReversalOfPaymentID == nil || *payment.ReversalOfPaymentID == "" {
			return nil, fmt.Errorf("%w: reversal payment %s has no original reference", apperrors.ErrValidation, paymentID)
		}
		return nil, s.ReverseIncomeFromPayment(ctx, *payment.ReversalOfPaymentID)
	}

	if payment.Status != domain.PaymentStatusCompleted {
		logger.Info("Skipping income posting for non-completed payment",
			slog.String("payment_id", paymentID),
			slog.String("status", string(payment.Status)),
		)
		return nil, nil
	}
	if payment.IsDepositOnly() {
		// Deposits are held, not earned; nothing posts to the owner.
		logger.Info("Skipping income posting for deposit-only payment", slog.String("payment_id", paymentID))
		return nil, nil
	}

	target, err := s.resolvePaymentTarget(ctx, payment)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, s.parkInSuspense(ctx, payment, err.Error())
		}
		return nil, err
	}

	ledger, _, err := s.getOrCreateFor(ctx, target, systemUserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pid := payment.PaymentID
	txn := domain.Transaction{
		TransactionID:  uuid.NewString(),
		LedgerID:       ledger.LedgerID,
		Type:           domain.TransactionTypeIncome,
		Amount:         payment.OwnerIncomeAmount(),
		Date:           payment.PaymentDate,
		PaymentID:      &pid,
		IdempotencyKey: domain.PaymentIdempotencyKey(payment.PaymentID),
		Category:       incomeCategoryFor(payment),
		Status:         domain.TransactionStatusCompleted,
		ProcessedBy:    systemUserID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     systemUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: systemUserID,
		},
	}

	if err := s.ledgerRepo.AppendIncome(ctx, txn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Already posted on an earlier delivery.
			return s.ledgerRepo.FindTransactionByIdempotencyKey(ctx, ledger.LedgerID, txn.IdempotencyKey)
		}
		logger.Error("Failed to post income", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		return nil, err
	}

	logger.Info("Income posted from payment",
		slog.String("payment_id", paymentID),
		slog.String("ledger_id", ledger.LedgerID),
		slog.String("amount", txn.Amount.String()),
	)
	return &txn, nil
}

// ReverseIncomeFromPayment cancels every completed income entry previously
// posted for the payment and restores the balances. When the payment records
// the reversal row that superseded it, income posted under that row is
// cancelled too. Absent entries make the reversal a no-op, so it is safe
// ahead of (or instead of) the posting.
func (s *LedgerService) ReverseIncomeFromPayment(ctx context.Context, paymentID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	paymentIDs := []string{paymentID}
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if payment != nil && payment.ReversedByPaymentID != nil && *payment.ReversedByPaymentID != "" {
		paymentIDs = append(paymentIDs, *payment.ReversedByPaymentID)
	}

	transactions, err := s.ledgerRepo.FindCompletedIncomeByPaymentIDs(ctx, paymentIDs)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		logger.Info("No posted income to reverse", slog.String("payment_id", paymentID))
		return nil
	}

	now := time.Now().UTC()
	for _, txn := range transactions {
		err := s.ledgerRepo.CancelTransaction(ctx, txn.TransactionID, systemUserID, now)
		if errors.Is(err, apperrors.ErrConflict) {
			// Already cancelled by a concurrent reversal.
			continue
		}
		if err != nil {
			logger.Error("Failed to cancel income entry",
				slog.String("error", err.Error()),
				slog.String("transaction_id", txn.TransactionID),
			)
			return err
		}
		logger.Info("Income entry reversed",
			slog.String("payment_id", paymentID),
			slog.String("transaction_id", txn.TransactionID),
			slog.String("ledger_id", txn.LedgerID),
		)
	}
	return nil
}

// resolvePaymentTarget picks the ledger target a payment posts to: the unit
// when referenced, else the development, else the property.
func (s *LedgerService) resolvePaymentTarget(ctx context.Context, payment *domain.Payment) (*ledgerTarget, error) {
	if payment.UnitID != nil && *payment.UnitID != "" {
		return s.resolveLedgerTarget(ctx, *payment.UnitID)
	}
	if payment.DevelopmentID != nil && *payment.DevelopmentID != "" {
		return s.resolveLedgerTarget(ctx, *payment.DevelopmentID)
	}
	if payment.PropertyID != nil && *payment.PropertyID != "" {
		return s.resolveLedgerTarget(ctx, *payment.PropertyID)
	}
	return nil, fmt.Errorf("%w: payment %s references no property, development or unit", apperrors.ErrNotFound, payment.PaymentID)
}

// parkInSuspense flags the payment for manual review. The caller treats the
// posting as done; suspense exits only through operator action followed by a
// resync.
func (s *LedgerService) parkInSuspense(ctx context.Context, payment *domain.Payment, reason string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	if payment.InSuspense {
		return nil
	}
	if err := s.paymentRepo.MarkPaymentInSuspense(ctx, payment.PaymentID, reason, time.Now().UTC()); err != nil {
		logger.Error("Failed to park payment in suspense", slog.String("error", err.Error()), slog.String("payment_id", payment.PaymentID))
		return err
	}
	logger.Warn("Payment parked in suspense",
		slog.String("payment_id", payment.PaymentID),
		slog.String("reason", reason),
	)
	return nil
}

func incomeCategoryFor(payment *domain.Payment) string {
	if payment.PaymentType == domain.PaymentTypeSale {
		return "SALE_INCOME"
	}
	return "RENTAL_INCOME"
}
