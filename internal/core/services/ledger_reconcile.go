package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/middleware"
)

// SyncPropertyAccounts replays every completed payment of a company into its
// ledgers. It first heals the account structure (types, duplicates) so the
// replay lands on a clean keeper, then posts income idempotently and prunes
// duplicate entries.
func (s *LedgerService) SyncPropertyAccounts(ctx context.Context, companyID string, userID string) (map[string]any, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	migrated, err := s.MigrateLegacyLedgerTypes(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	merged, err := s.MergeDuplicateLedgers(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListCompletedPaymentsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var posted, skipped, failed int
	for _, payment := range payments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		txn, err := s.RecordIncomeFromPayment(ctx, payment.PaymentID)
		switch {
		case err != nil:
			failed++
			logger.Error("Resync failed for payment",
				slog.String("error", err.Error()),
				slog.String("payment_id", payment.PaymentID),
			)
		case txn == nil:
			skipped++
		default:
			posted++
		}
	}

	touched := map[string]bool{}
	ledgers, err := s.ledgerRepo.ListActiveLedgersByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var deduped, recalculated int
	for _, ledger := range ledgers {
		if touched[ledger.LedgerID] {
			continue
		}
		touched[ledger.LedgerID] = true
		removed, err := s.RemoveDuplicateTransactions(ctx, ledger.LedgerID, userID)
		if err != nil {
			failed++
			logger.Error("Resync dedupe failed for ledger",
				slog.String("error", err.Error()),
				slog.String("ledger_id", ledger.LedgerID),
			)
			continue
		}
		deduped += removed
		if _, err := s.RecalculateBalance(ctx, ledger.LedgerID, userID); err != nil {
			failed++
			continue
		}
		recalculated++
	}

	result := map[string]any{
		"typesMigrated":         migrated,
		"ledgersMerged":         merged,
		"paymentsScanned":       len(payments),
		"incomePosted":          posted,
		"paymentsSkipped":       skipped,
		"duplicateEntriesFreed": deduped,
		"balancesRecalculated":  recalculated,
		"failures":              failed,
	}
	logger.Info("Property account sync finished", slog.String("company_id", companyID), slog.Any("result", result))
	return result, nil
}

// EnsureDevelopmentLedgers creates missing sale ledgers for every
// development of the company and backfills their payment-derived income.
func (s *LedgerService) EnsureDevelopmentLedgers(ctx context.Context, companyID string, userID string) (map[string]any, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	developments, err := s.propertyRepo.ListDevelopmentsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var created, backfilled, failed int
	for _, dev := range developments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if dev.IsDeleted {
			continue
		}

		_, findErr := s.ledgerRepo.FindActiveLedger(ctx, dev.DevelopmentID, domain.LedgerTypeSale)
		if findErr != nil && !errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, findErr
		}
		target := &ledgerTarget{
			entityID:   dev.DevelopmentID,
			companyID:  dev.CompanyID,
			ledgerType: domain.LedgerTypeSale,
			ownerID:    dev.OwnerID,
			ownerName:  dev.OwnerName,
		}
		if _, _, err := s.getOrCreateFor(ctx, target, userID); err != nil {
			failed++
			logger.Error("Failed to ensure development ledger",
				slog.String("error", err.Error()),
				slog.String("development_id", dev.DevelopmentID),
			)
			continue
		}
		if errors.Is(findErr, apperrors.ErrNotFound) {
			created++
		}

		payments, err := s.paymentRepo.ListCompletedPaymentsByDevelopment(ctx, dev.DevelopmentID)
		if err != nil {
			failed++
			continue
		}
		for _, payment := range payments {
			if _, err := s.RecordIncomeFromPayment(ctx, payment.PaymentID); err != nil {
				failed++
				continue
			}
			backfilled++
		}
	}

	result := map[string]any{
		"developmentsScanned": len(developments),
		"ledgersCreated":      created,
		"paymentsBackfilled":  backfilled,
		"failures":            failed,
	}
	logger.Info("Development ledger sweep finished", slog.String("company_id", companyID), slog.Any("result", result))
	return result, nil
}

// MergeDuplicateLedgers collapses duplicate active ledgers per
// (property, normalised type) group onto one keeper, reassigning entries and
// archiving the losers. Returns the number of ledgers archived.
func (s *LedgerService) MergeDuplicateLedgers(ctx context.Context, companyID string, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	ledgers, err := s.ledgerRepo.ListActiveLedgersByCompany(ctx, companyID)
	if err != nil {
		return 0, err
	}

	type groupKey struct {
		propertyID string
		ledgerType domain.LedgerType
	}
	groups := map[groupKey][]domain.LedgerAccount{}
	for _, ledger := range ledgers {
		key := groupKey{ledger.PropertyID, domain.NormalizeLedgerType(ledger.LedgerType)}
		groups[key] = append(groups[key], ledger)
	}

	archived := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		keeper, err := s.pickKeeper(ctx, group)
		if err != nil {
			return archived, err
		}
		for _, loser := range group {
			if loser.LedgerID == keeper.LedgerID {
				continue
			}
			if err := s.mergeInto(ctx, keeper, loser, userID); err != nil {
				logger.Error("Failed to merge duplicate ledger",
					slog.String("error", err.Error()),
					slog.String("keeper_id", keeper.LedgerID),
					slog.String("loser_id", loser.LedgerID),
				)
				return archived, err
			}
			archived++
		}
		if _, err := s.RecalculateBalance(ctx, keeper.LedgerID, userID); err != nil {
			return archived, err
		}
	}

	if archived > 0 {
		logger.Info("Duplicate ledgers merged", slog.String("company_id", companyID), slog.Int("archived", archived))
	}
	return archived, nil
}

// pickKeeper chooses the survivor of a duplicate group: a legacy typeless
// ledger keeps its identity if present (external references predate the
// duplicates), then the account with the most history, then the most
// recently updated.
func (s *LedgerService) pickKeeper(ctx context.Context, group []domain.LedgerAccount) (*domain.LedgerAccount, error) {
	entryCount := make(map[string]int, len(group))
	for _, ledger := range group {
		transactions, err := s.ledgerRepo.FindTransactionsByLedger(ctx, ledger.LedgerID)
		if err != nil {
			return nil, err
		}
		payouts, err := s.ledgerRepo.FindPayoutsByLedger(ctx, ledger.LedgerID)
		if err != nil {
			return nil, err
		}
		entryCount[ledger.LedgerID] = len(transactions) + len(payouts)
	}

	sorted := make([]domain.LedgerAccount, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if (a.LedgerType == "") != (b.LedgerType == "") {
			return a.LedgerType == ""
		}
		if entryCount[a.LedgerID] != entryCount[b.LedgerID] {
			return entryCount[a.LedgerID] > entryCount[b.LedgerID]
		}
		return a.LastUpdatedAt.After(b.LastUpdatedAt)
	})

	keeper := sorted[0]
	if keeper.LedgerType == "" {
		now := time.Now().UTC()
		adopted := domain.NormalizeLedgerType(group[0].LedgerType)
		for _, ledger := range group {
			if ledger.LedgerType != "" {
				adopted = ledger.LedgerType
				break
			}
		}
		err := s.ledgerRepo.AdoptLegacyLedger(ctx, keeper.LedgerID, adopted, systemUserID, now)
		if err != nil && !errors.Is(err, apperrors.ErrConflict) && !errors.Is(err, apperrors.ErrDuplicate) {
			return nil, err
		}
		keeper.LedgerType = adopted
	}
	return &keeper, nil
}

// mergeInto moves the loser's entries onto the keeper, skipping entries the
// keeper already carries, then archives the loser.
func (s *LedgerService) mergeInto(ctx context.Context, keeper *domain.LedgerAccount, loser domain.LedgerAccount, userID string) error {
	now := time.Now().UTC()

	keeperTxns, err := s.ledgerRepo.FindTransactionsByLedger(ctx, keeper.LedgerID)
	if err != nil {
		return err
	}
	seenDedupe := make(map[string]bool, len(keeperTxns))
	seenKeys := make(map[string]bool, len(keeperTxns))
	for _, txn := range keeperTxns {
		seenDedupe[txn.DedupeKey()] = true
		seenKeys[txn.IdempotencyKey] = true
	}

	loserTxns, err := s.ledgerRepo.FindTransactionsByLedger(ctx, loser.LedgerID)
	if err != nil {
		return err
	}
	var moveTxns, dropTxns []string
	for _, txn := range loserTxns {
		if txn.Status == domain.TransactionStatusCompleted &&
			(seenDedupe[txn.DedupeKey()] || seenKeys[txn.IdempotencyKey]) {
			dropTxns = append(dropTxns, txn.TransactionID)
			continue
		}
		moveTxns = append(moveTxns, txn.TransactionID)
	}
	if len(dropTxns) > 0 {
		if err := s.ledgerRepo.DeleteTransactions(ctx, dropTxns); err != nil {
			return err
		}
	}
	if len(moveTxns) > 0 {
		if err := s.ledgerRepo.ReassignTransactions(ctx, moveTxns, keeper.LedgerID, userID, now); err != nil {
			return err
		}
	}

	keeperPayouts, err := s.ledgerRepo.FindPayoutsByLedger(ctx, keeper.LedgerID)
	if err != nil {
		return err
	}
	seenRefs := make(map[string]bool, len(keeperPayouts))
	for _, p := range keeperPayouts {
		seenRefs[p.ReferenceNumber] = true
		seenRefs[p.IdempotencyKey] = true
	}
	loserPayouts, err := s.ledgerRepo.FindPayoutsByLedger(ctx, loser.LedgerID)
	if err != nil {
		return err
	}
	var movePayouts []string
	for _, p := range loserPayouts {
		if seenRefs[p.ReferenceNumber] || seenRefs[p.IdempotencyKey] {
			// The keeper already holds this payout; the loser's copy stays
			// behind on the archived account rather than risking a double
			// debit.
			continue
		}
		movePayouts = append(movePayouts, p.PayoutID)
	}
	if len(movePayouts) > 0 {
		if err := s.ledgerRepo.ReassignPayouts(ctx, movePayouts, keeper.LedgerID, userID, now); err != nil {
			return err
		}
	}

	return s.ledgerRepo.ArchiveLedger(ctx, loser.LedgerID, userID, now)
}

// MigrateLegacyLedgerTypes retypes typeless ledgers from their entity's
// classification, and flips rental-typed ledgers whose entity turns out to
// classify as sale. Conflicting rows are skipped for the merge pass to
// handle.
func (s *LedgerService) MigrateLegacyLedgerTypes(ctx context.Context, companyID string, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	ledgers, err := s.ledgerRepo.ListActiveLedgersByCompany(ctx, companyID)
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, ledger := range ledgers {
		if ledger.LedgerType != "" && ledger.LedgerType != domain.LedgerTypeRental {
			continue
		}
		if err := ctx.Err(); err != nil {
			return migrated, err
		}

		target, err := s.resolveLedgerTarget(ctx, ledger.PropertyID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.Warn("Legacy ledger references missing entity",
					slog.String("ledger_id", ledger.LedgerID),
					slog.String("entity_id", ledger.PropertyID),
				)
				continue
			}
			return migrated, err
		}

		now := time.Now().UTC()
		if ledger.LedgerType == domain.LedgerTypeRental {
			if target.ledgerType != domain.LedgerTypeSale {
				continue
			}
			// Mis-typed under the old rental-only default; flip it,
			// guarded on the current value so concurrent writers lose
			// cleanly.
			err = s.ledgerRepo.SetLedgerType(ctx, ledger.LedgerID, domain.LedgerTypeRental, domain.LedgerTypeSale, userID, now)
		} else {
			err = s.ledgerRepo.AdoptLegacyLedger(ctx, ledger.LedgerID, target.ledgerType, userID, now)
		}
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrDuplicate) {
			// Another writer typed it, or a typed twin already exists.
			// The merge pass resolves the twin case.
			continue
		}
		if err != nil {
			return migrated, err
		}
		migrated++
	}

	if migrated > 0 {
		logger.Info("Legacy ledger types migrated", slog.String("company_id", companyID), slog.Int("migrated", migrated))
	}
	return migrated, nil
}

// RemoveDuplicateTransactions hard-deletes exact duplicate completed entries
// within one account, keeping the earliest of each group, then re-derives
// the balance. Returns the number of entries removed.
func (s *LedgerService) RemoveDuplicateTransactions(ctx context.Context, ledgerID string, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	transactions, err := s.ledgerRepo.FindTransactionsByLedger(ctx, ledgerID)
	if err != nil {
		return 0, err
	}

	groups := map[string][]domain.Transaction{}
	for _, txn := range transactions {
		if txn.Status != domain.TransactionStatusCompleted {
			continue
		}
		key := txn.DedupeKey()
		groups[key] = append(groups[key], txn)
	}

	var doomed []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		for _, txn := range group[1:] {
			doomed = append(doomed, txn.TransactionID)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	if err := s.ledgerRepo.DeleteTransactions(ctx, doomed); err != nil {
		return 0, err
	}
	if _, err := s.RecalculateBalance(ctx, ledgerID, userID); err != nil {
		return len(doomed), err
	}

	logger.Info("Duplicate transactions removed",
		slog.String("ledger_id", ledgerID),
		slog.Int("removed", len(doomed)),
	)
	return len(doomed), nil
}
