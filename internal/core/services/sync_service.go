package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/middleware"
	"github.com/propstack/propstack_backend/internal/platform/config"
	"github.com/propstack/propstack_backend/internal/utils/retry"
)

// SyncService mirrors operational documents into the accounting store. It
// consumes the change feed (push if the store supports it, polling
// otherwise), maintains the persistent failure ledger and cross-checks the
// two stores for drift.
type SyncService struct {
	paymentRepo  portsrepo.PaymentReader
	propertyRepo portsrepo.PropertyReader
	userRepo     portsrepo.UserReader
	failureRepo  portsrepo.SyncFailureRepository
	shadowRepo   portsrepo.ShadowRepository
	events       portssvc.OwnerIncomeEnqueuer

	notifyFeed portsrepo.ChangeFeed
	pollFeed   portsrepo.ChangeFeed
	activeFeed portsrepo.ChangeFeed

	logger *slog.Logger

	backoffBase    time.Duration
	backoffCap     time.Duration
	discardCeiling int
	batchSize      int

	mu sync.Mutex
}

// NewSyncService creates the change synchronizer. notifyFeed may be nil when
// the deployment only supports polling.
func NewSyncService(
	cfg *config.Config,
	paymentRepo portsrepo.PaymentReader,
	propertyRepo portsrepo.PropertyReader,
	userRepo portsrepo.UserReader,
	failureRepo portsrepo.SyncFailureRepository,
	shadowRepo portsrepo.ShadowRepository,
	events portssvc.OwnerIncomeEnqueuer,
	notifyFeed portsrepo.ChangeFeed,
	pollFeed portsrepo.ChangeFeed,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		paymentRepo:    paymentRepo,
		propertyRepo:   propertyRepo,
		userRepo:       userRepo,
		failureRepo:    failureRepo,
		shadowRepo:     shadowRepo,
		events:         events,
		notifyFeed:     notifyFeed,
		pollFeed:       pollFeed,
		logger:         logger,
		backoffBase:    cfg.SyncBackoffBase,
		backoffCap:     cfg.SyncBackoffCap,
		discardCeiling: cfg.SyncDiscardCeiling,
		batchSize:      cfg.SyncBatchSize,
	}
}

var _ portssvc.SyncSvcFacade = (*SyncService)(nil)

// Start subscribes to the operational change feed. The push feed is tried
// first; stores that cannot stream fall back to watermark polling.
func (s *SyncService) Start(ctx context.Context) error {
	handler := func(ctx context.Context, ev domain.ChangeEvent) {
		ctx = middleware.WithLogger(ctx, s.logger.With(
			slog.String("entity_type", string(ev.Type)),
			slog.String("document_id", ev.DocumentID),
		))
		// Errors land in the failure ledger inside HandleChange.
		_ = s.HandleChange(ctx, ev)
	}

	if s.notifyFeed != nil {
		err := s.notifyFeed.Start(ctx, handler)
		if err == nil {
			s.activeFeed = s.notifyFeed
			s.logger.Info("Change feed started", slog.String("mode", s.notifyFeed.Mode()))
			return nil
		}
		if !errors.Is(err, apperrors.ErrFeedUnsupported) {
			return err
		}
		s.logger.Warn("Push change feed unavailable, falling back to polling", slog.String("error", err.Error()))
	}

	if err := s.pollFeed.Start(ctx, handler); err != nil {
		return err
	}
	s.activeFeed = s.pollFeed
	s.logger.Info("Change feed started", slog.String("mode", s.pollFeed.Mode()))
	return nil
}

// Stop halts the active change feed.
func (s *SyncService) Stop() {
	if s.activeFeed != nil {
		s.activeFeed.Stop()
		s.logger.Info("Change feed stopped", slog.String("mode", s.activeFeed.Mode()))
	}
}

// ListFailures retrieves failures by status, newest first.
func (s *SyncService) ListFailures(ctx context.Context, status domain.SyncFailureStatus, limit int) ([]domain.SyncFailure, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.failureRepo.ListFailures(ctx, status, limit)
}

// HandleChange mirrors one changed operational document into the accounting
// store. Success clears any failure record; errors are upserted into the
// failure ledger and returned.
func (s *SyncService) HandleChange(ctx context.Context, ev domain.ChangeEvent) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if ev.DocumentID == "" {
		return fmt.Errorf("%w: change event without document id", apperrors.ErrValidation)
	}

	err := s.mirror(ctx, ev.Type, ev.DocumentID)
	if err == nil {
		if delErr := s.failureRepo.DeleteFailure(ctx, ev.Type, ev.DocumentID); delErr != nil && !errors.Is(delErr, apperrors.ErrNotFound) {
			logger.Warn("Failed to clear sync failure record", slog.String("error", delErr.Error()))
		}
		return nil
	}

	s.recordFailure(ctx, ev.Type, ev.DocumentID, err)
	return err
}

// mirror re-reads the operational document and writes its shadow. A missing
// or soft-deleted source document removes the shadow instead. The shadow
// upserts are conditioned on the source timestamp, so out-of-order
// redelivery cannot regress a mirror.
func (s *SyncService) mirror(ctx context.Context, entityType domain.SyncEntityType, documentID string) error {
	switch entityType {
	case domain.SyncEntityPayment:
		return s.mirrorPayment(ctx, documentID)
	case domain.SyncEntityProperty:
		return s.mirrorProperty(ctx, documentID)
	case domain.SyncEntityUser:
		return s.mirrorUser(ctx, documentID)
	default:
		return fmt.Errorf("%w: unknown sync entity type %s", apperrors.ErrValidation, entityType)
	}
}

func (s *SyncService) mirrorPayment(ctx context.Context, paymentID string) error {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if errors.Is(err, apperrors.ErrNotFound) {
		if err := s.shadowRepo.DeletePayment(ctx, paymentID); err != nil {
			return err
		}
		return s.shadowRepo.DeleteCommissionRevenue(ctx, paymentID)
	}
	if err != nil {
		return err
	}

	payload, err := json.Marshal(payment)
	if err != nil {
		return fmt.Errorf("%w: encode payment %s: %v", apperrors.ErrValidation, paymentID, err)
	}
	now := time.Now().UTC()
	shadow := domain.ShadowPayment{
		PaymentID:     payment.PaymentID,
		CompanyID:     payment.CompanyID,
		Payload:       payload,
		SourceUpdated: payment.LastUpdatedAt,
		MirroredAt:    now,
	}
	if err := s.shadowRepo.UpsertPayment(ctx, shadow); err != nil {
		return err
	}

	// Completed rows (reversal rows included) feed the ledger event queue;
	// posting decides whether anything lands on a ledger.
	if payment.Status == domain.PaymentStatusCompleted {
		if _, _, err := s.events.EnqueueOwnerIncome(ctx, payment.PaymentID); err != nil {
			return err
		}
	}

	// Commission revenue follows the payment lifecycle: recognised while
	// completed, withdrawn once reversed or cancelled.
	if payment.Status == domain.PaymentStatusCompleted && !payment.IsReversal() && payment.AgencyAmount.IsPositive() {
		return s.shadowRepo.UpsertCommissionRevenue(ctx, payment.PaymentID, payment.CompanyID, payment.AgencyAmount, payment.PaymentDate, now)
	}
	if payment.Status == domain.PaymentStatusReversed || payment.Status == domain.PaymentStatusCancelled {
		return s.shadowRepo.DeleteCommissionRevenue(ctx, payment.PaymentID)
	}
	return nil
}

func (s *SyncService) mirrorProperty(ctx context.Context, propertyID string) error {
	property, err := s.propertyRepo.FindPropertyByID(ctx, propertyID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.shadowRepo.DeleteProperty(ctx, propertyID)
	}
	if err != nil {
		return err
	}
	if property.IsDeleted {
		return s.shadowRepo.DeleteProperty(ctx, propertyID)
	}

	payload, err := json.Marshal(property)
	if err != nil {
		return fmt.Errorf("%w: encode property %s: %v", apperrors.ErrValidation, propertyID, err)
	}
	var ownerID *string
	if property.OwnerID != "" {
		owner := property.OwnerID
		ownerID = &owner
	}
	return s.shadowRepo.UpsertProperty(ctx, domain.ShadowProperty{
		PropertyID:    property.PropertyID,
		CompanyID:     property.CompanyID,
		OwnerID:       ownerID,
		Payload:       payload,
		SourceUpdated: property.LastUpdatedAt,
		MirroredAt:    time.Now().UTC(),
	})
}

func (s *SyncService) mirrorUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.shadowRepo.DeleteContact(ctx, userID)
	}
	if err != nil {
		return err
	}
	if user.IsDeleted {
		return s.shadowRepo.DeleteContact(ctx, userID)
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%w: encode user %s: %v", apperrors.ErrValidation, userID, err)
	}
	return s.shadowRepo.UpsertContact(ctx, domain.ShadowContact{
		UserID:        user.UserID,
		CompanyID:     user.CompanyID,
		Payload:       payload,
		SourceUpdated: user.LastUpdatedAt,
		MirroredAt:    time.Now().UTC(),
	})
}

// recordFailure upserts the failure ledger row for the document: attempt
// count incremented, next attempt scheduled with exponential backoff, and
// the row discarded outright once classified non-retriable or past the
// attempt ceiling.
func (s *SyncService) recordFailure(ctx context.Context, entityType domain.SyncEntityType, documentID string, cause error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	attempts := 1
	failureID := uuid.NewString()
	createdAt := now
	if existing, err := s.failureRepo.FindFailure(ctx, entityType, documentID); err == nil {
		attempts = existing.AttemptCount + 1
		failureID = existing.FailureID
		createdAt = existing.CreatedAt
	}

	retriable := isRetriableSyncError(cause)
	status := domain.SyncFailureStatusPending
	if !retriable || attempts >= s.discardCeiling {
		status = domain.SyncFailureStatusDiscarded
	}

	failure := domain.SyncFailure{
		FailureID:     failureID,
		Type:          entityType,
		DocumentID:    documentID,
		ErrorMessage:  cause.Error(),
		ErrorLabels:   syncErrorLabels(cause),
		Retriable:     retriable,
		AttemptCount:  attempts,
		NextAttemptAt: now.Add(retry.Exponential(attempts, s.backoffBase, s.backoffCap)),
		Status:        status,
		CreatedAt:     createdAt,
		LastUpdatedAt: now,
	}
	if err := s.failureRepo.UpsertFailure(ctx, failure); err != nil {
		logger.Error("Failed to record sync failure", slog.String("error", err.Error()))
		return
	}

	if status == domain.SyncFailureStatusDiscarded {
		logger.Error("Sync failure discarded",
			slog.String("error", cause.Error()),
			slog.Int("attempts", attempts),
			slog.Bool("retriable", retriable),
		)
		return
	}
	logger.Warn("Sync failure recorded",
		slog.String("error", cause.Error()),
		slog.Int("attempts", attempts),
		slog.Time("next_attempt_at", failure.NextAttemptAt),
	)
}

// RetrySyncFor re-mirrors a single entity immediately, resolving its failure
// record on success.
func (s *SyncService) RetrySyncFor(ctx context.Context, entityType domain.SyncEntityType, documentID string) error {
	if err := s.mirror(ctx, entityType, documentID); err != nil {
		s.recordFailure(ctx, entityType, documentID, err)
		return err
	}
	err := s.failureRepo.MarkResolved(ctx, entityType, documentID, time.Now().UTC())
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrConflict) {
		return err
	}
	return nil
}

// ReprocessFailures retries every due pending failure once. Returns the
// number resolved.
func (s *SyncService) ReprocessFailures(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	failures, err := s.failureRepo.FindDueFailures(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, failure := range failures {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		fctx := middleware.WithLogger(ctx, s.logger.With(
			slog.String("entity_type", string(failure.Type)),
			slog.String("document_id", failure.DocumentID),
		))
		if err := s.RetrySyncFor(fctx, failure.Type, failure.DocumentID); err == nil {
			resolved++
		}
	}

	if len(failures) > 0 {
		s.logger.Info("Sync failure reprocessing finished",
			slog.Int("due", len(failures)),
			slog.Int("resolved", resolved),
		)
	}
	return resolved, nil
}

// CleanupTerminalFailures deletes resolved and discarded failure records
// older than the given age.
func (s *SyncService) CleanupTerminalFailures(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	deleted, err := s.failureRepo.DeleteTerminalOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Terminal sync failures pruned", slog.Int("deleted", deleted))
	}
	return deleted, nil
}

// SyncRecent mirrors every operational document modified since the given
// time. Batches advance a per-entity (watermark, id) keyset cursor so
// arbitrarily large change sets stream through bounded memory and rows
// sharing the boundary timestamp are never skipped.
func (s *SyncService) SyncRecent(ctx context.Context, since time.Time) (int, error) {
	// Bulk passes are serialized; a scheduled run overlapping a manual one
	// would double-read the same watermark windows.
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0

	watermark, afterID := since, ""
	for {
		payments, err := s.paymentRepo.ListPaymentsModifiedSince(ctx, watermark, afterID, s.batchSize)
		if err != nil {
			return total, err
		}
		for _, payment := range payments {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			if s.syncOne(ctx, domain.SyncEntityPayment, payment.PaymentID) {
				total++
			}
			watermark, afterID = payment.LastUpdatedAt, payment.PaymentID
		}
		if len(payments) < s.batchSize {
			break
		}
	}

	watermark, afterID = since, ""
	for {
		properties, err := s.propertyRepo.ListPropertiesModifiedSince(ctx, watermark, afterID, s.batchSize)
		if err != nil {
			return total, err
		}
		for _, property := range properties {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			if s.syncOne(ctx, domain.SyncEntityProperty, property.PropertyID) {
				total++
			}
			watermark, afterID = property.LastUpdatedAt, property.PropertyID
		}
		if len(properties) < s.batchSize {
			break
		}
	}

	watermark, afterID = since, ""
	for {
		users, err := s.userRepo.ListUsersModifiedSince(ctx, watermark, afterID, s.batchSize)
		if err != nil {
			return total, err
		}
		for _, user := range users {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			if s.syncOne(ctx, domain.SyncEntityUser, user.UserID) {
				total++
			}
			watermark, afterID = user.LastUpdatedAt, user.UserID
		}
		if len(users) < s.batchSize {
			break
		}
	}

	s.logger.Info("Bulk sync finished",
		slog.Time("since", since),
		slog.Int("mirrored", total),
	)
	return total, nil
}

// SyncAll mirrors the full operational dataset.
func (s *SyncService) SyncAll(ctx context.Context) (int, error) {
	return s.SyncRecent(ctx, time.Time{})
}

// syncOne mirrors a single document, recording failure rows; returns true on
// success.
func (s *SyncService) syncOne(ctx context.Context, entityType domain.SyncEntityType, documentID string) bool {
	ctx = middleware.WithLogger(ctx, s.logger.With(
		slog.String("entity_type", string(entityType)),
		slog.String("document_id", documentID),
	))
	return s.HandleChange(ctx, domain.ChangeEvent{
		Type:       entityType,
		DocumentID: documentID,
		Op:         domain.ChangeOpUpsert,
		ObservedAt: time.Now().UTC(),
	}) == nil
}

// defaultValidatorConcurrency bounds the parallel existence checks of the
// consistency check when the caller does not pick a bound.
const defaultValidatorConcurrency = 8

// ValidateConsistency cross-checks operational documents against their
// shadows over the lookback window. With remediate set, missing shadows are
// mirrored, orphans enqueued for deletion via the normal mirror path and
// dangling owner references cleared. concurrency caps the parallel existence
// checks; zero or negative falls back to the default.
func (s *SyncService) ValidateConsistency(ctx context.Context, lookbackDays, concurrency int, remediate bool) (*domain.ConsistencyReport, error) {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	if concurrency <= 0 {
		concurrency = defaultValidatorConcurrency
	}
	started := time.Now().UTC()
	since := started.AddDate(0, 0, -lookbackDays)

	report := &domain.ConsistencyReport{
		LookbackDays: lookbackDays,
		StartedAt:    started,
	}
	var mu sync.Mutex

	payments, err := s.listAllPaymentsSince(ctx, since)
	if err != nil {
		return nil, err
	}
	report.PaymentsScanned = len(payments)

	properties, err := s.listAllPropertiesSince(ctx, since)
	if err != nil {
		return nil, err
	}
	report.PropertiesScanned = len(properties)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, payment := range payments {
		payment := payment
		g.Go(func() error {
			exists, err := s.shadowRepo.PaymentExists(gctx, payment.PaymentID)
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
			mu.Lock()
			report.MissingShadows++
			report.MissingShadowIDs = append(report.MissingShadowIDs, payment.PaymentID)
			mu.Unlock()
			return nil
		})
	}
	for _, property := range properties {
		property := property
		g.Go(func() error {
			exists, err := s.shadowRepo.PropertyExists(gctx, property.PropertyID)
			if err != nil {
				return err
			}
			if exists || property.IsDeleted {
				return nil
			}
			mu.Lock()
			report.MissingShadows++
			report.MissingShadowIDs = append(report.MissingShadowIDs, property.PropertyID)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Reverse direction: shadows whose source document is gone.
	shadowPaymentIDs, err := s.shadowRepo.ListShadowPaymentIDsSince(ctx, since, s.batchSize*10)
	if err != nil {
		return nil, err
	}
	shadowPropertyIDs, err := s.shadowRepo.ListShadowPropertyIDsSince(ctx, since, s.batchSize*10)
	if err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	orphans := map[string]domain.SyncEntityType{}
	for _, id := range shadowPaymentIDs {
		id := id
		g.Go(func() error {
			_, err := s.paymentRepo.FindPaymentByID(gctx, id)
			if errors.Is(err, apperrors.ErrNotFound) {
				mu.Lock()
				report.OrphanedShadows++
				report.OrphanedShadowIDs = append(report.OrphanedShadowIDs, id)
				orphans[id] = domain.SyncEntityPayment
				mu.Unlock()
				return nil
			}
			return err
		})
	}
	for _, id := range shadowPropertyIDs {
		id := id
		g.Go(func() error {
			_, err := s.propertyRepo.FindPropertyByID(gctx, id)
			if errors.Is(err, apperrors.ErrNotFound) {
				mu.Lock()
				report.OrphanedShadows++
				report.OrphanedShadowIDs = append(report.OrphanedShadowIDs, id)
				orphans[id] = domain.SyncEntityProperty
				mu.Unlock()
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dangling, err := s.shadowRepo.ListDanglingOwnerRefs(ctx, s.batchSize*10)
	if err != nil {
		return nil, err
	}
	report.DanglingOwnerRefs = len(dangling)
	report.DanglingOwnerIDs = dangling

	if remediate {
		for _, id := range report.MissingShadowIDs {
			entityType := domain.SyncEntityPayment
			for _, property := range properties {
				if property.PropertyID == id {
					entityType = domain.SyncEntityProperty
					break
				}
			}
			if s.syncOne(ctx, entityType, id) {
				report.RemediatedShadows++
			}
		}
		for id, entityType := range orphans {
			// The mirror path observes the missing source and deletes.
			if s.syncOne(ctx, entityType, id) {
				report.RemediatedShadows++
			}
		}
		for _, id := range dangling {
			if err := s.shadowRepo.ClearOwnerRef(ctx, id); err == nil {
				report.RemediatedShadows++
			}
		}
	}

	report.FinishedAt = time.Now().UTC()
	s.logger.Info("Consistency check finished",
		slog.Int("lookback_days", lookbackDays),
		slog.Int("missing_shadows", report.MissingShadows),
		slog.Int("orphaned_shadows", report.OrphanedShadows),
		slog.Int("dangling_owner_refs", report.DanglingOwnerRefs),
		slog.Int("remediated", report.RemediatedShadows),
		slog.Bool("remediate", remediate),
	)
	return report, nil
}

func (s *SyncService) listAllPaymentsSince(ctx context.Context, since time.Time) ([]domain.Payment, error) {
	var all []domain.Payment
	watermark, afterID := since, ""
	for {
		batch, err := s.paymentRepo.ListPaymentsModifiedSince(ctx, watermark, afterID, s.batchSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < s.batchSize {
			return all, nil
		}
		last := batch[len(batch)-1]
		watermark, afterID = last.LastUpdatedAt, last.PaymentID
	}
}

func (s *SyncService) listAllPropertiesSince(ctx context.Context, since time.Time) ([]domain.Property, error) {
	var all []domain.Property
	watermark, afterID := since, ""
	for {
		batch, err := s.propertyRepo.ListPropertiesModifiedSince(ctx, watermark, afterID, s.batchSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < s.batchSize {
			return all, nil
		}
		last := batch[len(batch)-1]
		watermark, afterID = last.LastUpdatedAt, last.PropertyID
	}
}

// isRetriableSyncError classifies mirror errors: malformed documents never
// heal on their own, everything else (store errors, timeouts) is worth a
// retry.
func isRetriableSyncError(err error) bool {
	return !errors.Is(err, apperrors.ErrValidation)
}

func syncErrorLabels(err error) []string {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return []string{"validation"}
	case errors.Is(err, apperrors.ErrNotFound):
		return []string{"not_found"}
	case errors.Is(err, context.DeadlineExceeded):
		return []string{"timeout"}
	default:
		return []string{"store"}
	}
}
