package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/middleware"
	"github.com/propstack/propstack_backend/internal/platform/config"
	"github.com/propstack/propstack_backend/internal/utils/retry"
)

// LedgerEventService drains the durable event queue that decouples payment
// completion from ledger posting. Events retry with exponential backoff and
// never expire; a poisoned event keeps surfacing in the due query until it
// succeeds or is handled manually.
type LedgerEventService struct {
	eventRepo portsrepo.LedgerEventRepository
	posting   portssvc.LedgerPostingSvc
	logger    *slog.Logger

	pollInterval time.Duration
	batchSize    int
	backoffBase  time.Duration
	backoffCap   time.Duration

	processing atomic.Bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewLedgerEventService creates the event queue service.
func NewLedgerEventService(cfg *config.Config, eventRepo portsrepo.LedgerEventRepository, posting portssvc.LedgerPostingSvc, logger *slog.Logger) *LedgerEventService {
	return &LedgerEventService{
		eventRepo:    eventRepo,
		posting:      posting,
		logger:       logger,
		pollInterval: cfg.EventPollInterval,
		batchSize:    cfg.EventBatchSize,
		backoffBase:  cfg.EventBackoffBase,
		backoffCap:   cfg.EventBackoffCap,
	}
}

var _ portssvc.LedgerEventSvcFacade = (*LedgerEventService)(nil)

// EnqueueOwnerIncome records an OWNER_INCOME event for the payment unless a
// non-terminal one already exists.
func (s *LedgerEventService) EnqueueOwnerIncome(ctx context.Context, paymentID string) (*domain.LedgerEvent, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if paymentID == "" {
		return nil, false, fmt.Errorf("%w: payment id is required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	event := domain.LedgerEvent{
		EventID:       uuid.NewString(),
		Type:          domain.LedgerEventOwnerIncome,
		PaymentID:     paymentID,
		Status:        domain.LedgerEventStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	stored, created, err := s.eventRepo.EnqueueIfAbsent(ctx, event)
	if err != nil {
		logger.Error("Failed to enqueue ledger event", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		return nil, false, err
	}
	if created {
		logger.Info("Ledger event enqueued",
			slog.String("event_id", stored.EventID),
			slog.String("payment_id", paymentID),
		)
	}
	return stored, created, nil
}

// GetEventByID retrieves a single queued event.
func (s *LedgerEventService) GetEventByID(ctx context.Context, eventID string) (*domain.LedgerEvent, error) {
	return s.eventRepo.FindEventByID(ctx, eventID)
}

// ProcessDueEvents claims and executes every due event once. Overlapping
// passes collapse onto the running one.
func (s *LedgerEventService) ProcessDueEvents(ctx context.Context) (int, error) {
	if !s.processing.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.processing.Store(false)

	logger := s.logger
	now := time.Now().UTC()
	events, err := s.eventRepo.FindDueEvents(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		if s.processOne(ctx, event) {
			completed++
		}
	}

	if completed > 0 {
		logger.Info("Ledger event pass finished",
			slog.Int("due", len(events)),
			slog.Int("completed", completed),
		)
	}
	return completed, nil
}

// processOne claims a single event, dispatches it and records the outcome.
// Returns true when the event completed.
func (s *LedgerEventService) processOne(ctx context.Context, event domain.LedgerEvent) bool {
	now := time.Now().UTC()
	if err := s.eventRepo.ClaimEvent(ctx, event.EventID, now); err != nil {
		// Another pass claimed it, or it is no longer due.
		return false
	}

	ctx = middleware.WithLogger(ctx, s.logger.With(
		slog.String("event_id", event.EventID),
		slog.String("payment_id", event.PaymentID),
	))

	err := s.dispatch(ctx, event)
	now = time.Now().UTC()
	if err == nil {
		if markErr := s.eventRepo.MarkCompleted(ctx, event.EventID, now); markErr != nil {
			s.logger.Error("Failed to mark event completed",
				slog.String("error", markErr.Error()),
				slog.String("event_id", event.EventID),
			)
			return false
		}
		return true
	}

	attempts := event.AttemptCount + 1
	nextAttempt := now.Add(retry.ExponentialWithJitter(attempts, s.backoffBase, s.backoffCap))
	s.logger.Warn("Ledger event failed, scheduling retry",
		slog.String("event_id", event.EventID),
		slog.String("payment_id", event.PaymentID),
		slog.Int("attempt", attempts),
		slog.Time("next_attempt_at", nextAttempt),
		slog.String("error", err.Error()),
	)
	if markErr := s.eventRepo.MarkFailed(ctx, event.EventID, attempts, nextAttempt, err.Error(), now); markErr != nil {
		s.logger.Error("Failed to mark event failed",
			slog.String("error", markErr.Error()),
			slog.String("event_id", event.EventID),
		)
	}
	return false
}

func (s *LedgerEventService) dispatch(ctx context.Context, event domain.LedgerEvent) error {
	switch event.Type {
	case domain.LedgerEventOwnerIncome:
		_, err := s.posting.RecordIncomeFromPayment(ctx, event.PaymentID)
		return err
	default:
		return fmt.Errorf("%w: unknown ledger event type %s", apperrors.ErrValidation, event.Type)
	}
}

// Start launches the background processing loop.
func (s *LedgerEventService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ProcessDueEvents(ctx); err != nil && ctx.Err() == nil {
					s.logger.Error("Ledger event pass failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
	s.logger.Info("Ledger event worker started", slog.Duration("poll_interval", s.pollInterval))
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (s *LedgerEventService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Ledger event worker stopped")
}
