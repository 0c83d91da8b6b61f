package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/dto"
	"github.com/propstack/propstack_backend/internal/middleware"
	"github.com/propstack/propstack_backend/internal/platform/config"
	"github.com/propstack/propstack_backend/internal/utils/retry"
)

// MaintenanceService runs the leased job queue for bulk ledger operations.
// One active job per (operation, company); a crashed worker's job returns to
// the queue when its lease expires.
type MaintenanceService struct {
	jobRepo   portsrepo.MaintenanceJobRepository
	reconcile portssvc.LedgerReconcileSvc
	logger    *slog.Logger

	workerID      string
	pollInterval  time.Duration
	leaseDuration time.Duration
	requeueGrace  time.Duration
	maxAttempts   int
	retryStep     time.Duration
	retryMax      time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMaintenanceService creates the job queue service.
func NewMaintenanceService(cfg *config.Config, jobRepo portsrepo.MaintenanceJobRepository, reconcile portssvc.LedgerReconcileSvc, logger *slog.Logger) *MaintenanceService {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}
	return &MaintenanceService{
		jobRepo:       jobRepo,
		reconcile:     reconcile,
		logger:        logger,
		workerID:      hostname + "-" + uuid.NewString()[:8],
		pollInterval:  cfg.JobPollInterval,
		leaseDuration: cfg.JobLeaseDuration,
		requeueGrace:  cfg.JobRequeueGrace,
		maxAttempts:   cfg.JobMaxAttempts,
		retryStep:     cfg.JobRetryStep,
		retryMax:      cfg.JobRetryMax,
	}
}

var _ portssvc.MaintenanceSvcFacade = (*MaintenanceService)(nil)

// EnqueueJob inserts a pending job unless an active one already exists for
// the same (operation, company).
func (s *MaintenanceService) EnqueueJob(ctx context.Context, req dto.EnqueueMaintenanceJobRequest, userID string) (*domain.MaintenanceJob, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.jobRepo.FindActiveJob(ctx, req.Operation, req.CompanyID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	job := domain.MaintenanceJob{
		JobID:         uuid.NewString(),
		Operation:     req.Operation,
		CompanyID:     req.CompanyID,
		Status:        domain.MaintenanceJobStatusPending,
		MaxAttempts:   s.maxAttempts,
		RunAfter:      now,
		RequestedBy:   userID,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	if err := s.jobRepo.InsertJob(ctx, job); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost the enqueue race; hand back the winner.
			existing, ferr := s.jobRepo.FindActiveJob(ctx, req.Operation, req.CompanyID)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		logger.Error("Failed to enqueue maintenance job", slog.String("error", err.Error()))
		return nil, false, err
	}

	logger.Info("Maintenance job enqueued",
		slog.String("job_id", job.JobID),
		slog.String("operation", string(req.Operation)),
		slog.String("company_id", req.CompanyID),
	)
	return &job, true, nil
}

// GetJobByID retrieves a single job, including its result once done.
func (s *MaintenanceService) GetJobByID(ctx context.Context, jobID string) (*domain.MaintenanceJob, error) {
	return s.jobRepo.FindJobByID(ctx, jobID)
}

// RequeueExpiredLeases returns lapsed running jobs to the pending state.
func (s *MaintenanceService) RequeueExpiredLeases(ctx context.Context) (int, error) {
	requeued, err := s.jobRepo.RequeueExpiredLeases(ctx, time.Now().UTC(), s.requeueGrace)
	if err != nil {
		return 0, err
	}
	if requeued > 0 {
		s.logger.Warn("Expired job leases requeued", slog.Int("requeued", requeued))
	}
	return requeued, nil
}

// ProcessNextJob claims and runs at most one due job. The run is bounded by
// the lease so a stuck operation cannot outlive its exclusivity window.
func (s *MaintenanceService) ProcessNextJob(ctx context.Context) (bool, error) {
	now := time.Now().UTC()
	job, err := s.jobRepo.ClaimNextJob(ctx, s.workerID, now, s.leaseDuration)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	logger := s.logger.With(
		slog.String("job_id", job.JobID),
		slog.String("operation", string(job.Operation)),
		slog.String("company_id", job.CompanyID),
		slog.Int("attempt", job.Attempts),
	)
	logger.Info("Maintenance job claimed")

	runCtx, cancel := context.WithTimeout(middleware.WithLogger(ctx, logger), s.leaseDuration)
	result, runErr := s.runJob(runCtx, job)
	cancel()

	now = time.Now().UTC()
	if runErr == nil {
		if err := s.jobRepo.CompleteJob(ctx, job.JobID, result, now); err != nil {
			logger.Error("Failed to record job completion", slog.String("error", err.Error()))
			return true, err
		}
		logger.Info("Maintenance job completed")
		return true, nil
	}

	if job.Attempts >= job.MaxAttempts {
		logger.Error("Maintenance job failed terminally", slog.String("error", runErr.Error()))
		if err := s.jobRepo.FailJob(ctx, job.JobID, runErr.Error(), now); err != nil {
			logger.Error("Failed to record job failure", slog.String("error", err.Error()))
			return true, err
		}
		return true, nil
	}

	runAfter := now.Add(retry.Linear(job.Attempts, s.retryStep, s.retryMax))
	logger.Warn("Maintenance job failed, scheduling retry",
		slog.String("error", runErr.Error()),
		slog.Time("run_after", runAfter),
	)
	if err := s.jobRepo.RetryJob(ctx, job.JobID, runAfter, runErr.Error(), now); err != nil {
		logger.Error("Failed to record job retry", slog.String("error", err.Error()))
		return true, err
	}
	return true, nil
}

func (s *MaintenanceService) runJob(ctx context.Context, job *domain.MaintenanceJob) (map[string]any, error) {
	switch job.Operation {
	case domain.OpSyncPropertyAccounts:
		return s.reconcile.SyncPropertyAccounts(ctx, job.CompanyID, job.RequestedBy)
	case domain.OpEnsureDevelopmentLedgers:
		return s.reconcile.EnsureDevelopmentLedgers(ctx, job.CompanyID, job.RequestedBy)
	default:
		return nil, fmt.Errorf("%w: unknown maintenance operation %s", apperrors.ErrValidation, job.Operation)
	}
}

// Start launches the background worker loop.
func (s *MaintenanceService) Start(ctx context.Context) {
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
				if _, err := s.RequeueExpiredLeases(ctx); err != nil && ctx.Err() == nil {
					s.logger.Error("Lease requeue failed", slog.String("error", err.Error()))
				}
				// Drain every eligible job before going back to sleep.
				for {
					claimed, err := s.ProcessNextJob(ctx)
					if err != nil && ctx.Err() == nil {
						s.logger.Error("Job pass failed", slog.String("error", err.Error()))
						break
					}
					if !claimed || ctx.Err() != nil {
						break
					}
				}
			}
		}
	}()
	s.logger.Info("Maintenance worker started",
		slog.String("worker_id", s.workerID),
		slog.Duration("poll_interval", s.pollInterval),
	)
}

// Stop halts the loop and waits for an in-flight job to finish.
func (s *MaintenanceService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Maintenance worker stopped")
}
