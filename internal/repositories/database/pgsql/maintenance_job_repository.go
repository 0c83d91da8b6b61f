package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
	"github.com/propstack/propstack_backend/internal/models"
	"github.com/propstack/propstack_backend/internal/utils/mapping"
)

// PgxMaintenanceJobRepository persists the leased maintenance job queue.
// ClaimNextJob uses FOR UPDATE SKIP LOCKED so concurrent workers never
// block on, nor double-claim, the same row.
type PgxMaintenanceJobRepository struct {
	pool *pgxpool.Pool
}

func newPgxMaintenanceJobRepository(pool *pgxpool.Pool) portsrepo.MaintenanceJobRepository {
	return &PgxMaintenanceJobRepository{pool: pool}
}

var _ portsrepo.MaintenanceJobRepository = (*PgxMaintenanceJobRepository)(nil)

const jobColumns = `job_id, operation, company_id, status, attempts, max_attempts, run_after,
	lease_expires_at, worker_id, started_at, completed_at, result, last_error,
	requested_by, created_at, last_updated_at`

func scanJobRow(row pgx.Row) (*domain.MaintenanceJob, error) {
	var m models.MaintenanceJob
	err := row.Scan(
		&m.JobID, &m.Operation, &m.CompanyID, &m.Status, &m.Attempts, &m.MaxAttempts, &m.RunAfter,
		&m.LeaseExpiresAt, &m.WorkerID, &m.StartedAt, &m.CompletedAt, &m.Result, &m.LastError,
		&m.RequestedBy, &m.CreatedAt, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainMaintenanceJob(m)
	return &d, nil
}

// FindActiveJob retrieves the pending/running job of (operation, companyID).
func (r *PgxMaintenanceJobRepository) FindActiveJob(ctx context.Context, operation domain.MaintenanceOperation, companyID string) (*domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM maintenance_jobs
		WHERE operation = $1 AND company_id = $2 AND status IN ('PENDING', 'RUNNING')
		LIMIT 1;`
	job, err := scanJobRow(r.pool.QueryRow(ctx, query, string(operation), companyID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find active job %s/%s: %w", operation, companyID, err)
	}
	return job, nil
}

// InsertJob inserts a pending job. The partial unique index over active rows
// collapses concurrent duplicate enqueues.
func (r *PgxMaintenanceJobRepository) InsertJob(ctx context.Context, job domain.MaintenanceJob) error {
	query := `
		INSERT INTO maintenance_jobs (job_id, operation, company_id, status, attempts, max_attempts,
			run_after, last_error, requested_by, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (operation, company_id) WHERE status IN ('PENDING', 'RUNNING') DO NOTHING;
	`
	tag, err := r.pool.Exec(ctx, query,
		job.JobID, string(job.Operation), job.CompanyID, string(job.Status), job.Attempts, job.MaxAttempts,
		job.RunAfter, job.LastError, job.RequestedBy, job.CreatedAt, job.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", job.JobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: active %s job for company %s already exists", apperrors.ErrDuplicate, job.Operation, job.CompanyID)
	}
	return nil
}

// RequeueExpiredLeases resets running jobs with expired leases back to
// pending, delaying eligibility by the grace period.
func (r *PgxMaintenanceJobRepository) RequeueExpiredLeases(ctx context.Context, now time.Time, grace time.Duration) (int, error) {
	query := `
		UPDATE maintenance_jobs
		SET status = 'PENDING', worker_id = NULL, lease_expires_at = NULL,
			run_after = $2, last_updated_at = $1
		WHERE status = 'RUNNING' AND lease_expires_at < $1;
	`
	tag, err := r.pool.Exec(ctx, query, now, now.Add(grace))
	if err != nil {
		return 0, fmt.Errorf("failed to requeue expired leases: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ClaimNextJob atomically claims the oldest eligible pending job.
func (r *PgxMaintenanceJobRepository) ClaimNextJob(ctx context.Context, workerID string, now time.Time, lease time.Duration) (*domain.MaintenanceJob, error) {
	query := `
		UPDATE maintenance_jobs
		SET status = 'RUNNING', worker_id = $1, started_at = $2,
			lease_expires_at = $3, attempts = attempts + 1, last_updated_at = $2
		WHERE job_id = (
			SELECT job_id FROM maintenance_jobs
			WHERE status = 'PENDING' AND run_after <= $2
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns + `;
	`
	job, err := scanJobRow(r.pool.QueryRow(ctx, query, workerID, now, now.Add(lease)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to claim next job: %w", err)
	}
	return job, nil
}

// CompleteJob terminally completes a running job with its result payload.
func (r *PgxMaintenanceJobRepository) CompleteJob(ctx context.Context, jobID string, result map[string]any, now time.Time) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result for job %s: %w", jobID, err)
	}
	query := `
		UPDATE maintenance_jobs
		SET status = 'COMPLETED', completed_at = $2, result = $3,
			worker_id = NULL, lease_expires_at = NULL, last_error = '', last_updated_at = $2
		WHERE job_id = $1 AND status = 'RUNNING';
	`
	tag, err := r.pool.Exec(ctx, query, jobID, now, payload)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s is not running", apperrors.ErrConflict, jobID)
	}
	return nil
}

// RetryJob returns a running job to pending with a delayed runAfter.
func (r *PgxMaintenanceJobRepository) RetryJob(ctx context.Context, jobID string, runAfter time.Time, lastError string, now time.Time) error {
	query := `
		UPDATE maintenance_jobs
		SET status = 'PENDING', run_after = $2, last_error = $3,
			worker_id = NULL, lease_expires_at = NULL, last_updated_at = $4
		WHERE job_id = $1 AND status = 'RUNNING';
	`
	tag, err := r.pool.Exec(ctx, query, jobID, runAfter, lastError, now)
	if err != nil {
		return fmt.Errorf("failed to retry job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s is not running", apperrors.ErrConflict, jobID)
	}
	return nil
}

// FailJob terminally fails a running job.
func (r *PgxMaintenanceJobRepository) FailJob(ctx context.Context, jobID string, lastError string, now time.Time) error {
	query := `
		UPDATE maintenance_jobs
		SET status = 'FAILED', last_error = $2, completed_at = $3,
			worker_id = NULL, lease_expires_at = NULL, last_updated_at = $3
		WHERE job_id = $1 AND status = 'RUNNING';
	`
	tag, err := r.pool.Exec(ctx, query, jobID, lastError, now)
	if err != nil {
		return fmt.Errorf("failed to fail job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s is not running", apperrors.ErrConflict, jobID)
	}
	return nil
}

// FindJobByID retrieves one job.
func (r *PgxMaintenanceJobRepository) FindJobByID(ctx context.Context, jobID string) (*domain.MaintenanceJob, error) {
	query := `SELECT ` + jobColumns + ` FROM maintenance_jobs WHERE job_id = $1;`
	job, err := scanJobRow(r.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find job %s: %w", jobID, err)
	}
	return job, nil
}
