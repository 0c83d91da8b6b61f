package pgsql

import (
	"context"
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

// PgxSyncFailureRepository persists the synchronizer's failure ledger.
// One row per (type, document_id), upserted on every failed mirror attempt.
type PgxSyncFailureRepository struct {
	pool *pgxpool.Pool
}

func newPgxSyncFailureRepository(pool *pgxpool.Pool) portsrepo.SyncFailureRepository {
	return &PgxSyncFailureRepository{pool: pool}
}

var _ portsrepo.SyncFailureRepository = (*PgxSyncFailureRepository)(nil)

const failureColumns = `failure_id, type, document_id, error_message, error_labels, retriable,
	attempt_count, next_attempt_at, status, created_at, last_updated_at`

func scanFailureRow(row pgx.Row) (*domain.SyncFailure, error) {
	var m models.SyncFailure
	err := row.Scan(
		&m.FailureID, &m.Type, &m.DocumentID, &m.ErrorMessage, &m.ErrorLabels, &m.Retriable,
		&m.AttemptCount, &m.NextAttemptAt, &m.Status, &m.CreatedAt, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainSyncFailure(m)
	return &d, nil
}

// UpsertFailure records a failed mirror attempt. A terminal row for the same
// document is revived back to pending: a fresh failure means the document is
// broken again regardless of past resolution.
func (r *PgxSyncFailureRepository) UpsertFailure(ctx context.Context, failure domain.SyncFailure) error {
	query := `
		INSERT INTO sync_failures (` + failureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (type, document_id) DO UPDATE SET
			error_message = EXCLUDED.error_message,
			error_labels = EXCLUDED.error_labels,
			retriable = EXCLUDED.retriable,
			attempt_count = EXCLUDED.attempt_count,
			next_attempt_at = EXCLUDED.next_attempt_at,
			status = EXCLUDED.status,
			last_updated_at = EXCLUDED.last_updated_at;
	`
	_, err := r.pool.Exec(ctx, query,
		failure.FailureID, string(failure.Type), failure.DocumentID,
		failure.ErrorMessage, failure.ErrorLabels, failure.Retriable,
		failure.AttemptCount, failure.NextAttemptAt, string(failure.Status),
		failure.CreatedAt, failure.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sync failure %s/%s: %w", failure.Type, failure.DocumentID, err)
	}
	return nil
}

// DeleteFailure clears the failure row after an inline success.
func (r *PgxSyncFailureRepository) DeleteFailure(ctx context.Context, entityType domain.SyncEntityType, documentID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM sync_failures WHERE type = $1 AND document_id = $2;`,
		string(entityType), documentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete sync failure %s/%s: %w", entityType, documentID, err)
	}
	return nil
}

// MarkResolved terminally resolves the failure row.
func (r *PgxSyncFailureRepository) MarkResolved(ctx context.Context, entityType domain.SyncEntityType, documentID string, now time.Time) error {
	return r.setStatus(ctx, entityType, documentID, domain.SyncFailureStatusResolved, now)
}

// MarkDiscarded terminally discards the failure row.
func (r *PgxSyncFailureRepository) MarkDiscarded(ctx context.Context, entityType domain.SyncEntityType, documentID string, now time.Time) error {
	return r.setStatus(ctx, entityType, documentID, domain.SyncFailureStatusDiscarded, now)
}

func (r *PgxSyncFailureRepository) setStatus(ctx context.Context, entityType domain.SyncEntityType, documentID string, status domain.SyncFailureStatus, now time.Time) error {
	query := `
		UPDATE sync_failures
		SET status = $3, last_updated_at = $4
		WHERE type = $1 AND document_id = $2 AND status = 'PENDING';
	`
	tag, err := r.pool.Exec(ctx, query, string(entityType), documentID, string(status), now)
	if err != nil {
		return fmt.Errorf("failed to set status on sync failure %s/%s: %w", entityType, documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sync failure %s/%s is not pending", apperrors.ErrConflict, entityType, documentID)
	}
	return nil
}

// FindFailure retrieves the failure row for (type, documentID).
func (r *PgxSyncFailureRepository) FindFailure(ctx context.Context, entityType domain.SyncEntityType, documentID string) (*domain.SyncFailure, error) {
	query := `SELECT ` + failureColumns + ` FROM sync_failures WHERE type = $1 AND document_id = $2;`
	f, err := scanFailureRow(r.pool.QueryRow(ctx, query, string(entityType), documentID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find sync failure %s/%s: %w", entityType, documentID, err)
	}
	return f, nil
}

// FindDueFailures retrieves pending failures eligible for retry, oldest first.
func (r *PgxSyncFailureRepository) FindDueFailures(ctx context.Context, now time.Time, limit int) ([]domain.SyncFailure, error) {
	query := `SELECT ` + failureColumns + `
		FROM sync_failures
		WHERE status = 'PENDING' AND retriable AND next_attempt_at <= $1
		ORDER BY next_attempt_at ASC
		LIMIT $2;`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find due sync failures: %w", err)
	}
	return collectFailures(rows)
}

// ListFailures retrieves failures filtered by status, newest first.
func (r *PgxSyncFailureRepository) ListFailures(ctx context.Context, status domain.SyncFailureStatus, limit int) ([]domain.SyncFailure, error) {
	query := `SELECT ` + failureColumns + ` FROM sync_failures`
	args := []any{}
	if status != "" {
		args = append(args, string(status))
		query += ` WHERE status = $1`
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY last_updated_at DESC LIMIT $%d;`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync failures: %w", err)
	}
	return collectFailures(rows)
}

func collectFailures(rows pgx.Rows) ([]domain.SyncFailure, error) {
	defer rows.Close()
	var failures []domain.SyncFailure
	for rows.Next() {
		f, err := scanFailureRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync failure row: %w", err)
		}
		failures = append(failures, *f)
	}
	return failures, rows.Err()
}

// DeleteTerminalOlderThan removes resolved/discarded rows last updated
// before the cutoff.
func (r *PgxSyncFailureRepository) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM sync_failures
		WHERE status IN ('RESOLVED', 'DISCARDED') AND last_updated_at < $1;
	`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up terminal sync failures: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
