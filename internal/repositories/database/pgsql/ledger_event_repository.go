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

// PgxLedgerEventRepository persists the durable ledger event queue. The
// partial unique index on (type, payment_id) over non-completed rows is what
// makes enqueue-if-absent race free.
type PgxLedgerEventRepository struct {
	pool *pgxpool.Pool
}

func newPgxLedgerEventRepository(pool *pgxpool.Pool) portsrepo.LedgerEventRepository {
	return &PgxLedgerEventRepository{pool: pool}
}

var _ portsrepo.LedgerEventRepository = (*PgxLedgerEventRepository)(nil)

const eventColumns = `event_id, type, payment_id, status, attempt_count, next_attempt_at, last_error, created_at, last_updated_at`

func scanEventRow(row pgx.Row) (*domain.LedgerEvent, error) {
	var m models.LedgerEvent
	err := row.Scan(
		&m.EventID, &m.Type, &m.PaymentID, &m.Status, &m.AttemptCount,
		&m.NextAttemptAt, &m.LastError, &m.CreatedAt, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainLedgerEvent(m)
	return &d, nil
}

// EnqueueIfAbsent inserts a pending event unless a non-terminal event of the
// same (type, paymentID) already exists.
func (r *PgxLedgerEventRepository) EnqueueIfAbsent(ctx context.Context, event domain.LedgerEvent) (*domain.LedgerEvent, bool, error) {
	insertQuery := `
		INSERT INTO ledger_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (type, payment_id) WHERE status <> 'COMPLETED' DO NOTHING;
	`
	tag, err := r.pool.Exec(ctx, insertQuery,
		event.EventID, string(event.Type), event.PaymentID, string(event.Status),
		event.AttemptCount, event.NextAttemptAt, event.LastError, event.CreatedAt, event.LastUpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to enqueue event for payment %s: %w", event.PaymentID, err)
	}
	if tag.RowsAffected() > 0 {
		return &event, true, nil
	}

	existingQuery := `SELECT ` + eventColumns + `
		FROM ledger_events
		WHERE type = $1 AND payment_id = $2 AND status <> 'COMPLETED'
		LIMIT 1;`
	existing, err := scanEventRow(r.pool.QueryRow(ctx, existingQuery, string(event.Type), event.PaymentID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing event for payment %s: %w", event.PaymentID, err)
	}
	return existing, false, nil
}

// FindDueEvents retrieves events eligible for processing, oldest first.
func (r *PgxLedgerEventRepository) FindDueEvents(ctx context.Context, now time.Time, limit int) ([]domain.LedgerEvent, error) {
	query := `SELECT ` + eventColumns + `
		FROM ledger_events
		WHERE status IN ('PENDING', 'FAILED') AND next_attempt_at <= $1
		ORDER BY next_attempt_at ASC, created_at ASC
		LIMIT $2;`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find due events: %w", err)
	}
	defer rows.Close()

	var events []domain.LedgerEvent
	for rows.Next() {
		e, err := scanEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ClaimEvent conditionally moves an event from pending/failed to processing.
func (r *PgxLedgerEventRepository) ClaimEvent(ctx context.Context, eventID string, now time.Time) error {
	query := `
		UPDATE ledger_events
		SET status = 'PROCESSING', last_updated_at = $2
		WHERE event_id = $1 AND status IN ('PENDING', 'FAILED') AND next_attempt_at <= $2;
	`
	tag, err := r.pool.Exec(ctx, query, eventID, now)
	if err != nil {
		return fmt.Errorf("failed to claim event %s: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %s already claimed", apperrors.ErrConflict, eventID)
	}
	return nil
}

// MarkCompleted terminally completes an event.
func (r *PgxLedgerEventRepository) MarkCompleted(ctx context.Context, eventID string, now time.Time) error {
	query := `
		UPDATE ledger_events
		SET status = 'COMPLETED', last_error = '', last_updated_at = $2
		WHERE event_id = $1 AND status = 'PROCESSING';
	`
	tag, err := r.pool.Exec(ctx, query, eventID, now)
	if err != nil {
		return fmt.Errorf("failed to complete event %s: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %s is not processing", apperrors.ErrConflict, eventID)
	}
	return nil
}

// MarkFailed returns a processing event to failed with its next attempt time.
func (r *PgxLedgerEventRepository) MarkFailed(ctx context.Context, eventID string, attemptCount int, nextAttemptAt time.Time, lastError string, now time.Time) error {
	query := `
		UPDATE ledger_events
		SET status = 'FAILED', attempt_count = $2, next_attempt_at = $3, last_error = $4, last_updated_at = $5
		WHERE event_id = $1 AND status = 'PROCESSING';
	`
	tag, err := r.pool.Exec(ctx, query, eventID, attemptCount, nextAttemptAt, lastError, now)
	if err != nil {
		return fmt.Errorf("failed to mark event %s failed: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %s is not processing", apperrors.ErrConflict, eventID)
	}
	return nil
}

// FindEventByID retrieves one event.
func (r *PgxLedgerEventRepository) FindEventByID(ctx context.Context, eventID string) (*domain.LedgerEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE event_id = $1;`
	e, err := scanEventRow(r.pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find event %s: %w", eventID, err)
	}
	return e, nil
}
