package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
)

// PgxShadowRepository persists the accounting-store mirrors. It runs against
// the accounting pool, not the operational one.
type PgxShadowRepository struct {
	pool *pgxpool.Pool
}

// NewPgxShadowRepository creates the shadow repository over the accounting
// database pool.
func NewPgxShadowRepository(pool *pgxpool.Pool) portsrepo.ShadowRepository {
	return &PgxShadowRepository{pool: pool}
}

var _ portsrepo.ShadowRepository = (*PgxShadowRepository)(nil)

// UpsertPayment mirrors a payment document, newest source version wins.
func (r *PgxShadowRepository) UpsertPayment(ctx context.Context, shadow domain.ShadowPayment) error {
	query := `
		INSERT INTO shadow_payments (payment_id, company_id, payload, source_updated, mirrored_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_id) DO UPDATE SET
			company_id = EXCLUDED.company_id,
			payload = EXCLUDED.payload,
			source_updated = EXCLUDED.source_updated,
			mirrored_at = EXCLUDED.mirrored_at
		WHERE shadow_payments.source_updated <= EXCLUDED.source_updated;
	`
	_, err := r.pool.Exec(ctx, query, shadow.PaymentID, shadow.CompanyID, shadow.Payload, shadow.SourceUpdated, shadow.MirroredAt)
	if err != nil {
		return fmt.Errorf("failed to upsert shadow payment %s: %w", shadow.PaymentID, err)
	}
	return nil
}

// DeletePayment removes a payment mirror.
func (r *PgxShadowRepository) DeletePayment(ctx context.Context, paymentID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM shadow_payments WHERE payment_id = $1;`, paymentID); err != nil {
		return fmt.Errorf("failed to delete shadow payment %s: %w", paymentID, err)
	}
	return nil
}

// PaymentExists reports whether a payment mirror exists.
func (r *PgxShadowRepository) PaymentExists(ctx context.Context, paymentID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shadow_payments WHERE payment_id = $1);`, paymentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check shadow payment %s: %w", paymentID, err)
	}
	return exists, nil
}

// UpsertProperty mirrors a property document.
func (r *PgxShadowRepository) UpsertProperty(ctx context.Context, shadow domain.ShadowProperty) error {
	query := `
		INSERT INTO shadow_properties (property_id, company_id, owner_id, payload, source_updated, mirrored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (property_id) DO UPDATE SET
			company_id = EXCLUDED.company_id,
			owner_id = EXCLUDED.owner_id,
			payload = EXCLUDED.payload,
			source_updated = EXCLUDED.source_updated,
			mirrored_at = EXCLUDED.mirrored_at
		WHERE shadow_properties.source_updated <= EXCLUDED.source_updated;
	`
	_, err := r.pool.Exec(ctx, query, shadow.PropertyID, shadow.CompanyID, shadow.OwnerID, shadow.Payload, shadow.SourceUpdated, shadow.MirroredAt)
	if err != nil {
		return fmt.Errorf("failed to upsert shadow property %s: %w", shadow.PropertyID, err)
	}
	return nil
}

// DeleteProperty removes a property mirror.
func (r *PgxShadowRepository) DeleteProperty(ctx context.Context, propertyID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM shadow_properties WHERE property_id = $1;`, propertyID); err != nil {
		return fmt.Errorf("failed to delete shadow property %s: %w", propertyID, err)
	}
	return nil
}

// PropertyExists reports whether a property mirror exists.
func (r *PgxShadowRepository) PropertyExists(ctx context.Context, propertyID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shadow_properties WHERE property_id = $1);`, propertyID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check shadow property %s: %w", propertyID, err)
	}
	return exists, nil
}

// UpsertContact mirrors a user document.
func (r *PgxShadowRepository) UpsertContact(ctx context.Context, shadow domain.ShadowContact) error {
	query := `
		INSERT INTO shadow_contacts (user_id, company_id, payload, source_updated, mirrored_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			company_id = EXCLUDED.company_id,
			payload = EXCLUDED.payload,
			source_updated = EXCLUDED.source_updated,
			mirrored_at = EXCLUDED.mirrored_at
		WHERE shadow_contacts.source_updated <= EXCLUDED.source_updated;
	`
	_, err := r.pool.Exec(ctx, query, shadow.UserID, shadow.CompanyID, shadow.Payload, shadow.SourceUpdated, shadow.MirroredAt)
	if err != nil {
		return fmt.Errorf("failed to upsert shadow contact %s: %w", shadow.UserID, err)
	}
	return nil
}

// DeleteContact removes a user mirror.
func (r *PgxShadowRepository) DeleteContact(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM shadow_contacts WHERE user_id = $1;`, userID); err != nil {
		return fmt.Errorf("failed to delete shadow contact %s: %w", userID, err)
	}
	return nil
}

// ContactExists reports whether a user mirror exists.
func (r *PgxShadowRepository) ContactExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shadow_contacts WHERE user_id = $1);`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check shadow contact %s: %w", userID, err)
	}
	return exists, nil
}

// UpsertCommissionRevenue posts the agency commission share of a completed
// payment, keyed by payment id so replays are no-ops.
func (r *PgxShadowRepository) UpsertCommissionRevenue(ctx context.Context, paymentID, companyID string, amount decimal.Decimal, paymentDate time.Time, now time.Time) error {
	query := `
		INSERT INTO commission_revenues (payment_id, company_id, amount, payment_date, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			payment_date = EXCLUDED.payment_date,
			recorded_at = EXCLUDED.recorded_at;
	`
	_, err := r.pool.Exec(ctx, query, paymentID, companyID, amount, paymentDate, now)
	if err != nil {
		return fmt.Errorf("failed to upsert commission revenue for payment %s: %w", paymentID, err)
	}
	return nil
}

// DeleteCommissionRevenue removes the posting of a reversed or deleted payment.
func (r *PgxShadowRepository) DeleteCommissionRevenue(ctx context.Context, paymentID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM commission_revenues WHERE payment_id = $1;`, paymentID); err != nil {
		return fmt.Errorf("failed to delete commission revenue for payment %s: %w", paymentID, err)
	}
	return nil
}

// ListShadowPaymentIDsSince retrieves shadow payment ids mirrored after the
// cutoff.
func (r *PgxShadowRepository) ListShadowPaymentIDsSince(ctx context.Context, since time.Time, limit int) ([]string, error) {
	return r.listIDs(ctx,
		`SELECT payment_id FROM shadow_payments WHERE mirrored_at > $1 ORDER BY mirrored_at ASC LIMIT $2;`,
		since, limit)
}

// ListShadowPropertyIDsSince retrieves shadow property ids mirrored after
// the cutoff.
func (r *PgxShadowRepository) ListShadowPropertyIDsSince(ctx context.Context, since time.Time, limit int) ([]string, error) {
	return r.listIDs(ctx,
		`SELECT property_id FROM shadow_properties WHERE mirrored_at > $1 ORDER BY mirrored_at ASC LIMIT $2;`,
		since, limit)
}

func (r *PgxShadowRepository) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shadow ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan shadow id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListDanglingOwnerRefs retrieves shadow property ids whose owner reference
// points at no existing contact mirror.
func (r *PgxShadowRepository) ListDanglingOwnerRefs(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT p.property_id
		FROM shadow_properties p
		WHERE p.owner_id IS NOT NULL
			AND NOT EXISTS (SELECT 1 FROM shadow_contacts c WHERE c.user_id = p.owner_id)
		ORDER BY p.property_id ASC
		LIMIT $1;
	`
	return r.listIDs(ctx, query, limit)
}

// ClearOwnerRef nulls a dangling owner reference on a shadow property.
func (r *PgxShadowRepository) ClearOwnerRef(ctx context.Context, propertyID string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE shadow_properties SET owner_id = NULL WHERE property_id = $1;`, propertyID); err != nil {
		return fmt.Errorf("failed to clear owner ref on shadow property %s: %w", propertyID, err)
	}
	return nil
}
