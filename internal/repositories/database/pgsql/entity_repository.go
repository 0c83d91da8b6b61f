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

// PgxPaymentRepository reads the external payment entity. The only write it
// performs is the in-suspense flag.
type PgxPaymentRepository struct {
	pool *pgxpool.Pool
}

func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepository {
	return &PgxPaymentRepository{pool: pool}
}

var _ portsrepo.PaymentRepository = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, company_id, status, payment_type, amount, owner_amount, agency_amount,
	deposit_amount, property_id, development_id, unit_id, reversal_of_payment_id,
	reversed_by_payment_id, in_suspense, suspense_reason, payment_date, last_updated_at`

func scanPaymentRow(row pgx.Row) (*domain.Payment, error) {
	var m models.Payment
	err := row.Scan(
		&m.PaymentID, &m.CompanyID, &m.Status, &m.PaymentType, &m.Amount, &m.OwnerAmount, &m.AgencyAmount,
		&m.DepositAmount, &m.PropertyID, &m.DevelopmentID, &m.UnitID, &m.ReversalOfPaymentID,
		&m.ReversedByPaymentID, &m.InSuspense, &m.SuspenseReason, &m.PaymentDate, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainPayment(m)
	return &d, nil
}

func collectPayments(rows pgx.Rows) ([]domain.Payment, error) {
	defer rows.Close()
	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPaymentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// FindPaymentByID retrieves one payment.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1;`
	p, err := scanPaymentRow(r.pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	return p, nil
}

// ListCompletedPaymentsByCompany retrieves every completed payment of a
// company, oldest first.
func (r *PgxPaymentRepository) ListCompletedPaymentsByCompany(ctx context.Context, companyID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE company_id = $1 AND status = 'COMPLETED'
		ORDER BY payment_date ASC, payment_id ASC;`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for company %s: %w", companyID, err)
	}
	return collectPayments(rows)
}

// ListCompletedPaymentsByDevelopment retrieves completed payments that
// reference a development or one of its units.
func (r *PgxPaymentRepository) ListCompletedPaymentsByDevelopment(ctx context.Context, developmentID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'COMPLETED'
			AND (development_id = $1
				OR unit_id IN (SELECT unit_id FROM development_units WHERE development_id = $1))
		ORDER BY payment_date ASC, payment_id ASC;`
	rows, err := r.pool.Query(ctx, query, developmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for development %s: %w", developmentID, err)
	}
	return collectPayments(rows)
}

// ListPaymentsModifiedSince retrieves payments mutated at or after the
// given instant, keyset-paged on (last_updated_at, payment_id) so a batch
// boundary falling inside a shared timestamp never skips rows.
func (r *PgxPaymentRepository) ListPaymentsModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE (last_updated_at, payment_id) > ($1, $2)
		ORDER BY last_updated_at ASC, payment_id ASC
		LIMIT $3;`
	rows, err := r.pool.Query(ctx, query, since, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list modified payments: %w", err)
	}
	return collectPayments(rows)
}

// MarkPaymentInSuspense flags a payment whose ledger targets cannot be
// resolved.
func (r *PgxPaymentRepository) MarkPaymentInSuspense(ctx context.Context, paymentID, reason string, now time.Time) error {
	query := `
		UPDATE payments
		SET in_suspense = TRUE, suspense_reason = $2, last_updated_at = $3
		WHERE payment_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, paymentID, reason, now)
	if err != nil {
		return fmt.Errorf("failed to mark payment %s in suspense: %w", paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// PgxPropertyRepository reads the external property entities.
type PgxPropertyRepository struct {
	pool *pgxpool.Pool
}

func newPgxPropertyRepository(pool *pgxpool.Pool) portsrepo.PropertyReader {
	return &PgxPropertyRepository{pool: pool}
}

var _ portsrepo.PropertyReader = (*PgxPropertyRepository)(nil)

const propertyColumns = `property_id, company_id, type, name, owner_id, owner_name, is_deleted, last_updated_at`

func scanPropertyRow(row pgx.Row) (*domain.Property, error) {
	var m models.Property
	err := row.Scan(
		&m.PropertyID, &m.CompanyID, &m.Type, &m.Name, &m.OwnerID, &m.OwnerName, &m.IsDeleted, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainProperty(m)
	return &d, nil
}

// FindPropertyByID retrieves one property.
func (r *PgxPropertyRepository) FindPropertyByID(ctx context.Context, propertyID string) (*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE property_id = $1;`
	p, err := scanPropertyRow(r.pool.QueryRow(ctx, query, propertyID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find property %s: %w", propertyID, err)
	}
	return p, nil
}

// FindDevelopmentByID retrieves one development.
func (r *PgxPropertyRepository) FindDevelopmentByID(ctx context.Context, developmentID string) (*domain.Development, error) {
	query := `SELECT development_id, company_id, name, owner_id, owner_name, is_deleted, last_updated_at
		FROM developments WHERE development_id = $1;`
	var m models.Development
	err := r.pool.QueryRow(ctx, query, developmentID).Scan(
		&m.DevelopmentID, &m.CompanyID, &m.Name, &m.OwnerID, &m.OwnerName, &m.IsDeleted, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find development %s: %w", developmentID, err)
	}
	d := mapping.ToDomainDevelopment(m)
	return &d, nil
}

// FindUnitByID retrieves one development unit.
func (r *PgxPropertyRepository) FindUnitByID(ctx context.Context, unitID string) (*domain.DevelopmentUnit, error) {
	query := `SELECT unit_id, development_id, company_id, name, is_deleted, last_updated_at
		FROM development_units WHERE unit_id = $1;`
	var m models.DevelopmentUnit
	err := r.pool.QueryRow(ctx, query, unitID).Scan(
		&m.UnitID, &m.DevelopmentID, &m.CompanyID, &m.Name, &m.IsDeleted, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find unit %s: %w", unitID, err)
	}
	d := mapping.ToDomainDevelopmentUnit(m)
	return &d, nil
}

// ListDevelopmentsByCompany retrieves every non-deleted development of a company.
func (r *PgxPropertyRepository) ListDevelopmentsByCompany(ctx context.Context, companyID string) ([]domain.Development, error) {
	query := `SELECT development_id, company_id, name, owner_id, owner_name, is_deleted, last_updated_at
		FROM developments
		WHERE company_id = $1 AND NOT is_deleted
		ORDER BY development_id ASC;`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list developments for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var devs []domain.Development
	for rows.Next() {
		var m models.Development
		if err := rows.Scan(&m.DevelopmentID, &m.CompanyID, &m.Name, &m.OwnerID, &m.OwnerName, &m.IsDeleted, &m.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan development row: %w", err)
		}
		devs = append(devs, mapping.ToDomainDevelopment(m))
	}
	return devs, rows.Err()
}

// ListPropertiesModifiedSince retrieves properties mutated at or after the
// given instant, keyset-paged on (last_updated_at, property_id).
func (r *PgxPropertyRepository) ListPropertiesModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE (last_updated_at, property_id) > ($1, $2)
		ORDER BY last_updated_at ASC, property_id ASC
		LIMIT $3;`
	rows, err := r.pool.Query(ctx, query, since, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list modified properties: %w", err)
	}
	defer rows.Close()

	var props []domain.Property
	for rows.Next() {
		p, err := scanPropertyRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		props = append(props, *p)
	}
	return props, rows.Err()
}

// PgxUserRepository reads the external user entity.
type PgxUserRepository struct {
	pool *pgxpool.Pool
}

func newPgxUserRepository(pool *pgxpool.Pool) portsrepo.UserReader {
	return &PgxUserRepository{pool: pool}
}

var _ portsrepo.UserReader = (*PgxUserRepository)(nil)

const userColumns = `user_id, company_id, name, email, is_deleted, last_updated_at`

// FindUserByID retrieves one user.
func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1;`
	var m models.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&m.UserID, &m.CompanyID, &m.Name, &m.Email, &m.IsDeleted, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	d := mapping.ToDomainUser(m)
	return &d, nil
}

// ListUsersModifiedSince retrieves users mutated at or after the given
// instant, keyset-paged on (last_updated_at, user_id).
func (r *PgxUserRepository) ListUsersModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE (last_updated_at, user_id) > ($1, $2)
		ORDER BY last_updated_at ASC, user_id ASC
		LIMIT $3;`
	rows, err := r.pool.Query(ctx, query, since, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list modified users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var m models.User
		if err := rows.Scan(&m.UserID, &m.CompanyID, &m.Name, &m.Email, &m.IsDeleted, &m.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, mapping.ToDomainUser(m))
	}
	return users, rows.Err()
}
