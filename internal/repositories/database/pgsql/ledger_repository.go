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
	"github.com/propstack/propstack_backend/internal/utils/pagination"
)

// PgxLedgerRepository persists ledger accounts, transactions and payouts.
// Every guarded mutation runs inside one database transaction so the
// idempotency check, the balance guard and the totals update land together
// or not at all.
type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger data.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository{Pool: pool}}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const ledgerColumns = `ledger_id, company_id, property_id, ledger_type, owner_id, owner_name,
	running_balance, total_income, total_expenses, total_owner_payouts,
	is_archived, version, created_at, created_by, last_updated_at, last_updated_by`

func scanLedgerRow(row pgx.Row) (*domain.LedgerAccount, error) {
	var m models.LedgerAccount
	err := row.Scan(
		&m.LedgerID, &m.CompanyID, &m.PropertyID, &m.LedgerType, &m.OwnerID, &m.OwnerName,
		&m.RunningBalance, &m.TotalIncome, &m.TotalExpenses, &m.TotalOwnerPayouts,
		&m.IsArchived, &m.Version, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainLedgerAccount(m)
	return &d, nil
}

// FindLedgerByID retrieves a ledger account by its ID.
func (r *PgxLedgerRepository) FindLedgerByID(ctx context.Context, ledgerID string) (*domain.LedgerAccount, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_accounts WHERE ledger_id = $1;`
	ledger, err := scanLedgerRow(r.Pool.QueryRow(ctx, query, ledgerID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find ledger %s: %w", ledgerID, err)
	}
	return ledger, nil
}

// FindActiveLedger retrieves the non-archived ledger for (propertyID, ledgerType).
// Among duplicates the oldest wins; newer duplicates are the merge routine's problem.
func (r *PgxLedgerRepository) FindActiveLedger(ctx context.Context, propertyID string, ledgerType domain.LedgerType) (*domain.LedgerAccount, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_accounts
		WHERE property_id = $1 AND ledger_type = $2 AND NOT is_archived
		ORDER BY created_at ASC
		LIMIT 1;`
	ledger, err := scanLedgerRow(r.Pool.QueryRow(ctx, query, propertyID, string(ledgerType)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find active ledger for property %s: %w", propertyID, err)
	}
	return ledger, nil
}

// FindActiveLegacyLedger retrieves a non-archived ledger for propertyID with
// no ledger type set.
func (r *PgxLedgerRepository) FindActiveLegacyLedger(ctx context.Context, propertyID string) (*domain.LedgerAccount, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_accounts
		WHERE property_id = $1 AND ledger_type = '' AND NOT is_archived
		ORDER BY created_at ASC
		LIMIT 1;`
	ledger, err := scanLedgerRow(r.Pool.QueryRow(ctx, query, propertyID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find legacy ledger for property %s: %w", propertyID, err)
	}
	return ledger, nil
}

// ListActiveLedgersByCompany retrieves every non-archived ledger of a company.
func (r *PgxLedgerRepository) ListActiveLedgersByCompany(ctx context.Context, companyID string) ([]domain.LedgerAccount, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_accounts
		WHERE company_id = $1 AND NOT is_archived
		ORDER BY created_at ASC;`
	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var ledgers []domain.LedgerAccount
	for rows.Next() {
		ledger, err := scanLedgerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		ledgers = append(ledgers, *ledger)
	}
	return ledgers, rows.Err()
}

// SaveLedger inserts a new ledger account. The partial unique index on
// (property_id, ledger_type) over non-archived rows turns a concurrent
// double-create into ErrDuplicate.
func (r *PgxLedgerRepository) SaveLedger(ctx context.Context, ledger domain.LedgerAccount) error {
	m := mapping.ToModelLedgerAccount(ledger)
	query := `
		INSERT INTO ledger_accounts (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.LedgerID, m.CompanyID, m.PropertyID, m.LedgerType, m.OwnerID, m.OwnerName,
		m.RunningBalance, m.TotalIncome, m.TotalExpenses, m.TotalOwnerPayouts,
		m.IsArchived, m.Version, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: active ledger for property %s already exists", apperrors.ErrDuplicate, m.PropertyID)
		}
		return fmt.Errorf("failed to save ledger %s: %w", m.LedgerID, err)
	}
	return nil
}

// AdoptLegacyLedger sets the ledger type on a legacy account, guarded on the
// type still being unset.
func (r *PgxLedgerRepository) AdoptLegacyLedger(ctx context.Context, ledgerID string, ledgerType domain.LedgerType, updatedBy string, now time.Time) error {
	query := `
		UPDATE ledger_accounts
		SET ledger_type = $2, version = version + 1, last_updated_at = $3, last_updated_by = $4
		WHERE ledger_id = $1 AND ledger_type = '' AND NOT is_archived;
	`
	tag, err := r.Pool.Exec(ctx, query, ledgerID, string(ledgerType), now, updatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: active ledger for type %s already exists", apperrors.ErrDuplicate, ledgerType)
		}
		return fmt.Errorf("failed to adopt legacy ledger %s: %w", ledgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger %s is no longer typeless", apperrors.ErrConflict, ledgerID)
	}
	return nil
}

// SetLedgerType flips the ledger type, guarded on the current value.
func (r *PgxLedgerRepository) SetLedgerType(ctx context.Context, ledgerID string, from, to domain.LedgerType, updatedBy string, now time.Time) error {
	query := `
		UPDATE ledger_accounts
		SET ledger_type = $3, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE ledger_id = $1 AND ledger_type = $2 AND NOT is_archived;
	`
	tag, err := r.Pool.Exec(ctx, query, ledgerID, string(from), string(to), now, updatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: active ledger for type %s already exists", apperrors.ErrDuplicate, to)
		}
		return fmt.Errorf("failed to set type on ledger %s: %w", ledgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger %s type changed concurrently", apperrors.ErrConflict, ledgerID)
	}
	return nil
}

// ArchiveLedger soft-tombstones a ledger account.
func (r *PgxLedgerRepository) ArchiveLedger(ctx context.Context, ledgerID string, updatedBy string, now time.Time) error {
	query := `
		UPDATE ledger_accounts
		SET is_archived = TRUE, version = version + 1, last_updated_at = $2, last_updated_by = $3
		WHERE ledger_id = $1 AND NOT is_archived;
	`
	tag, err := r.Pool.Exec(ctx, query, ledgerID, now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to archive ledger %s: %w", ledgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger %s not found or already archived", apperrors.ErrNotFound, ledgerID)
	}
	return nil
}

// UpdateLedgerOwner refreshes the denormalised owner reference.
func (r *PgxLedgerRepository) UpdateLedgerOwner(ctx context.Context, ledgerID, ownerID, ownerName string, updatedBy string, now time.Time) error {
	query := `
		UPDATE ledger_accounts
		SET owner_id = $2, owner_name = $3, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE ledger_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, ledgerID, ownerID, ownerName, now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update owner on ledger %s: %w", ledgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ApplyTotals writes derived totals and the running balance they imply.
func (r *PgxLedgerRepository) ApplyTotals(ctx context.Context, ledgerID string, totals domain.LedgerTotals, updatedBy string, now time.Time) error {
	query := `
		UPDATE ledger_accounts
		SET total_income = $2, total_expenses = $3, total_owner_payouts = $4,
			running_balance = $5, version = version + 1, last_updated_at = $6, last_updated_by = $7
		WHERE ledger_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, ledgerID,
		totals.TotalIncome, totals.TotalExpenses, totals.TotalOwnerPayouts,
		totals.RunningBalance(), now, updatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to apply totals on ledger %s: %w", ledgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const transactionColumns = `transaction_id, ledger_id, type, amount, date, payment_id, idempotency_key,
	category, status, reference_number, processed_by, notes,
	created_at, created_by, last_updated_at, last_updated_by`

func scanTransactionRow(row pgx.Row) (*domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID, &m.LedgerID, &m.Type, &m.Amount, &m.Date, &m.PaymentID, &m.IdempotencyKey,
		&m.Category, &m.Status, &m.ReferenceNumber, &m.ProcessedBy, &m.Notes,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

const insertTransactionQuery = `
	INSERT INTO ledger_transactions (` + transactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (ledger_id, idempotency_key) DO NOTHING;
`

// AppendIncome appends a completed income transaction and credits the
// running balance in the same database transaction. A pre-existing
// idempotency key makes the whole operation ErrDuplicate without touching
// the balance.
func (r *PgxLedgerRepository) AppendIncome(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, insertTransactionQuery,
		m.TransactionID, m.LedgerID, m.Type, m.Amount, m.Date, m.PaymentID, m.IdempotencyKey,
		m.Category, m.Status, m.ReferenceNumber, m.ProcessedBy, m.Notes,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert income transaction %s: %w", m.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: idempotency key %q already used on ledger %s", apperrors.ErrDuplicate, m.IdempotencyKey, m.LedgerID)
	}

	creditQuery := `
		UPDATE ledger_accounts
		SET running_balance = running_balance + $2, total_income = total_income + $2,
			version = version + 1, last_updated_at = $3, last_updated_by = $4
		WHERE ledger_id = $1;
	`
	tag, err = tx.Exec(ctx, creditQuery, m.LedgerID, m.Amount, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to credit ledger %s: %w", m.LedgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger %s", apperrors.ErrNotFound, m.LedgerID)
	}

	return r.Commit(ctx, tx)
}

// AppendExpense appends a completed expense transaction and debits the
// running balance, guarded on balance >= amount. The guard lives in the
// UPDATE's WHERE clause so two racing expenses can never both pass it.
func (r *PgxLedgerRepository) AppendExpense(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, insertTransactionQuery,
		m.TransactionID, m.LedgerID, m.Type, m.Amount, m.Date, m.PaymentID, m.IdempotencyKey,
		m.Category, m.Status, m.ReferenceNumber, m.ProcessedBy, m.Notes,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense transaction %s: %w", m.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: idempotency key %q already used on ledger %s", apperrors.ErrDuplicate, m.IdempotencyKey, m.LedgerID)
	}

	debitQuery := `
		UPDATE ledger_accounts
		SET running_balance = running_balance - $2, total_expenses = total_expenses + $2,
			version = version + 1, last_updated_at = $3, last_updated_by = $4
		WHERE ledger_id = $1 AND running_balance >= $2;
	`
	tag, err = tx.Exec(ctx, debitQuery, m.LedgerID, m.Amount, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to debit ledger %s: %w", m.LedgerID, err)
	}
	if tag.RowsAffected() == 0 {
		// Rollback discards the inserted row. Distinguish a missing ledger
		// from a failed balance guard for the caller's retry decision.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT TRUE FROM ledger_accounts WHERE ledger_id = $1;`, m.LedgerID).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: ledger %s", apperrors.ErrNotFound, m.LedgerID)
			}
			return fmt.Errorf("failed to check ledger %s: %w", m.LedgerID, err)
		}
		return fmt.Errorf("%w: ledger %s balance below %s", apperrors.ErrInsufficientBalance, m.LedgerID, m.Amount.String())
	}

	return r.Commit(ctx, tx)
}

// CancelTransaction flips a completed transaction to cancelled and reverses
// its balance contribution.
func (r *PgxLedgerRepository) CancelTransaction(ctx context.Context, transactionID string, updatedBy string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	cancelQuery := `
		UPDATE ledger_transactions
		SET status = 'CANCELLED', last_updated_at = $2, last_updated_by = $3
		WHERE transaction_id = $1 AND status = 'COMPLETED'
		RETURNING ledger_id, type, amount;
	`
	var m models.Transaction
	err = tx.QueryRow(ctx, cancelQuery, transactionID, now, updatedBy).Scan(&m.LedgerID, &m.Type, &m.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: transaction %s is not completed", apperrors.ErrConflict, transactionID)
		}
		return fmt.Errorf("failed to cancel transaction %s: %w", transactionID, err)
	}

	var totalsQuery string
	if m.Type == models.TransactionTypeIncome {
		totalsQuery = `
			UPDATE ledger_accounts
			SET running_balance = running_balance - $2, total_income = total_income - $2,
				version = version + 1, last_updated_at = $3, last_updated_by = $4
			WHERE ledger_id = $1;
		`
	} else {
		totalsQuery = `
			UPDATE ledger_accounts
			SET running_balance = running_balance + $2, total_expenses = total_expenses - $2,
				version = version + 1, last_updated_at = $3, last_updated_by = $4
			WHERE ledger_id = $1;
		`
	}
	tag, err := tx.Exec(ctx, totalsQuery, m.LedgerID, m.Amount, now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to reverse totals on ledger %s: %w", m.LedgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger %s", apperrors.ErrNotFound, m.LedgerID)
	}

	return r.Commit(ctx, tx)
}

// ReassignTransactions moves transactions onto another ledger account.
func (r *PgxLedgerRepository) ReassignTransactions(ctx context.Context, transactionIDs []string, targetLedgerID string, updatedBy string, now time.Time) error {
	if len(transactionIDs) == 0 {
		return nil
	}
	query := `
		UPDATE ledger_transactions
		SET ledger_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = ANY($1);
	`
	_, err := r.Pool.Exec(ctx, query, transactionIDs, targetLedgerID, now, updatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: idempotency key collision on ledger %s", apperrors.ErrDuplicate, targetLedgerID)
		}
		return fmt.Errorf("failed to reassign transactions to ledger %s: %w", targetLedgerID, err)
	}
	return nil
}

// DeleteTransactions hard-deletes duplicate rows. Only the duplicate
// reconciliation routine calls this.
func (r *PgxLedgerRepository) DeleteTransactions(ctx context.Context, transactionIDs []string) error {
	if len(transactionIDs) == 0 {
		return nil
	}
	_, err := r.Pool.Exec(ctx, `DELETE FROM ledger_transactions WHERE transaction_id = ANY($1);`, transactionIDs)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}

// FindTransactionByID retrieves one transaction.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE transaction_id = $1;`
	txn, err := scanTransactionRow(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// FindTransactionByIdempotencyKey retrieves the transaction carrying the key
// within one ledger account.
func (r *PgxLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, ledgerID, key string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE ledger_id = $1 AND idempotency_key = $2;`
	txn, err := scanTransactionRow(r.Pool.QueryRow(ctx, query, ledgerID, key))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find transaction by key on ledger %s: %w", ledgerID, err)
	}
	return txn, nil
}

// FindTransactionsByLedger retrieves all transactions of an account.
func (r *PgxLedgerRepository) FindTransactionsByLedger(ctx context.Context, ledgerID string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE ledger_id = $1 ORDER BY date ASC, created_at ASC;`
	rows, err := r.Pool.Query(ctx, query, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

// FindCompletedIncomeByPaymentIDs retrieves completed income transactions
// referencing any of the given payment ids, across all ledgers.
func (r *PgxLedgerRepository) FindCompletedIncomeByPaymentIDs(ctx context.Context, paymentIDs []string) ([]domain.Transaction, error) {
	if len(paymentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + transactionColumns + `
		FROM ledger_transactions
		WHERE payment_id = ANY($1) AND type = 'INCOME' AND status = 'COMPLETED'
		ORDER BY created_at ASC;`
	rows, err := r.Pool.Query(ctx, query, paymentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find income by payment ids: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

// ListTransactions retrieves a filtered, token-paginated transaction history
// for one account, newest first. The token carries (date, created_at,
// transaction_id) of the last row of the previous page.
func (r *PgxLedgerRepository) ListTransactions(ctx context.Context, ledgerID string, filter portsrepo.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE ledger_id = $1`
	args := []any{ledgerID}

	addArg := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}
	if filter.Type != "" {
		addArg("type = $%d", string(filter.Type))
	}
	if filter.Status != "" {
		addArg("status = $%d", string(filter.Status))
	}
	if filter.Category != "" {
		addArg("category = $%d", filter.Category)
	}
	if !filter.DateFrom.IsZero() {
		addArg("date >= $%d", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		addArg("date <= $%d", filter.DateTo)
	}

	if nextToken != nil && *nextToken != "" {
		fields, err := pagination.DecodeMultiFieldToken(*nextToken)
		if err != nil || len(fields) != 3 {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		tokenDate, err1 := time.Parse(time.RFC3339Nano, fields[0])
		tokenCreated, err2 := time.Parse(time.RFC3339Nano, fields[1])
		if err1 != nil || err2 != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, tokenDate, tokenCreated, fields[2])
		query += fmt.Sprintf(" AND (date, created_at, transaction_id) < ($%d, $%d, $%d)", len(args)-2, len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY date DESC, created_at DESC, transaction_id DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var token *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[limit-1]
		t := pagination.EncodeMultiFieldToken(
			last.Date.Format(time.RFC3339Nano),
			last.CreatedAt.Format(time.RFC3339Nano),
			last.TransactionID,
		)
		token = &t
	}
	return txns, token, nil
}

const payoutColumns = `payout_id, ledger_id, amount, payment_method, recipient_id, recipient_name,
	reference_number, idempotency_key, status, date,
	created_at, created_by, last_updated_at, last_updated_by`

func scanPayoutRow(row pgx.Row) (*domain.OwnerPayout, error) {
	var m models.OwnerPayout
	err := row.Scan(
		&m.PayoutID, &m.LedgerID, &m.Amount, &m.PaymentMethod, &m.RecipientID, &m.RecipientName,
		&m.ReferenceNumber, &m.IdempotencyKey, &m.Status, &m.Date,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainOwnerPayout(m)
	return &d, nil
}

// CreatePayout inserts a pending payout after validating the balance under a
// row lock, so a racing expense cannot slip between the check and the insert.
func (r *PgxLedgerRepository) CreatePayout(ctx context.Context, payout domain.OwnerPayout) error {
	m := mapping.ToModelOwnerPayout(payout)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var balanceOK bool
	err = tx.QueryRow(ctx,
		`SELECT running_balance >= $2 FROM ledger_accounts WHERE ledger_id = $1 FOR UPDATE;`,
		m.LedgerID, m.Amount,
	).Scan(&balanceOK)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: ledger %s", apperrors.ErrNotFound, m.LedgerID)
		}
		return fmt.Errorf("failed to lock ledger %s: %w", m.LedgerID, err)
	}
	if !balanceOK {
		return fmt.Errorf("%w: ledger %s balance below %s", apperrors.ErrInsufficientBalance, m.LedgerID, m.Amount.String())
	}

	insertQuery := `
		INSERT INTO owner_payouts (` + payoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (ledger_id, idempotency_key) DO NOTHING;
	`
	tag, err := tx.Exec(ctx, insertQuery,
		m.PayoutID, m.LedgerID, m.Amount, m.PaymentMethod, m.RecipientID, m.RecipientName,
		m.ReferenceNumber, m.IdempotencyKey, m.Status, m.Date,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reference number %q already used on ledger %s", apperrors.ErrDuplicate, m.ReferenceNumber, m.LedgerID)
		}
		return fmt.Errorf("failed to insert payout %s: %w", m.PayoutID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: idempotency key %q already used on ledger %s", apperrors.ErrDuplicate, m.IdempotencyKey, m.LedgerID)
	}

	return r.Commit(ctx, tx)
}

// CompletePayout performs the pending -> completed transition. The balance is
// re-validated in the debit's WHERE clause because expenses may have landed
// since creation; a failed guard rolls back the status flip too.
func (r *PgxLedgerRepository) CompletePayout(ctx context.Context, ledgerID, payoutID string, updatedBy string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	completeQuery := `
		UPDATE owner_payouts
		SET status = 'COMPLETED', last_updated_at = $3, last_updated_by = $4
		WHERE payout_id = $1 AND ledger_id = $2 AND status = 'PENDING'
		RETURNING amount;
	`
	var m models.OwnerPayout
	err = tx.QueryRow(ctx, completeQuery, payoutID, ledgerID, now, updatedBy).Scan(&m.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: payout %s is not pending", apperrors.ErrConflict, payoutID)
		}
		return fmt.Errorf("failed to complete payout %s: %w", payoutID, err)
	}

	debitQuery := `
		UPDATE ledger_accounts
		SET running_balance = running_balance - $2, total_owner_payouts = total_owner_payouts + $2,
			version = version + 1, last_updated_at = $3, last_updated_by = $4
		WHERE ledger_id = $1 AND running_balance >= $2;
	`
	tag, err := tx.Exec(ctx, debitQuery, ledgerID, m.Amount, now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to debit ledger %s: %w", ledgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger %s balance below %s", apperrors.ErrInsufficientBalance, ledgerID, m.Amount.String())
	}

	return r.Commit(ctx, tx)
}

// SetPayoutStatus transitions a pending payout to failed or cancelled.
func (r *PgxLedgerRepository) SetPayoutStatus(ctx context.Context, payoutID string, status domain.PayoutStatus, updatedBy string, now time.Time) error {
	query := `
		UPDATE owner_payouts
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE payout_id = $1 AND status = 'PENDING';
	`
	tag, err := r.Pool.Exec(ctx, query, payoutID, string(status), now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to set status on payout %s: %w", payoutID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payout %s is not pending", apperrors.ErrConflict, payoutID)
	}
	return nil
}

// ReassignPayouts moves payouts onto another ledger account.
func (r *PgxLedgerRepository) ReassignPayouts(ctx context.Context, payoutIDs []string, targetLedgerID string, updatedBy string, now time.Time) error {
	if len(payoutIDs) == 0 {
		return nil
	}
	query := `
		UPDATE owner_payouts
		SET ledger_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE payout_id = ANY($1);
	`
	_, err := r.Pool.Exec(ctx, query, payoutIDs, targetLedgerID, now, updatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payout key collision on ledger %s", apperrors.ErrDuplicate, targetLedgerID)
		}
		return fmt.Errorf("failed to reassign payouts to ledger %s: %w", targetLedgerID, err)
	}
	return nil
}

// FindPayoutByID retrieves one payout.
func (r *PgxLedgerRepository) FindPayoutByID(ctx context.Context, payoutID string) (*domain.OwnerPayout, error) {
	query := `SELECT ` + payoutColumns + ` FROM owner_payouts WHERE payout_id = $1;`
	payout, err := scanPayoutRow(r.Pool.QueryRow(ctx, query, payoutID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find payout %s: %w", payoutID, err)
	}
	return payout, nil
}

// FindPayoutsByLedger retrieves all payouts of an account.
func (r *PgxLedgerRepository) FindPayoutsByLedger(ctx context.Context, ledgerID string) ([]domain.OwnerPayout, error) {
	query := `SELECT ` + payoutColumns + ` FROM owner_payouts WHERE ledger_id = $1 ORDER BY date ASC, created_at ASC;`
	rows, err := r.Pool.Query(ctx, query, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	var payouts []domain.OwnerPayout
	for rows.Next() {
		payout, err := scanPayoutRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout row: %w", err)
		}
		payouts = append(payouts, *payout)
	}
	return payouts, rows.Err()
}

// ListPayouts retrieves a token-paginated payout history, newest first.
func (r *PgxLedgerRepository) ListPayouts(ctx context.Context, ledgerID string, limit int, nextToken *string) ([]domain.OwnerPayout, *string, error) {
	query := `SELECT ` + payoutColumns + ` FROM owner_payouts WHERE ledger_id = $1`
	args := []any{ledgerID}

	if nextToken != nil && *nextToken != "" {
		tokenDate, tokenCreated, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, tokenDate, tokenCreated)
		query += fmt.Sprintf(" AND (date, created_at) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY date DESC, created_at DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list payouts for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	var payouts []domain.OwnerPayout
	for rows.Next() {
		payout, err := scanPayoutRow(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan payout row: %w", err)
		}
		payouts = append(payouts, *payout)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var token *string
	if len(payouts) > limit {
		payouts = payouts[:limit]
		last := payouts[limit-1]
		t := pagination.EncodeToken(last.Date, last.CreatedAt)
		token = &t
	}
	return payouts, token, nil
}
