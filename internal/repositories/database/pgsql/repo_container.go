package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every repository over its backing pool. The
// shadow repository is the only one bound to the accounting database; all
// other repositories run against the operational database.
func NewRepositoryProvider(operational *pgxpool.Pool, accounting *pgxpool.Pool) portsrepo.RepositoryProvider {
	ledgerRepo := newPgxLedgerRepository(operational)
	paymentRepo := newPgxPaymentRepository(operational)
	propertyRepo := newPgxPropertyRepository(operational)
	userRepo := newPgxUserRepository(operational)
	ledgerEventRepo := newPgxLedgerEventRepository(operational)
	jobRepo := newPgxMaintenanceJobRepository(operational)
	syncFailureRepo := newPgxSyncFailureRepository(operational)
	shadowRepo := NewPgxShadowRepository(accounting)

	return portsrepo.RepositoryProvider{
		LedgerRepo:      ledgerRepo,
		PaymentRepo:     paymentRepo,
		PropertyRepo:    propertyRepo,
		UserRepo:        userRepo,
		LedgerEventRepo: ledgerEventRepo,
		JobRepo:         jobRepo,
		SyncFailureRepo: syncFailureRepo,
		ShadowRepo:      shadowRepo,
	}
}
