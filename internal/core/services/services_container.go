package services

import (
	"log/slog"

	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies. notifyFeed may be nil for deployments that only
// support the polling change feed.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	notifyFeed portsrepo.ChangeFeed,
	pollFeed portsrepo.ChangeFeed,
	logger *slog.Logger,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The ledger service carries posting and reconciliation, so it comes
	// first; both queues dispatch into it.
	container.Ledger = NewLedgerService(
		repos.LedgerRepo,
		repos.PaymentRepo,
		repos.PropertyRepo,
	)

	container.LedgerEvent = NewLedgerEventService(
		cfg,
		repos.LedgerEventRepo,
		container.Ledger,
		logger.With(slog.String("component", "ledger_events")),
	)

	container.Maintenance = NewMaintenanceService(
		cfg,
		repos.JobRepo,
		container.Ledger,
		logger.With(slog.String("component", "maintenance")),
	)

	container.Sync = NewSyncService(
		cfg,
		repos.PaymentRepo,
		repos.PropertyRepo,
		repos.UserRepo,
		repos.SyncFailureRepo,
		repos.ShadowRepo,
		container.LedgerEvent,
		notifyFeed,
		pollFeed,
		logger.With(slog.String("component", "sync")),
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.LedgerSvcFacade      = (*LedgerService)(nil)
	_ portssvc.LedgerEventSvcFacade = (*LedgerEventService)(nil)
	_ portssvc.MaintenanceSvcFacade = (*MaintenanceService)(nil)
	_ portssvc.SyncSvcFacade        = (*SyncService)(nil)
)
