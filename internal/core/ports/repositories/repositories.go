package repositories

// RepositoryProvider bundles the concrete repositories handed to the service
// container. The operational store backs everything except ShadowRepo, which
// lives in the accounting store.
type RepositoryProvider struct {
	LedgerRepo      LedgerRepositoryFacade
	PaymentRepo     PaymentRepository
	PropertyRepo    PropertyReader
	UserRepo        UserReader
	LedgerEventRepo LedgerEventRepository
	JobRepo         MaintenanceJobRepository
	SyncFailureRepo SyncFailureRepository
	ShadowRepo      ShadowRepository
}
