package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
)

// MockLedgerRepository is a mock type for the LedgerRepositoryFacade interface
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindLedgerByID(ctx context.Context, ledgerID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockLedgerRepository) FindActiveLedger(ctx context.Context, propertyID string, ledgerType domain.LedgerType) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, propertyID, ledgerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockLedgerRepository) FindActiveLegacyLedger(ctx context.Context, propertyID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}

func (m *MockLedgerRepository) ListActiveLedgersByCompany(ctx context.Context, companyID string) ([]domain.LedgerAccount, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerAccount), args.Error(1)
}

func (m *MockLedgerRepository) SaveLedger(ctx context.Context, ledger domain.LedgerAccount) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *MockLedgerRepository) AdoptLegacyLedger(ctx context.Context, ledgerID string, ledgerType domain.LedgerType, updatedBy string, now time.Time) error {
	args := m.Called(ctx, ledgerID, ledgerType, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) SetLedgerType(ctx context.Context, ledgerID string, from, to domain.LedgerType, updatedBy string, now time.Time) error {
	args := m.Called(ctx, ledgerID, from, to, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) ArchiveLedger(ctx context.Context, ledgerID string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, ledgerID, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) UpdateLedgerOwner(ctx context.Context, ledgerID, ownerID, ownerName string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, ledgerID, ownerID, ownerName, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) ApplyTotals(ctx context.Context, ledgerID string, totals domain.LedgerTotals, updatedBy string, now time.Time) error {
	args := m.Called(ctx, ledgerID, totals, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, ledgerID, key string) (*domain.Transaction, error) {
	args := m.Called(ctx, ledgerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionsByLedger(ctx context.Context, ledgerID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindCompletedIncomeByPaymentIDs(ctx context.Context, paymentIDs []string) ([]domain.Transaction, error) {
	args := m.Called(ctx, paymentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, ledgerID string, filter portsrepo.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, ledgerID, filter, limit, nextToken)
	var txns []domain.Transaction
	if args.Get(0) != nil {
		txns = args.Get(0).([]domain.Transaction)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return txns, token, args.Error(2)
}

func (m *MockLedgerRepository) AppendIncome(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerRepository) AppendExpense(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerRepository) CancelTransaction(ctx context.Context, transactionID string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, transactionID, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) ReassignTransactions(ctx context.Context, transactionIDs []string, targetLedgerID string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, transactionIDs, targetLedgerID, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeleteTransactions(ctx context.Context, transactionIDs []string) error {
	args := m.Called(ctx, transactionIDs)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindPayoutByID(ctx context.Context, payoutID string) (*domain.OwnerPayout, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OwnerPayout), args.Error(1)
}

func (m *MockLedgerRepository) FindPayoutsByLedger(ctx context.Context, ledgerID string) ([]domain.OwnerPayout, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OwnerPayout), args.Error(1)
}

func (m *MockLedgerRepository) ListPayouts(ctx context.Context, ledgerID string, limit int, nextToken *string) ([]domain.OwnerPayout, *string, error) {
	args := m.Called(ctx, ledgerID, limit, nextToken)
	var payouts []domain.OwnerPayout
	if args.Get(0) != nil {
		payouts = args.Get(0).([]domain.OwnerPayout)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return payouts, token, args.Error(2)
}

func (m *MockLedgerRepository) CreatePayout(ctx context.Context, payout domain.OwnerPayout) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}

func (m *MockLedgerRepository) CompletePayout(ctx context.Context, ledgerID, payoutID string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, ledgerID, payoutID, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) SetPayoutStatus(ctx context.Context, payoutID string, status domain.PayoutStatus, updatedBy string, now time.Time) error {
	args := m.Called(ctx, payoutID, status, updatedBy, now)
	return args.Error(0)
}

func (m *MockLedgerRepository) ReassignPayouts(ctx context.Context, payoutIDs []string, targetLedgerID string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, payoutIDs, targetLedgerID, updatedBy, now)
	return args.Error(0)
}

// MockPaymentRepository is a mock type for the PaymentRepository interface
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListCompletedPaymentsByCompany(ctx context.Context, companyID string) ([]domain.Payment, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListCompletedPaymentsByDevelopment(ctx context.Context, developmentID string) ([]domain.Payment, error) {
	args := m.Called(ctx, developmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListPaymentsModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.Payment, error) {
	args := m.Called(ctx, since, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkPaymentInSuspense(ctx context.Context, paymentID, reason string, now time.Time) error {
	args := m.Called(ctx, paymentID, reason, now)
	return args.Error(0)
}

// MockPropertyRepository is a mock type for the PropertyReader interface
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) FindPropertyByID(ctx context.Context, propertyID string) (*domain.Property, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindDevelopmentByID(ctx context.Context, developmentID string) (*domain.Development, error) {
	args := m.Called(ctx, developmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Development), args.Error(1)
}

func (m *MockPropertyRepository) FindUnitByID(ctx context.Context, unitID string) (*domain.DevelopmentUnit, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DevelopmentUnit), args.Error(1)
}

func (m *MockPropertyRepository) ListDevelopmentsByCompany(ctx context.Context, companyID string) ([]domain.Development, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Development), args.Error(1)
}

func (m *MockPropertyRepository) ListPropertiesModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.Property, error) {
	args := m.Called(ctx, since, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Property), args.Error(1)
}

// MockUserRepository is a mock type for the UserReader interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsersModifiedSince(ctx context.Context, since time.Time, afterID string, limit int) ([]domain.User, error) {
	args := m.Called(ctx, since, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockLedgerEventRepository is a mock type for the LedgerEventRepository interface
type MockLedgerEventRepository struct {
	mock.Mock
}

func (m *MockLedgerEventRepository) EnqueueIfAbsent(ctx context.Context, event domain.LedgerEvent) (*domain.LedgerEvent, bool, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.LedgerEvent), args.Bool(1), args.Error(2)
}

func (m *MockLedgerEventRepository) FindDueEvents(ctx context.Context, now time.Time, limit int) ([]domain.LedgerEvent, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEvent), args.Error(1)
}

func (m *MockLedgerEventRepository) ClaimEvent(ctx context.Context, eventID string, now time.Time) error {
	args := m.Called(ctx, eventID, now)
	return args.Error(0)
}

func (m *MockLedgerEventRepository) MarkCompleted(ctx context.Context, eventID string, now time.Time) error {
	args := m.Called(ctx, eventID, now)
	return args.Error(0)
}

func (m *MockLedgerEventRepository) MarkFailed(ctx context.Context, eventID string, attemptCount int, nextAttemptAt time.Time, lastError string, now time.Time) error {
	args := m.Called(ctx, eventID, attemptCount, nextAttemptAt, lastError, now)
	return args.Error(0)
}

func (m *MockLedgerEventRepository) FindEventByID(ctx context.Context, eventID string) (*domain.LedgerEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEvent), args.Error(1)
}

// MockMaintenanceJobRepository is a mock type for the MaintenanceJobRepository interface
type MockMaintenanceJobRepository struct {
	mock.Mock
}

func (m *MockMaintenanceJobRepository) FindActiveJob(ctx context.Context, operation domain.MaintenanceOperation, companyID string) (*domain.MaintenanceJob, error) {
	args := m.Called(ctx, operation, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MaintenanceJob), args.Error(1)
}

func (m *MockMaintenanceJobRepository) InsertJob(ctx context.Context, job domain.MaintenanceJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockMaintenanceJobRepository) RequeueExpiredLeases(ctx context.Context, now time.Time, grace time.Duration) (int, error) {
	args := m.Called(ctx, now, grace)
	return args.Int(0), args.Error(1)
}

func (m *MockMaintenanceJobRepository) ClaimNextJob(ctx context.Context, workerID string, now time.Time, lease time.Duration) (*domain.MaintenanceJob, error) {
	args := m.Called(ctx, workerID, now, lease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MaintenanceJob), args.Error(1)
}

func (m *MockMaintenanceJobRepository) CompleteJob(ctx context.Context, jobID string, result map[string]any, now time.Time) error {
	args := m.Called(ctx, jobID, result, now)
	return args.Error(0)
}

func (m *MockMaintenanceJobRepository) RetryJob(ctx context.Context, jobID string, runAfter time.Time, lastError string, now time.Time) error {
	args := m.Called(ctx, jobID, runAfter, lastError, now)
	return args.Error(0)
}

func (m *MockMaintenanceJobRepository) FailJob(ctx context.Context, jobID string, lastError string, now time.Time) error {
	args := m.Called(ctx, jobID, lastError, now)
	return args.Error(0)
}

func (m *MockMaintenanceJobRepository) FindJobByID(ctx context.Context, jobID string) (*domain.MaintenanceJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MaintenanceJob), args.Error(1)
}

// MockSyncFailureRepository is a mock type for the SyncFailureRepository interface
type MockSyncFailureRepository struct {
	mock.Mock
}

func (m *MockSyncFailureRepository) UpsertFailure(ctx context.Context, failure domain.SyncFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}

func (m *MockSyncFailureRepository) DeleteFailure(ctx context.Context, entityType domain.SyncEntityType, documentID string) error {
	args := m.Called(ctx, entityType, documentID)
	return args.Error(0)
}

func (m *MockSyncFailureRepository) MarkResolved(ctx context.Context, entityType domain.SyncEntityType, documentID string, now time.Time) error {
	args := m.Called(ctx, entityType, documentID, now)
	return args.Error(0)
}

func (m *MockSyncFailureRepository) MarkDiscarded(ctx context.Context, entityType domain.SyncEntityType, documentID string, now time.Time) error {
	args := m.Called(ctx, entityType, documentID, now)
	return args.Error(0)
}

func (m *MockSyncFailureRepository) FindFailure(ctx context.Context, entityType domain.SyncEntityType, documentID string) (*domain.SyncFailure, error) {
	args := m.Called(ctx, entityType, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncFailure), args.Error(1)
}

func (m *MockSyncFailureRepository) FindDueFailures(ctx context.Context, now time.Time, limit int) ([]domain.SyncFailure, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyncFailure), args.Error(1)
}

func (m *MockSyncFailureRepository) ListFailures(ctx context.Context, status domain.SyncFailureStatus, limit int) ([]domain.SyncFailure, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyncFailure), args.Error(1)
}

func (m *MockSyncFailureRepository) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

// MockShadowRepository is a mock type for the ShadowRepository interface
type MockShadowRepository struct {
	mock.Mock
}

func (m *MockShadowRepository) UpsertPayment(ctx context.Context, shadow domain.ShadowPayment) error {
	args := m.Called(ctx, shadow)
	return args.Error(0)
}

func (m *MockShadowRepository) DeletePayment(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func (m *MockShadowRepository) PaymentExists(ctx context.Context, paymentID string) (bool, error) {
	args := m.Called(ctx, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShadowRepository) UpsertProperty(ctx context.Context, shadow domain.ShadowProperty) error {
	args := m.Called(ctx, shadow)
	return args.Error(0)
}

func (m *MockShadowRepository) DeleteProperty(ctx context.Context, propertyID string) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

func (m *MockShadowRepository) PropertyExists(ctx context.Context, propertyID string) (bool, error) {
	args := m.Called(ctx, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShadowRepository) UpsertContact(ctx context.Context, shadow domain.ShadowContact) error {
	args := m.Called(ctx, shadow)
	return args.Error(0)
}

func (m *MockShadowRepository) DeleteContact(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockShadowRepository) ContactExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShadowRepository) UpsertCommissionRevenue(ctx context.Context, paymentID, companyID string, amount decimal.Decimal, paymentDate time.Time, now time.Time) error {
	args := m.Called(ctx, paymentID, companyID, amount, paymentDate, now)
	return args.Error(0)
}

func (m *MockShadowRepository) DeleteCommissionRevenue(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func (m *MockShadowRepository) ListShadowPaymentIDsSince(ctx context.Context, since time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockShadowRepository) ListShadowPropertyIDsSince(ctx context.Context, since time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockShadowRepository) ListDanglingOwnerRefs(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockShadowRepository) ClearOwnerRef(ctx context.Context, propertyID string) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

// MockChangeFeed is a mock type for the ChangeFeed interface
type MockChangeFeed struct {
	mock.Mock
}

func (m *MockChangeFeed) Start(ctx context.Context, handler func(context.Context, domain.ChangeEvent)) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

func (m *MockChangeFeed) Stop() {
	m.Called()
}

func (m *MockChangeFeed) Mode() string {
	args := m.Called()
	return args.String(0)
}

// MockOwnerIncomeEnqueuer is a mock type for the OwnerIncomeEnqueuer interface
type MockOwnerIncomeEnqueuer struct {
	mock.Mock
}

func (m *MockOwnerIncomeEnqueuer) EnqueueOwnerIncome(ctx context.Context, paymentID string) (*domain.LedgerEvent, bool, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.LedgerEvent), args.Bool(1), args.Error(2)
}

// MockLedgerPosting is a mock type for the LedgerPostingSvc interface
type MockLedgerPosting struct {
	mock.Mock
}

func (m *MockLedgerPosting) RecordIncomeFromPayment(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerPosting) ReverseIncomeFromPayment(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

// MockLedgerReconcile is a mock type for the LedgerReconcileSvc interface
type MockLedgerReconcile struct {
	mock.Mock
}

func (m *MockLedgerReconcile) SyncPropertyAccounts(ctx context.Context, companyID string, userID string) (map[string]any, error) {
	args := m.Called(ctx, companyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockLedgerReconcile) EnsureDevelopmentLedgers(ctx context.Context, companyID string, userID string) (map[string]any, error) {
	args := m.Called(ctx, companyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockLedgerReconcile) MergeDuplicateLedgers(ctx context.Context, companyID string, userID string) (int, error) {
	args := m.Called(ctx, companyID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerReconcile) MigrateLegacyLedgerTypes(ctx context.Context, companyID string, userID string) (int, error) {
	args := m.Called(ctx, companyID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerReconcile) RemoveDuplicateTransactions(ctx context.Context, ledgerID string, userID string) (int, error) {
	args := m.Called(ctx, ledgerID, userID)
	return args.Int(0), args.Error(1)
}
