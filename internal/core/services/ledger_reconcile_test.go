package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/core/services"
)

type LedgerReconcileTestSuite struct {
	suite.Suite
	mockLedgerRepo   *MockLedgerRepository
	mockPaymentRepo  *MockPaymentRepository
	mockPropertyRepo *MockPropertyRepository
	service          *services.LedgerService
}

func (suite *LedgerReconcileTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockPropertyRepo = new(MockPropertyRepository)
	suite.service = services.NewLedgerService(suite.mockLedgerRepo, suite.mockPaymentRepo, suite.mockPropertyRepo)
}

func paymentRef(id string) *string {
	return &id
}

func (suite *LedgerReconcileTestSuite) TestRemoveDuplicateTransactions_KeepsEarliest() {
	ctx := context.Background()
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	dupA := domain.Transaction{
		TransactionID: "txn-early", LedgerID: "ledger-1",
		Type: domain.TransactionTypeIncome, Status: domain.TransactionStatusCompleted,
		Amount: decimal.NewFromInt(800), PaymentID: paymentRef("pay-1"),
		AuditFields: domain.AuditFields{CreatedAt: early},
	}
	dupB := dupA
	dupB.TransactionID = "txn-late"
	dupB.AuditFields.CreatedAt = late
	unique := domain.Transaction{
		TransactionID: "txn-other", LedgerID: "ledger-1",
		Type: domain.TransactionTypeExpense, Status: domain.TransactionStatusCompleted,
		Amount: decimal.NewFromInt(100), ReferenceNumber: "INV-1",
		AuditFields: domain.AuditFields{CreatedAt: early},
	}

	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-1").Return([]domain.Transaction{dupA, dupB, unique}, nil).Once()
	suite.mockLedgerRepo.On("DeleteTransactions", ctx, []string{"txn-late"}).Return(nil).Once()
	// Balance recalculation after the prune.
	suite.mockLedgerRepo.On("FindLedgerByID", ctx, "ledger-1").Return(&domain.LedgerAccount{LedgerID: "ledger-1"}, nil)
	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-1").Return([]domain.Transaction{dupA, unique}, nil).Once()
	suite.mockLedgerRepo.On("FindPayoutsByLedger", ctx, "ledger-1").Return([]domain.OwnerPayout{}, nil).Once()
	suite.mockLedgerRepo.On("ApplyTotals", ctx, "ledger-1", mock.MatchedBy(func(t domain.LedgerTotals) bool {
		return t.TotalIncome.Equal(decimal.NewFromInt(800)) && t.TotalExpenses.Equal(decimal.NewFromInt(100))
	}), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	removed, err := suite.service.RemoveDuplicateTransactions(ctx, "ledger-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(1, removed)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerReconcileTestSuite) TestRemoveDuplicateTransactions_NoDuplicates() {
	ctx := context.Background()
	transactions := []domain.Transaction{
		{TransactionID: "t1", Status: domain.TransactionStatusCompleted, Type: domain.TransactionTypeIncome, Amount: decimal.NewFromInt(10), PaymentID: paymentRef("pay-1")},
		{TransactionID: "t2", Status: domain.TransactionStatusCompleted, Type: domain.TransactionTypeIncome, Amount: decimal.NewFromInt(10), PaymentID: paymentRef("pay-2")},
	}

	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-1").Return(transactions, nil).Once()

	removed, err := suite.service.RemoveDuplicateTransactions(ctx, "ledger-1", "user-1")

	suite.Require().NoError(err)
	suite.Zero(removed)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "DeleteTransactions", mock.Anything, mock.Anything)
}

func (suite *LedgerReconcileTestSuite) TestMigrateLegacyLedgerTypes_AdoptsPropertyType() {
	ctx := context.Background()
	ledgers := []domain.LedgerAccount{
		{LedgerID: "ledger-typed", PropertyID: "prop-1", LedgerType: domain.LedgerTypeRental},
		{LedgerID: "ledger-legacy", PropertyID: "prop-2", LedgerType: ""},
	}
	property := &domain.Property{PropertyID: "prop-2", CompanyID: "company-1", Type: domain.PropertyTypeSale}
	rental := &domain.Property{PropertyID: "prop-1", CompanyID: "company-1", Type: domain.PropertyTypeRental}

	suite.mockLedgerRepo.On("ListActiveLedgersByCompany", ctx, "company-1").Return(ledgers, nil).Once()
	suite.mockPropertyRepo.On("FindPropertyByID", ctx, "prop-1").Return(rental, nil).Once()
	suite.mockPropertyRepo.On("FindPropertyByID", ctx, "prop-2").Return(property, nil).Once()
	suite.mockLedgerRepo.On("AdoptLegacyLedger", ctx, "ledger-legacy", domain.LedgerTypeSale, "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	migrated, err := suite.service.MigrateLegacyLedgerTypes(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(1, migrated)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SetLedgerType", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerReconcileTestSuite) TestMigrateLegacyLedgerTypes_FlipsMistypedRentalToSale() {
	ctx := context.Background()
	ledgers := []domain.LedgerAccount{
		{LedgerID: "ledger-mistyped", PropertyID: "dev-1", LedgerType: domain.LedgerTypeRental},
		{LedgerID: "ledger-sale", PropertyID: "dev-2", LedgerType: domain.LedgerTypeSale},
	}
	development := &domain.Development{DevelopmentID: "dev-1", CompanyID: "company-1", OwnerID: "owner-9", OwnerName: "Harbour Estates"}

	suite.mockLedgerRepo.On("ListActiveLedgersByCompany", ctx, "company-1").Return(ledgers, nil).Once()
	suite.mockPropertyRepo.On("FindPropertyByID", ctx, "dev-1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockPropertyRepo.On("FindDevelopmentByID", ctx, "dev-1").Return(development, nil).Once()
	suite.mockLedgerRepo.On("SetLedgerType", ctx, "ledger-mistyped", domain.LedgerTypeRental, domain.LedgerTypeSale, "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	migrated, err := suite.service.MigrateLegacyLedgerTypes(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(1, migrated)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AdoptLegacyLedger", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerReconcileTestSuite) TestMigrateLegacyLedgerTypes_SkipsConflicts() {
	ctx := context.Background()
	ledgers := []domain.LedgerAccount{
		{LedgerID: "ledger-legacy", PropertyID: "prop-1", LedgerType: ""},
	}
	property := &domain.Property{PropertyID: "prop-1", CompanyID: "company-1", Type: domain.PropertyTypeRental}

	suite.mockLedgerRepo.On("ListActiveLedgersByCompany", ctx, "company-1").Return(ledgers, nil).Once()
	suite.mockPropertyRepo.On("FindPropertyByID", ctx, "prop-1").Return(property, nil).Once()
	suite.mockLedgerRepo.On("AdoptLegacyLedger", ctx, "ledger-legacy", domain.LedgerTypeRental, "user-1", mock.AnythingOfType("time.Time")).Return(apperrors.ErrConflict).Once()

	migrated, err := suite.service.MigrateLegacyLedgerTypes(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Zero(migrated)
}

func (suite *LedgerReconcileTestSuite) TestMigrateLegacyLedgerTypes_SkipsMissingEntity() {
	ctx := context.Background()
	ledgers := []domain.LedgerAccount{
		{LedgerID: "ledger-legacy", PropertyID: "ghost-1", LedgerType: ""},
	}

	suite.mockLedgerRepo.On("ListActiveLedgersByCompany", ctx, "company-1").Return(ledgers, nil).Once()
	suite.mockPropertyRepo.On("FindPropertyByID", ctx, "ghost-1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockPropertyRepo.On("FindDevelopmentByID", ctx, "ghost-1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockPropertyRepo.On("FindUnitByID", ctx, "ghost-1").Return(nil, apperrors.ErrNotFound).Once()

	migrated, err := suite.service.MigrateLegacyLedgerTypes(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Zero(migrated)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AdoptLegacyLedger", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerReconcileTestSuite) TestMergeDuplicateLedgers_ArchivesLoserAndDropsCopies() {
	ctx := context.Background()
	keeper := domain.LedgerAccount{LedgerID: "ledger-keep", PropertyID: "prop-1", LedgerType: domain.LedgerTypeRental, CompanyID: "company-1"}
	loser := domain.LedgerAccount{LedgerID: "ledger-lose", PropertyID: "prop-1", LedgerType: domain.LedgerTypeRental, CompanyID: "company-1"}

	keeperTxns := []domain.Transaction{
		{TransactionID: "k1", LedgerID: "ledger-keep", Type: domain.TransactionTypeIncome, Status: domain.TransactionStatusCompleted, Amount: decimal.NewFromInt(800), PaymentID: paymentRef("pay-1"), IdempotencyKey: "payment:pay-1"},
		{TransactionID: "k2", LedgerID: "ledger-keep", Type: domain.TransactionTypeIncome, Status: domain.TransactionStatusCompleted, Amount: decimal.NewFromInt(800), PaymentID: paymentRef("pay-2"), IdempotencyKey: "payment:pay-2"},
	}
	loserTxns := []domain.Transaction{
		{TransactionID: "l1", LedgerID: "ledger-lose", Type: domain.TransactionTypeIncome, Status: domain.TransactionStatusCompleted, Amount: decimal.NewFromInt(800), PaymentID: paymentRef("pay-1"), IdempotencyKey: "payment:pay-1"},
	}

	suite.mockLedgerRepo.On("ListActiveLedgersByCompany", ctx, "company-1").Return([]domain.LedgerAccount{keeper, loser}, nil).Once()
	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-keep").Return(keeperTxns, nil)
	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-lose").Return(loserTxns, nil)
	suite.mockLedgerRepo.On("FindPayoutsByLedger", ctx, "ledger-keep").Return([]domain.OwnerPayout{}, nil)
	suite.mockLedgerRepo.On("FindPayoutsByLedger", ctx, "ledger-lose").Return([]domain.OwnerPayout{}, nil)
	suite.mockLedgerRepo.On("DeleteTransactions", ctx, []string{"l1"}).Return(nil).Once()
	suite.mockLedgerRepo.On("ArchiveLedger", ctx, "ledger-lose", "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockLedgerRepo.On("FindLedgerByID", ctx, "ledger-keep").Return(&keeper, nil)
	suite.mockLedgerRepo.On("ApplyTotals", ctx, "ledger-keep", mock.AnythingOfType("domain.LedgerTotals"), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	archived, err := suite.service.MergeDuplicateLedgers(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(1, archived)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "ReassignTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerReconcileTestSuite) TestMergeDuplicateLedgers_LegacyLedgerKeepsIdentity() {
	ctx := context.Background()
	legacy := domain.LedgerAccount{LedgerID: "ledger-legacy", PropertyID: "prop-1", LedgerType: "", CompanyID: "company-1"}
	typed := domain.LedgerAccount{LedgerID: "ledger-typed", PropertyID: "prop-1", LedgerType: domain.LedgerTypeRental, CompanyID: "company-1"}

	typedTxns := []domain.Transaction{
		{TransactionID: "t1", LedgerID: "ledger-typed", Type: domain.TransactionTypeExpense, Status: domain.TransactionStatusCompleted, Amount: decimal.NewFromInt(50), ReferenceNumber: "INV-7"},
	}

	suite.mockLedgerRepo.On("ListActiveLedgersByCompany", ctx, "company-1").Return([]domain.LedgerAccount{typed, legacy}, nil).Once()
	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-legacy").Return([]domain.Transaction{}, nil)
	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-typed").Return(typedTxns, nil)
	suite.mockLedgerRepo.On("FindPayoutsByLedger", ctx, "ledger-legacy").Return([]domain.OwnerPayout{}, nil)
	suite.mockLedgerRepo.On("FindPayoutsByLedger", ctx, "ledger-typed").Return([]domain.OwnerPayout{}, nil)
	suite.mockLedgerRepo.On("AdoptLegacyLedger", ctx, "ledger-legacy", domain.LedgerTypeRental, "system", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockLedgerRepo.On("ReassignTransactions", ctx, []string{"t1"}, "ledger-legacy", "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockLedgerRepo.On("ArchiveLedger", ctx, "ledger-typed", "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockLedgerRepo.On("FindLedgerByID", ctx, "ledger-legacy").Return(&legacy, nil)
	suite.mockLedgerRepo.On("ApplyTotals", ctx, "ledger-legacy", mock.AnythingOfType("domain.LedgerTotals"), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	archived, err := suite.service.MergeDuplicateLedgers(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(1, archived)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerReconcileTestSuite) TestMergeDuplicateLedgers_TieBreaksOnMostRecentUpdate() {
	ctx := context.Background()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	stale := domain.LedgerAccount{LedgerID: "ledger-stale", PropertyID: "prop-1", LedgerType: domain.LedgerTypeRental, CompanyID: "company-1"}
	stale.LastUpdatedAt = older
	fresh := domain.LedgerAccount{LedgerID: "ledger-fresh", PropertyID: "prop-1", LedgerType: domain.LedgerTypeRental, CompanyID: "company-1"}
	fresh.LastUpdatedAt = newer

	suite.mockLedgerRepo.On("ListActiveLedgersByCompany", ctx, "company-1").Return([]domain.LedgerAccount{stale, fresh}, nil).Once()
	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-stale").Return([]domain.Transaction{}, nil)
	suite.mockLedgerRepo.On("FindTransactionsByLedger", ctx, "ledger-fresh").Return([]domain.Transaction{}, nil)
	suite.mockLedgerRepo.On("FindPayoutsByLedger", ctx, "ledger-stale").Return([]domain.OwnerPayout{}, nil)
	suite.mockLedgerRepo.On("FindPayoutsByLedger", ctx, "ledger-fresh").Return([]domain.OwnerPayout{}, nil)
	suite.mockLedgerRepo.On("ArchiveLedger", ctx, "ledger-stale", "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockLedgerRepo.On("FindLedgerByID", ctx, "ledger-fresh").Return(&fresh, nil)
	suite.mockLedgerRepo.On("ApplyTotals", ctx, "ledger-fresh", mock.AnythingOfType("domain.LedgerTotals"), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	archived, err := suite.service.MergeDuplicateLedgers(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(1, archived)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "ArchiveLedger", ctx, "ledger-fresh", mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerReconcileTestSuite) TestSyncPropertyAccounts_ReportsCounts() {
	ctx := context.Background()
	depositOnly := domain.Payment{
		PaymentID:     "pay-1",
		CompanyID:     "company-1",
		Status:        domain.PaymentStatusCompleted,
		Amount:        decimal.NewFromInt(500),
		DepositAmount: decimal.NewFromInt(500),
	}

	suite.mockLedgerRepo.On("ListActiveLedgersByCompany", ctx, "company-1").Return([]domain.LedgerAccount{}, nil)
	suite.mockPaymentRepo.On("ListCompletedPaymentsByCompany", ctx, "company-1").Return([]domain.Payment{depositOnly}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(&depositOnly, nil).Once()

	result, err := suite.service.SyncPropertyAccounts(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(0, result["typesMigrated"])
	suite.Equal(0, result["ledgersMerged"])
	suite.Equal(1, result["paymentsScanned"])
	suite.Equal(0, result["incomePosted"])
	suite.Equal(1, result["paymentsSkipped"])
	suite.Equal(0, result["failures"])
}

func (suite *LedgerReconcileTestSuite) TestEnsureDevelopmentLedgers_CreatesMissing() {
	ctx := context.Background()
	developments := []domain.Development{
		{DevelopmentID: "dev-1", CompanyID: "company-1", OwnerID: "owner-9", OwnerName: "Harbour Estates"},
		{DevelopmentID: "dev-2", CompanyID: "company-1", IsDeleted: true},
	}

	suite.mockPropertyRepo.On("ListDevelopmentsByCompany", ctx, "company-1").Return(developments, nil).Once()
	suite.mockLedgerRepo.On("FindActiveLedger", ctx, "dev-1", domain.LedgerTypeSale).Return(nil, apperrors.ErrNotFound).Twice()
	suite.mockLedgerRepo.On("SaveLedger", ctx, mock.MatchedBy(func(l domain.LedgerAccount) bool {
		return l.PropertyID == "dev-1" && l.LedgerType == domain.LedgerTypeSale && l.OwnerID == "owner-9"
	})).Return(nil).Once()
	suite.mockPaymentRepo.On("ListCompletedPaymentsByDevelopment", ctx, "dev-1").Return([]domain.Payment{}, nil).Once()

	result, err := suite.service.EnsureDevelopmentLedgers(ctx, "company-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(2, result["developmentsScanned"])
	suite.Equal(1, result["ledgersCreated"])
	suite.Equal(0, result["paymentsBackfilled"])
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func TestLedgerReconcileTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerReconcileTestSuite))
}
