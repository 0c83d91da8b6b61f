package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	"github.com/propstack/propstack_backend/internal/core/services"
	"github.com/propstack/propstack_backend/internal/platform/config"
)

type SyncServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo  *MockPaymentRepository
	mockPropertyRepo *MockPropertyRepository
	mockUserRepo     *MockUserRepository
	mockFailureRepo  *MockSyncFailureRepository
	mockShadowRepo   *MockShadowRepository
	mockEvents       *MockOwnerIncomeEnqueuer
	mockNotifyFeed   *MockChangeFeed
	mockPollFeed     *MockChangeFeed
	service          *services.SyncService
}

func (suite *SyncServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockPropertyRepo = new(MockPropertyRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockFailureRepo = new(MockSyncFailureRepository)
	suite.mockShadowRepo = new(MockShadowRepository)
	suite.mockEvents = new(MockOwnerIncomeEnqueuer)
	suite.mockNotifyFeed = new(MockChangeFeed)
	suite.mockPollFeed = new(MockChangeFeed)
	cfg := &config.Config{
		SyncBackoffBase:    time.Minute,
		SyncBackoffCap:     24 * time.Hour,
		SyncDiscardCeiling: 20,
		SyncBatchSize:      200,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.service = services.NewSyncService(
		cfg,
		suite.mockPaymentRepo,
		suite.mockPropertyRepo,
		suite.mockUserRepo,
		suite.mockFailureRepo,
		suite.mockShadowRepo,
		suite.mockEvents,
		suite.mockNotifyFeed,
		suite.mockPollFeed,
		logger,
	)
}

func (suite *SyncServiceTestSuite) completedPayment() *domain.Payment {
	return &domain.Payment{
		PaymentID:     "pay-1",
		CompanyID:     "company-1",
		Status:        domain.PaymentStatusCompleted,
		Amount:        decimal.NewFromInt(1000),
		AgencyAmount:  decimal.NewFromInt(150),
		PaymentDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		LastUpdatedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (suite *SyncServiceTestSuite) paymentEvent() domain.ChangeEvent {
	return domain.ChangeEvent{
		Type:       domain.SyncEntityPayment,
		DocumentID: "pay-1",
		Op:         domain.ChangeOpUpsert,
		ObservedAt: time.Now().UTC(),
	}
}

func (suite *SyncServiceTestSuite) TestHandleChange_MirrorsPaymentWithCommission() {
	ctx := context.Background()
	payment := suite.completedPayment()

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()
	suite.mockShadowRepo.On("UpsertPayment", ctx, mock.MatchedBy(func(s domain.ShadowPayment) bool {
		return s.PaymentID == "pay-1" && s.CompanyID == "company-1" &&
			s.SourceUpdated.Equal(payment.LastUpdatedAt) && len(s.Payload) > 0
	})).Return(nil).Once()
	suite.mockEvents.On("EnqueueOwnerIncome", ctx, "pay-1").Return(&domain.LedgerEvent{EventID: "event-1", PaymentID: "pay-1"}, true, nil).Once()
	suite.mockShadowRepo.On("UpsertCommissionRevenue", ctx, "pay-1", "company-1", decimal.NewFromInt(150), payment.PaymentDate, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", ctx, domain.SyncEntityPayment, "pay-1").Return(nil).Once()

	err := suite.service.HandleChange(ctx, suite.paymentEvent())

	suite.Require().NoError(err)
	suite.mockShadowRepo.AssertExpectations(suite.T())
	suite.mockEvents.AssertExpectations(suite.T())
	suite.mockFailureRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestHandleChange_DeletesMissingPayment() {
	ctx := context.Background()

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockShadowRepo.On("DeletePayment", ctx, "pay-1").Return(nil).Once()
	suite.mockShadowRepo.On("DeleteCommissionRevenue", ctx, "pay-1").Return(nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", ctx, domain.SyncEntityPayment, "pay-1").Return(nil).Once()

	err := suite.service.HandleChange(ctx, suite.paymentEvent())

	suite.Require().NoError(err)
	suite.mockShadowRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestHandleChange_WithdrawsCommissionOnReversal() {
	ctx := context.Background()
	payment := suite.completedPayment()
	payment.Status = domain.PaymentStatusReversed

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()
	suite.mockShadowRepo.On("UpsertPayment", ctx, mock.AnythingOfType("domain.ShadowPayment")).Return(nil).Once()
	suite.mockShadowRepo.On("DeleteCommissionRevenue", ctx, "pay-1").Return(nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", ctx, domain.SyncEntityPayment, "pay-1").Return(nil).Once()

	err := suite.service.HandleChange(ctx, suite.paymentEvent())

	suite.Require().NoError(err)
	suite.mockShadowRepo.AssertNotCalled(suite.T(), "UpsertCommissionRevenue", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockEvents.AssertNotCalled(suite.T(), "EnqueueOwnerIncome", mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestHandleChange_RemovesSoftDeletedProperty() {
	ctx := context.Background()
	property := &domain.Property{PropertyID: "prop-1", CompanyID: "company-1", IsDeleted: true}

	suite.mockPropertyRepo.On("FindPropertyByID", ctx, "prop-1").Return(property, nil).Once()
	suite.mockShadowRepo.On("DeleteProperty", ctx, "prop-1").Return(nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", ctx, domain.SyncEntityProperty, "prop-1").Return(nil).Once()

	err := suite.service.HandleChange(ctx, domain.ChangeEvent{Type: domain.SyncEntityProperty, DocumentID: "prop-1", Op: domain.ChangeOpUpsert})

	suite.Require().NoError(err)
	suite.mockShadowRepo.AssertNotCalled(suite.T(), "UpsertProperty", mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestHandleChange_MirrorsUserAsContact() {
	ctx := context.Background()
	user := &domain.User{UserID: "user-1", CompanyID: "company-1", Name: "Jane Mokoena", LastUpdatedAt: time.Now().UTC()}

	suite.mockUserRepo.On("FindUserByID", ctx, "user-1").Return(user, nil).Once()
	suite.mockShadowRepo.On("UpsertContact", ctx, mock.MatchedBy(func(s domain.ShadowContact) bool {
		return s.UserID == "user-1" && s.CompanyID == "company-1"
	})).Return(nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", ctx, domain.SyncEntityUser, "user-1").Return(nil).Once()

	err := suite.service.HandleChange(ctx, domain.ChangeEvent{Type: domain.SyncEntityUser, DocumentID: "user-1", Op: domain.ChangeOpUpsert})

	suite.Require().NoError(err)
	suite.mockShadowRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestHandleChange_RecordsFirstFailure() {
	ctx := context.Background()
	cause := errors.New("store unavailable")

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(nil, cause).Once()
	suite.mockFailureRepo.On("FindFailure", ctx, domain.SyncEntityPayment, "pay-1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockFailureRepo.On("UpsertFailure", ctx, mock.MatchedBy(func(f domain.SyncFailure) bool {
		return f.Type == domain.SyncEntityPayment &&
			f.DocumentID == "pay-1" &&
			f.AttemptCount == 1 &&
			f.Retriable &&
			f.Status == domain.SyncFailureStatusPending &&
			f.NextAttemptAt.After(time.Now().UTC())
	})).Return(nil).Once()

	err := suite.service.HandleChange(ctx, suite.paymentEvent())

	suite.Require().Error(err)
	suite.mockFailureRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestHandleChange_DiscardsAtAttemptCeiling() {
	ctx := context.Background()
	existing := &domain.SyncFailure{
		FailureID:    "failure-1",
		Type:         domain.SyncEntityPayment,
		DocumentID:   "pay-1",
		AttemptCount: 19,
		Status:       domain.SyncFailureStatusPending,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(nil, errors.New("store unavailable")).Once()
	suite.mockFailureRepo.On("FindFailure", ctx, domain.SyncEntityPayment, "pay-1").Return(existing, nil).Once()
	suite.mockFailureRepo.On("UpsertFailure", ctx, mock.MatchedBy(func(f domain.SyncFailure) bool {
		return f.FailureID == "failure-1" &&
			f.AttemptCount == 20 &&
			f.Status == domain.SyncFailureStatusDiscarded &&
			f.CreatedAt.Equal(existing.CreatedAt)
	})).Return(nil).Once()

	err := suite.service.HandleChange(ctx, suite.paymentEvent())

	suite.Require().Error(err)
	suite.mockFailureRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestHandleChange_DiscardsNonRetriable() {
	ctx := context.Background()

	suite.mockFailureRepo.On("FindFailure", ctx, domain.SyncEntityType("BOGUS"), "doc-1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockFailureRepo.On("UpsertFailure", ctx, mock.MatchedBy(func(f domain.SyncFailure) bool {
		return !f.Retriable && f.Status == domain.SyncFailureStatusDiscarded
	})).Return(nil).Once()

	err := suite.service.HandleChange(ctx, domain.ChangeEvent{Type: "BOGUS", DocumentID: "doc-1"})

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockFailureRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestRetrySyncFor_ResolvesFailure() {
	ctx := context.Background()
	payment := suite.completedPayment()
	payment.AgencyAmount = decimal.Zero

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()
	suite.mockShadowRepo.On("UpsertPayment", ctx, mock.AnythingOfType("domain.ShadowPayment")).Return(nil).Once()
	suite.mockEvents.On("EnqueueOwnerIncome", ctx, "pay-1").Return(nil, false, nil).Once()
	suite.mockFailureRepo.On("MarkResolved", ctx, domain.SyncEntityPayment, "pay-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.RetrySyncFor(ctx, domain.SyncEntityPayment, "pay-1")

	suite.Require().NoError(err)
	suite.mockFailureRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestRetrySyncFor_ToleratesMissingFailureRecord() {
	ctx := context.Background()
	user := &domain.User{UserID: "user-1", CompanyID: "company-1"}

	suite.mockUserRepo.On("FindUserByID", ctx, "user-1").Return(user, nil).Once()
	suite.mockShadowRepo.On("UpsertContact", ctx, mock.AnythingOfType("domain.ShadowContact")).Return(nil).Once()
	suite.mockFailureRepo.On("MarkResolved", ctx, domain.SyncEntityUser, "user-1", mock.AnythingOfType("time.Time")).Return(apperrors.ErrNotFound).Once()

	err := suite.service.RetrySyncFor(ctx, domain.SyncEntityUser, "user-1")

	suite.Require().NoError(err)
}

func (suite *SyncServiceTestSuite) TestReprocessFailures_CountsResolved() {
	ctx := context.Background()
	failures := []domain.SyncFailure{
		{Type: domain.SyncEntityPayment, DocumentID: "pay-1"},
		{Type: domain.SyncEntityPayment, DocumentID: "pay-2"},
	}
	healthy := suite.completedPayment()
	healthy.AgencyAmount = decimal.Zero

	suite.mockFailureRepo.On("FindDueFailures", ctx, mock.AnythingOfType("time.Time"), 200).Return(failures, nil).Once()

	suite.mockPaymentRepo.On("FindPaymentByID", mock.Anything, "pay-1").Return(healthy, nil).Once()
	suite.mockShadowRepo.On("UpsertPayment", mock.Anything, mock.AnythingOfType("domain.ShadowPayment")).Return(nil).Once()
	suite.mockEvents.On("EnqueueOwnerIncome", mock.Anything, "pay-1").Return(nil, false, nil).Once()
	suite.mockFailureRepo.On("MarkResolved", mock.Anything, domain.SyncEntityPayment, "pay-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	suite.mockPaymentRepo.On("FindPaymentByID", mock.Anything, "pay-2").Return(nil, errors.New("store unavailable")).Once()
	suite.mockFailureRepo.On("FindFailure", mock.Anything, domain.SyncEntityPayment, "pay-2").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockFailureRepo.On("UpsertFailure", mock.Anything, mock.AnythingOfType("domain.SyncFailure")).Return(nil).Once()

	resolved, err := suite.service.ReprocessFailures(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, resolved)
	suite.mockFailureRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestCleanupTerminalFailures() {
	ctx := context.Background()

	suite.mockFailureRepo.On("DeleteTerminalOlderThan", ctx, mock.MatchedBy(func(cutoff time.Time) bool {
		return cutoff.Before(time.Now().UTC())
	})).Return(4, nil).Once()

	deleted, err := suite.service.CleanupTerminalFailures(ctx, 30*24*time.Hour)

	suite.Require().NoError(err)
	suite.Equal(4, deleted)
}

func (suite *SyncServiceTestSuite) TestSyncRecent_MirrorsEveryEntityKind() {
	ctx := context.Background()
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	payment := suite.completedPayment()
	payment.AgencyAmount = decimal.Zero
	property := &domain.Property{PropertyID: "prop-1", CompanyID: "company-1", OwnerID: "owner-1", LastUpdatedAt: since.Add(time.Hour)}
	user := &domain.User{UserID: "user-1", CompanyID: "company-1", LastUpdatedAt: since.Add(time.Hour)}

	suite.mockPaymentRepo.On("ListPaymentsModifiedSince", ctx, since, "", 200).Return([]domain.Payment{*payment}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByID", mock.Anything, "pay-1").Return(payment, nil).Once()
	suite.mockShadowRepo.On("UpsertPayment", mock.Anything, mock.AnythingOfType("domain.ShadowPayment")).Return(nil).Once()
	suite.mockEvents.On("EnqueueOwnerIncome", mock.Anything, "pay-1").Return(nil, false, nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", mock.Anything, domain.SyncEntityPayment, "pay-1").Return(nil).Once()

	suite.mockPropertyRepo.On("ListPropertiesModifiedSince", ctx, since, "", 200).Return([]domain.Property{*property}, nil).Once()
	suite.mockPropertyRepo.On("FindPropertyByID", mock.Anything, "prop-1").Return(property, nil).Once()
	suite.mockShadowRepo.On("UpsertProperty", mock.Anything, mock.MatchedBy(func(s domain.ShadowProperty) bool {
		return s.PropertyID == "prop-1" && s.OwnerID != nil && *s.OwnerID == "owner-1"
	})).Return(nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", mock.Anything, domain.SyncEntityProperty, "prop-1").Return(nil).Once()

	suite.mockUserRepo.On("ListUsersModifiedSince", ctx, since, "", 200).Return([]domain.User{*user}, nil).Once()
	suite.mockUserRepo.On("FindUserByID", mock.Anything, "user-1").Return(user, nil).Once()
	suite.mockShadowRepo.On("UpsertContact", mock.Anything, mock.AnythingOfType("domain.ShadowContact")).Return(nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", mock.Anything, domain.SyncEntityUser, "user-1").Return(nil).Once()

	mirrored, err := suite.service.SyncRecent(ctx, since)

	suite.Require().NoError(err)
	suite.Equal(3, mirrored)
	suite.mockShadowRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSyncRecent_AdvancesPastSharedBatchBoundaryTimestamp() {
	ctx := context.Background()
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	boundary := since.Add(time.Hour)

	// Three pending payments mutated at the same instant, read through a
	// two-row batch window. The id tiebreaker keeps the cursor moving so
	// the third row is not lost behind the shared timestamp.
	makePayment := func(id string) domain.Payment {
		return domain.Payment{PaymentID: id, CompanyID: "company-1", Status: domain.PaymentStatusPending, LastUpdatedAt: boundary}
	}
	cfg := &config.Config{
		SyncBackoffBase:    time.Minute,
		SyncBackoffCap:     24 * time.Hour,
		SyncDiscardCeiling: 20,
		SyncBatchSize:      2,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := services.NewSyncService(
		cfg,
		suite.mockPaymentRepo,
		suite.mockPropertyRepo,
		suite.mockUserRepo,
		suite.mockFailureRepo,
		suite.mockShadowRepo,
		suite.mockEvents,
		suite.mockNotifyFeed,
		suite.mockPollFeed,
		logger,
	)

	suite.mockPaymentRepo.On("ListPaymentsModifiedSince", ctx, since, "", 2).Return([]domain.Payment{makePayment("pay-a"), makePayment("pay-b")}, nil).Once()
	suite.mockPaymentRepo.On("ListPaymentsModifiedSince", ctx, boundary, "pay-b", 2).Return([]domain.Payment{makePayment("pay-c")}, nil).Once()
	for _, id := range []string{"pay-a", "pay-b", "pay-c"} {
		id := id
		payment := makePayment(id)
		suite.mockPaymentRepo.On("FindPaymentByID", mock.Anything, id).Return(&payment, nil).Once()
		suite.mockShadowRepo.On("UpsertPayment", mock.Anything, mock.MatchedBy(func(s domain.ShadowPayment) bool {
			return s.PaymentID == id
		})).Return(nil).Once()
		suite.mockFailureRepo.On("DeleteFailure", mock.Anything, domain.SyncEntityPayment, id).Return(nil).Once()
	}
	suite.mockPropertyRepo.On("ListPropertiesModifiedSince", ctx, since, "", 2).Return([]domain.Property{}, nil).Once()
	suite.mockUserRepo.On("ListUsersModifiedSince", ctx, since, "", 2).Return([]domain.User{}, nil).Once()

	mirrored, err := service.SyncRecent(ctx, since)

	suite.Require().NoError(err)
	suite.Equal(3, mirrored)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
	suite.mockShadowRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestStart_FallsBackToPolling() {
	ctx := context.Background()

	suite.mockNotifyFeed.On("Start", ctx, mock.AnythingOfType("func(context.Context, domain.ChangeEvent)")).Return(apperrors.ErrFeedUnsupported).Once()
	suite.mockPollFeed.On("Start", ctx, mock.AnythingOfType("func(context.Context, domain.ChangeEvent)")).Return(nil).Once()
	suite.mockPollFeed.On("Mode").Return("poll")

	err := suite.service.Start(ctx)

	suite.Require().NoError(err)
	suite.mockNotifyFeed.AssertExpectations(suite.T())
	suite.mockPollFeed.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestStart_PrefersPushFeed() {
	ctx := context.Background()

	suite.mockNotifyFeed.On("Start", ctx, mock.AnythingOfType("func(context.Context, domain.ChangeEvent)")).Return(nil).Once()
	suite.mockNotifyFeed.On("Mode").Return("notify")

	err := suite.service.Start(ctx)

	suite.Require().NoError(err)
	suite.mockPollFeed.AssertNotCalled(suite.T(), "Start", mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestValidateConsistency_ReportsDrift() {
	ctx := context.Background()
	payment := suite.completedPayment()
	property := &domain.Property{PropertyID: "prop-1", CompanyID: "company-1", LastUpdatedAt: time.Now().UTC()}

	suite.mockPaymentRepo.On("ListPaymentsModifiedSince", ctx, mock.AnythingOfType("time.Time"), "", 200).Return([]domain.Payment{*payment}, nil).Once()
	suite.mockPropertyRepo.On("ListPropertiesModifiedSince", ctx, mock.AnythingOfType("time.Time"), "", 200).Return([]domain.Property{*property}, nil).Once()
	suite.mockShadowRepo.On("PaymentExists", mock.Anything, "pay-1").Return(false, nil).Once()
	suite.mockShadowRepo.On("PropertyExists", mock.Anything, "prop-1").Return(true, nil).Once()
	suite.mockShadowRepo.On("ListShadowPaymentIDsSince", ctx, mock.AnythingOfType("time.Time"), 2000).Return([]string{"pay-ghost"}, nil).Once()
	suite.mockShadowRepo.On("ListShadowPropertyIDsSince", ctx, mock.AnythingOfType("time.Time"), 2000).Return([]string{}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByID", mock.Anything, "pay-ghost").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockShadowRepo.On("ListDanglingOwnerRefs", ctx, 2000).Return([]string{"prop-9"}, nil).Once()

	report, err := suite.service.ValidateConsistency(ctx, 7, 0, false)

	suite.Require().NoError(err)
	suite.Equal(1, report.PaymentsScanned)
	suite.Equal(1, report.PropertiesScanned)
	suite.Equal(1, report.MissingShadows)
	suite.Equal([]string{"pay-1"}, report.MissingShadowIDs)
	suite.Equal(1, report.OrphanedShadows)
	suite.Equal([]string{"pay-ghost"}, report.OrphanedShadowIDs)
	suite.Equal(1, report.DanglingOwnerRefs)
	suite.Zero(report.RemediatedShadows)
	suite.mockShadowRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestValidateConsistency_RemediatesDrift() {
	ctx := context.Background()
	payment := suite.completedPayment()
	payment.AgencyAmount = decimal.Zero

	suite.mockPaymentRepo.On("ListPaymentsModifiedSince", ctx, mock.AnythingOfType("time.Time"), "", 200).Return([]domain.Payment{*payment}, nil).Once()
	suite.mockPropertyRepo.On("ListPropertiesModifiedSince", ctx, mock.AnythingOfType("time.Time"), "", 200).Return([]domain.Property{}, nil).Once()
	suite.mockShadowRepo.On("PaymentExists", mock.Anything, "pay-1").Return(false, nil).Once()
	suite.mockShadowRepo.On("ListShadowPaymentIDsSince", ctx, mock.AnythingOfType("time.Time"), 2000).Return([]string{}, nil).Once()
	suite.mockShadowRepo.On("ListShadowPropertyIDsSince", ctx, mock.AnythingOfType("time.Time"), 2000).Return([]string{}, nil).Once()
	suite.mockShadowRepo.On("ListDanglingOwnerRefs", ctx, 2000).Return([]string{"prop-9"}, nil).Once()

	// Remediation re-mirrors the missing shadow and clears the dangling ref.
	suite.mockPaymentRepo.On("FindPaymentByID", mock.Anything, "pay-1").Return(payment, nil).Once()
	suite.mockShadowRepo.On("UpsertPayment", mock.Anything, mock.AnythingOfType("domain.ShadowPayment")).Return(nil).Once()
	suite.mockEvents.On("EnqueueOwnerIncome", mock.Anything, "pay-1").Return(nil, false, nil).Once()
	suite.mockFailureRepo.On("DeleteFailure", mock.Anything, domain.SyncEntityPayment, "pay-1").Return(nil).Once()
	suite.mockShadowRepo.On("ClearOwnerRef", ctx, "prop-9").Return(nil).Once()

	report, err := suite.service.ValidateConsistency(ctx, 7, 0, true)

	suite.Require().NoError(err)
	suite.Equal(2, report.RemediatedShadows)
	suite.mockShadowRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestValidateConsistency_HonorsConcurrencyBound() {
	ctx := context.Background()
	payments := make([]domain.Payment, 0, 4)
	for _, id := range []string{"pay-1", "pay-2", "pay-3", "pay-4"} {
		payment := suite.completedPayment()
		payment.PaymentID = id
		payments = append(payments, *payment)
	}

	var inFlight, maxInFlight int32
	trackExistenceCheck := func(mock.Arguments) {
		current := atomic.AddInt32(&inFlight, 1)
		for {
			seen := atomic.LoadInt32(&maxInFlight)
			if current <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}

	suite.mockPaymentRepo.On("ListPaymentsModifiedSince", ctx, mock.AnythingOfType("time.Time"), "", 200).Return(payments, nil).Once()
	suite.mockPropertyRepo.On("ListPropertiesModifiedSince", ctx, mock.AnythingOfType("time.Time"), "", 200).Return([]domain.Property{}, nil).Once()
	suite.mockShadowRepo.On("PaymentExists", mock.Anything, mock.AnythingOfType("string")).Run(trackExistenceCheck).Return(true, nil).Times(4)
	suite.mockShadowRepo.On("ListShadowPaymentIDsSince", ctx, mock.AnythingOfType("time.Time"), 2000).Return([]string{}, nil).Once()
	suite.mockShadowRepo.On("ListShadowPropertyIDsSince", ctx, mock.AnythingOfType("time.Time"), 2000).Return([]string{}, nil).Once()
	suite.mockShadowRepo.On("ListDanglingOwnerRefs", ctx, 2000).Return([]string{}, nil).Once()

	report, err := suite.service.ValidateConsistency(ctx, 7, 1, false)

	suite.Require().NoError(err)
	suite.Equal(4, report.PaymentsScanned)
	suite.Zero(report.MissingShadows)
	suite.Equal(int32(1), atomic.LoadInt32(&maxInFlight), "existence checks should not overlap at bound 1")
	suite.mockShadowRepo.AssertExpectations(suite.T())
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}
