package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/core/services"
	"github.com/qorinti/ledger_backend/internal/dto"
	"github.com/qorinti/ledger_backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const driverID = "driver-1"

type SettlementServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	broker  *services.ChangeBroker
	signal  *countingSignal
	service *services.SettlementService
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.broker = services.NewChangeBroker()
	suite.signal = &countingSignal{}
	suite.service = services.NewSettlementService(
		suite.store,
		services.WithSettlementClock(newTestClock().Now),
		services.WithChangeBroker(suite.broker),
		services.WithReceiptSignal(suite.signal),
	)
}

func (suite *SettlementServiceTestSuite) submit(amount string) string {
	id, err := suite.service.SubmitPaymentRequest(suite.ctx, driverID, dto.SubmitPaymentRequest{Amount: dec(amount)})
	suite.Require().NoError(err)
	return id
}

func (suite *SettlementServiceTestSuite) request(id string) domain.PaymentRequest {
	req, err := suite.store.FindPaymentRequest(suite.ctx, driverID, id)
	suite.Require().NoError(err)
	return *req
}

func (suite *SettlementServiceTestSuite) transactions() []domain.Transaction {
	txns, _, err := suite.store.ListTransactionsByDriver(suite.ctx, driverID, 100, nil)
	suite.Require().NoError(err)
	return txns
}

func (suite *SettlementServiceTestSuite) receiptJobs() []domain.ReceiptJob {
	jobs, err := suite.store.ListReceiptJobsByStatus(suite.ctx, []domain.ReceiptJobStatus{domain.ReceiptJobPending}, 100)
	suite.Require().NoError(err)
	return jobs
}

// --- Test Cases ---

func (suite *SettlementServiceTestSuite) TestSubmit_LeavesDebtUntouched() {
	seedDebt(suite.store, driverID, "50.00")

	id := suite.submit("30.00")

	req := suite.request(id)
	suite.Equal(domain.PaymentInReview, req.Status)
	suite.True(dec("30.00").Equal(req.Amount))
	suite.True(dec("50.00").Equal(mustLedger(suite.store, driverID).CommissionDebt))
	suite.Empty(suite.transactions())
}

func (suite *SettlementServiceTestSuite) TestSubmit_CreatesLedgerWhenMissing() {
	suite.submit("12.00")

	ledger := mustLedger(suite.store, driverID)
	suite.True(ledger.CommissionDebt.IsZero())
	suite.Equal(domain.AccountActive, ledger.AccountStatus)
}

func (suite *SettlementServiceTestSuite) TestSubmit_RejectsNonPositiveAmount() {
	for _, amount := range []string{"0", "-5", "0.004"} {
		_, err := suite.service.SubmitPaymentRequest(suite.ctx, driverID, dto.SubmitPaymentRequest{Amount: dec(amount)})
		suite.ErrorIs(err, apperrors.ErrValidation, amount)
	}
	_, err := suite.store.FindLedger(suite.ctx, driverID)
	suite.ErrorIs(err, apperrors.ErrNotFound, "validation must happen before any write")
}

func (suite *SettlementServiceTestSuite) TestSubmit_DuplicateSubmissionsCreateTwoRequests() {
	first := suite.submit("10.00")
	second := suite.submit("10.00")
	suite.NotEqual(first, second)
}

// Scenario A
func (suite *SettlementServiceTestSuite) TestApprove_PartialSettlement() {
	seedDebt(suite.store, driverID, "50.00")
	id := suite.submit("30.00")

	err := suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin-1", dto.ApprovePaymentRequest{AdminNote: "transfer ok"})
	suite.Require().NoError(err)

	ledger := mustLedger(suite.store, driverID)
	suite.True(dec("20.00").Equal(ledger.CommissionDebt))

	txns := suite.transactions()
	suite.Require().Len(txns, 1)
	suite.True(dec("-30.00").Equal(txns[0].CommissionAmount))
	suite.True(txns[0].Source.IsCommissionPayment())
	suite.Equal(domain.TransactionSettled, txns[0].Status)
	suite.Equal(txns[0].TransactionID, ledger.LastTransactionID)

	req := suite.request(id)
	suite.Equal(domain.PaymentApproved, req.Status)
	suite.True(dec("30.00").Equal(*req.AppliedAmount))
	suite.True(dec("50.00").Equal(*req.DebtBefore))
	suite.True(dec("20.00").Equal(*req.DebtAfter))
	suite.Equal(txns[0].TransactionID, req.AppliedTransactionID)
	suite.Equal("transfer ok", req.AdminNote)
	suite.Equal("admin-1", req.ReviewedBy)
}

// Scenario B
func (suite *SettlementServiceTestSuite) TestApprove_ClampsToDebt() {
	seedDebt(suite.store, driverID, "10.00")
	id := suite.submit("25.00")

	suite.Require().NoError(suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin-1", dto.ApprovePaymentRequest{}))

	req := suite.request(id)
	suite.True(dec("10.00").Equal(*req.AppliedAmount))
	suite.True(req.DebtAfter.IsZero())
	suite.True(mustLedger(suite.store, driverID).CommissionDebt.IsZero())
	suite.True(dec("-10.00").Equal(suite.transactions()[0].CommissionAmount))
}

// Scenario C
func (suite *SettlementServiceTestSuite) TestApprove_NoDebtFails() {
	seedDebt(suite.store, driverID, "0.00")
	id := suite.submit("15.00")

	err := suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin-1", dto.ApprovePaymentRequest{})
	suite.ErrorIs(err, apperrors.ErrBusinessRule)
	suite.Contains(err.Error(), "no pending debt")

	suite.Empty(suite.transactions())
	suite.Equal(domain.PaymentInReview, suite.request(id).Status)
	suite.Empty(suite.receiptJobs())
}

// Scenario E
func (suite *SettlementServiceTestSuite) TestReject_ThenApproveFails() {
	seedDebt(suite.store, driverID, "40.00")
	id := suite.submit("20.00")

	suite.Require().NoError(suite.service.RejectPaymentRequest(suite.ctx, driverID, id, "admin-2", dto.RejectPaymentRequest{Reason: "insufficient proof"}))

	req := suite.request(id)
	suite.Equal(domain.PaymentRejected, req.Status)
	suite.Equal("insufficient proof", req.RejectionReason)
	suite.Equal("admin-2", req.ReviewedBy)
	suite.True(dec("40.00").Equal(mustLedger(suite.store, driverID).CommissionDebt))

	err := suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin-1", dto.ApprovePaymentRequest{})
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.Empty(suite.transactions())
}

func (suite *SettlementServiceTestSuite) TestTerminalStates_RejectRepeatedReview() {
	seedDebt(suite.store, driverID, "40.00")
	id := suite.submit("20.00")
	suite.Require().NoError(suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin-1", dto.ApprovePaymentRequest{}))

	suite.ErrorIs(suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin-1", dto.ApprovePaymentRequest{}), apperrors.ErrInvalidState)
	suite.ErrorIs(suite.service.RejectPaymentRequest(suite.ctx, driverID, id, "admin-1", dto.RejectPaymentRequest{}), apperrors.ErrInvalidState)

	suite.Len(suite.transactions(), 1)
	suite.True(dec("20.00").Equal(mustLedger(suite.store, driverID).CommissionDebt))
}

func (suite *SettlementServiceTestSuite) TestApprove_UnknownRequestIsInvalidState() {
	err := suite.service.ApprovePaymentRequest(suite.ctx, driverID, "missing", "admin-1", dto.ApprovePaymentRequest{})
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *SettlementServiceTestSuite) TestApprove_OtherDriversRequestIsInvalidState() {
	seedDebt(suite.store, driverID, "40.00")
	id := suite.submit("20.00")
	seedDebt(suite.store, "driver-2", "40.00")

	err := suite.service.ApprovePaymentRequest(suite.ctx, "driver-2", id, "admin-1", dto.ApprovePaymentRequest{})
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.Equal(domain.PaymentInReview, suite.request(id).Status)
}

func (suite *SettlementServiceTestSuite) TestApprove_EnqueuesReceiptJobAndSignals() {
	seedDebt(suite.store, driverID, "50.00")
	id := suite.submit("30.00")

	suite.Require().NoError(suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin-1", dto.ApprovePaymentRequest{}))

	jobs := suite.receiptJobs()
	suite.Require().Len(jobs, 1)
	suite.Equal(id, jobs[0].PaymentRequestID)
	suite.Equal(driverID, jobs[0].DriverID)
	suite.True(dec("30.00").Equal(jobs[0].Amount))
	suite.Equal(0, jobs[0].Attempts)
	suite.Equal(1, suite.signal.Count())
}

func (suite *SettlementServiceTestSuite) TestMutations_PublishChanges() {
	changes, cancel := suite.broker.Subscribe(driverID)
	defer cancel()

	suite.submit("5.00")

	select {
	case <-changes:
	default:
		suite.Fail("expected a change signal after submit")
	}
}

func (suite *SettlementServiceTestSuite) TestFailedMutation_DoesNotPublish() {
	changes, cancel := suite.broker.Subscribe(driverID)
	defer cancel()

	err := suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("5.00")})
	suite.Require().Error(err)

	select {
	case <-changes:
		suite.Fail("no signal expected after a failed mutation")
	default:
	}
}

// Scenario D
func (suite *SettlementServiceTestSuite) TestManualPayment_ExceedsDebt() {
	seedDebt(suite.store, driverID, "40.00")

	err := suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("50.00")})
	suite.ErrorIs(err, apperrors.ErrBusinessRule)
	suite.Contains(err.Error(), "exceeds pending debt")
	suite.True(dec("40.00").Equal(mustLedger(suite.store, driverID).CommissionDebt))
	suite.Empty(suite.transactions())
}

func (suite *SettlementServiceTestSuite) TestManualPayment_Success() {
	seedDebt(suite.store, driverID, "40.00")

	suite.Require().NoError(suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("15.50"), Reference: "yape-123"}))

	suite.True(dec("24.50").Equal(mustLedger(suite.store, driverID).CommissionDebt))
	txns := suite.transactions()
	suite.Require().Len(txns, 1)
	suite.True(dec("-15.50").Equal(txns[0].CommissionAmount))
	suite.Equal("yape-123", txns[0].Reference)
	suite.Empty(suite.receiptJobs(), "manual payments issue no receipt")
	suite.Equal(0, suite.signal.Count())
}

func (suite *SettlementServiceTestSuite) TestManualPayment_FullSettlement() {
	seedDebt(suite.store, driverID, "40.00")

	suite.Require().NoError(suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("40.00")}))
	suite.True(mustLedger(suite.store, driverID).CommissionDebt.IsZero())
}

func (suite *SettlementServiceTestSuite) TestManualPayment_WithinToleranceSettlesDebt() {
	seedDebt(suite.store, driverID, "40.00")

	suite.Require().NoError(suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("40.01")}))

	suite.True(mustLedger(suite.store, driverID).CommissionDebt.IsZero())
	txns := suite.transactions()
	suite.Require().Len(txns, 1)
	suite.True(dec("-40.01").Equal(txns[0].CommissionAmount))
}

func (suite *SettlementServiceTestSuite) TestManualPayment_BeyondToleranceFails() {
	seedDebt(suite.store, driverID, "40.00")

	err := suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("40.02")})
	suite.ErrorIs(err, apperrors.ErrBusinessRule)
	suite.True(dec("40.00").Equal(mustLedger(suite.store, driverID).CommissionDebt))
	suite.Empty(suite.transactions())
}

func (suite *SettlementServiceTestSuite) TestManualPayment_KeepsNotes() {
	seedDebt(suite.store, driverID, "40.00")

	suite.Require().NoError(suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{
		Amount:    dec("10.00"),
		Reference: "yape-9",
		Notes:     "  paid via Yape at 10am ",
	}))

	txns := suite.transactions()
	suite.Require().Len(txns, 1)
	suite.Equal("yape-9", txns[0].Reference)
	suite.Equal("paid via Yape at 10am", txns[0].Notes)
}

func (suite *SettlementServiceTestSuite) TestApprove_CarriesRequestNotesToTransaction() {
	seedDebt(suite.store, driverID, "40.00")
	id, err := suite.service.SubmitPaymentRequest(suite.ctx, driverID, dto.SubmitPaymentRequest{
		Amount: dec("10.00"),
		Notes:  "deposit slip 0042",
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin-1", dto.ApprovePaymentRequest{}))

	txns := suite.transactions()
	suite.Require().Len(txns, 1)
	suite.Equal("deposit slip 0042", txns[0].Notes)
}

func (suite *SettlementServiceTestSuite) TestManualPayment_NoDebt() {
	err := suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("1.00")})
	suite.ErrorIs(err, apperrors.ErrBusinessRule)
	suite.Contains(err.Error(), "no pending debt")
}

func (suite *SettlementServiceTestSuite) TestManualPayment_RejectsNonPositive() {
	seedDebt(suite.store, driverID, "40.00")
	err := suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("0")})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestTripCommission_ChargesDebtOnce() {
	txn, err := suite.service.RecordTripCommission(suite.ctx, driverID, dto.TripCommissionRequest{
		TripID:           "trip-9",
		GrossAmount:      dec("80.00"),
		CommissionAmount: dec("8.00"),
	})
	suite.Require().NoError(err)
	suite.Equal(domain.TripSource("trip-9"), txn.Source)
	suite.True(dec("72.00").Equal(txn.NetAmount))
	suite.True(dec("8.00").Equal(txn.CommissionAmount))

	ledger := mustLedger(suite.store, driverID)
	suite.True(dec("8.00").Equal(ledger.CommissionDebt))
	suite.True(dec("80.00").Equal(ledger.LifetimeIncomeTotal))
	suite.True(dec("8.00").Equal(ledger.LifetimeCommissionTotal))

	_, err = suite.service.RecordTripCommission(suite.ctx, driverID, dto.TripCommissionRequest{
		TripID:           "trip-9",
		GrossAmount:      dec("80.00"),
		CommissionAmount: dec("8.00"),
	})
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.True(dec("8.00").Equal(mustLedger(suite.store, driverID).CommissionDebt))
}

func (suite *SettlementServiceTestSuite) TestTripCommission_Validation() {
	cases := []dto.TripCommissionRequest{
		{TripID: "", GrossAmount: dec("10"), CommissionAmount: dec("1")},
		{TripID: domain.CommissionPaymentMarker, GrossAmount: dec("10"), CommissionAmount: dec("1")},
		{TripID: "t", GrossAmount: dec("0"), CommissionAmount: dec("0")},
		{TripID: "t", GrossAmount: dec("10"), CommissionAmount: dec("-1")},
		{TripID: "t", GrossAmount: dec("10"), CommissionAmount: dec("10.01")},
	}
	for _, c := range cases {
		_, err := suite.service.RecordTripCommission(suite.ctx, driverID, c)
		suite.ErrorIs(err, apperrors.ErrValidation, "%+v", c)
	}
}

func (suite *SettlementServiceTestSuite) TestClosedLedger() {
	seedDebt(suite.store, driverID, "30.00")
	pending := suite.submit("10.00")

	ledger, err := suite.service.SetAccountStatus(suite.ctx, driverID, domain.AccountClosed)
	suite.Require().NoError(err)
	suite.Equal(domain.AccountClosed, ledger.AccountStatus)

	_, err = suite.service.SubmitPaymentRequest(suite.ctx, driverID, dto.SubmitPaymentRequest{Amount: dec("1")})
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.ErrorIs(suite.service.ApprovePaymentRequest(suite.ctx, driverID, pending, "admin", dto.ApprovePaymentRequest{}), apperrors.ErrInvalidState)
	suite.ErrorIs(suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("1")}), apperrors.ErrInvalidState)
	_, err = suite.service.RecordTripCommission(suite.ctx, driverID, dto.TripCommissionRequest{TripID: "t1", GrossAmount: dec("5"), CommissionAmount: dec("1")})
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	suite.NoError(suite.service.RejectPaymentRequest(suite.ctx, driverID, pending, "admin", dto.RejectPaymentRequest{Reason: "account closed"}))
	suite.True(dec("30.00").Equal(mustLedger(suite.store, driverID).CommissionDebt))
}

func (suite *SettlementServiceTestSuite) TestBlockedLedgerStillSettles() {
	seedDebt(suite.store, driverID, "30.00")
	_, err := suite.service.SetAccountStatus(suite.ctx, driverID, domain.AccountBlocked)
	suite.Require().NoError(err)

	suite.NoError(suite.service.RecordManualPayment(suite.ctx, driverID, dto.ManualPaymentRequest{Amount: dec("10")}))
	suite.True(dec("20.00").Equal(mustLedger(suite.store, driverID).CommissionDebt))
}

func (suite *SettlementServiceTestSuite) TestSetAccountStatus_Invalid() {
	_, err := suite.service.SetAccountStatus(suite.ctx, driverID, domain.AccountStatus("FROZEN"))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestRoundingStability() {
	seedDebt(suite.store, driverID, "1.00")
	for i := 0; i < 20; i++ {
		id, err := suite.service.SubmitPaymentRequest(suite.ctx, driverID, dto.SubmitPaymentRequest{Amount: dec("0.015")})
		suite.Require().NoError(err)
		err = suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin", dto.ApprovePaymentRequest{})
		if err != nil {
			suite.ErrorIs(err, apperrors.ErrBusinessRule)
			break
		}
		debt := mustLedger(suite.store, driverID).CommissionDebt
		suite.LessOrEqual(-debt.Exponent(), int32(2), debt.String())
		suite.False(debt.IsNegative())
	}
}

func (suite *SettlementServiceTestSuite) TestConservation() {
	seedDebt(suite.store, driverID, "100.00")
	for _, amount := range []string{"12.34", "0.01", "33.33", "80.00"} {
		id := suite.submit(amount)
		suite.Require().NoError(suite.service.ApprovePaymentRequest(suite.ctx, driverID, id, "admin", dto.ApprovePaymentRequest{}))

		req := suite.request(id)
		suite.True(req.AppliedAmount.LessThanOrEqual(*req.DebtBefore))
		diff := req.DebtBefore.Sub(*req.AppliedAmount).Sub(*req.DebtAfter).Abs()
		suite.True(diff.LessThanOrEqual(domain.PaymentTolerance))
	}
	suite.True(mustLedger(suite.store, driverID).CommissionDebt.IsZero())
	suite.Len(suite.transactions(), 4)
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}

func TestConcurrentApprovalsNeverOverSettle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedDebt(store, driverID, "50.00")
	svc := services.NewSettlementService(store)

	var ids []string
	for i := 0; i < 10; i++ {
		id, err := svc.SubmitPaymentRequest(ctx, driverID, dto.SubmitPaymentRequest{Amount: dec("20.00")})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = svc.ApprovePaymentRequest(ctx, driverID, id, "admin", dto.ApprovePaymentRequest{})
		}(id)
	}
	wg.Wait()

	assert.True(t, mustLedger(store, driverID).CommissionDebt.IsZero())

	applied := decimal.Zero
	approved := 0
	for _, id := range ids {
		req, err := store.FindPaymentRequest(ctx, driverID, id)
		require.NoError(t, err)
		if req.Status == domain.PaymentApproved {
			approved++
			applied = applied.Add(*req.AppliedAmount)
		}
	}
	assert.Equal(t, 3, approved)
	assert.True(t, dec("50.00").Equal(applied), applied.String())
}
