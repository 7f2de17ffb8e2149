package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/qorinti/ledger_backend/internal/core/ports/services"
	"github.com/qorinti/ledger_backend/internal/dto"
	"github.com/qorinti/ledger_backend/internal/platform/observability"
	"github.com/shopspring/decimal"
)

// ReceiptSignal is notified after a commit that enqueued receipt work.
type ReceiptSignal interface {
	Notify()
}

// SettlementService is the only writer of a driver's ledger group.
type SettlementService struct {
	BaseService
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	broker        *ChangeBroker
	receiptSignal ReceiptSignal
	now           func() time.Time
	newID         func() string
}

// SettlementServiceOption is a function that configures a SettlementService.
type SettlementServiceOption func(*SettlementService)

// WithSettlementClock overrides the server clock.
func WithSettlementClock(now func() time.Time) SettlementServiceOption {
	return func(s *SettlementService) {
		s.now = now
	}
}

// WithChangeBroker publishes a change signal for the driver after every commit.
func WithChangeBroker(broker *ChangeBroker) SettlementServiceOption {
	return func(s *SettlementService) {
		s.broker = broker
	}
}

// WithReceiptSignal wakes the receipt worker after an approval commits.
func WithReceiptSignal(signal ReceiptSignal) SettlementServiceOption {
	return func(s *SettlementService) {
		s.receiptSignal = signal
	}
}

// WithIDGenerator overrides the generator of request, transaction and job IDs.
func WithIDGenerator(newID func() string) SettlementServiceOption {
	return func(s *SettlementService) {
		s.newID = newID
	}
}

// NewSettlementService creates a new SettlementService with the given options.
func NewSettlementService(ledgerRepo portsrepo.LedgerRepositoryFacade, options ...SettlementServiceOption) *SettlementService {
	svc := &SettlementService{
		ledgerRepo: ledgerRepo,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.SettlementSvcFacade = (*SettlementService)(nil)

// positiveAmount rounds amount and rejects anything that is not above zero afterwards.
func positiveAmount(field string, amount decimal.Decimal) (decimal.Decimal, error) {
	amount = domain.RoundMoney(amount)
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be greater than zero", apperrors.ErrValidation, field)
	}
	return amount, nil
}

func requireDriver(driverID string) error {
	if strings.TrimSpace(driverID) == "" {
		return fmt.Errorf("%w: driver ID is required", apperrors.ErrValidation)
	}
	return nil
}

func ensureNotClosed(ledger *domain.AccountLedger) error {
	if ledger.AccountStatus == domain.AccountClosed {
		return fmt.Errorf("%w: ledger of driver %s is closed", apperrors.ErrInvalidState, ledger.DriverID)
	}
	return nil
}

// committed runs the post-commit side effects of a successful mutation.
func (s *SettlementService) committed(driverID string, receiptQueued bool) {
	if s.broker != nil {
		s.broker.Publish(driverID)
	}
	if receiptQueued && s.receiptSignal != nil {
		s.receiptSignal.Notify()
	}
}

// SubmitPaymentRequest creates an IN_REVIEW request. The ledger is only ensured to exist.
func (s *SettlementService) SubmitPaymentRequest(ctx context.Context, driverID string, req dto.SubmitPaymentRequest) (requestID string, err error) {
	defer func() { observability.RecordSettlement("submit", err) }()

	if err := requireDriver(driverID); err != nil {
		return "", err
	}
	amount, err := positiveAmount("amount", req.Amount)
	if err != nil {
		return "", err
	}

	now := s.now()
	paymentRequest := domain.PaymentRequest{
		RequestID:  s.newID(),
		DriverID:   driverID,
		Amount:     amount,
		Reference:  strings.TrimSpace(req.Reference),
		Notes:      strings.TrimSpace(req.Notes),
		Status:     domain.PaymentInReview,
		Timestamps: domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}

	err = s.ledgerRepo.WithLedgerLock(ctx, driverID, func(tx portsrepo.LedgerTx, ledger *domain.AccountLedger) error {
		if err := ensureNotClosed(ledger); err != nil {
			return err
		}
		return tx.InsertPaymentRequest(ctx, paymentRequest)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to submit payment request", slog.String("driver_id", driverID))
		return "", err
	}

	s.committed(driverID, false)
	s.LogInfo(ctx, "Payment request submitted",
		slog.String("driver_id", driverID),
		slog.String("request_id", paymentRequest.RequestID),
		slog.String("amount", amount.StringFixed(domain.MoneyPrecision)))
	return paymentRequest.RequestID, nil
}

// ApprovePaymentRequest applies min(amount, debt) against the driver's debt. The
// transaction, the ledger update, the request transition and the receipt job all
// commit together; the receipt itself is emitted by the worker afterwards.
func (s *SettlementService) ApprovePaymentRequest(ctx context.Context, driverID, requestID, reviewerID string, req dto.ApprovePaymentRequest) (err error) {
	defer func() { observability.RecordSettlement("approve", err) }()

	if err := requireDriver(driverID); err != nil {
		return err
	}
	if strings.TrimSpace(requestID) == "" {
		return fmt.Errorf("%w: request ID is required", apperrors.ErrValidation)
	}

	var applied decimal.Decimal
	err = s.ledgerRepo.WithLedgerLock(ctx, driverID, func(tx portsrepo.LedgerTx, ledger *domain.AccountLedger) error {
		paymentRequest, err := tx.FindPaymentRequest(ctx, requestID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: payment request %s does not exist", apperrors.ErrInvalidState, requestID)
			}
			return err
		}
		if paymentRequest.Status != domain.PaymentInReview {
			return fmt.Errorf("%w: payment request %s is %s", apperrors.ErrInvalidState, requestID, paymentRequest.Status)
		}
		if err := ensureNotClosed(ledger); err != nil {
			return err
		}

		debtBefore := domain.ClampDebt(ledger.CommissionDebt)
		if !debtBefore.IsPositive() {
			return fmt.Errorf("%w: no pending debt to settle", apperrors.ErrBusinessRule)
		}
		applied = domain.RoundMoney(decimal.Min(paymentRequest.Amount, debtBefore))
		debtAfter := domain.ClampDebt(debtBefore.Sub(applied))

		now := s.now()
		txn := commissionPaymentTransaction(s.newID(), driverID, applied, paymentRequest.Reference, paymentRequest.Notes, now)
		if err := tx.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		paymentRequest.Status = domain.PaymentApproved
		paymentRequest.AppliedAmount = &applied
		paymentRequest.DebtBefore = &debtBefore
		paymentRequest.DebtAfter = &debtAfter
		paymentRequest.AppliedTransactionID = txn.TransactionID
		paymentRequest.AdminNote = strings.TrimSpace(req.AdminNote)
		paymentRequest.ReviewedBy = reviewerID
		paymentRequest.UpdatedAt = now
		if err := tx.UpdatePaymentRequest(ctx, *paymentRequest); err != nil {
			return err
		}

		ledger.CommissionDebt = debtAfter
		ledger.LastTransactionID = txn.TransactionID
		ledger.Touch(now)
		ledger.Normalize()
		if err := tx.SaveLedger(ctx, *ledger); err != nil {
			return err
		}

		return tx.EnqueueReceiptJob(ctx, domain.ReceiptJob{
			JobID:            s.newID(),
			PaymentRequestID: paymentRequest.RequestID,
			DriverID:         driverID,
			Amount:           applied,
			Status:           domain.ReceiptJobPending,
			NextAttemptAt:    now,
			Timestamps:       domain.Timestamps{CreatedAt: now, UpdatedAt: now},
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to approve payment request",
			slog.String("driver_id", driverID),
			slog.String("request_id", requestID))
		return err
	}

	observability.RecordSettledAmount("approve", applied)
	s.committed(driverID, true)
	s.LogInfo(ctx, "Payment request approved",
		slog.String("driver_id", driverID),
		slog.String("request_id", requestID),
		slog.String("applied_amount", applied.StringFixed(domain.MoneyPrecision)),
		slog.String("reviewed_by", reviewerID))
	return nil
}

// RejectPaymentRequest transitions an IN_REVIEW request to REJECTED. The ledger is not touched.
func (s *SettlementService) RejectPaymentRequest(ctx context.Context, driverID, requestID, reviewerID string, req dto.RejectPaymentRequest) (err error) {
	defer func() { observability.RecordSettlement("reject", err) }()

	if err := requireDriver(driverID); err != nil {
		return err
	}
	if strings.TrimSpace(requestID) == "" {
		return fmt.Errorf("%w: request ID is required", apperrors.ErrValidation)
	}

	err = s.ledgerRepo.WithLedgerLock(ctx, driverID, func(tx portsrepo.LedgerTx, _ *domain.AccountLedger) error {
		paymentRequest, err := tx.FindPaymentRequest(ctx, requestID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: payment request %s does not exist", apperrors.ErrInvalidState, requestID)
			}
			return err
		}
		if paymentRequest.Status != domain.PaymentInReview {
			return fmt.Errorf("%w: payment request %s is %s", apperrors.ErrInvalidState, requestID, paymentRequest.Status)
		}

		paymentRequest.Status = domain.PaymentRejected
		paymentRequest.RejectionReason = strings.TrimSpace(req.Reason)
		paymentRequest.ReviewedBy = reviewerID
		paymentRequest.UpdatedAt = s.now()
		return tx.UpdatePaymentRequest(ctx, *paymentRequest)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reject payment request",
			slog.String("driver_id", driverID),
			slog.String("request_id", requestID))
		return err
	}

	s.committed(driverID, false)
	s.LogInfo(ctx, "Payment request rejected",
		slog.String("driver_id", driverID),
		slog.String("request_id", requestID),
		slog.String("reviewed_by", reviewerID))
	return nil
}

// RecordManualPayment applies a self-service payment straight to the debt. No receipt is issued.
func (s *SettlementService) RecordManualPayment(ctx context.Context, driverID string, req dto.ManualPaymentRequest) (err error) {
	defer func() { observability.RecordSettlement("manual_payment", err) }()

	if err := requireDriver(driverID); err != nil {
		return err
	}
	amount, err := positiveAmount("amount", req.Amount)
	if err != nil {
		return err
	}

	err = s.ledgerRepo.WithLedgerLock(ctx, driverID, func(tx portsrepo.LedgerTx, ledger *domain.AccountLedger) error {
		if err := ensureNotClosed(ledger); err != nil {
			return err
		}
		debt := domain.ClampDebt(ledger.CommissionDebt)
		if !debt.IsPositive() {
			return fmt.Errorf("%w: no pending debt to settle", apperrors.ErrBusinessRule)
		}
		if debt.Sub(amount).LessThan(domain.PaymentTolerance.Neg()) {
			return fmt.Errorf("%w: amount exceeds pending debt", apperrors.ErrBusinessRule)
		}

		now := s.now()
		txn := commissionPaymentTransaction(s.newID(), driverID, amount, strings.TrimSpace(req.Reference), strings.TrimSpace(req.Notes), now)
		if err := tx.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		ledger.CommissionDebt = domain.ClampDebt(debt.Sub(amount))
		ledger.LastTransactionID = txn.TransactionID
		ledger.Touch(now)
		ledger.Normalize()
		return tx.SaveLedger(ctx, *ledger)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record manual payment", slog.String("driver_id", driverID))
		return err
	}

	observability.RecordSettledAmount("manual_payment", amount)
	s.committed(driverID, false)
	s.LogInfo(ctx, "Manual payment recorded",
		slog.String("driver_id", driverID),
		slog.String("amount", amount.StringFixed(domain.MoneyPrecision)))
	return nil
}

// RecordTripCommission charges the commission of one completed trip.
func (s *SettlementService) RecordTripCommission(ctx context.Context, driverID string, req dto.TripCommissionRequest) (_ *domain.Transaction, err error) {
	defer func() { observability.RecordSettlement("trip_commission", err) }()

	if err := requireDriver(driverID); err != nil {
		return nil, err
	}
	tripID := strings.TrimSpace(req.TripID)
	if tripID == "" {
		return nil, fmt.Errorf("%w: trip ID is required", apperrors.ErrValidation)
	}
	if tripID == domain.CommissionPaymentMarker {
		return nil, fmt.Errorf("%w: trip ID %q is reserved", apperrors.ErrValidation, tripID)
	}
	gross, err := positiveAmount("grossAmount", req.GrossAmount)
	if err != nil {
		return nil, err
	}
	commission := domain.RoundMoney(req.CommissionAmount)
	if commission.IsNegative() || commission.GreaterThan(gross) {
		return nil, fmt.Errorf("%w: commissionAmount must be between 0 and grossAmount", apperrors.ErrValidation)
	}

	var txn domain.Transaction
	err = s.ledgerRepo.WithLedgerLock(ctx, driverID, func(tx portsrepo.LedgerTx, ledger *domain.AccountLedger) error {
		if err := ensureNotClosed(ledger); err != nil {
			return err
		}
		charged, err := tx.TripCharged(ctx, tripID)
		if err != nil {
			return err
		}
		if charged {
			return fmt.Errorf("%w: trip %s already charged", apperrors.ErrDuplicate, tripID)
		}

		now := s.now()
		txn = domain.Transaction{
			TransactionID:    s.newID(),
			DriverID:         driverID,
			Source:           domain.TripSource(tripID),
			GrossAmount:      gross,
			CommissionAmount: commission,
			NetAmount:        domain.RoundMoney(gross.Sub(commission)),
			Status:           domain.TransactionSettled,
			Timestamps:       domain.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		if err := tx.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		ledger.CommissionDebt = ledger.CommissionDebt.Add(commission)
		ledger.LifetimeIncomeTotal = ledger.LifetimeIncomeTotal.Add(gross)
		ledger.LifetimeCommissionTotal = ledger.LifetimeCommissionTotal.Add(commission)
		ledger.LastTransactionID = txn.TransactionID
		ledger.Touch(now)
		ledger.Normalize()
		return tx.SaveLedger(ctx, *ledger)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record trip commission",
			slog.String("driver_id", driverID),
			slog.String("trip_id", tripID))
		return nil, err
	}

	s.committed(driverID, false)
	s.LogInfo(ctx, "Trip commission recorded",
		slog.String("driver_id", driverID),
		slog.String("trip_id", tripID),
		slog.String("commission", commission.StringFixed(domain.MoneyPrecision)))
	return &txn, nil
}

// SetAccountStatus changes the administrative state of the driver's ledger.
func (s *SettlementService) SetAccountStatus(ctx context.Context, driverID string, status domain.AccountStatus) (_ *domain.AccountLedger, err error) {
	defer func() { observability.RecordSettlement("set_status", err) }()

	if err := requireDriver(driverID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, status)
	}

	var updated domain.AccountLedger
	err = s.ledgerRepo.WithLedgerLock(ctx, driverID, func(tx portsrepo.LedgerTx, ledger *domain.AccountLedger) error {
		ledger.AccountStatus = status
		ledger.Touch(s.now())
		updated = *ledger
		return tx.SaveLedger(ctx, *ledger)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to set account status", slog.String("driver_id", driverID))
		return nil, err
	}

	s.committed(driverID, false)
	s.LogInfo(ctx, "Account status changed", slog.String("driver_id", driverID), slog.String("status", string(status)))
	return &updated, nil
}

// commissionPaymentTransaction builds the settled entry that pays amount off the debt.
func commissionPaymentTransaction(id, driverID string, amount decimal.Decimal, reference, notes string, now time.Time) domain.Transaction {
	return domain.Transaction{
		TransactionID:    id,
		DriverID:         driverID,
		Source:           domain.CommissionPaymentSource(),
		GrossAmount:      amount,
		CommissionAmount: amount.Neg(),
		NetAmount:        decimal.Zero,
		Reference:        reference,
		Notes:            notes,
		Status:           domain.TransactionSettled,
		Timestamps:       domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
}
