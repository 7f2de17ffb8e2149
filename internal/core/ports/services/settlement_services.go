package services

import (
	"context"

	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/dto"
)

// PaymentReviewSvc defines the driver submission and admin review of payment claims.
type PaymentReviewSvc interface {
	// SubmitPaymentRequest creates an IN_REVIEW request. The ledger is not touched.
	SubmitPaymentRequest(ctx context.Context, driverID string, req dto.SubmitPaymentRequest) (string, error)

	// ApprovePaymentRequest applies min(amount, debt) against the driver's debt and
	// queues the receipt for the payment.
	ApprovePaymentRequest(ctx context.Context, driverID, requestID, reviewerID string, req dto.ApprovePaymentRequest) error

	// RejectPaymentRequest closes an IN_REVIEW request without touching the ledger.
	RejectPaymentRequest(ctx context.Context, driverID, requestID, reviewerID string, req dto.RejectPaymentRequest) error
}

// DirectSettlementSvc defines ledger mutations that do not go through review.
type DirectSettlementSvc interface {
	// RecordManualPayment applies a self-service payment directly to the debt.
	RecordManualPayment(ctx context.Context, driverID string, req dto.ManualPaymentRequest) error

	// RecordTripCommission charges the commission of a completed trip once per trip.
	RecordTripCommission(ctx context.Context, driverID string, req dto.TripCommissionRequest) (*domain.Transaction, error)

	// SetAccountStatus changes the administrative state of the driver's ledger.
	SetAccountStatus(ctx context.Context, driverID string, status domain.AccountStatus) (*domain.AccountLedger, error)
}

// SettlementSvcFacade combines all settlement service interfaces.
type SettlementSvcFacade interface {
	PaymentReviewSvc
	DirectSettlementSvc
}
