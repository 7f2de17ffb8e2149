package dto

import (
	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SubmitPaymentRequest is the driver's claim that commission debt was paid off-platform.
type SubmitPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,money" swaggertype:"string" example:"30.00"`
	Reference string          `json:"reference" binding:"max=120"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// SubmitPaymentResponse carries the id of the created request.
type SubmitPaymentResponse struct {
	RequestID string `json:"requestId"`
}

// ManualPaymentRequest records a self-service payment applied without review.
type ManualPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,money" swaggertype:"string" example:"15.50"`
	Reference string          `json:"reference" binding:"max=120"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// ApprovePaymentRequest is the optional admin annotation on approval.
type ApprovePaymentRequest struct {
	AdminNote string `json:"adminNote" binding:"max=500"`
}

// RejectPaymentRequest is the optional admin reason on rejection.
type RejectPaymentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// TripCommissionRequest charges the platform commission of a completed trip.
type TripCommissionRequest struct {
	TripID           string          `json:"tripId" binding:"required,max=128"`
	GrossAmount      decimal.Decimal `json:"grossAmount" binding:"required,money" swaggertype:"string" example:"80.00"`
	CommissionAmount decimal.Decimal `json:"commissionAmount" binding:"required" swaggertype:"string" example:"8.00"`
}

// SetAccountStatusRequest changes the administrative state of a ledger.
type SetAccountStatusRequest struct {
	Status domain.AccountStatus `json:"status" binding:"required,oneof=ACTIVE BLOCKED CLOSED"`
}
