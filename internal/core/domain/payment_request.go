package domain

import (
	"github.com/shopspring/decimal"
)

// PaymentRequestStatus is the review state of a driver's payment claim.
type PaymentRequestStatus string

const (
	PaymentInReview PaymentRequestStatus = "IN_REVIEW"
	PaymentApproved PaymentRequestStatus = "APPROVED"
	PaymentRejected PaymentRequestStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is allowed.
func (s PaymentRequestStatus) IsTerminal() bool {
	return s == PaymentApproved || s == PaymentRejected
}

// PaymentRequest is a driver's claim that commission debt was paid off-platform.
// Debt only moves when an admin approves it.
type PaymentRequest struct {
	RequestID            string               `json:"requestID"`
	DriverID             string               `json:"driverID"`
	Amount               decimal.Decimal      `json:"amount"`
	Reference            string               `json:"reference,omitempty"`
	Notes                string               `json:"notes,omitempty"`
	Status               PaymentRequestStatus `json:"status"`
	AppliedAmount        *decimal.Decimal     `json:"appliedAmount,omitempty"`
	DebtBefore           *decimal.Decimal     `json:"debtBefore,omitempty"`
	DebtAfter            *decimal.Decimal     `json:"debtAfter,omitempty"`
	AppliedTransactionID string               `json:"appliedTransactionID,omitempty"`
	AdminNote            string               `json:"adminNote,omitempty"`
	RejectionReason      string               `json:"rejectionReason,omitempty"`
	ReviewedBy           string               `json:"reviewedBy,omitempty"`
	Timestamps
}
