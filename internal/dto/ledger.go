package dto

import (
	"time"

	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerResponse mirrors domain.AccountLedger.
type LedgerResponse struct {
	DriverID                string               `json:"driverId"`
	AvailableBalance        decimal.Decimal      `json:"availableBalance" swaggertype:"string"`
	HeldBalance             decimal.Decimal      `json:"heldBalance" swaggertype:"string"`
	CommissionDebt          decimal.Decimal      `json:"commissionDebt" swaggertype:"string"`
	LifetimeIncomeTotal     decimal.Decimal      `json:"lifetimeIncomeTotal" swaggertype:"string"`
	LifetimeCommissionTotal decimal.Decimal      `json:"lifetimeCommissionTotal" swaggertype:"string"`
	AccountStatus           domain.AccountStatus `json:"accountStatus"`
	LastTransactionID       string               `json:"lastTransactionId,omitempty"`
	CreatedAt               time.Time            `json:"createdAt"`
	UpdatedAt               time.Time            `json:"updatedAt"`
}

// TransactionResponse flattens the transaction source into a kind and an optional trip id.
type TransactionResponse struct {
	TransactionID    string                   `json:"transactionId"`
	SourceKind       domain.SourceKind        `json:"sourceKind"`
	SourceTripID     string                   `json:"sourceTripId,omitempty"`
	GrossAmount      decimal.Decimal          `json:"grossAmount" swaggertype:"string"`
	CommissionAmount decimal.Decimal          `json:"commissionAmount" swaggertype:"string"`
	NetAmount        decimal.Decimal          `json:"netAmount" swaggertype:"string"`
	Reference        string                   `json:"reference,omitempty"`
	Notes            string                   `json:"notes,omitempty"`
	Status           domain.TransactionStatus `json:"status"`
	CreatedAt        time.Time                `json:"createdAt"`
}

// ListTransactionsResponse is one page of the transaction log.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// PaymentRequestResponse mirrors domain.PaymentRequest.
type PaymentRequestResponse struct {
	RequestID            string                      `json:"requestId"`
	DriverID             string                      `json:"driverId"`
	Amount               decimal.Decimal             `json:"amount" swaggertype:"string"`
	Reference            string                      `json:"reference,omitempty"`
	Notes                string                      `json:"notes,omitempty"`
	Status               domain.PaymentRequestStatus `json:"status"`
	AppliedAmount        *decimal.Decimal            `json:"appliedAmount,omitempty" swaggertype:"string"`
	DebtBefore           *decimal.Decimal            `json:"debtBefore,omitempty" swaggertype:"string"`
	DebtAfter            *decimal.Decimal            `json:"debtAfter,omitempty" swaggertype:"string"`
	AppliedTransactionID string                      `json:"appliedTransactionId,omitempty"`
	AdminNote            string                      `json:"adminNote,omitempty"`
	RejectionReason      string                      `json:"rejectionReason,omitempty"`
	ReviewedBy           string                      `json:"reviewedBy,omitempty"`
	CreatedAt            time.Time                   `json:"createdAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`
}

// ListPaymentRequestsResponse wraps a list of payment requests.
type ListPaymentRequestsResponse struct {
	PaymentRequests []PaymentRequestResponse `json:"paymentRequests"`
}

// ToLedgerResponse converts a domain.AccountLedger to LedgerResponse DTO.
func ToLedgerResponse(l domain.AccountLedger) LedgerResponse {
	return LedgerResponse{
		DriverID:                l.DriverID,
		AvailableBalance:        l.AvailableBalance,
		HeldBalance:             l.HeldBalance,
		CommissionDebt:          l.CommissionDebt,
		LifetimeIncomeTotal:     l.LifetimeIncomeTotal,
		LifetimeCommissionTotal: l.LifetimeCommissionTotal,
		AccountStatus:           l.AccountStatus,
		LastTransactionID:       l.LastTransactionID,
		CreatedAt:               l.CreatedAt,
		UpdatedAt:               l.UpdatedAt,
	}
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:    t.TransactionID,
		SourceKind:       t.Source.Kind,
		SourceTripID:     t.Source.TripID,
		GrossAmount:      t.GrossAmount,
		CommissionAmount: t.CommissionAmount,
		NetAmount:        t.NetAmount,
		Reference:        t.Reference,
		Notes:            t.Notes,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		responses[i] = ToTransactionResponse(t)
	}
	return responses
}

// ToPaymentRequestResponse converts a domain.PaymentRequest to PaymentRequestResponse DTO.
func ToPaymentRequestResponse(r domain.PaymentRequest) PaymentRequestResponse {
	return PaymentRequestResponse{
		RequestID:            r.RequestID,
		DriverID:             r.DriverID,
		Amount:               r.Amount,
		Reference:            r.Reference,
		Notes:                r.Notes,
		Status:               r.Status,
		AppliedAmount:        r.AppliedAmount,
		DebtBefore:           r.DebtBefore,
		DebtAfter:            r.DebtAfter,
		AppliedTransactionID: r.AppliedTransactionID,
		AdminNote:            r.AdminNote,
		RejectionReason:      r.RejectionReason,
		ReviewedBy:           r.ReviewedBy,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

// ToPaymentRequestResponses converts a slice of domain.PaymentRequest.
func ToPaymentRequestResponses(reqs []domain.PaymentRequest) []PaymentRequestResponse {
	responses := make([]PaymentRequestResponse, len(reqs))
	for i, r := range reqs {
		responses[i] = ToPaymentRequestResponse(r)
	}
	return responses
}
