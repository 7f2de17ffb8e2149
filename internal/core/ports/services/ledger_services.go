package services

import (
	"context"

	"github.com/qorinti/ledger_backend/internal/core/domain"
)

// LedgerReaderSvc defines read operations over a driver's ledger group.
type LedgerReaderSvc interface {
	// GetLedger returns the driver's ledger, or a zeroed one if the driver has none yet.
	GetLedger(ctx context.Context, driverID string) (*domain.AccountLedger, error)

	// ListTransactions returns newest-first transactions with a token for the next page.
	ListTransactions(ctx context.Context, driverID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// ListPaymentRequests returns the driver's newest payment requests.
	ListPaymentRequests(ctx context.Context, driverID string, limit int) ([]domain.PaymentRequest, error)

	GetPaymentRequest(ctx context.Context, driverID, requestID string) (*domain.PaymentRequest, error)

	// ListPendingPaymentRequests is the admin review queue across drivers, oldest first.
	ListPendingPaymentRequests(ctx context.Context, limit int) ([]domain.PaymentRequest, error)
}

// LedgerSubscriberSvc exposes live views. Each channel first yields the current
// state, then a fresh snapshot after every committed change, and is closed when
// ctx is done.
type LedgerSubscriberSvc interface {
	SubscribeLedger(ctx context.Context, driverID string) (<-chan domain.AccountLedger, error)
	SubscribeTransactions(ctx context.Context, driverID string, limit int) (<-chan []domain.Transaction, error)
	SubscribePaymentRequests(ctx context.Context, driverID string, limit int) (<-chan []domain.PaymentRequest, error)
}

// StatementSvc renders a downloadable statement of the driver's ledger.
type StatementSvc interface {
	ExportStatement(ctx context.Context, driverID string, limit int) ([]byte, string, error)
}

// LedgerSvcFacade combines all ledger read-side service interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerSubscriberSvc
	StatementSvc
}
