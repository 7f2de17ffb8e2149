package repositories

import (
	"context"

	"github.com/qorinti/ledger_backend/internal/core/domain"
)

// LedgerTx is the set of reads and writes available inside one ledger unit of work.
// Writes are only visible to other callers once the surrounding WithLedgerLock returns nil.
type LedgerTx interface {
	// FindPaymentRequest reads a request of the locked driver. Returns apperrors.ErrNotFound when absent.
	FindPaymentRequest(ctx context.Context, requestID string) (*domain.PaymentRequest, error)

	// InsertPaymentRequest stores a new request.
	InsertPaymentRequest(ctx context.Context, req domain.PaymentRequest) error

	// UpdatePaymentRequest overwrites the mutable fields of an existing request.
	UpdatePaymentRequest(ctx context.Context, req domain.PaymentRequest) error

	// AppendTransaction adds a transaction to the log. Returns apperrors.ErrDuplicate when a
	// trip transaction for the same trip already exists.
	AppendTransaction(ctx context.Context, txn domain.Transaction) error

	// TripCharged reports whether a trip transaction for tripID exists for the locked driver.
	TripCharged(ctx context.Context, tripID string) (bool, error)

	// SaveLedger persists the locked ledger.
	SaveLedger(ctx context.Context, ledger domain.AccountLedger) error

	// EnqueueReceiptJob writes a receipt outbox entry.
	EnqueueReceiptJob(ctx context.Context, job domain.ReceiptJob) error
}

// LedgerUnitOfWork serializes every mutation of a driver's ledger group.
type LedgerUnitOfWork interface {
	// WithLedgerLock ensures the driver's ledger exists, locks it, and runs fn with the
	// locked snapshot. All writes made through tx commit atomically when fn returns nil
	// and are discarded when it returns an error.
	WithLedgerLock(ctx context.Context, driverID string, fn func(tx LedgerTx, ledger *domain.AccountLedger) error) error
}

// LedgerReader defines read operations for ledger snapshots.
type LedgerReader interface {
	// FindLedger returns apperrors.ErrNotFound when the driver has no ledger yet.
	FindLedger(ctx context.Context, driverID string) (*domain.AccountLedger, error)
}

// TransactionReader defines read operations for the transaction log.
type TransactionReader interface {
	// ListTransactionsByDriver returns newest-first transactions and a token for the next page.
	ListTransactionsByDriver(ctx context.Context, driverID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// PaymentRequestReader defines read operations for payment requests.
type PaymentRequestReader interface {
	FindPaymentRequest(ctx context.Context, driverID, requestID string) (*domain.PaymentRequest, error)

	// ListPaymentRequestsByDriver returns the newest requests of one driver.
	ListPaymentRequestsByDriver(ctx context.Context, driverID string, limit int) ([]domain.PaymentRequest, error)

	// ListPaymentRequestsByStatus returns requests across drivers, oldest first.
	ListPaymentRequestsByStatus(ctx context.Context, status domain.PaymentRequestStatus, limit int) ([]domain.PaymentRequest, error)
}

// LedgerRepositoryFacade combines all ledger-group repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerUnitOfWork
	LedgerReader
	TransactionReader
	PaymentRequestReader
}
