package repositories

import (
	"context"
	"time"

	"github.com/qorinti/ledger_backend/internal/core/domain"
)

// ReceiptReader defines read operations for the receipt index.
type ReceiptReader interface {
	// FindReceiptByPaymentRequest returns apperrors.ErrNotFound when nothing was issued yet.
	FindReceiptByPaymentRequest(ctx context.Context, paymentRequestID string) (*domain.Receipt, error)
}

// ReceiptWriter defines write operations for the receipt index.
type ReceiptWriter interface {
	// SaveReceipt stores a receipt. Returns apperrors.ErrDuplicate when the payment
	// request already has one.
	SaveReceipt(ctx context.Context, receipt domain.Receipt) error
}

// ReceiptJobRepository defines the receipt outbox operations used by the worker and admins.
type ReceiptJobRepository interface {
	FindReceiptJob(ctx context.Context, jobID string) (*domain.ReceiptJob, error)

	// ClaimDueReceiptJobs returns PENDING jobs whose NextAttemptAt is not after now and
	// pushes their NextAttemptAt to leaseUntil so that concurrent workers skip them.
	ClaimDueReceiptJobs(ctx context.Context, now, leaseUntil time.Time, limit int) ([]domain.ReceiptJob, error)

	// ListReceiptJobsByStatus returns jobs in any of the given statuses, oldest first.
	ListReceiptJobsByStatus(ctx context.Context, statuses []domain.ReceiptJobStatus, limit int) ([]domain.ReceiptJob, error)

	UpdateReceiptJob(ctx context.Context, job domain.ReceiptJob) error
}

// ReceiptRepositoryFacade combines all receipt-related repository interfaces.
type ReceiptRepositoryFacade interface {
	ReceiptReader
	ReceiptWriter
	ReceiptJobRepository
}
