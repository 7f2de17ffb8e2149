package services

import (
	"context"

	"github.com/qorinti/ledger_backend/internal/core/domain"
)

// ReceiptEmitterSvc issues the billing document of one approved payment.
type ReceiptEmitterSvc interface {
	// EmitReceipt is idempotent per payment request: a second call returns the
	// receipt issued by the first.
	EmitReceipt(ctx context.Context, job domain.ReceiptJob) (*domain.Receipt, error)
}

// ReceiptQuerySvc defines lookups over issued receipts and the receipt outbox.
type ReceiptQuerySvc interface {
	GetReceiptByPaymentRequest(ctx context.Context, driverID, requestID string) (*domain.Receipt, error)

	// ListUnreceiptedJobs lists PENDING and FAILED jobs, or only the given status.
	ListUnreceiptedJobs(ctx context.Context, status *domain.ReceiptJobStatus, limit int) ([]domain.ReceiptJob, error)

	// RetryReceiptJob moves a FAILED job back to PENDING with a fresh attempt budget.
	RetryReceiptJob(ctx context.Context, jobID string) (*domain.ReceiptJob, error)
}

// ReceiptSvcFacade combines all receipt service interfaces.
type ReceiptSvcFacade interface {
	ReceiptEmitterSvc
	ReceiptQuerySvc
}
