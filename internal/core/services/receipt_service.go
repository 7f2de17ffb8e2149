package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/qorinti/ledger_backend/internal/core/ports/services"
)

// ReceiptNumberer yields the numeric suffix of a document number.
type ReceiptNumberer interface {
	Next() string
}

// SnowflakeNumberer derives document numbers from wall-clock snowflake IDs. They
// are monotonically increasing per node and unique across nodes with distinct IDs.
type SnowflakeNumberer struct {
	node *snowflake.Node
}

// NewSnowflakeNumberer creates a numberer for node (0-1023).
func NewSnowflakeNumberer(node int64) (*SnowflakeNumberer, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("create receipt numbering node %d: %w", node, err)
	}
	return &SnowflakeNumberer{node: n}, nil
}

// Next returns the next number.
func (n *SnowflakeNumberer) Next() string {
	return n.node.Generate().String()
}

// ReceiptService issues billing documents and exposes the receipt outbox to admins.
type ReceiptService struct {
	BaseService
	receiptRepo portsrepo.ReceiptRepositoryFacade
	directory   portsrepo.DriverDirectory
	renderer    gateways.ReceiptRenderer
	blobs       gateways.BlobStorage
	numberer    ReceiptNumberer
	issuer      domain.IssuerIdentity
	signal      ReceiptSignal
	now         func() time.Time
}

// ReceiptServiceOption is a function that configures a ReceiptService.
type ReceiptServiceOption func(*ReceiptService)

// WithReceiptClock overrides the clock used for issue dates.
func WithReceiptClock(now func() time.Time) ReceiptServiceOption {
	return func(s *ReceiptService) {
		s.now = now
	}
}

// WithRetrySignal wakes the worker after an admin retries a job.
func WithRetrySignal(signal ReceiptSignal) ReceiptServiceOption {
	return func(s *ReceiptService) {
		s.signal = signal
	}
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(
	receiptRepo portsrepo.ReceiptRepositoryFacade,
	directory portsrepo.DriverDirectory,
	renderer gateways.ReceiptRenderer,
	blobs gateways.BlobStorage,
	numberer ReceiptNumberer,
	issuer domain.IssuerIdentity,
	options ...ReceiptServiceOption,
) *ReceiptService {
	svc := &ReceiptService{
		receiptRepo: receiptRepo,
		directory:   directory,
		renderer:    renderer,
		blobs:       blobs,
		numberer:    numberer,
		issuer:      issuer,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ReceiptSvcFacade = (*ReceiptService)(nil)

// ReceiptPath is the blob path of a receipt artifact.
func ReceiptPath(driverID, seriesNumber string) string {
	return fmt.Sprintf("receipts/%s/%s.pdf", driverID, seriesNumber)
}

// VerifyPayload is the text encoded in the receipt's QR code.
func VerifyPayload(issuer domain.IssuerIdentity, r domain.Receipt) string {
	return strings.Join([]string{
		issuer.TaxID,
		string(r.DocumentType),
		r.SeriesNumber,
		r.Amount.StringFixed(domain.MoneyPrecision),
		r.IssueDate.Format(time.DateOnly),
	}, "|")
}

func emissionError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrReceiptEmission, step, err)
}

// EmitReceipt renders, uploads and indexes the document of one approved payment.
// A payment that already has a receipt gets that receipt back.
func (s *ReceiptService) EmitReceipt(ctx context.Context, job domain.ReceiptJob) (*domain.Receipt, error) {
	existing, err := s.receiptRepo.FindReceiptByPaymentRequest(ctx, job.PaymentRequestID)
	if err == nil {
		s.LogDebug(ctx, "Receipt already issued", slog.String("payment_request_id", job.PaymentRequestID))
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, emissionError("look up receipt", err)
	}

	profile, err := s.directory.FindDriverProfile(ctx, job.DriverID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, emissionError("resolve driver", err)
		}
		s.LogDebug(ctx, "Driver not in directory, using default payee", slog.String("driver_id", job.DriverID))
		profile = &domain.DriverProfile{DriverID: job.DriverID}
	}

	docType := domain.DocumentTypeFor(strings.TrimSpace(profile.TaxID))
	number := s.numberer.Next()
	series := docType.Series()
	receipt := domain.Receipt{
		ReceiptID:        uuid.NewString(),
		PaymentRequestID: job.PaymentRequestID,
		DriverID:         job.DriverID,
		DocumentType:     docType,
		Series:           series,
		Number:           number,
		SeriesNumber:     series + "-" + number,
		Amount:           domain.RoundMoney(job.Amount),
		IssueDate:        s.now(),
	}
	receipt.CreatedAt = receipt.IssueDate

	doc := domain.ReceiptDocument{
		Receipt:       receipt,
		Issuer:        s.issuer,
		PayeeName:     profile.ResolvedName(),
		PayeeTaxID:    profile.BillingTaxID(),
		VerifyPayload: VerifyPayload(s.issuer, receipt),
	}
	artifact, err := s.renderer.Render(doc)
	if err != nil {
		return nil, emissionError("render", err)
	}

	url, err := s.blobs.Put(ctx, ReceiptPath(job.DriverID, receipt.SeriesNumber), s.renderer.ContentType(), artifact)
	if err != nil {
		return nil, emissionError("upload", err)
	}
	receipt.PdfURL = url

	if err := s.receiptRepo.SaveReceipt(ctx, receipt); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			winner, findErr := s.receiptRepo.FindReceiptByPaymentRequest(ctx, job.PaymentRequestID)
			if findErr != nil {
				return nil, emissionError("reload receipt", findErr)
			}
			return winner, nil
		}
		return nil, emissionError("index receipt", err)
	}

	s.LogInfo(ctx, "Receipt issued",
		slog.String("driver_id", job.DriverID),
		slog.String("payment_request_id", job.PaymentRequestID),
		slog.String("series_number", receipt.SeriesNumber),
		slog.String("document_type", string(docType)))
	return &receipt, nil
}

// GetReceiptByPaymentRequest returns the receipt of a driver's payment request.
func (s *ReceiptService) GetReceiptByPaymentRequest(ctx context.Context, driverID, requestID string) (*domain.Receipt, error) {
	receipt, err := s.receiptRepo.FindReceiptByPaymentRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no receipt for payment request %s", apperrors.ErrNotFound, requestID)
		}
		return nil, err
	}
	if receipt.DriverID != driverID {
		return nil, fmt.Errorf("%w: no receipt for payment request %s", apperrors.ErrNotFound, requestID)
	}
	return receipt, nil
}

// ListUnreceiptedJobs lists PENDING and FAILED jobs, or only those in status.
func (s *ReceiptService) ListUnreceiptedJobs(ctx context.Context, status *domain.ReceiptJobStatus, limit int) ([]domain.ReceiptJob, error) {
	statuses := []domain.ReceiptJobStatus{domain.ReceiptJobPending, domain.ReceiptJobFailed}
	if status != nil {
		switch *status {
		case domain.ReceiptJobPending, domain.ReceiptJobFailed, domain.ReceiptJobDone:
			statuses = []domain.ReceiptJobStatus{*status}
		default:
			return nil, fmt.Errorf("%w: unknown receipt job status %q", apperrors.ErrValidation, *status)
		}
	}
	return s.receiptRepo.ListReceiptJobsByStatus(ctx, statuses, clampLimit(limit))
}

// RetryReceiptJob moves a FAILED job back to PENDING with a fresh attempt budget.
func (s *ReceiptService) RetryReceiptJob(ctx context.Context, jobID string) (*domain.ReceiptJob, error) {
	job, err := s.receiptRepo.FindReceiptJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.ReceiptJobFailed {
		return nil, fmt.Errorf("%w: receipt job %s is %s", apperrors.ErrInvalidState, jobID, job.Status)
	}

	now := s.now()
	job.Status = domain.ReceiptJobPending
	job.Attempts = 0
	job.NextAttemptAt = now
	job.UpdatedAt = now
	if err := s.receiptRepo.UpdateReceiptJob(ctx, *job); err != nil {
		s.LogError(ctx, err, "Failed to requeue receipt job", slog.String("job_id", jobID))
		return nil, err
	}
	if s.signal != nil {
		s.signal.Notify()
	}
	s.LogInfo(ctx, "Receipt job requeued", slog.String("job_id", jobID), slog.String("payment_request_id", job.PaymentRequestID))
	return job, nil
}
