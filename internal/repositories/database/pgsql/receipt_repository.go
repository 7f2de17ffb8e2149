package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	"github.com/qorinti/ledger_backend/internal/models"
	"github.com/qorinti/ledger_backend/internal/utils/mapping"
)

const (
	receiptColumns = `receipt_id, payment_request_id, driver_id, document_type, series,
		number, series_number, amount, issue_date, pdf_url, created_at`

	receiptJobColumns = `job_id, payment_request_id, driver_id, amount, status, attempts,
		last_error, next_attempt_at, created_at, updated_at`
)

// PgxReceiptRepository stores the receipt index and the receipt outbox.
type PgxReceiptRepository struct {
	BaseRepository
}

func newPgxReceiptRepository(pool *pgxpool.Pool) *PgxReceiptRepository {
	return &PgxReceiptRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReceiptRepositoryFacade = (*PgxReceiptRepository)(nil)

// SaveReceipt inserts a receipt. The unique payment_request_id column turns a second
// emission for the same payment into apperrors.ErrDuplicate.
func (r *PgxReceiptRepository) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	m := mapping.ToModelReceipt(receipt)
	query := `INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	_, err := r.Pool.Exec(ctx, query,
		m.ReceiptID, m.PaymentRequestID, m.DriverID, m.DocumentType, m.Series,
		m.Number, m.SeriesNumber, m.Amount, m.IssueDate, m.PdfURL, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: receipt for payment request %s", apperrors.ErrDuplicate, m.PaymentRequestID)
		}
		return apperrors.Storage("failed to insert receipt "+m.ReceiptID, err)
	}
	return nil
}

// FindReceiptByPaymentRequest retrieves the receipt issued for a payment request.
func (r *PgxReceiptRepository) FindReceiptByPaymentRequest(ctx context.Context, paymentRequestID string) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE payment_request_id = $1;`
	var m models.Receipt
	err := r.Pool.QueryRow(ctx, query, paymentRequestID).Scan(
		&m.ReceiptID,
		&m.PaymentRequestID,
		&m.DriverID,
		&m.DocumentType,
		&m.Series,
		&m.Number,
		&m.SeriesNumber,
		&m.Amount,
		&m.IssueDate,
		&m.PdfURL,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage("failed to find receipt for payment request "+paymentRequestID, err)
	}
	d := mapping.ToDomainReceipt(m)
	return &d, nil
}

// FindReceiptJob retrieves an outbox entry by ID.
func (r *PgxReceiptRepository) FindReceiptJob(ctx context.Context, jobID string) (*domain.ReceiptJob, error) {
	query := `SELECT ` + receiptJobColumns + ` FROM receipt_jobs WHERE job_id = $1;`
	m, err := scanReceiptJob(r.Pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage("failed to find receipt job "+jobID, err)
	}
	d := mapping.ToDomainReceiptJob(m)
	return &d, nil
}

// ClaimDueReceiptJobs leases due PENDING jobs. SKIP LOCKED lets several instances
// poll the same table without handing out a job twice.
func (r *PgxReceiptRepository) ClaimDueReceiptJobs(ctx context.Context, now, leaseUntil time.Time, limit int) ([]domain.ReceiptJob, error) {
	query := `
		UPDATE receipt_jobs SET next_attempt_at = $2, updated_at = $1
		WHERE job_id IN (
			SELECT job_id FROM receipt_jobs
			WHERE status = 'PENDING' AND next_attempt_at <= $1
			ORDER BY next_attempt_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + receiptJobColumns + `;`
	return r.queryReceiptJobs(ctx, query, now, leaseUntil, limit)
}

// ListReceiptJobsByStatus retrieves jobs in any of the given statuses, oldest first.
func (r *PgxReceiptRepository) ListReceiptJobsByStatus(ctx context.Context, statuses []domain.ReceiptJobStatus, limit int) ([]domain.ReceiptJob, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	query := `SELECT ` + receiptJobColumns + ` FROM receipt_jobs
		WHERE status = ANY($1) ORDER BY created_at ASC LIMIT $2;`
	return r.queryReceiptJobs(ctx, query, raw, limit)
}

// UpdateReceiptJob persists the status and retry bookkeeping of a job.
func (r *PgxReceiptRepository) UpdateReceiptJob(ctx context.Context, job domain.ReceiptJob) error {
	m := mapping.ToModelReceiptJob(job)
	query := `
		UPDATE receipt_jobs
		SET status = $2, attempts = $3, last_error = $4, next_attempt_at = $5, updated_at = $6
		WHERE job_id = $1;`
	tag, err := r.Pool.Exec(ctx, query, m.JobID, m.Status, m.Attempts, m.LastError, m.NextAttemptAt, m.UpdatedAt)
	if err != nil {
		return apperrors.Storage("failed to update receipt job "+m.JobID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxReceiptRepository) queryReceiptJobs(ctx context.Context, query string, args ...any) ([]domain.ReceiptJob, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("failed to query receipt jobs", err)
	}
	defer rows.Close()

	var list []models.ReceiptJob
	for rows.Next() {
		m, err := scanReceiptJob(rows)
		if err != nil {
			return nil, apperrors.Storage("failed to scan receipt job row", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("error iterating receipt job rows", err)
	}
	return mapping.ToDomainReceiptJobSlice(list), nil
}

func scanReceiptJob(row scanner) (models.ReceiptJob, error) {
	var m models.ReceiptJob
	err := row.Scan(
		&m.JobID,
		&m.PaymentRequestID,
		&m.DriverID,
		&m.Amount,
		&m.Status,
		&m.Attempts,
		&m.LastError,
		&m.NextAttemptAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}
