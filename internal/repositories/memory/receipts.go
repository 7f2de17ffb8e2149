package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
)

// SaveReceipt stores a receipt, one per payment request.
func (s *Store) SaveReceipt(_ context.Context, receipt domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.receipts[receipt.PaymentRequestID]; exists {
		return fmt.Errorf("%w: receipt for payment request %s", apperrors.ErrDuplicate, receipt.PaymentRequestID)
	}
	s.receipts[receipt.PaymentRequestID] = receipt
	return nil
}

// FindReceiptByPaymentRequest retrieves the receipt issued for a payment request.
func (s *Store) FindReceiptByPaymentRequest(_ context.Context, paymentRequestID string) (*domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[paymentRequestID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

// FindReceiptJob retrieves an outbox entry by ID.
func (s *Store) FindReceiptJob(_ context.Context, jobID string) (*domain.ReceiptJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &j, nil
}

// ClaimDueReceiptJobs leases due PENDING jobs until leaseUntil.
func (s *Store) ClaimDueReceiptJobs(_ context.Context, now, leaseUntil time.Time, limit int) ([]domain.ReceiptJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []domain.ReceiptJob
	for _, j := range s.jobs {
		if j.Status == domain.ReceiptJobPending && !j.NextAttemptAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].NextAttemptAt.Before(due[k].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].NextAttemptAt = leaseUntil
		due[i].UpdatedAt = now
		s.jobs[due[i].JobID] = due[i]
	}
	return due, nil
}

// ListReceiptJobsByStatus returns jobs in any of the given statuses, oldest first.
func (s *Store) ListReceiptJobsByStatus(_ context.Context, statuses []domain.ReceiptJobStatus, limit int) ([]domain.ReceiptJob, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	want := make(map[domain.ReceiptJobStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	s.mu.RLock()
	var out []domain.ReceiptJob
	for _, j := range s.jobs {
		if want[j.Status] {
			out = append(out, j)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateReceiptJob persists the status and retry bookkeeping of a job.
func (s *Store) UpdateReceiptJob(_ context.Context, job domain.ReceiptJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; !ok {
		return apperrors.ErrNotFound
	}
	s.jobs[job.JobID] = job
	return nil
}
