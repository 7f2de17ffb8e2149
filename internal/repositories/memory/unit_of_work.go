package memory

import (
	"context"
	"fmt"

	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
)

// memTx stages the writes of one WithLedgerLock callback.
type memTx struct {
	store    *Store
	driverID string
	ensure   bool

	ledger       *domain.AccountLedger
	inserts      []domain.PaymentRequest
	updates      []domain.PaymentRequest
	transactions []domain.Transaction
	jobs         []domain.ReceiptJob
}

var _ portsrepo.LedgerTx = (*memTx)(nil)

func (t *memTx) FindPaymentRequest(_ context.Context, requestID string) (*domain.PaymentRequest, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.findRequestLocked(t.driverID, requestID)
}

func (t *memTx) TripCharged(_ context.Context, tripID string) (bool, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.tripChargedLocked(t.driverID, tripID), nil
}

func (t *memTx) InsertPaymentRequest(_ context.Context, req domain.PaymentRequest) error {
	t.inserts = append(t.inserts, req)
	return nil
}

func (t *memTx) UpdatePaymentRequest(_ context.Context, req domain.PaymentRequest) error {
	t.updates = append(t.updates, req)
	return nil
}

func (t *memTx) AppendTransaction(_ context.Context, txn domain.Transaction) error {
	t.transactions = append(t.transactions, txn)
	return nil
}

func (t *memTx) SaveLedger(_ context.Context, ledger domain.AccountLedger) error {
	t.ledger = &ledger
	return nil
}

func (t *memTx) EnqueueReceiptJob(_ context.Context, job domain.ReceiptJob) error {
	t.jobs = append(t.jobs, job)
	return nil
}

// apply validates every staged write first and then applies all of them, so a
// failing constraint leaves the store untouched.
func (t *memTx) apply() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	seenTrips := make(map[string]bool)
	for _, txn := range t.transactions {
		if txn.Source.IsCommissionPayment() {
			continue
		}
		if seenTrips[txn.Source.TripID] || s.tripChargedLocked(t.driverID, txn.Source.TripID) {
			return fmt.Errorf("%w: trip %s already charged", apperrors.ErrDuplicate, txn.Source.TripID)
		}
		seenTrips[txn.Source.TripID] = true
	}
	for _, req := range t.inserts {
		if _, exists := s.requests[req.RequestID]; exists {
			return fmt.Errorf("%w: payment request %s", apperrors.ErrDuplicate, req.RequestID)
		}
	}
	for _, req := range t.updates {
		if cur, ok := s.requests[req.RequestID]; !ok || cur.DriverID != t.driverID {
			return apperrors.Storage("update of unknown payment request "+req.RequestID, apperrors.ErrNotFound)
		}
	}
	for _, job := range t.jobs {
		for _, existing := range s.jobs {
			if existing.PaymentRequestID == job.PaymentRequestID {
				return fmt.Errorf("%w: receipt job for payment request %s", apperrors.ErrDuplicate, job.PaymentRequestID)
			}
		}
	}

	if t.ensure {
		if _, exists := s.ledgers[t.driverID]; !exists {
			s.ledgers[t.driverID] = domain.NewAccountLedger(t.driverID, s.now())
		}
	}
	if t.ledger != nil {
		s.ledgers[t.driverID] = *t.ledger
	}
	for _, req := range t.inserts {
		s.requests[req.RequestID] = req
	}
	for _, req := range t.updates {
		s.requests[req.RequestID] = req
	}
	s.transactions[t.driverID] = append(s.transactions[t.driverID], t.transactions...)
	for _, job := range t.jobs {
		s.jobs[job.JobID] = job
	}
	return nil
}

func (s *Store) tripChargedLocked(driverID, tripID string) bool {
	for _, txn := range s.transactions[driverID] {
		if !txn.Source.IsCommissionPayment() && txn.Source.TripID == tripID {
			return true
		}
	}
	return false
}
