// Package memory provides in-process implementations of the repository ports.
// They honour the same locking and atomicity contract as the Postgres ones and
// back the service tests and the STORAGE_DRIVER=memory mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	"github.com/qorinti/ledger_backend/internal/utils/pagination"
)

const defaultListLimit = 20

// Store holds every table of the ledger in maps guarded by one RWMutex. Per-driver
// mutexes serialize WithLedgerLock callers for the same driver.
type Store struct {
	mu sync.RWMutex

	ledgers      map[string]domain.AccountLedger
	transactions map[string][]domain.Transaction // by driver, insertion order
	requests     map[string]domain.PaymentRequest
	receipts     map[string]domain.Receipt // by payment request
	jobs         map[string]domain.ReceiptJob
	drivers      map[string]domain.DriverProfile

	lockMu      sync.Mutex
	driverLocks map[string]*sync.Mutex

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		ledgers:      make(map[string]domain.AccountLedger),
		transactions: make(map[string][]domain.Transaction),
		requests:     make(map[string]domain.PaymentRequest),
		receipts:     make(map[string]domain.Receipt),
		jobs:         make(map[string]domain.ReceiptJob),
		drivers:      make(map[string]domain.DriverProfile),
		driverLocks:  make(map[string]*sync.Mutex),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var (
	_ portsrepo.LedgerRepositoryFacade  = (*Store)(nil)
	_ portsrepo.ReceiptRepositoryFacade = (*Store)(nil)
	_ portsrepo.DriverDirectory         = (*Store)(nil)
)

// Provider exposes the store through the repository provider.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:      s,
		ReceiptRepo:     s,
		DriverDirectory: s,
	}
}

// PutDriver registers a driver profile for the directory.
func (s *Store) PutDriver(p domain.DriverProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[p.DriverID] = p
}

// PutLedger overwrites a ledger. Meant for seeding.
func (s *Store) PutLedger(l domain.AccountLedger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[l.DriverID] = l
}

func (s *Store) driverLock(driverID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.driverLocks[driverID]
	if !ok {
		l = &sync.Mutex{}
		s.driverLocks[driverID] = l
	}
	return l
}

// WithLedgerLock runs fn under the driver's lock. Writes are staged and applied
// together only when fn returns nil.
func (s *Store) WithLedgerLock(ctx context.Context, driverID string, fn func(tx portsrepo.LedgerTx, ledger *domain.AccountLedger) error) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Storage("context done before ledger lock", err)
	}
	lock := s.driverLock(driverID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	ledger, ok := s.ledgers[driverID]
	s.mu.RUnlock()
	if !ok {
		ledger = domain.NewAccountLedger(driverID, s.now())
	}

	tx := &memTx{store: s, driverID: driverID, ensure: !ok}
	snapshot := ledger
	if err := fn(tx, &snapshot); err != nil {
		return err
	}
	return tx.apply()
}

// FindLedger retrieves a ledger by driver ID.
func (s *Store) FindLedger(_ context.Context, driverID string) (*domain.AccountLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[driverID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &l, nil
}

// ListTransactionsByDriver returns newest-first transactions using token-based pagination.
func (s *Store) ListTransactionsByDriver(_ context.Context, driverID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		cursorAt  time.Time
		cursorID  string
		hasCursor bool
	)
	if nextToken != nil && *nextToken != "" {
		at, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		cursorAt, cursorID, hasCursor = at, id, true
	}

	s.mu.RLock()
	all := append([]domain.Transaction(nil), s.transactions[driverID]...)
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].TransactionID > all[j].TransactionID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	page := make([]domain.Transaction, 0, limit+1)
	for _, t := range all {
		if hasCursor && !pagination.Before(t.CreatedAt, t.TransactionID, cursorAt, cursorID) {
			continue
		}
		page = append(page, t)
		if len(page) > limit {
			break
		}
	}

	var next *string
	if len(page) > limit {
		last := page[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		next = &token
		page = page[:limit]
	}
	return page, next, nil
}

// FindPaymentRequest retrieves a payment request of a driver.
func (s *Store) FindPaymentRequest(_ context.Context, driverID, requestID string) (*domain.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findRequestLocked(driverID, requestID)
}

func (s *Store) findRequestLocked(driverID, requestID string) (*domain.PaymentRequest, error) {
	r, ok := s.requests[requestID]
	if !ok || r.DriverID != driverID {
		return nil, fmt.Errorf("%w: payment request %s", apperrors.ErrNotFound, requestID)
	}
	return &r, nil
}

// ListPaymentRequestsByDriver returns the newest requests of one driver.
func (s *Store) ListPaymentRequestsByDriver(_ context.Context, driverID string, limit int) ([]domain.PaymentRequest, error) {
	return s.listRequests(limit, false, func(r domain.PaymentRequest) bool { return r.DriverID == driverID }), nil
}

// ListPaymentRequestsByStatus returns requests across drivers, oldest first.
func (s *Store) ListPaymentRequestsByStatus(_ context.Context, status domain.PaymentRequestStatus, limit int) ([]domain.PaymentRequest, error) {
	return s.listRequests(limit, true, func(r domain.PaymentRequest) bool { return r.Status == status }), nil
}

func (s *Store) listRequests(limit int, ascending bool, keep func(domain.PaymentRequest) bool) []domain.PaymentRequest {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.RLock()
	var out []domain.PaymentRequest
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt) == ascending
		}
		return (a.RequestID < b.RequestID) == ascending
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FindDriverProfile retrieves a registered driver profile.
func (s *Store) FindDriverProfile(_ context.Context, driverID string) (*domain.DriverProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.drivers[driverID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}
