package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/qorinti/ledger_backend/internal/core/ports/services"
	"github.com/qorinti/ledger_backend/internal/platform/observability"
)

const (
	defaultViewLimit   = 20
	maxViewLimit       = 200
	maxStatementLength = 5000
)

// LedgerService serves the read side of a driver's ledger group.
type LedgerService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryFacade
	broker     *ChangeBroker
	exporter   gateways.StatementExporter
	now        func() time.Time
}

// LedgerServiceOption is a function that configures a LedgerService.
type LedgerServiceOption func(*LedgerService)

// WithLedgerBroker enables the live subscriptions.
func WithLedgerBroker(broker *ChangeBroker) LedgerServiceOption {
	return func(s *LedgerService) {
		s.broker = broker
	}
}

// WithStatementExporter enables ExportStatement.
func WithStatementExporter(exporter gateways.StatementExporter) LedgerServiceOption {
	return func(s *LedgerService) {
		s.exporter = exporter
	}
}

// WithLedgerClock overrides the clock used to stamp zeroed ledgers.
func WithLedgerClock(now func() time.Time) LedgerServiceOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new LedgerService with the given options.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, options ...LedgerServiceOption) *LedgerService {
	svc := &LedgerService{
		ledgerRepo: ledgerRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*LedgerService)(nil)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultViewLimit
	}
	if limit > maxViewLimit {
		return maxViewLimit
	}
	return limit
}

// GetLedger returns the driver's ledger. A driver without one reads a zeroed ledger;
// it is persisted by the first mutation.
func (s *LedgerService) GetLedger(ctx context.Context, driverID string) (*domain.AccountLedger, error) {
	if err := requireDriver(driverID); err != nil {
		return nil, err
	}
	ledger, err := s.ledgerRepo.FindLedger(ctx, driverID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			zero := domain.NewAccountLedger(driverID, s.now())
			return &zero, nil
		}
		s.LogError(ctx, err, "Failed to get ledger", slog.String("driver_id", driverID))
		return nil, err
	}
	return ledger, nil
}

// ListTransactions returns newest-first transactions with a token for the next page.
func (s *LedgerService) ListTransactions(ctx context.Context, driverID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if err := requireDriver(driverID); err != nil {
		return nil, nil, err
	}
	txns, next, err := s.ledgerRepo.ListTransactionsByDriver(ctx, driverID, clampLimit(limit), nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.String("driver_id", driverID))
		return nil, nil, err
	}
	return txns, next, nil
}

// ListPaymentRequests returns the driver's newest payment requests.
func (s *LedgerService) ListPaymentRequests(ctx context.Context, driverID string, limit int) ([]domain.PaymentRequest, error) {
	if err := requireDriver(driverID); err != nil {
		return nil, err
	}
	reqs, err := s.ledgerRepo.ListPaymentRequestsByDriver(ctx, driverID, clampLimit(limit))
	if err != nil {
		s.LogError(ctx, err, "Failed to list payment requests", slog.String("driver_id", driverID))
		return nil, err
	}
	return reqs, nil
}

// GetPaymentRequest returns one request of the driver.
func (s *LedgerService) GetPaymentRequest(ctx context.Context, driverID, requestID string) (*domain.PaymentRequest, error) {
	if err := requireDriver(driverID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.FindPaymentRequest(ctx, driverID, requestID)
}

// ListPendingPaymentRequests is the admin review queue, oldest first.
func (s *LedgerService) ListPendingPaymentRequests(ctx context.Context, limit int) ([]domain.PaymentRequest, error) {
	reqs, err := s.ledgerRepo.ListPaymentRequestsByStatus(ctx, domain.PaymentInReview, clampLimit(limit))
	if err != nil {
		s.LogError(ctx, err, "Failed to list pending payment requests")
		return nil, err
	}
	return reqs, nil
}

// SubscribeLedger streams the driver's ledger snapshot after every committed change.
func (s *LedgerService) SubscribeLedger(ctx context.Context, driverID string) (<-chan domain.AccountLedger, error) {
	return subscribe(ctx, s, "ledger", driverID, func(ctx context.Context) (domain.AccountLedger, error) {
		ledger, err := s.GetLedger(ctx, driverID)
		if err != nil {
			return domain.AccountLedger{}, err
		}
		return *ledger, nil
	})
}

// SubscribeTransactions streams the newest limit transactions after every committed change.
func (s *LedgerService) SubscribeTransactions(ctx context.Context, driverID string, limit int) (<-chan []domain.Transaction, error) {
	return subscribe(ctx, s, "transactions", driverID, func(ctx context.Context) ([]domain.Transaction, error) {
		txns, _, err := s.ListTransactions(ctx, driverID, limit, nil)
		return txns, err
	})
}

// SubscribePaymentRequests streams the newest limit payment requests after every committed change.
func (s *LedgerService) SubscribePaymentRequests(ctx context.Context, driverID string, limit int) (<-chan []domain.PaymentRequest, error) {
	return subscribe(ctx, s, "payment_requests", driverID, func(ctx context.Context) ([]domain.PaymentRequest, error) {
		return s.ListPaymentRequests(ctx, driverID, limit)
	})
}

// subscribe loads the first snapshot synchronously, so a failing read is returned to
// the caller, and then reloads on every broker signal until ctx is done. A reload
// error ends the stream.
func subscribe[T any](ctx context.Context, s *LedgerService, view, driverID string, load func(context.Context) (T, error)) (<-chan T, error) {
	if s.broker == nil {
		return nil, fmt.Errorf("live %s view is not enabled", view)
	}
	if err := requireDriver(driverID); err != nil {
		return nil, err
	}

	changes, cancel := s.broker.Subscribe(driverID)
	first, err := load(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T, 1)
	out <- first
	done := observability.TrackSubscriber(view)
	go func() {
		defer close(out)
		defer cancel()
		defer done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				snapshot, err := load(ctx)
				if err != nil {
					if ctx.Err() == nil {
						s.LogWarn(ctx, err, "Live view reload failed", slog.String("view", view), slog.String("driver_id", driverID))
					}
					return
				}
				select {
				case out <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// ExportStatement renders the ledger and its newest transactions. It returns the
// document and its content type.
func (s *LedgerService) ExportStatement(ctx context.Context, driverID string, limit int) ([]byte, string, error) {
	if s.exporter == nil {
		return nil, "", fmt.Errorf("statement export is not enabled")
	}
	ledger, err := s.GetLedger(ctx, driverID)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 || limit > maxStatementLength {
		limit = maxStatementLength
	}

	var (
		all   []domain.Transaction
		token *string
	)
	for len(all) < limit {
		page, next, err := s.ledgerRepo.ListTransactionsByDriver(ctx, driverID, min(maxViewLimit, limit-len(all)), token)
		if err != nil {
			s.LogError(ctx, err, "Failed to load statement transactions", slog.String("driver_id", driverID))
			return nil, "", err
		}
		all = append(all, page...)
		if next == nil {
			break
		}
		token = next
	}

	data, err := s.exporter.Export(*ledger, all)
	if err != nil {
		s.LogError(ctx, err, "Failed to export statement", slog.String("driver_id", driverID))
		return nil, "", fmt.Errorf("export statement: %w", err)
	}
	return data, s.exporter.ContentType(), nil
}
