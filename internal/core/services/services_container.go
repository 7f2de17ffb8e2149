package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/qorinti/ledger_backend/internal/core/ports/services"
	"github.com/qorinti/ledger_backend/internal/platform/config"
)

// Gateways groups the outbound adapters the services need.
type Gateways struct {
	Blobs    gateways.BlobStorage
	Renderer gateways.ReceiptRenderer
	Exporter gateways.StatementExporter
	// Changes is set when several instances share the store.
	Changes gateways.ChangeFeed
}

// Background holds the long-running loops behind the services.
type Background struct {
	Worker *ReceiptWorker
	feed   gateways.ChangeFeed
	broker *ChangeBroker
}

// Run blocks until ctx is done and every loop has returned.
func (b *Background) Run(ctx context.Context) {
	var wg sync.WaitGroup
	if b.feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.feed.Run(ctx, b.broker.Publish, b.broker.PublishAll)
		}()
	}
	b.Worker.Run(ctx)
	wg.Wait()
}

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The returned Background must be started by the caller.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, gw Gateways, logger *slog.Logger) (*portssvc.ServiceContainer, *Background, error) {
	numberer, err := NewSnowflakeNumberer(cfg.ReceiptNodeID)
	if err != nil {
		return nil, nil, err
	}
	if gw.Blobs == nil || gw.Renderer == nil {
		return nil, nil, fmt.Errorf("receipt emission needs blob storage and a renderer")
	}

	broker := NewChangeBroker()
	container := &portssvc.ServiceContainer{}

	receiptSvc := NewReceiptService(
		repos.ReceiptRepo,
		repos.DriverDirectory,
		gw.Renderer,
		gw.Blobs,
		numberer,
		domain.IssuerIdentity{
			Name:    cfg.IssuerName,
			TaxID:   cfg.IssuerTaxID,
			Address: cfg.IssuerAddress,
		},
	)
	worker := NewReceiptWorker(
		repos.ReceiptRepo,
		receiptSvc,
		cfg.ReceiptMaxAttempts,
		cfg.ReceiptPollInterval,
		WithWorkerLogger(logger.With(slog.String("component", "receipt_worker"))),
	)
	receiptSvc.signal = worker
	container.Receipt = receiptSvc

	container.Settlement = NewSettlementService(
		repos.LedgerRepo,
		WithChangeBroker(broker),
		WithReceiptSignal(worker),
	)

	ledgerOpts := []LedgerServiceOption{WithLedgerBroker(broker)}
	if gw.Exporter != nil {
		ledgerOpts = append(ledgerOpts, WithStatementExporter(gw.Exporter))
	}
	container.Ledger = NewLedgerService(repos.LedgerRepo, ledgerOpts...)

	return container, &Background{Worker: worker, feed: gw.Changes, broker: broker}, nil
}

// Helper to check interface implementations at compile time
var (
	_ ReceiptSignal = (*ReceiptWorker)(nil)
)
