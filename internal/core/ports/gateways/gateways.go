// Package gateways declares the outbound adapters the core talks to that are not
// part of the ledger store: blob storage, document rendering and spreadsheet export.
package gateways

import (
	"context"

	"github.com/qorinti/ledger_backend/internal/core/domain"
)

// BlobStorage accepts a payload under a path and returns a retrievable URL.
type BlobStorage interface {
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// ReceiptRenderer turns a receipt document into a binary artifact.
type ReceiptRenderer interface {
	ContentType() string
	Render(doc domain.ReceiptDocument) ([]byte, error)
}

// StatementExporter turns a ledger and its transactions into a downloadable statement.
type StatementExporter interface {
	ContentType() string
	Export(ledger domain.AccountLedger, txns []domain.Transaction) ([]byte, error)
}

// ChangeFeed delivers ledger changes committed by any instance sharing the store.
// Run blocks until ctx is done. publish receives the driver ID of each change and
// resync is called whenever changes may have been missed.
type ChangeFeed interface {
	Run(ctx context.Context, publish func(driverID string), resync func())
}
