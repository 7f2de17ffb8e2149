package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every Postgres-backed repository over one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:      newPgxLedgerRepository(dbPool),
		ReceiptRepo:     newPgxReceiptRepository(dbPool),
		DriverDirectory: newPgxDriverDirectory(dbPool),
	}
}
