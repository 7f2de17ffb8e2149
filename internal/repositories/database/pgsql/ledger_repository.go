package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	"github.com/qorinti/ledger_backend/internal/models"
	"github.com/qorinti/ledger_backend/internal/utils/mapping"
	"github.com/qorinti/ledger_backend/internal/utils/pagination"
)

const (
	ledgerColumns = `driver_id, available_balance, held_balance, commission_debt,
		lifetime_income_total, lifetime_commission_total, account_status,
		last_transaction_id, created_at, updated_at`

	transactionColumns = `transaction_id, driver_id, source_trip_id, gross_amount,
		commission_amount, net_amount, reference, notes, status, created_at, updated_at`

	paymentRequestColumns = `request_id, driver_id, amount, reference, notes, status,
		applied_amount, debt_before, debt_after, applied_transaction_id,
		admin_note, rejection_reason, reviewed_by, created_at, updated_at`

	defaultListLimit = 20
)

// PgxLedgerRepository stores ledgers, transactions and payment requests. Every
// mutation goes through WithLedgerLock, which holds the driver's ledger row lock.
type PgxLedgerRepository struct {
	BaseRepository
	now func() time.Time
}

func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		now:            func() time.Time { return time.Now().UTC() },
	}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// WithLedgerLock creates the ledger row if needed, locks it with SELECT ... FOR UPDATE
// and runs fn. Writes issued by fn are queued and sent as one batch before commit,
// followed by a notification on LedgerChangesChannel.
func (r *PgxLedgerRepository) WithLedgerLock(ctx context.Context, driverID string, fn func(tx portsrepo.LedgerTx, ledger *domain.AccountLedger) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // Will be ignored if transaction is committed successfully

	seed := mapping.ToModelLedger(domain.NewAccountLedger(driverID, r.now()))
	ensureQuery := `
		INSERT INTO account_ledgers (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (driver_id) DO NOTHING;
	`
	if _, err := tx.Exec(ctx, ensureQuery,
		seed.DriverID, seed.AvailableBalance, seed.HeldBalance, seed.CommissionDebt,
		seed.LifetimeIncomeTotal, seed.LifetimeCommissionTotal, seed.AccountStatus,
		seed.LastTransactionID, seed.CreatedAt, seed.UpdatedAt,
	); err != nil {
		return apperrors.Storage("failed to ensure ledger for driver "+driverID, err)
	}

	lockQuery := `SELECT ` + ledgerColumns + ` FROM account_ledgers WHERE driver_id = $1 FOR UPDATE;`
	locked, err := scanLedger(tx.QueryRow(ctx, lockQuery, driverID))
	if err != nil {
		return apperrors.Storage("failed to lock ledger for driver "+driverID, err)
	}
	ledger := mapping.ToDomainLedger(locked)

	unit := &pgxLedgerTx{tx: tx, driverID: driverID, batch: &pgx.Batch{}}
	if err := fn(unit, &ledger); err != nil {
		return err
	}

	if unit.batch.Len() > 0 {
		// Delivered to listeners on commit only.
		unit.batch.Queue(`SELECT pg_notify($1, $2);`, LedgerChangesChannel, driverID)
		if err := tx.SendBatch(ctx, unit.batch).Close(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %v", apperrors.ErrDuplicate, err)
			}
			return apperrors.Storage("failed to write ledger batch for driver "+driverID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// FindLedger retrieves a ledger by driver ID.
func (r *PgxLedgerRepository) FindLedger(ctx context.Context, driverID string) (*domain.AccountLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM account_ledgers WHERE driver_id = $1;`
	m, err := scanLedger(r.Pool.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage("failed to find ledger for driver "+driverID, err)
	}
	ledger := mapping.ToDomainLedger(m)
	return &ledger, nil
}

// ListTransactionsByDriver retrieves newest-first transactions using token-based pagination.
func (r *PgxLedgerRepository) ListTransactionsByDriver(ctx context.Context, driverID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE driver_id = $1`
	orderByClause := `ORDER BY created_at DESC, transaction_id DESC`
	args := []any{driverID}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, decodeErr)
		}
		baseQuery += ` AND (created_at, transaction_id) < ($2, $3)`
		args = append(args, lastCreatedAt, lastID)
	}
	query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.Storage("failed to query transactions for driver "+driverID, err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, fetchLimit)
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, apperrors.Storage("failed to scan transaction row for driver "+driverID, err)
		}
		d, err := mapping.ToDomainTransaction(m)
		if err != nil {
			return nil, nil, apperrors.Storage("corrupt transaction "+m.TransactionID, err)
		}
		txns = append(txns, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.Storage("error iterating transaction rows for driver "+driverID, err)
	}

	var nextTokenVal *string
	if len(txns) > limit {
		last := txns[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		nextTokenVal = &token
		txns = txns[:limit]
	}
	return txns, nextTokenVal, nil
}

// FindPaymentRequest retrieves a payment request of a driver.
func (r *PgxLedgerRepository) FindPaymentRequest(ctx context.Context, driverID, requestID string) (*domain.PaymentRequest, error) {
	query := `SELECT ` + paymentRequestColumns + ` FROM payment_requests WHERE driver_id = $1 AND request_id = $2;`
	return findPaymentRequest(r.Pool.QueryRow(ctx, query, driverID, requestID), requestID)
}

// ListPaymentRequestsByDriver retrieves the newest requests of one driver.
func (r *PgxLedgerRepository) ListPaymentRequestsByDriver(ctx context.Context, driverID string, limit int) ([]domain.PaymentRequest, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT ` + paymentRequestColumns + ` FROM payment_requests
		WHERE driver_id = $1 ORDER BY created_at DESC, request_id DESC LIMIT $2;`
	return r.queryPaymentRequests(ctx, query, driverID, limit)
}

// ListPaymentRequestsByStatus retrieves requests across drivers, oldest first.
func (r *PgxLedgerRepository) ListPaymentRequestsByStatus(ctx context.Context, status domain.PaymentRequestStatus, limit int) ([]domain.PaymentRequest, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT ` + paymentRequestColumns + ` FROM payment_requests
		WHERE status = $1 ORDER BY created_at ASC, request_id ASC LIMIT $2;`
	return r.queryPaymentRequests(ctx, query, string(status), limit)
}

func (r *PgxLedgerRepository) queryPaymentRequests(ctx context.Context, query string, args ...any) ([]domain.PaymentRequest, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("failed to query payment requests", err)
	}
	defer rows.Close()

	var list []models.PaymentRequest
	for rows.Next() {
		m, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, apperrors.Storage("failed to scan payment request row", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("error iterating payment request rows", err)
	}
	return mapping.ToDomainPaymentRequestSlice(list), nil
}

// pgxLedgerTx is the LedgerTx handed to WithLedgerLock callbacks.
type pgxLedgerTx struct {
	tx       pgx.Tx
	driverID string
	batch    *pgx.Batch
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

func (u *pgxLedgerTx) FindPaymentRequest(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	query := `SELECT ` + paymentRequestColumns + ` FROM payment_requests
		WHERE driver_id = $1 AND request_id = $2 FOR UPDATE;`
	return findPaymentRequest(u.tx.QueryRow(ctx, query, u.driverID, requestID), requestID)
}

func (u *pgxLedgerTx) TripCharged(ctx context.Context, tripID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ledger_transactions WHERE driver_id = $1 AND source_trip_id = $2);`
	if err := u.tx.QueryRow(ctx, query, u.driverID, tripID).Scan(&exists); err != nil {
		return false, apperrors.Storage("failed to check trip "+tripID, err)
	}
	return exists, nil
}

func (u *pgxLedgerTx) InsertPaymentRequest(_ context.Context, req domain.PaymentRequest) error {
	m := mapping.ToModelPaymentRequest(req)
	u.batch.Queue(`
		INSERT INTO payment_requests (`+paymentRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`,
		m.RequestID, m.DriverID, m.Amount, m.Reference, m.Notes, m.Status,
		m.AppliedAmount, m.DebtBefore, m.DebtAfter, m.AppliedTransactionID,
		m.AdminNote, m.RejectionReason, m.ReviewedBy, m.CreatedAt, m.UpdatedAt,
	)
	return nil
}

func (u *pgxLedgerTx) UpdatePaymentRequest(_ context.Context, req domain.PaymentRequest) error {
	m := mapping.ToModelPaymentRequest(req)
	u.batch.Queue(`
		UPDATE payment_requests
		SET status = $3, applied_amount = $4, debt_before = $5, debt_after = $6,
		    applied_transaction_id = $7, admin_note = $8, rejection_reason = $9,
		    reviewed_by = $10, updated_at = $11
		WHERE driver_id = $1 AND request_id = $2;`,
		m.DriverID, m.RequestID, m.Status, m.AppliedAmount, m.DebtBefore, m.DebtAfter,
		m.AppliedTransactionID, m.AdminNote, m.RejectionReason, m.ReviewedBy, m.UpdatedAt,
	)
	return nil
}

func (u *pgxLedgerTx) AppendTransaction(_ context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)
	u.batch.Queue(`
		INSERT INTO ledger_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		m.TransactionID, m.DriverID, m.SourceTripID, m.GrossAmount, m.CommissionAmount,
		m.NetAmount, m.Reference, m.Notes, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	return nil
}

func (u *pgxLedgerTx) SaveLedger(_ context.Context, ledger domain.AccountLedger) error {
	m := mapping.ToModelLedger(ledger)
	u.batch.Queue(`
		UPDATE account_ledgers
		SET available_balance = $2, held_balance = $3, commission_debt = $4,
		    lifetime_income_total = $5, lifetime_commission_total = $6,
		    account_status = $7, last_transaction_id = $8, updated_at = $9
		WHERE driver_id = $1;`,
		m.DriverID, m.AvailableBalance, m.HeldBalance, m.CommissionDebt,
		m.LifetimeIncomeTotal, m.LifetimeCommissionTotal, m.AccountStatus,
		m.LastTransactionID, m.UpdatedAt,
	)
	return nil
}

func (u *pgxLedgerTx) EnqueueReceiptJob(_ context.Context, job domain.ReceiptJob) error {
	m := mapping.ToModelReceiptJob(job)
	u.batch.Queue(`
		INSERT INTO receipt_jobs (`+receiptJobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		m.JobID, m.PaymentRequestID, m.DriverID, m.Amount, m.Status, m.Attempts,
		m.LastError, m.NextAttemptAt, m.CreatedAt, m.UpdatedAt,
	)
	return nil
}

func findPaymentRequest(row pgx.Row, requestID string) (*domain.PaymentRequest, error) {
	m, err := scanPaymentRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: payment request %s", apperrors.ErrNotFound, requestID)
		}
		return nil, apperrors.Storage("failed to find payment request "+requestID, err)
	}
	d := mapping.ToDomainPaymentRequest(m)
	return &d, nil
}

func scanLedger(row scanner) (models.AccountLedger, error) {
	var m models.AccountLedger
	err := row.Scan(
		&m.DriverID,
		&m.AvailableBalance,
		&m.HeldBalance,
		&m.CommissionDebt,
		&m.LifetimeIncomeTotal,
		&m.LifetimeCommissionTotal,
		&m.AccountStatus,
		&m.LastTransactionID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.DriverID,
		&m.SourceTripID,
		&m.GrossAmount,
		&m.CommissionAmount,
		&m.NetAmount,
		&m.Reference,
		&m.Notes,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func scanPaymentRequest(row scanner) (models.PaymentRequest, error) {
	var m models.PaymentRequest
	err := row.Scan(
		&m.RequestID,
		&m.DriverID,
		&m.Amount,
		&m.Reference,
		&m.Notes,
		&m.Status,
		&m.AppliedAmount,
		&m.DebtBefore,
		&m.DebtAfter,
		&m.AppliedTransactionID,
		&m.AdminNote,
		&m.RejectionReason,
		&m.ReviewedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}
