package pgsql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
	"github.com/qorinti/ledger_backend/pkg/resilience"
)

// LedgerChangesChannel is notified with the driver ID by every WithLedgerLock that writes.
const LedgerChangesChannel = "ledger_changes"

// notificationConn is the part of *pgx.Conn the feed uses.
type notificationConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// PgxChangeFeed listens on LedgerChangesChannel over a dedicated connection and
// reconnects with backoff when it drops.
type PgxChangeFeed struct {
	connect func(ctx context.Context) (notificationConn, error)
	backoff resilience.BackoffStrategy
	logger  *slog.Logger
}

var _ gateways.ChangeFeed = (*PgxChangeFeed)(nil)

// NewChangeFeed creates a feed that takes its connection out of pool.
func NewChangeFeed(pool *pgxpool.Pool, logger *slog.Logger) *PgxChangeFeed {
	return &PgxChangeFeed{
		connect: func(ctx context.Context) (notificationConn, error) {
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			// A listening connection must not be handed back to the pool.
			return conn.Hijack(), nil
		},
		backoff: &resilience.ExponentialBackoff{
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
			Multiplier: 2.0,
			Jitter:     0.1,
		},
		logger: logger,
	}
}

// Run listens until ctx is done. resync runs after every successful LISTEN, since
// notifications sent while disconnected are lost.
func (f *PgxChangeFeed) Run(ctx context.Context, publish func(driverID string), resync func()) {
	failures := 0
	for {
		listening, err := f.listen(ctx, publish, resync)
		if ctx.Err() != nil {
			return
		}
		if listening {
			failures = 0
		}
		delay := f.backoff.NextDelay(failures)
		failures++
		f.logger.Warn("Ledger change feed disconnected",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (f *PgxChangeFeed) listen(ctx context.Context, publish func(string), resync func()) (bool, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+LedgerChangesChannel); err != nil {
		return false, fmt.Errorf("listen: %w", err)
	}
	f.logger.Info("Listening for ledger changes", slog.String("channel", LedgerChangesChannel))
	resync()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait for notification: %w", err)
		}
		if n.Channel == LedgerChangesChannel && n.Payload != "" {
			publish(n.Payload)
		}
	}
}
