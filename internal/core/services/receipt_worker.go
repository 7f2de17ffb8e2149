package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/qorinti/ledger_backend/internal/core/domain"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/qorinti/ledger_backend/internal/core/ports/services"
	"github.com/qorinti/ledger_backend/internal/platform/observability"
	"github.com/qorinti/ledger_backend/pkg/resilience"
)

const (
	defaultReceiptBatch = 10
	defaultReceiptLease = 2 * time.Minute
)

// ReceiptWorker drains the receipt outbox. Failed emissions are retried with
// backoff until the attempt budget is spent, then the job is marked FAILED.
type ReceiptWorker struct {
	BaseService
	jobs         portsrepo.ReceiptJobRepository
	emitter      portssvc.ReceiptEmitterSvc
	backoff      resilience.BackoffStrategy
	maxAttempts  int
	pollInterval time.Duration
	batchSize    int
	lease        time.Duration
	logger       *slog.Logger
	now          func() time.Time
	wake         chan struct{}
}

// ReceiptWorkerOption is a function that configures a ReceiptWorker.
type ReceiptWorkerOption func(*ReceiptWorker)

// WithWorkerBackoff overrides the retry schedule.
func WithWorkerBackoff(b resilience.BackoffStrategy) ReceiptWorkerOption {
	return func(w *ReceiptWorker) {
		w.backoff = b
	}
}

// WithWorkerClock overrides the worker clock.
func WithWorkerClock(now func() time.Time) ReceiptWorkerOption {
	return func(w *ReceiptWorker) {
		w.now = now
	}
}

// WithWorkerLogger sets the logger used outside of request contexts.
func WithWorkerLogger(logger *slog.Logger) ReceiptWorkerOption {
	return func(w *ReceiptWorker) {
		w.logger = logger
	}
}

// WithWorkerBatch sets how many jobs one pass claims and how long they stay leased.
func WithWorkerBatch(size int, lease time.Duration) ReceiptWorkerOption {
	return func(w *ReceiptWorker) {
		if size > 0 {
			w.batchSize = size
		}
		if lease > 0 {
			w.lease = lease
		}
	}
}

// NewReceiptWorker creates a worker with the given attempt budget and poll interval.
func NewReceiptWorker(jobs portsrepo.ReceiptJobRepository, emitter portssvc.ReceiptEmitterSvc, maxAttempts int, pollInterval time.Duration, options ...ReceiptWorkerOption) *ReceiptWorker {
	w := &ReceiptWorker{
		jobs:         jobs,
		emitter:      emitter,
		backoff:      resilience.ReceiptBackoff(),
		maxAttempts:  maxAttempts,
		pollInterval: pollInterval,
		batchSize:    defaultReceiptBatch,
		lease:        defaultReceiptLease,
		logger:       slog.Default(),
		now:          func() time.Time { return time.Now().UTC() },
		wake:         make(chan struct{}, 1),
	}
	if w.maxAttempts <= 0 {
		w.maxAttempts = 1
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 30 * time.Second
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Notify asks the worker to run a pass now. It never blocks.
func (w *ReceiptWorker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run processes due jobs on every tick and on every Notify until ctx is done.
func (w *ReceiptWorker) Run(ctx context.Context) {
	w.logger.Info("Receipt worker started", slog.Duration("poll_interval", w.pollInterval), slog.Int("max_attempts", w.maxAttempts))
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessDue(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Receipt worker stopped")
			return
		case <-ticker.C:
		case <-w.wake:
		}
		w.ProcessDue(ctx)
	}
}

// ProcessDue claims the jobs due now and attempts each once. It returns how many
// jobs it attempted.
func (w *ReceiptWorker) ProcessDue(ctx context.Context) int {
	ctx = withWorkerLogger(ctx, w.logger)
	attempted := 0
	for {
		now := w.now()
		jobs, err := w.jobs.ClaimDueReceiptJobs(ctx, now, now.Add(w.lease), w.batchSize)
		if err != nil {
			w.LogError(ctx, err, "Failed to claim receipt jobs")
			return attempted
		}
		for _, job := range jobs {
			if ctx.Err() != nil {
				return attempted
			}
			w.attempt(ctx, job)
			attempted++
		}
		if len(jobs) < w.batchSize {
			return attempted
		}
	}
}

func (w *ReceiptWorker) attempt(ctx context.Context, job domain.ReceiptJob) {
	start := time.Now()
	_, emitErr := w.emitter.EmitReceipt(ctx, job)
	now := w.now()

	job.Attempts++
	job.UpdatedAt = now
	result := "done"
	switch {
	case emitErr == nil:
		job.Status = domain.ReceiptJobDone
		job.LastError = ""
	case job.Attempts >= w.maxAttempts:
		job.Status = domain.ReceiptJobFailed
		job.LastError = emitErr.Error()
		result = "failed"
	default:
		job.LastError = emitErr.Error()
		job.NextAttemptAt = now.Add(w.backoff.NextDelay(job.Attempts - 1))
		result = "retry"
	}
	observability.RecordReceiptEmission(result, time.Since(start))

	attrs := []any{
		slog.String("job_id", job.JobID),
		slog.String("payment_request_id", job.PaymentRequestID),
		slog.Int("attempts", job.Attempts),
	}
	switch result {
	case "failed":
		w.LogError(ctx, emitErr, "Receipt emission failed permanently", attrs...)
	case "retry":
		w.LogWarn(ctx, emitErr, "Receipt emission failed, will retry", append(attrs, slog.Time("next_attempt_at", job.NextAttemptAt))...)
	}

	if err := w.jobs.UpdateReceiptJob(ctx, job); err != nil {
		// The lease expires and the job is claimed again; emission is idempotent.
		w.LogError(ctx, err, "Failed to record receipt job outcome", attrs...)
	}
}
