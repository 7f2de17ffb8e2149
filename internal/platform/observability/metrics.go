package observability

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	settlementOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_settlement_operations_total",
		Help: "Settlement engine operations by outcome",
	}, []string{
		"operation", // submit, approve, reject, manual_payment, trip_commission, set_status
		"outcome",   // ok, validation, invalid_state, business_rule, duplicate, not_found, storage
	})

	commissionSettledCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_commission_settled_cents_total",
		Help: "Commission debt settled, in cents",
	}, []string{"operation"})

	receiptEmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_receipt_emissions_total",
		Help: "Receipt emission attempts by result",
	}, []string{
		"result", // done, retry, failed
	})

	receiptEmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_receipt_emission_duration_seconds",
		Help:    "Time to render, upload and index one receipt",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	liveSubscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ledger_live_subscribers",
		Help: "Open live subscriptions",
	}, []string{"view"})
)

// GinMiddleware records request counts and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// RecordSettlement counts one settlement operation under the outcome its error maps to.
func RecordSettlement(operation string, err error) {
	settlementOperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// RecordSettledAmount adds a settled amount to the per-operation total.
func RecordSettledAmount(operation string, amount decimal.Decimal) {
	cents, _ := amount.Shift(2).Float64()
	commissionSettledCents.WithLabelValues(operation).Add(cents)
}

// RecordReceiptEmission counts one worker attempt.
func RecordReceiptEmission(result string, elapsed time.Duration) {
	receiptEmissionsTotal.WithLabelValues(result).Inc()
	receiptEmissionDuration.Observe(elapsed.Seconds())
}

// TrackSubscriber bumps the live subscriber gauge and returns the matching decrement.
func TrackSubscriber(view string) func() {
	g := liveSubscribers.WithLabelValues(view)
	g.Inc()
	return g.Dec
}

// Outcome maps an error from the core onto a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, apperrors.ErrBusinessRule):
		return "business_rule"
	case errors.Is(err, apperrors.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	default:
		return "storage"
	}
}
