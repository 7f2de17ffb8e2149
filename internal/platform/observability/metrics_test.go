package observability

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "validation", Outcome(fmt.Errorf("%w: amount", apperrors.ErrValidation)))
	assert.Equal(t, "invalid_state", Outcome(apperrors.ErrInvalidState))
	assert.Equal(t, "business_rule", Outcome(apperrors.ErrBusinessRule))
	assert.Equal(t, "duplicate", Outcome(apperrors.ErrDuplicate))
	assert.Equal(t, "not_found", Outcome(apperrors.ErrNotFound))
	assert.Equal(t, "storage", Outcome(errors.New("conn reset")))
}

func TestRecordSettlement(t *testing.T) {
	before := testutil.ToFloat64(settlementOperationsTotal.WithLabelValues("approve", "business_rule"))
	RecordSettlement("approve", apperrors.ErrBusinessRule)
	after := testutil.ToFloat64(settlementOperationsTotal.WithLabelValues("approve", "business_rule"))
	assert.Equal(t, before+1, after)
}

func TestRecordSettledAmount(t *testing.T) {
	before := testutil.ToFloat64(commissionSettledCents.WithLabelValues("approve"))
	RecordSettledAmount("approve", decimal.RequireFromString("12.34"))
	assert.InDelta(t, before+1234, testutil.ToFloat64(commissionSettledCents.WithLabelValues("approve")), 0.001)
}

func TestTrackSubscriber(t *testing.T) {
	done := TrackSubscriber("ledger")
	assert.Equal(t, 1.0, testutil.ToFloat64(liveSubscribers.WithLabelValues("ledger")))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(liveSubscribers.WithLabelValues("ledger")))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping/:id", "418"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/7", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping/:id", "418")))
}
