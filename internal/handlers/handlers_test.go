package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qorinti/ledger_backend/internal/adapters/blob"
	"github.com/qorinti/ledger_backend/internal/adapters/export"
	"github.com/qorinti/ledger_backend/internal/adapters/render"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/core/services"
	"github.com/qorinti/ledger_backend/internal/dto"
	"github.com/qorinti/ledger_backend/internal/middleware"
	"github.com/qorinti/ledger_backend/internal/platform/config"
	"github.com/qorinti/ledger_backend/internal/repositories/memory"
	"github.com/qorinti/ledger_backend/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	driverID    = "driver-1"
	adminID     = "ops-7"
	adminKey    = "back-office-key"
	filesBase   = "http://files.test"
	jwtSecret   = "handler-test-secret"
	jwtIssuer   = "handler-test"
	spreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type HandlerTestSuite struct {
	suite.Suite
	store  *memory.Store
	worker *services.ReceiptWorker
	cfg    *config.Config
	router *gin.Engine
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	blobDir := suite.T().TempDir()

	hash, err := utils.HashAPIKey(adminKey)
	suite.Require().NoError(err)
	suite.cfg = &config.Config{
		IsProduction:        true,
		JWTSecret:           jwtSecret,
		JWTIssuer:           jwtIssuer,
		AdminAPIKeyHash:     hash,
		BlobDriver:          config.BlobLocal,
		LocalBlobDir:        blobDir,
		PublicBaseURL:       filesBase,
		IssuerName:          "Qorinti S.A.C.",
		IssuerTaxID:         "20601234567",
		ReceiptNodeID:       1,
		ReceiptMaxAttempts:  3,
		ReceiptPollInterval: time.Hour,
	}

	blobs, err := blob.NewLocalStorage(blobDir, filesBase)
	suite.Require().NoError(err)
	suite.store = memory.NewStore()
	container, background, err := services.NewServiceContainer(suite.cfg, suite.store.Provider(), services.Gateways{
		Blobs:    blobs,
		Renderer: render.NewPDFRenderer(),
		Exporter: export.NewXLSXExporter(),
	}, slog.Default())
	suite.Require().NoError(err)
	suite.worker = background.Worker

	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	RegisterRoutes(suite.router, suite.cfg, container, nil)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (suite *HandlerTestSuite) token(subject, role string) string {
	signed, err := utils.GenerateJWT(subject, role, jwtSecret, time.Hour, jwtIssuer)
	suite.Require().NoError(err)
	return "Bearer " + signed
}

func (suite *HandlerTestSuite) request(method, path, auth string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) asDriver(method, path string, body any) *httptest.ResponseRecorder {
	return suite.request(method, "/api/v1"+path, suite.token(driverID, ""), body)
}

func (suite *HandlerTestSuite) asAdmin(method, path string, body any) *httptest.ResponseRecorder {
	return suite.request(method, "/api/v1/admin"+path, suite.token(adminID, utils.RoleAdmin), body)
}

func decode[T any](suite *HandlerTestSuite, w *httptest.ResponseRecorder) T {
	var out T
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (suite *HandlerTestSuite) chargeTrip(tripID, gross, commission string) {
	w := suite.asAdmin(http.MethodPost, "/drivers/"+driverID+"/trip-commissions", gin.H{
		"tripId": tripID, "grossAmount": gross, "commissionAmount": commission,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (suite *HandlerTestSuite) submit(amount string) string {
	w := suite.asDriver(http.MethodPost, "/me/payment-requests", gin.H{"amount": amount, "reference": "OP-1"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.SubmitPaymentResponse](suite, w).RequestID
}

func (suite *HandlerTestSuite) debt() decimal.Decimal {
	w := suite.asDriver(http.MethodGet, "/me/ledger", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	return decode[dto.LedgerResponse](suite, w).CommissionDebt
}

func (suite *HandlerTestSuite) TestHealthAndMetrics() {
	w := suite.request(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())

	suite.chargeTrip("trip-m", "10", "1")
	w = suite.request(http.MethodGet, "/metrics", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "go_goroutines")
}

func (suite *HandlerTestSuite) TestMeRequiresToken() {
	w := suite.request(http.MethodGet, "/api/v1/me/ledger", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestGetLedger_NewDriverIsZeroed() {
	w := suite.asDriver(http.MethodGet, "/me/ledger", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	ledger := decode[dto.LedgerResponse](suite, w)
	suite.Equal(driverID, ledger.DriverID)
	suite.True(ledger.CommissionDebt.IsZero())
	suite.Equal(domain.AccountActive, ledger.AccountStatus)
}

func (suite *HandlerTestSuite) TestApprovalIssuesReceipt() {
	suite.chargeTrip("trip-1", "30.00", "3.00")
	requestID := suite.submit("2.50")
	suite.True(dec("3").Equal(suite.debt()), "submission leaves the ledger untouched")

	w := suite.asAdmin(http.MethodPost, "/drivers/"+driverID+"/payment-requests/"+requestID+"/approve", gin.H{"adminNote": "transfer seen"})
	suite.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())
	suite.True(dec("0.50").Equal(suite.debt()))

	w = suite.asDriver(http.MethodGet, "/me/payment-requests/"+requestID+"/receipt", nil)
	suite.Equal(http.StatusNotFound, w.Code, "receipt is emitted asynchronously")

	suite.Equal(1, suite.worker.ProcessDue(context.Background()))

	w = suite.asDriver(http.MethodGet, "/me/payment-requests/"+requestID+"/receipt", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	receipt := decode[dto.ReceiptResponse](suite, w)
	suite.Equal(domain.DocumentReceipt, receipt.DocumentType)
	suite.True(strings.HasPrefix(receipt.SeriesNumber, "B001-"))
	suite.True(dec("2.50").Equal(receipt.Amount))
	suite.True(strings.HasPrefix(receipt.PdfURL, filesBase+"/files/receipts/"+driverID+"/"))

	pdfURL, err := url.Parse(receipt.PdfURL)
	suite.Require().NoError(err)
	w = suite.request(http.MethodGet, pdfURL.Path, "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.True(bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = suite.asAdmin(http.MethodGet, "/drivers/"+driverID+"/payment-requests/"+requestID+"/receipt", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.asAdmin(http.MethodGet, "/receipt-jobs?status=DONE", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	jobs := decode[dto.ListReceiptJobsResponse](suite, w)
	suite.Require().Len(jobs.Jobs, 1)
	suite.Equal(requestID, jobs.Jobs[0].PaymentRequestID)

	w = suite.asAdmin(http.MethodPost, "/receipt-jobs/"+jobs.Jobs[0].JobID+"/retry", nil)
	suite.Equal(http.StatusConflict, w.Code, "only FAILED jobs can be retried")
}

func (suite *HandlerTestSuite) TestApproveTwiceConflicts() {
	suite.chargeTrip("trip-1", "30.00", "3.00")
	requestID := suite.submit("1")
	path := "/drivers/" + driverID + "/payment-requests/" + requestID

	suite.Equal(http.StatusNoContent, suite.asAdmin(http.MethodPost, path+"/approve", nil).Code)
	suite.Equal(http.StatusConflict, suite.asAdmin(http.MethodPost, path+"/approve", nil).Code)
	suite.Equal(http.StatusConflict, suite.asAdmin(http.MethodPost, path+"/reject", nil).Code)
	suite.Equal(http.StatusConflict, suite.asAdmin(http.MethodPost, "/drivers/"+driverID+"/payment-requests/missing/approve", nil).Code)
}

func (suite *HandlerTestSuite) TestRejectKeepsDebt() {
	suite.chargeTrip("trip-1", "30.00", "3.00")
	requestID := suite.submit("3")

	w := suite.asAdmin(http.MethodPost, "/drivers/"+driverID+"/payment-requests/"+requestID+"/reject", gin.H{"reason": "no transfer found"})
	suite.Require().Equal(http.StatusNoContent, w.Code)
	suite.True(dec("3").Equal(suite.debt()))

	w = suite.asDriver(http.MethodGet, "/me/payment-requests", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	list := decode[dto.ListPaymentRequestsResponse](suite, w)
	suite.Require().Len(list.PaymentRequests, 1)
	suite.Equal(domain.PaymentRejected, list.PaymentRequests[0].Status)
	suite.Equal("no transfer found", list.PaymentRequests[0].RejectionReason)
	suite.Equal(adminID, list.PaymentRequests[0].ReviewedBy)
}

func (suite *HandlerTestSuite) TestSubmitValidation() {
	for _, body := range []gin.H{
		{"amount": "0"},
		{"amount": "-5"},
		{"amount": "abc"},
		{"reference": "no amount"},
	} {
		w := suite.asDriver(http.MethodPost, "/me/payment-requests", body)
		suite.Equal(http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func (suite *HandlerTestSuite) TestManualPayment() {
	w := suite.asDriver(http.MethodPost, "/me/manual-payments", gin.H{"amount": "1"})
	suite.Equal(http.StatusUnprocessableEntity, w.Code, "no debt to pay")

	suite.chargeTrip("trip-1", "30.00", "3.00")
	w = suite.asDriver(http.MethodPost, "/me/manual-payments", gin.H{"amount": "5"})
	suite.Equal(http.StatusUnprocessableEntity, w.Code, "more than the debt")

	w = suite.asDriver(http.MethodPost, "/me/manual-payments", gin.H{"amount": "1.25", "reference": "cash"})
	suite.Require().Equal(http.StatusNoContent, w.Code)
	suite.True(dec("1.75").Equal(suite.debt()))
}

func (suite *HandlerTestSuite) TestTripCommissions() {
	suite.chargeTrip("trip-1", "30.00", "3.00")

	w := suite.asAdmin(http.MethodPost, "/drivers/"+driverID+"/trip-commissions", gin.H{
		"tripId": "trip-1", "grossAmount": "30.00", "commissionAmount": "3.00",
	})
	suite.Equal(http.StatusConflict, w.Code, "a trip is charged once")

	w = suite.asAdmin(http.MethodPost, "/drivers/"+driverID+"/trip-commissions", gin.H{
		"tripId": "trip-2", "grossAmount": "10.00", "commissionAmount": "11.00",
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.asDriver(http.MethodPost, "/admin/drivers/"+driverID+"/trip-commissions", gin.H{
		"tripId": "trip-3", "grossAmount": "10.00", "commissionAmount": "1.00",
	})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestTransactionsPaging() {
	suite.chargeTrip("trip-1", "10", "1")
	suite.chargeTrip("trip-2", "10", "1")
	suite.chargeTrip("trip-3", "10", "1")

	w := suite.asDriver(http.MethodGet, "/me/transactions?limit=2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	page := decode[dto.ListTransactionsResponse](suite, w)
	suite.Require().Len(page.Transactions, 2)
	suite.Require().NotNil(page.NextToken)
	suite.Equal("trip-3", page.Transactions[0].SourceTripID)

	w = suite.asDriver(http.MethodGet, "/me/transactions?limit=2&nextToken="+url.QueryEscape(*page.NextToken), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	page = decode[dto.ListTransactionsResponse](suite, w)
	suite.Require().Len(page.Transactions, 1)
	suite.Equal("trip-1", page.Transactions[0].SourceTripID)
	suite.Nil(page.NextToken)

	suite.Equal(http.StatusBadRequest, suite.asDriver(http.MethodGet, "/me/transactions?limit=500", nil).Code)
	suite.Equal(http.StatusBadRequest, suite.asDriver(http.MethodGet, "/me/transactions?nextToken=garbage", nil).Code)
}

func (suite *HandlerTestSuite) TestStatementExport() {
	suite.chargeTrip("trip-1", "10", "1")

	w := suite.asDriver(http.MethodGet, "/me/transactions/statement.xlsx", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal(spreadsheet, w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "statement-"+driverID+".xlsx")
	suite.True(bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func (suite *HandlerTestSuite) TestAccountStatus() {
	suite.chargeTrip("trip-1", "10", "1")

	w := suite.asAdmin(http.MethodPut, "/drivers/"+driverID+"/status", gin.H{"status": "FROZEN"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.asAdmin(http.MethodPut, "/drivers/"+driverID+"/status", gin.H{"status": "CLOSED"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(domain.AccountClosed, decode[dto.LedgerResponse](suite, w).AccountStatus)

	w = suite.asDriver(http.MethodPost, "/me/payment-requests", gin.H{"amount": "1"})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.asAdmin(http.MethodGet, "/drivers/"+driverID+"/ledger", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(domain.AccountClosed, decode[dto.LedgerResponse](suite, w).AccountStatus)
}

func (suite *HandlerTestSuite) TestPendingQueueWithAdminKey() {
	suite.chargeTrip("trip-1", "10", "1")
	first := suite.submit("0.50")
	second := suite.submit("0.25")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/payment-requests/pending", nil)
	req.Header.Set(middleware.AdminKeyHeader, adminKey)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	pending := decode[dto.ListPaymentRequestsResponse](suite, w).PaymentRequests
	suite.Require().Len(pending, 2)
	suite.Equal(first, pending[0].RequestID)
	suite.Equal(second, pending[1].RequestID)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/drivers/"+driverID+"/payment-requests/"+first+"/approve", nil)
	req.Header.Set(middleware.AdminKeyHeader, adminKey)
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = suite.asDriver(http.MethodGet, "/me/payment-requests", nil)
	reqs := decode[dto.ListPaymentRequestsResponse](suite, w).PaymentRequests
	for _, r := range reqs {
		if r.RequestID == first {
			suite.Equal(middleware.AdminKeyCaller, r.ReviewedBy)
		}
	}
}

func (suite *HandlerTestSuite) TestReceiptJobsQuery() {
	suite.Equal(http.StatusBadRequest, suite.asAdmin(http.MethodGet, "/receipt-jobs?status=LOST", nil).Code)
	suite.Equal(http.StatusNotFound, suite.asAdmin(http.MethodPost, "/receipt-jobs/missing/retry", nil).Code)

	w := suite.asAdmin(http.MethodGet, "/receipt-jobs", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Empty(decode[dto.ListReceiptJobsResponse](suite, w).Jobs)
}

type sseEvent struct {
	name string
	data string
}

// readEvent reads one server-sent event, skipping heartbeats.
func readEvent(t *testing.T, scanner *bufio.Scanner) sseEvent {
	t.Helper()
	var ev sseEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimPrefix(line, "data:")
		case line == "" && ev.name != "":
			if ev.name != "heartbeat" {
				return ev
			}
			ev = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	t.Fatal("stream ended before an event arrived")
	return ev
}

func (suite *HandlerTestSuite) TestLedgerStream() {
	srv := httptest.NewServer(suite.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/me/ledger/stream", nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", suite.token(driverID, ""))

	resp, err := srv.Client().Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	ev := readEvent(suite.T(), scanner)
	suite.Equal("ledger", ev.name)
	var initial dto.LedgerResponse
	suite.Require().NoError(json.Unmarshal([]byte(ev.data), &initial))
	suite.True(initial.CommissionDebt.IsZero())

	suite.chargeTrip("trip-live", "20", "2")

	ev = readEvent(suite.T(), scanner)
	var updated dto.LedgerResponse
	suite.Require().NoError(json.Unmarshal([]byte(ev.data), &updated))
	suite.True(dec("2").Equal(updated.CommissionDebt))
}

func (suite *HandlerTestSuite) TestPaymentRequestStream() {
	suite.chargeTrip("trip-1", "20", "2")
	srv := httptest.NewServer(suite.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/me/payment-requests/stream?limit=5", nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", suite.token(driverID, ""))

	resp, err := srv.Client().Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	ev := readEvent(suite.T(), scanner)
	suite.Equal("payment-requests", ev.name)
	suite.JSONEq("[]", ev.data)

	requestID := suite.submit("1")
	ev = readEvent(suite.T(), scanner)
	var reqs []dto.PaymentRequestResponse
	suite.Require().NoError(json.Unmarshal([]byte(ev.data), &reqs))
	suite.Require().Len(reqs, 1)
	suite.Equal(requestID, reqs[0].RequestID)
	suite.Equal(domain.PaymentInReview, reqs[0].Status)
}
