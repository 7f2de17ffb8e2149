package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portssvc "github.com/qorinti/ledger_backend/internal/core/ports/services"
	"github.com/qorinti/ledger_backend/internal/dto"
	"github.com/qorinti/ledger_backend/internal/middleware"
)

// meHandler serves the authenticated driver's own ledger.
type meHandler struct {
	ledgerService     portssvc.LedgerSvcFacade
	settlementService portssvc.SettlementSvcFacade
	receiptService    portssvc.ReceiptQuerySvc
}

// registerMeRoutes registers the driver self-service routes.
func registerMeRoutes(rg *gin.RouterGroup, ledgerSvc portssvc.LedgerSvcFacade, settlementSvc portssvc.SettlementSvcFacade, receiptSvc portssvc.ReceiptQuerySvc) {
	h := &meHandler{
		ledgerService:     ledgerSvc,
		settlementService: settlementSvc,
		receiptService:    receiptSvc,
	}

	me := rg.Group("/me")
	{
		me.GET("/ledger", h.getLedger)
		me.GET("/ledger/stream", h.streamLedger)
		me.GET("/transactions", h.listTransactions)
		me.GET("/transactions/stream", h.streamTransactions)
		me.GET("/transactions/statement.xlsx", h.exportStatement)
		me.GET("/payment-requests", h.listPaymentRequests)
		me.GET("/payment-requests/stream", h.streamPaymentRequests)
		me.POST("/payment-requests", h.submitPaymentRequest)
		me.GET("/payment-requests/:requestID/receipt", h.getReceipt)
		me.POST("/manual-payments", h.recordManualPayment)
	}
}

// getLedger godoc
// @Summary Get my ledger
// @Description Returns the balances and commission debt of the logged-in driver. A driver with no activity gets a zeroed ledger.
// @Tags me
// @Produce json
// @Success 200 {object} dto.LedgerResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve ledger"
// @Security BearerAuth
// @Router /me/ledger [get]
func (h *meHandler) getLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}

	ledger, err := h.ledgerService.GetLedger(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve ledger")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerResponse(*ledger))
}

// streamLedger godoc
// @Summary Stream my ledger
// @Description Server-sent events. Emits a "ledger" event with the current state, then one after every committed change.
// @Tags me
// @Produce text/event-stream
// @Success 200 {object} dto.LedgerResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /me/ledger/stream [get]
func (h *meHandler) streamLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}

	updates, err := h.ledgerService.SubscribeLedger(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, logger, err, "Failed to subscribe to ledger")
		return
	}
	logger.Info("Ledger stream opened")
	streamEvents(c, "ledger", updates, func(l domain.AccountLedger) any {
		return dto.ToLedgerResponse(l)
	})
	logger.Info("Ledger stream closed")
}

// listTransactions godoc
// @Summary List my transactions
// @Description Newest first. Pass nextToken from the previous page to continue.
// @Tags me
// @Produce json
// @Param limit query int false "Page size (default 20, max 200)"
// @Param nextToken query string false "Continuation token"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid query or token"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /me/transactions [get]
func (h *meHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}
	txns, next, err := h.ledgerService.ListTransactions(c.Request.Context(), driverID, params.Limit, token)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    next,
	})
}

// streamTransactions godoc
// @Summary Stream my latest transactions
// @Description Server-sent events. Each "transactions" event carries the newest window of transactions.
// @Tags me
// @Produce text/event-stream
// @Param limit query int false "Window size (default 20, max 200)"
// @Success 200 {array} dto.TransactionResponse
// @Security BearerAuth
// @Router /me/transactions/stream [get]
func (h *meHandler) streamTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	updates, err := h.ledgerService.SubscribeTransactions(c.Request.Context(), driverID, params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to subscribe to transactions")
		return
	}
	streamEvents(c, "transactions", updates, func(txns []domain.Transaction) any {
		return dto.ToTransactionResponses(txns)
	})
}

// exportStatement godoc
// @Summary Download my statement
// @Description Spreadsheet with a summary sheet and the newest transactions.
// @Tags me
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param limit query int false "Maximum number of transactions"
// @Success 200 {file} file
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Failed to export statement"
// @Security BearerAuth
// @Router /me/transactions/statement.xlsx [get]
func (h *meHandler) exportStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var params struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=5000"`
	}
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	data, contentType, err := h.ledgerService.ExportStatement(c.Request.Context(), driverID, params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to export statement")
		return
	}
	logger.Info("Statement exported", slog.Int("bytes", len(data)))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="statement-%s.xlsx"`, driverID))
	c.Data(http.StatusOK, contentType, data)
}

// listPaymentRequests godoc
// @Summary List my payment requests
// @Tags me
// @Produce json
// @Param limit query int false "Maximum number of requests (default 20, max 200)"
// @Success 200 {object} dto.ListPaymentRequestsResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /me/payment-requests [get]
func (h *meHandler) listPaymentRequests(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	reqs, err := h.ledgerService.ListPaymentRequests(c.Request.Context(), driverID, params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to list payment requests")
		return
	}
	c.JSON(http.StatusOK, dto.ListPaymentRequestsResponse{PaymentRequests: dto.ToPaymentRequestResponses(reqs)})
}

// streamPaymentRequests godoc
// @Summary Stream my payment requests
// @Description Server-sent events. Each "payment-requests" event carries the newest requests.
// @Tags me
// @Produce text/event-stream
// @Param limit query int false "Window size (default 20, max 200)"
// @Success 200 {array} dto.PaymentRequestResponse
// @Security BearerAuth
// @Router /me/payment-requests/stream [get]
func (h *meHandler) streamPaymentRequests(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	updates, err := h.ledgerService.SubscribePaymentRequests(c.Request.Context(), driverID, params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to subscribe to payment requests")
		return
	}
	streamEvents(c, "payment-requests", updates, func(reqs []domain.PaymentRequest) any {
		return dto.ToPaymentRequestResponses(reqs)
	})
}

// submitPaymentRequest godoc
// @Summary Submit a payment for review
// @Description Declares an off-platform payment of commission debt. The ledger does not change until an admin approves it.
// @Tags me
// @Accept json
// @Produce json
// @Param request body dto.SubmitPaymentRequest true "Payment details"
// @Success 201 {object} dto.SubmitPaymentResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 409 {object} dto.ErrorResponse "Account closed"
// @Security BearerAuth
// @Router /me/payment-requests [post]
func (h *meHandler) submitPaymentRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var req dto.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	requestID, err := h.settlementService.SubmitPaymentRequest(c.Request.Context(), driverID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to submit payment request")
		return
	}
	logger.Info("Payment request submitted", slog.String("request_id", requestID), slog.String("amount", req.Amount.String()))
	c.JSON(http.StatusCreated, dto.SubmitPaymentResponse{RequestID: requestID})
}

// getReceipt godoc
// @Summary Get the receipt of one of my payments
// @Tags me
// @Produce json
// @Param requestID path string true "Payment request ID"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} dto.ErrorResponse "Receipt not issued yet"
// @Security BearerAuth
// @Router /me/payment-requests/{requestID}/receipt [get]
func (h *meHandler) getReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}

	receipt, err := h.receiptService.GetReceiptByPaymentRequest(c.Request.Context(), driverID, c.Param("requestID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve receipt")
		return
	}
	c.JSON(http.StatusOK, dto.ToReceiptResponse(*receipt))
}

// recordManualPayment godoc
// @Summary Record a manual payment
// @Description Applies a self-service payment directly against the commission debt.
// @Tags me
// @Accept json
// @Param request body dto.ManualPaymentRequest true "Payment details"
// @Success 204 "Payment applied"
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 409 {object} dto.ErrorResponse "Account closed"
// @Failure 422 {object} dto.ErrorResponse "No outstanding debt, or amount exceeds it"
// @Security BearerAuth
// @Router /me/manual-payments [post]
func (h *meHandler) recordManualPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	driverID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var req dto.ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	if err := h.settlementService.RecordManualPayment(c.Request.Context(), driverID, req); err != nil {
		respondError(c, logger, err, "Failed to record manual payment")
		return
	}
	logger.Info("Manual payment recorded", slog.String("amount", req.Amount.String()))
	c.Status(http.StatusNoContent)
}
