package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portssvc "github.com/qorinti/ledger_backend/internal/core/ports/services"
	"github.com/qorinti/ledger_backend/internal/dto"
	"github.com/qorinti/ledger_backend/internal/middleware"
)

// adminHandler serves the back-office review and settlement routes.
type adminHandler struct {
	ledgerService     portssvc.LedgerReaderSvc
	settlementService portssvc.SettlementSvcFacade
	receiptService    portssvc.ReceiptQuerySvc
}

// registerAdminRoutes registers routes that require the admin role.
func registerAdminRoutes(rg *gin.RouterGroup, ledgerSvc portssvc.LedgerReaderSvc, settlementSvc portssvc.SettlementSvcFacade, receiptSvc portssvc.ReceiptQuerySvc) {
	h := &adminHandler{
		ledgerService:     ledgerSvc,
		settlementService: settlementSvc,
		receiptService:    receiptSvc,
	}

	admin := rg.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/payment-requests/pending", h.listPending)

		drivers := admin.Group("/drivers/:driverID")
		drivers.GET("/ledger", h.getDriverLedger)
		drivers.PUT("/status", h.setAccountStatus)
		drivers.POST("/trip-commissions", h.recordTripCommission)
		drivers.POST("/payment-requests/:requestID/approve", h.approve)
		drivers.POST("/payment-requests/:requestID/reject", h.reject)
		drivers.GET("/payment-requests/:requestID/receipt", h.getReceipt)

		admin.GET("/receipt-jobs", h.listReceiptJobs)
		admin.POST("/receipt-jobs/:jobID/retry", h.retryReceiptJob)
	}
}

// listPending godoc
// @Summary List payment requests awaiting review
// @Description Oldest first across all drivers.
// @Tags admin
// @Produce json
// @Param limit query int false "Maximum number of requests (default 20, max 200)"
// @Success 200 {object} dto.ListPaymentRequestsResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/payment-requests/pending [get]
func (h *adminHandler) listPending(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	reqs, err := h.ledgerService.ListPendingPaymentRequests(c.Request.Context(), params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to list pending payment requests")
		return
	}
	c.JSON(http.StatusOK, dto.ListPaymentRequestsResponse{PaymentRequests: dto.ToPaymentRequestResponses(reqs)})
}

// getDriverLedger godoc
// @Summary Get a driver's ledger
// @Tags admin
// @Produce json
// @Param driverID path string true "Driver ID"
// @Success 200 {object} dto.LedgerResponse
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/drivers/{driverID}/ledger [get]
func (h *adminHandler) getDriverLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledger, err := h.ledgerService.GetLedger(c.Request.Context(), c.Param("driverID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve ledger")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerResponse(*ledger))
}

// approve godoc
// @Summary Approve a payment request
// @Description Applies the smaller of the claimed amount and the current debt, and queues the receipt.
// @Tags admin
// @Accept json
// @Param driverID path string true "Driver ID"
// @Param requestID path string true "Payment request ID"
// @Param request body dto.ApprovePaymentRequest false "Optional admin note"
// @Success 204 "Approved"
// @Failure 409 {object} dto.ErrorResponse "Request not in review, or account closed"
// @Failure 422 {object} dto.ErrorResponse "No outstanding debt"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/drivers/{driverID}/payment-requests/{requestID}/approve [post]
func (h *adminHandler) approve(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reviewerID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var req dto.ApprovePaymentRequest
	if !bindOptionalJSON(c, logger, &req) {
		return
	}

	driverID, requestID := c.Param("driverID"), c.Param("requestID")
	logger = logger.With(slog.String("driver_id", driverID), slog.String("request_id", requestID))
	if err := h.settlementService.ApprovePaymentRequest(c.Request.Context(), driverID, requestID, reviewerID, req); err != nil {
		respondError(c, logger, err, "Failed to approve payment request")
		return
	}
	logger.Info("Payment request approved")
	c.Status(http.StatusNoContent)
}

// reject godoc
// @Summary Reject a payment request
// @Tags admin
// @Accept json
// @Param driverID path string true "Driver ID"
// @Param requestID path string true "Payment request ID"
// @Param request body dto.RejectPaymentRequest false "Optional reason"
// @Success 204 "Rejected"
// @Failure 409 {object} dto.ErrorResponse "Request not in review"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/drivers/{driverID}/payment-requests/{requestID}/reject [post]
func (h *adminHandler) reject(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reviewerID, ok := callerID(c, logger)
	if !ok {
		return
	}
	var req dto.RejectPaymentRequest
	if !bindOptionalJSON(c, logger, &req) {
		return
	}

	driverID, requestID := c.Param("driverID"), c.Param("requestID")
	logger = logger.With(slog.String("driver_id", driverID), slog.String("request_id", requestID))
	if err := h.settlementService.RejectPaymentRequest(c.Request.Context(), driverID, requestID, reviewerID, req); err != nil {
		respondError(c, logger, err, "Failed to reject payment request")
		return
	}
	logger.Info("Payment request rejected")
	c.Status(http.StatusNoContent)
}

// getReceipt godoc
// @Summary Get the receipt of an approved payment
// @Tags admin
// @Produce json
// @Param driverID path string true "Driver ID"
// @Param requestID path string true "Payment request ID"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} dto.ErrorResponse "Receipt not issued yet"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/drivers/{driverID}/payment-requests/{requestID}/receipt [get]
func (h *adminHandler) getReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	receipt, err := h.receiptService.GetReceiptByPaymentRequest(c.Request.Context(), c.Param("driverID"), c.Param("requestID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve receipt")
		return
	}
	c.JSON(http.StatusOK, dto.ToReceiptResponse(*receipt))
}

// recordTripCommission godoc
// @Summary Charge the commission of a completed trip
// @Description Each trip is charged at most once; a repeated trip ID is rejected.
// @Tags admin
// @Accept json
// @Produce json
// @Param driverID path string true "Driver ID"
// @Param request body dto.TripCommissionRequest true "Trip amounts"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 409 {object} dto.ErrorResponse "Trip already charged, or account closed"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/drivers/{driverID}/trip-commissions [post]
func (h *adminHandler) recordTripCommission(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TripCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	txn, err := h.settlementService.RecordTripCommission(c.Request.Context(), c.Param("driverID"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to record trip commission")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(*txn))
}

// setAccountStatus godoc
// @Summary Change a driver's account status
// @Tags admin
// @Accept json
// @Produce json
// @Param driverID path string true "Driver ID"
// @Param request body dto.SetAccountStatusRequest true "New status"
// @Success 200 {object} dto.LedgerResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/drivers/{driverID}/status [put]
func (h *adminHandler) setAccountStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SetAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	driverID := c.Param("driverID")
	ledger, err := h.settlementService.SetAccountStatus(c.Request.Context(), driverID, req.Status)
	if err != nil {
		respondError(c, logger, err, "Failed to change account status")
		return
	}
	logger.Info("Account status changed", slog.String("driver_id", driverID), slog.String("status", string(req.Status)))
	c.JSON(http.StatusOK, dto.ToLedgerResponse(*ledger))
}

// listReceiptJobs godoc
// @Summary List receipt jobs
// @Description Without a status filter, lists the jobs that have no receipt yet (PENDING and FAILED).
// @Tags admin
// @Produce json
// @Param status query string false "PENDING, DONE or FAILED"
// @Param limit query int false "Maximum number of jobs (default 20, max 200)"
// @Success 200 {object} dto.ListReceiptJobsResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/receipt-jobs [get]
func (h *adminHandler) listReceiptJobs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ReceiptJobsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	var status *domain.ReceiptJobStatus
	if params.Status != "" {
		s := domain.ReceiptJobStatus(params.Status)
		status = &s
	}
	jobs, err := h.receiptService.ListUnreceiptedJobs(c.Request.Context(), status, params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to list receipt jobs")
		return
	}
	c.JSON(http.StatusOK, dto.ListReceiptJobsResponse{Jobs: dto.ToReceiptJobResponses(jobs)})
}

// retryReceiptJob godoc
// @Summary Retry a failed receipt job
// @Tags admin
// @Produce json
// @Param jobID path string true "Receipt job ID"
// @Success 200 {object} dto.ReceiptJobResponse
// @Failure 404 {object} dto.ErrorResponse "Job not found"
// @Failure 409 {object} dto.ErrorResponse "Job is not FAILED"
// @Security BearerAuth
// @Security AdminKey
// @Router /admin/receipt-jobs/{jobID}/retry [post]
func (h *adminHandler) retryReceiptJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	job, err := h.receiptService.RetryReceiptJob(c.Request.Context(), c.Param("jobID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retry receipt job")
		return
	}
	logger.Info("Receipt job re-queued", slog.String("job_id", job.JobID))
	c.JSON(http.StatusOK, dto.ToReceiptJobResponse(*job))
}

// bindOptionalJSON binds the body when one was sent. An empty body leaves dst zeroed.
func bindOptionalJSON(c *gin.Context, logger *slog.Logger, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, logger, err)
		return false
	}
	return true
}
