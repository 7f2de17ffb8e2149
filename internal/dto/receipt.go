package dto

import (
	"time"

	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReceiptResponse mirrors domain.Receipt.
type ReceiptResponse struct {
	ReceiptID        string              `json:"receiptId"`
	PaymentRequestID string              `json:"paymentRequestId"`
	DriverID         string              `json:"driverId"`
	DocumentType     domain.DocumentType `json:"documentType"`
	Series           string              `json:"series"`
	Number           string              `json:"number"`
	SeriesNumber     string              `json:"seriesNumber"`
	Amount           decimal.Decimal     `json:"amount" swaggertype:"string"`
	IssueDate        time.Time           `json:"issueDate"`
	PdfURL           string              `json:"pdfUrl"`
}

// ReceiptJobResponse mirrors domain.ReceiptJob.
type ReceiptJobResponse struct {
	JobID            string                  `json:"jobId"`
	PaymentRequestID string                  `json:"paymentRequestId"`
	DriverID         string                  `json:"driverId"`
	Amount           decimal.Decimal         `json:"amount" swaggertype:"string"`
	Status           domain.ReceiptJobStatus `json:"status"`
	Attempts         int                     `json:"attempts"`
	LastError        string                  `json:"lastError,omitempty"`
	NextAttemptAt    time.Time               `json:"nextAttemptAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// ListReceiptJobsResponse wraps a list of receipt jobs.
type ListReceiptJobsResponse struct {
	Jobs []ReceiptJobResponse `json:"jobs"`
}

// ToReceiptResponse converts a domain.Receipt to ReceiptResponse DTO.
func ToReceiptResponse(r domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ReceiptID:        r.ReceiptID,
		PaymentRequestID: r.PaymentRequestID,
		DriverID:         r.DriverID,
		DocumentType:     r.DocumentType,
		Series:           r.Series,
		Number:           r.Number,
		SeriesNumber:     r.SeriesNumber,
		Amount:           r.Amount,
		IssueDate:        r.IssueDate,
		PdfURL:           r.PdfURL,
	}
}

// ToReceiptJobResponse converts a domain.ReceiptJob to ReceiptJobResponse DTO.
func ToReceiptJobResponse(j domain.ReceiptJob) ReceiptJobResponse {
	return ReceiptJobResponse{
		JobID:            j.JobID,
		PaymentRequestID: j.PaymentRequestID,
		DriverID:         j.DriverID,
		Amount:           j.Amount,
		Status:           j.Status,
		Attempts:         j.Attempts,
		LastError:        j.LastError,
		NextAttemptAt:    j.NextAttemptAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

// ToReceiptJobResponses converts a slice of domain.ReceiptJob.
func ToReceiptJobResponses(jobs []domain.ReceiptJob) []ReceiptJobResponse {
	responses := make([]ReceiptJobResponse, len(jobs))
	for i, j := range jobs {
		responses[i] = ToReceiptJobResponse(j)
	}
	return responses
}
