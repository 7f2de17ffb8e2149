package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType is the billing document issued for an approved payment.
type DocumentType string

const (
	DocumentInvoice DocumentType = "INVOICE"
	DocumentReceipt DocumentType = "RECEIPT"
)

// Series prefixes per document type.
const (
	InvoiceSeries = "F001"
	ReceiptSeries = "B001"
)

// DocumentTypeFor picks INVOICE when the payee has a tax identifier, RECEIPT otherwise.
func DocumentTypeFor(taxID string) DocumentType {
	if taxID != "" {
		return DocumentInvoice
	}
	return DocumentReceipt
}

// Series returns the fixed series prefix of the document type.
func (d DocumentType) Series() string {
	if d == DocumentInvoice {
		return InvoiceSeries
	}
	return ReceiptSeries
}

// Receipt indexes the billing document issued for one approved PaymentRequest.
type Receipt struct {
	ReceiptID        string          `json:"receiptID"`
	PaymentRequestID string          `json:"paymentRequestID"`
	DriverID         string          `json:"driverID"`
	DocumentType     DocumentType    `json:"documentType"`
	Series           string          `json:"series"`
	Number           string          `json:"number"`
	SeriesNumber     string          `json:"seriesNumber"`
	Amount           decimal.Decimal `json:"amount"`
	IssueDate        time.Time       `json:"issueDate"`
	PdfURL           string          `json:"pdfURL"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ReceiptJobStatus tracks the outbox entry that drives receipt emission.
type ReceiptJobStatus string

const (
	ReceiptJobPending ReceiptJobStatus = "PENDING"
	ReceiptJobDone    ReceiptJobStatus = "DONE"
	ReceiptJobFailed  ReceiptJobStatus = "FAILED"
)

// ReceiptJob is written in the same atomic unit as an approval so that an
// approved-but-unreceipted payment is always visible and retryable.
type ReceiptJob struct {
	JobID            string           `json:"jobID"`
	PaymentRequestID string           `json:"paymentRequestID"`
	DriverID         string           `json:"driverID"`
	Amount           decimal.Decimal  `json:"amount"`
	Status           ReceiptJobStatus `json:"status"`
	Attempts         int              `json:"attempts"`
	LastError        string           `json:"lastError,omitempty"`
	NextAttemptAt    time.Time        `json:"nextAttemptAt"`
	Timestamps
}

// IssuerIdentity is the fixed platform entity printed on every document.
type IssuerIdentity struct {
	Name    string
	TaxID   string
	Address string
}

// ReceiptDocument is everything the renderer needs to produce the artifact.
type ReceiptDocument struct {
	Receipt       Receipt
	Issuer        IssuerIdentity
	PayeeName     string
	PayeeTaxID    string
	VerifyPayload string
}
