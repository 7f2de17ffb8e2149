package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is a row of receipts.
type Receipt struct {
	ReceiptID        string          `db:"receipt_id"`
	PaymentRequestID string          `db:"payment_request_id"`
	DriverID         string          `db:"driver_id"`
	DocumentType     string          `db:"document_type"`
	Series           string          `db:"series"`
	Number           string          `db:"number"`
	SeriesNumber     string          `db:"series_number"`
	Amount           decimal.Decimal `db:"amount"`
	IssueDate        time.Time       `db:"issue_date"`
	PdfURL           string          `db:"pdf_url"`
	CreatedAt        time.Time       `db:"created_at"`
}

// ReceiptJob is a row of receipt_jobs.
type ReceiptJob struct {
	JobID            string          `db:"job_id"`
	PaymentRequestID string          `db:"payment_request_id"`
	DriverID         string          `db:"driver_id"`
	Amount           decimal.Decimal `db:"amount"`
	Status           string          `db:"status"`
	Attempts         int             `db:"attempts"`
	LastError        *string         `db:"last_error"`
	NextAttemptAt    time.Time       `db:"next_attempt_at"`
	Timestamps
}

// DriverProfile is the drivers row left-joined to its users row.
type DriverProfile struct {
	DriverID        string  `db:"driver_id"`
	DisplayName     *string `db:"display_name"`
	FullName        *string `db:"full_name"`
	FirstName       *string `db:"first_name"`
	LastName        *string `db:"last_name"`
	TaxID           *string `db:"tax_id"`
	NationalID      *string `db:"national_id"`
	UserDisplayName *string `db:"user_display_name"`
	UserFullName    *string `db:"user_full_name"`
}
