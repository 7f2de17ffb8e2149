package mapping

import (
	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/models"
)

// ToModelReceipt converts a domain Receipt to a model Receipt
func ToModelReceipt(d domain.Receipt) models.Receipt {
	return models.Receipt{
		ReceiptID:        d.ReceiptID,
		PaymentRequestID: d.PaymentRequestID,
		DriverID:         d.DriverID,
		DocumentType:     string(d.DocumentType),
		Series:           d.Series,
		Number:           d.Number,
		SeriesNumber:     d.SeriesNumber,
		Amount:           d.Amount,
		IssueDate:        d.IssueDate,
		PdfURL:           d.PdfURL,
		CreatedAt:        d.CreatedAt,
	}
}

// ToDomainReceipt converts a model Receipt to a domain Receipt
func ToDomainReceipt(m models.Receipt) domain.Receipt {
	return domain.Receipt{
		ReceiptID:        m.ReceiptID,
		PaymentRequestID: m.PaymentRequestID,
		DriverID:         m.DriverID,
		DocumentType:     domain.DocumentType(m.DocumentType),
		Series:           m.Series,
		Number:           m.Number,
		SeriesNumber:     m.SeriesNumber,
		Amount:           m.Amount,
		IssueDate:        m.IssueDate,
		PdfURL:           m.PdfURL,
		CreatedAt:        m.CreatedAt,
	}
}

// ToModelReceiptJob converts a domain ReceiptJob to a model ReceiptJob
func ToModelReceiptJob(d domain.ReceiptJob) models.ReceiptJob {
	return models.ReceiptJob{
		JobID:            d.JobID,
		PaymentRequestID: d.PaymentRequestID,
		DriverID:         d.DriverID,
		Amount:           d.Amount,
		Status:           string(d.Status),
		Attempts:         d.Attempts,
		LastError:        NullableString(d.LastError),
		NextAttemptAt:    d.NextAttemptAt,
		Timestamps:       models.Timestamps{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

// ToDomainReceiptJob converts a model ReceiptJob to a domain ReceiptJob
func ToDomainReceiptJob(m models.ReceiptJob) domain.ReceiptJob {
	return domain.ReceiptJob{
		JobID:            m.JobID,
		PaymentRequestID: m.PaymentRequestID,
		DriverID:         m.DriverID,
		Amount:           m.Amount,
		Status:           domain.ReceiptJobStatus(m.Status),
		Attempts:         m.Attempts,
		LastError:        StringValue(m.LastError),
		NextAttemptAt:    m.NextAttemptAt,
		Timestamps:       domain.Timestamps{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
	}
}

// ToDomainReceiptJobSlice converts a slice of model ReceiptJobs
func ToDomainReceiptJobSlice(ms []models.ReceiptJob) []domain.ReceiptJob {
	ds := make([]domain.ReceiptJob, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainReceiptJob(m)
	}
	return ds
}

// ToDomainDriverProfile converts a joined driver/user row to a domain DriverProfile
func ToDomainDriverProfile(m models.DriverProfile) domain.DriverProfile {
	return domain.DriverProfile{
		DriverID:        m.DriverID,
		DisplayName:     StringValue(m.DisplayName),
		FullName:        StringValue(m.FullName),
		FirstName:       StringValue(m.FirstName),
		LastName:        StringValue(m.LastName),
		UserDisplayName: StringValue(m.UserDisplayName),
		UserFullName:    StringValue(m.UserFullName),
		TaxID:           StringValue(m.TaxID),
		NationalID:      StringValue(m.NationalID),
	}
}
