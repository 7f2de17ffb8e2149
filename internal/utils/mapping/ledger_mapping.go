package mapping

import (
	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/models"
)

// ToModelLedger converts a domain AccountLedger to a model AccountLedger
func ToModelLedger(d domain.AccountLedger) models.AccountLedger {
	return models.AccountLedger{
		DriverID:                d.DriverID,
		AvailableBalance:        d.AvailableBalance,
		HeldBalance:             d.HeldBalance,
		CommissionDebt:          d.CommissionDebt,
		LifetimeIncomeTotal:     d.LifetimeIncomeTotal,
		LifetimeCommissionTotal: d.LifetimeCommissionTotal,
		AccountStatus:           string(d.AccountStatus),
		LastTransactionID:       NullableString(d.LastTransactionID),
		Timestamps:              models.Timestamps{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

// ToDomainLedger converts a model AccountLedger to a domain AccountLedger
func ToDomainLedger(m models.AccountLedger) domain.AccountLedger {
	return domain.AccountLedger{
		DriverID:                m.DriverID,
		AvailableBalance:        m.AvailableBalance,
		HeldBalance:             m.HeldBalance,
		CommissionDebt:          m.CommissionDebt,
		LifetimeIncomeTotal:     m.LifetimeIncomeTotal,
		LifetimeCommissionTotal: m.LifetimeCommissionTotal,
		AccountStatus:           domain.AccountStatus(m.AccountStatus),
		LastTransactionID:       StringValue(m.LastTransactionID),
		Timestamps:              domain.Timestamps{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
	}
}

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:    d.TransactionID,
		DriverID:         d.DriverID,
		SourceTripID:     d.Source.StoredValue(),
		GrossAmount:      d.GrossAmount,
		CommissionAmount: d.CommissionAmount,
		NetAmount:        d.NetAmount,
		Reference:        NullableString(d.Reference),
		Notes:            NullableString(d.Notes),
		Status:           string(d.Status),
		Timestamps:       models.Timestamps{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction.
// It fails only when the stored source discriminator is empty.
func ToDomainTransaction(m models.Transaction) (domain.Transaction, error) {
	source, err := domain.ParseTransactionSource(m.SourceTripID)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{
		TransactionID:    m.TransactionID,
		DriverID:         m.DriverID,
		Source:           source,
		GrossAmount:      m.GrossAmount,
		CommissionAmount: m.CommissionAmount,
		NetAmount:        m.NetAmount,
		Reference:        StringValue(m.Reference),
		Notes:            StringValue(m.Notes),
		Status:           domain.TransactionStatus(m.Status),
		Timestamps:       domain.Timestamps{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
	}, nil
}

// ToModelPaymentRequest converts a domain PaymentRequest to a model PaymentRequest
func ToModelPaymentRequest(d domain.PaymentRequest) models.PaymentRequest {
	return models.PaymentRequest{
		RequestID:            d.RequestID,
		DriverID:             d.DriverID,
		Amount:               d.Amount,
		Reference:            NullableString(d.Reference),
		Notes:                NullableString(d.Notes),
		Status:               string(d.Status),
		AppliedAmount:        d.AppliedAmount,
		DebtBefore:           d.DebtBefore,
		DebtAfter:            d.DebtAfter,
		AppliedTransactionID: NullableString(d.AppliedTransactionID),
		AdminNote:            NullableString(d.AdminNote),
		RejectionReason:      NullableString(d.RejectionReason),
		ReviewedBy:           NullableString(d.ReviewedBy),
		Timestamps:           models.Timestamps{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

// ToDomainPaymentRequest converts a model PaymentRequest to a domain PaymentRequest
func ToDomainPaymentRequest(m models.PaymentRequest) domain.PaymentRequest {
	return domain.PaymentRequest{
		RequestID:            m.RequestID,
		DriverID:             m.DriverID,
		Amount:               m.Amount,
		Reference:            StringValue(m.Reference),
		Notes:                StringValue(m.Notes),
		Status:               domain.PaymentRequestStatus(m.Status),
		AppliedAmount:        m.AppliedAmount,
		DebtBefore:           m.DebtBefore,
		DebtAfter:            m.DebtAfter,
		AppliedTransactionID: StringValue(m.AppliedTransactionID),
		AdminNote:            StringValue(m.AdminNote),
		RejectionReason:      StringValue(m.RejectionReason),
		ReviewedBy:           StringValue(m.ReviewedBy),
		Timestamps:           domain.Timestamps{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
	}
}

// ToDomainPaymentRequestSlice converts a slice of model PaymentRequests
func ToDomainPaymentRequestSlice(ms []models.PaymentRequest) []domain.PaymentRequest {
	ds := make([]domain.PaymentRequest, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPaymentRequest(m)
	}
	return ds
}
