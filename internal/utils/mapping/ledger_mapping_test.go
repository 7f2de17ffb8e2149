package mapping

import (
	"testing"
	"time"

	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToModelTransaction_CommissionPaymentUsesMarker(t *testing.T) {
	txn := domain.Transaction{
		TransactionID:    "t1",
		DriverID:         "d1",
		Source:           domain.CommissionPaymentSource(),
		CommissionAmount: decimal.RequireFromString("-30.00"),
		Status:           domain.TransactionSettled,
	}

	m := ToModelTransaction(txn)
	assert.Equal(t, domain.CommissionPaymentMarker, m.SourceTripID)
	assert.Nil(t, m.Reference)
	assert.Nil(t, m.Notes)
}

func TestTransactionNotes_RoundTrip(t *testing.T) {
	txn := domain.Transaction{
		TransactionID: "t3",
		DriverID:      "d1",
		Source:        domain.CommissionPaymentSource(),
		Notes:         "paid via Yape at 10am",
		Status:        domain.TransactionSettled,
	}

	m := ToModelTransaction(txn)
	require.NotNil(t, m.Notes)
	assert.Equal(t, "paid via Yape at 10am", *m.Notes)

	back, err := ToDomainTransaction(m)
	require.NoError(t, err)
	assert.Equal(t, txn.Notes, back.Notes)
}

func TestToDomainTransaction_TripSource(t *testing.T) {
	ref := "viaje 12"
	m := models.Transaction{
		TransactionID: "t2",
		DriverID:      "d1",
		SourceTripID:  "trip-9",
		Reference:     &ref,
		Status:        "SETTLED",
		Timestamps:    models.Timestamps{CreatedAt: time.Unix(10, 0)},
	}

	d, err := ToDomainTransaction(m)
	require.NoError(t, err)
	assert.Equal(t, domain.TripSource("trip-9"), d.Source)
	assert.Equal(t, "viaje 12", d.Reference)
	assert.Equal(t, "", d.Notes)
	assert.Equal(t, domain.TransactionSettled, d.Status)
}

func TestToDomainTransaction_EmptySource(t *testing.T) {
	_, err := ToDomainTransaction(models.Transaction{TransactionID: "bad"})
	assert.Error(t, err)
}

func TestToDomainDriverProfile_NullColumns(t *testing.T) {
	tax := "20123456789"
	p := ToDomainDriverProfile(models.DriverProfile{DriverID: "d1", TaxID: &tax})
	assert.Equal(t, "", p.DisplayName)
	assert.Equal(t, tax, p.TaxID)
	assert.Equal(t, domain.DefaultDriverName, p.ResolvedName())
}
