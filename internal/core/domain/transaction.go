package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CommissionPaymentMarker is the value stored in the source trip column for
// transactions that settle commission debt rather than belong to a trip.
const CommissionPaymentMarker = "__PAGO_COMISION__"

// SourceKind discriminates what produced a Transaction.
type SourceKind string

const (
	SourceTrip              SourceKind = "TRIP"
	SourceCommissionPayment SourceKind = "COMMISSION_PAYMENT"
)

// TransactionSource is either Trip(tripID) or CommissionPayment.
type TransactionSource struct {
	Kind   SourceKind `json:"kind"`
	TripID string     `json:"tripID,omitempty"`
}

// TripSource builds the Trip(tripID) variant.
func TripSource(tripID string) TransactionSource {
	return TransactionSource{Kind: SourceTrip, TripID: tripID}
}

// CommissionPaymentSource builds the CommissionPayment variant.
func CommissionPaymentSource() TransactionSource {
	return TransactionSource{Kind: SourceCommissionPayment}
}

// IsCommissionPayment reports whether the source is the CommissionPayment variant.
func (s TransactionSource) IsCommissionPayment() bool {
	return s.Kind == SourceCommissionPayment
}

// StoredValue is the persisted discriminator: the trip id, or CommissionPaymentMarker.
func (s TransactionSource) StoredValue() string {
	if s.IsCommissionPayment() {
		return CommissionPaymentMarker
	}
	return s.TripID
}

// ParseTransactionSource is the inverse of StoredValue.
func ParseTransactionSource(stored string) (TransactionSource, error) {
	switch stored {
	case CommissionPaymentMarker:
		return CommissionPaymentSource(), nil
	case "":
		return TransactionSource{}, fmt.Errorf("empty transaction source")
	default:
		return TripSource(stored), nil
	}
}

func (s TransactionSource) String() string {
	if s.IsCommissionPayment() {
		return string(SourceCommissionPayment)
	}
	return fmt.Sprintf("%s(%s)", SourceTrip, s.TripID)
}

// TransactionStatus tracks the settlement state of a Transaction.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "PENDING"
	TransactionSettled TransactionStatus = "SETTLED"
	TransactionVoid    TransactionStatus = "VOID"
)

// Transaction is one append-only money-moving event on a driver's ledger.
// CommissionAmount is signed: positive charges debt, negative pays it down.
type Transaction struct {
	TransactionID    string            `json:"transactionID"`
	DriverID         string            `json:"driverID"`
	Source           TransactionSource `json:"source"`
	GrossAmount      decimal.Decimal   `json:"grossAmount"`
	CommissionAmount decimal.Decimal   `json:"commissionAmount"`
	NetAmount        decimal.Decimal   `json:"netAmount"`
	Reference        string            `json:"reference,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	Status           TransactionStatus `json:"status"`
	Timestamps
}

// CanTransitionTo reports whether the status may move from the current one to next.
// Only PENDING transactions change state.
func (t Transaction) CanTransitionTo(next TransactionStatus) bool {
	return t.Status == TransactionPending && (next == TransactionSettled || next == TransactionVoid)
}
