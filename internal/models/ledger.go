package models

import (
	"github.com/shopspring/decimal"
)

// AccountLedger is a row of account_ledgers.
type AccountLedger struct {
	DriverID                string          `db:"driver_id"`
	AvailableBalance        decimal.Decimal `db:"available_balance"`
	HeldBalance             decimal.Decimal `db:"held_balance"`
	CommissionDebt          decimal.Decimal `db:"commission_debt"`
	LifetimeIncomeTotal     decimal.Decimal `db:"lifetime_income_total"`
	LifetimeCommissionTotal decimal.Decimal `db:"lifetime_commission_total"`
	AccountStatus           string          `db:"account_status"`
	LastTransactionID       *string         `db:"last_transaction_id"` // Nullable
	Timestamps
}

// Transaction is a row of ledger_transactions. SourceTripID holds either the trip id
// or the commission payment marker.
type Transaction struct {
	TransactionID    string          `db:"transaction_id"`
	DriverID         string          `db:"driver_id"`
	SourceTripID     string          `db:"source_trip_id"`
	GrossAmount      decimal.Decimal `db:"gross_amount"`
	CommissionAmount decimal.Decimal `db:"commission_amount"`
	NetAmount        decimal.Decimal `db:"net_amount"`
	Reference        *string         `db:"reference"` // Nullable
	Notes            *string         `db:"notes"`     // Nullable
	Status           string          `db:"status"`
	Timestamps
}

// PaymentRequest is a row of payment_requests.
type PaymentRequest struct {
	RequestID            string           `db:"request_id"`
	DriverID             string           `db:"driver_id"`
	Amount               decimal.Decimal  `db:"amount"`
	Reference            *string          `db:"reference"`
	Notes                *string          `db:"notes"`
	Status               string           `db:"status"`
	AppliedAmount        *decimal.Decimal `db:"applied_amount"`
	DebtBefore           *decimal.Decimal `db:"debt_before"`
	DebtAfter            *decimal.Decimal `db:"debt_after"`
	AppliedTransactionID *string          `db:"applied_transaction_id"`
	AdminNote            *string          `db:"admin_note"`
	RejectionReason      *string          `db:"rejection_reason"`
	ReviewedBy           *string          `db:"reviewed_by"`
	Timestamps
}
