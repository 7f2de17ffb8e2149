package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the administrative state of a driver's ledger.
type AccountStatus string

const (
	AccountActive  AccountStatus = "ACTIVE"
	AccountBlocked AccountStatus = "BLOCKED"
	AccountClosed  AccountStatus = "CLOSED"
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountBlocked, AccountClosed:
		return true
	}
	return false
}

// AccountLedger is the running financial position of one driver.
// CommissionDebt is never negative.
type AccountLedger struct {
	DriverID                string          `json:"driverID"`
	AvailableBalance        decimal.Decimal `json:"availableBalance"`
	HeldBalance             decimal.Decimal `json:"heldBalance"`
	CommissionDebt          decimal.Decimal `json:"commissionDebt"`
	LifetimeIncomeTotal     decimal.Decimal `json:"lifetimeIncomeTotal"`
	LifetimeCommissionTotal decimal.Decimal `json:"lifetimeCommissionTotal"`
	AccountStatus           AccountStatus   `json:"accountStatus"`
	LastTransactionID       string          `json:"lastTransactionID"`
	Timestamps
}

// NewAccountLedger returns the zeroed ledger a driver gets on first access.
func NewAccountLedger(driverID string, now time.Time) AccountLedger {
	return AccountLedger{
		DriverID:                driverID,
		AvailableBalance:        decimal.Zero,
		HeldBalance:             decimal.Zero,
		CommissionDebt:          decimal.Zero,
		LifetimeIncomeTotal:     decimal.Zero,
		LifetimeCommissionTotal: decimal.Zero,
		AccountStatus:           AccountActive,
		Timestamps:              Timestamps{CreatedAt: now, UpdatedAt: now},
	}
}

// HasPendingDebt reports whether there is anything left to settle.
func (l AccountLedger) HasPendingDebt() bool {
	return l.CommissionDebt.IsPositive()
}

// Normalize rounds every money field to MoneyPrecision and clamps the debt at zero.
func (l *AccountLedger) Normalize() {
	l.AvailableBalance = RoundMoney(l.AvailableBalance)
	l.HeldBalance = RoundMoney(l.HeldBalance)
	l.CommissionDebt = ClampDebt(l.CommissionDebt)
	l.LifetimeIncomeTotal = RoundMoney(l.LifetimeIncomeTotal)
	l.LifetimeCommissionTotal = RoundMoney(l.LifetimeCommissionTotal)
}
