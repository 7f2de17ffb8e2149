package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyPrecision is the number of decimal places kept at every ledger write.
const MoneyPrecision int32 = 2

// PaymentTolerance absorbs sub-cent noise when checking a payment against the pending debt.
var PaymentTolerance = decimal.New(1, -MoneyPrecision)

// RoundMoney rounds an amount to MoneyPrecision using half-away-from-zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPrecision)
}

// ClampDebt rounds a debt figure and never lets it go below zero.
func ClampDebt(d decimal.Decimal) decimal.Decimal {
	d = RoundMoney(d)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
