package types

import "github.com/shopspring/decimal"

// DivisionPrecision is the number of decimal places kept by Div.
const DivisionPrecision = 27

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Div divides a by b and returns zero when b is zero
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, DivisionPrecision)
}

// Standardise scales a base-unit amount of the given precision to 18 decimals
func Standardise(amount decimal.Decimal, precision int) decimal.Decimal {
	return amount.Shift(int32(StandardPrecision - precision))
}

// RevertStandardised converts an 18-decimal amount back to the given
// precision, truncating toward zero.
func RevertStandardised(amount decimal.Decimal, precision int) decimal.Decimal {
	return amount.Shift(int32(precision - StandardPrecision)).Truncate(0)
}

// Percent converts a percentage (5 for 5%) into a fraction
func Percent(p int64) decimal.Decimal {
	return decimal.NewFromInt(p).Div(hundred)
}
