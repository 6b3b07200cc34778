// Package fees resolves the swap fee charged for a token pair and applies
// it to amounts.
package fees

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fees are expressed in basis points of FeeBase.
const (
	NoFee      int64 = 0
	DefaultFee int64 = 20
	HighFee    int64 = 70
	FeeBase    int64 = 10000
)

// Options describe the swap being priced
type Options struct {
	IsEntrySwap      bool
	IsIncreasingRisk bool
	// Override forces a fee when non-nil
	Override *int64
}

// correlation classes; tokens in the same class swap without a fee
var correlated = map[string]string{
	"ETH":    "eth",
	"WETH":   "eth",
	"STETH":  "eth",
	"WSTETH": "eth",
	"RETH":   "eth",
	"CBETH":  "eth",
	"WEETH":  "eth",
	"OSETH":  "eth",

	"USDC":  "usd",
	"USDT":  "usd",
	"DAI":   "usd",
	"SDAI":  "usd",
	"GHO":   "usd",
	"LUSD":  "usd",
	"FRAX":  "usd",
	"USDE":  "usd",
	"SUSDE": "usd",
	"PYUSD": "usd",

	"WBTC":  "btc",
	"TBTC":  "btc",
	"CBBTC": "btc",
}

// IsCorrelated reports whether both symbols belong to the same class
func IsCorrelated(from, to string) bool {
	a, ok := correlated[strings.ToUpper(from)]
	if !ok {
		return false
	}
	b, ok := correlated[strings.ToUpper(to)]
	return ok && a == b
}

// IsStable reports whether the symbol is a USD stable
func IsStable(symbol string) bool {
	return correlated[strings.ToUpper(symbol)] == "usd"
}

// ResolveFee returns the fee in basis points for swapping from -> to. Entry
// swaps always pay the default fee; correlated pairs are free otherwise.
func ResolveFee(from, to string, opts Options) int64 {
	if opts.Override != nil {
		return *opts.Override
	}
	if opts.IsEntrySwap {
		return DefaultFee
	}
	if IsCorrelated(from, to) {
		return NoFee
	}
	return DefaultFee
}

// CalculateFee returns the fee contained in a gross amount, rounded down:
// amount * fee / (fee + FeeBase).
func CalculateFee(amount decimal.Decimal, fee int64) decimal.Decimal {
	if fee <= 0 || amount.Sign() <= 0 {
		return decimal.Zero
	}
	f := decimal.NewFromInt(fee)
	q, _ := amount.Mul(f).QuoRem(f.Add(decimal.NewFromInt(FeeBase)), 0)
	return q
}

// CalculateFeeOnInputAmount returns the fee charged on top of a net amount,
// rounded up: amount * fee / FeeBase.
func CalculateFeeOnInputAmount(amount decimal.Decimal, fee int64) decimal.Decimal {
	if fee <= 0 || amount.Sign() <= 0 {
		return decimal.Zero
	}
	q, r := amount.Mul(decimal.NewFromInt(fee)).QuoRem(decimal.NewFromInt(FeeBase), 0)
	if r.Sign() > 0 {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q
}

// NetFraction is the share of a gross amount left after the fee,
// FeeBase / (FeeBase + fee).
func NetFraction(fee int64) decimal.Decimal {
	base := decimal.NewFromInt(FeeBase)
	if fee <= 0 {
		return decimal.NewFromInt(1)
	}
	return base.DivRound(base.Add(decimal.NewFromInt(fee)), 27)
}

// Percentage converts basis points into a fraction
func Percentage(fee int64) decimal.Decimal {
	return decimal.NewFromInt(fee).Div(decimal.NewFromInt(FeeBase))
}
