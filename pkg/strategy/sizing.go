package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/fees"
	"github.com/summerfi/dma-sdk/pkg/types"
)

var one = decimal.NewFromInt(1)

// CloseDebtBuffer is added to the debt flashloaned on close to cover
// interest accrued before the transaction is mined.
var CloseDebtBuffer = decimal.RequireFromString("0.001")

// swapEfficiency is the share of a swap's input value that reaches the
// position after the fee and worst-case slippage.
func swapEfficiency(feeBps int64, slippage decimal.Decimal) decimal.Decimal {
	return fees.NetFraction(feeBps).Mul(one.Sub(slippage))
}

// IncreaseSize returns the debt, in debt base units, to borrow and swap
// into collateral so that the position reaches target. collateralDeposit
// and debtDeposit are the user's funds in base units.
//
// With L the target LTV, P the oracle price, k the swap efficiency and
// C, D the balances in whole tokens:
//
//	X = (L*P*(C + Cdep) + L*k*Ddep - D) / (1 - L*k)
func IncreaseSize(pos types.Position, collateralDeposit, debtDeposit decimal.Decimal, target types.RiskRatio, feeBps int64, slippage decimal.Decimal) (decimal.Decimal, error) {
	if target.Infinite || target.LoanToValue.Sign() <= 0 || target.LoanToValue.GreaterThanOrEqual(one) {
		return decimal.Zero, fmt.Errorf("%w: ltv %s", ErrInvalidTarget, target.LoanToValue)
	}
	l := target.LoanToValue
	k := swapEfficiency(feeBps, slippage)
	c := pos.Collateral.Token.FromBaseUnits(pos.Collateral.Amount.Add(collateralDeposit))
	d := pos.Debt.Normalised()
	dep := pos.Debt.Token.FromBaseUnits(debtDeposit)

	numerator := l.Mul(pos.OraclePrice).Mul(c).Add(l.Mul(k).Mul(dep)).Sub(d)
	x := types.Div(numerator, one.Sub(l.Mul(k)))
	if x.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: ltv %s does not increase risk", ErrInvalidTarget, l)
	}
	return pos.Debt.Token.ToBaseUnits(x), nil
}

// DecreaseSize returns the debt to repay (debt base units) and the
// collateral to sell for it (collateral base units, rounded up) so that the
// position reaches target.
//
//	R = (D - L*P*C) / (1 - L/k)
//	W = R / (P*k)
func DecreaseSize(pos types.Position, target types.RiskRatio, feeBps int64, slippage decimal.Decimal) (repay, withdraw decimal.Decimal, err error) {
	if target.Infinite || target.LoanToValue.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: ltv %s", ErrInvalidTarget, target.LoanToValue)
	}
	l := target.LoanToValue
	k := swapEfficiency(feeBps, slippage)
	p := pos.OraclePrice
	if l.GreaterThanOrEqual(k) || p.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: ltv %s is not reachable by selling collateral", ErrInvalidTarget, l)
	}
	c := pos.Collateral.Normalised()
	d := pos.Debt.Normalised()

	r := types.Div(d.Sub(l.Mul(p).Mul(c)), one.Sub(types.Div(l, k)))
	if r.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: ltv %s does not decrease risk", ErrInvalidTarget, l)
	}
	if r.GreaterThan(d) {
		r = d
	}
	w := types.Div(r, p.Mul(k))

	repay = pos.Debt.Token.ToBaseUnits(r)
	withdraw = w.Shift(int32(pos.Collateral.Token.Precision)).Ceil()
	if withdraw.GreaterThan(pos.Collateral.Amount) {
		withdraw = pos.Collateral.Amount
	}
	return repay, withdraw, nil
}

// CloseSize returns the debt flashloaned to close a position and, when the
// user keeps collateral, the collateral to sell to cover it.
func CloseSize(pos types.Position, toCollateral bool, feeBps int64, slippage decimal.Decimal) (flashloan, sell decimal.Decimal) {
	flashloan = pos.Debt.Amount.Mul(one.Add(CloseDebtBuffer)).Ceil()
	if !toCollateral || pos.OraclePrice.Sign() <= 0 {
		return flashloan, pos.Collateral.Amount
	}
	gross := flashloan.Add(fees.CalculateFeeOnInputAmount(flashloan, feeBps))
	whole := types.Div(pos.Debt.Token.FromBaseUnits(gross), pos.OraclePrice.Mul(one.Sub(slippage)))
	sell = whole.Shift(int32(pos.Collateral.Token.Precision)).Ceil()
	if sell.GreaterThan(pos.Collateral.Amount) {
		sell = pos.Collateral.Amount
	}
	return flashloan, sell
}
