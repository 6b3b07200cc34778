package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/types"
)

// Warning thresholds
var (
	// CloseToMaxLTVOffset flags positions within this many LTV points of max
	CloseToMaxLTVOffset = decimal.RequireFromString("0.05")
	// LiquidationPriceProximity flags liquidation prices within this share of the oracle price
	LiquidationPriceProximity = decimal.RequireFromString("0.03")
)

func addError(d *types.Diagnostics, diag types.Diagnostic)   { d.Errors = append(d.Errors, diag) }
func addWarning(d *types.Diagnostics, diag types.Diagnostic) { d.Warnings = append(d.Warnings, diag) }
func addNotice(d *types.Diagnostics, diag types.Diagnostic)  { d.Notices = append(d.Notices, diag) }
func addSuccess(d *types.Diagnostics, diag types.Diagnostic) { d.Successes = append(d.Successes, diag) }

// ValidateDust flags a remaining debt below the protocol minimum
func ValidateDust(after types.Position) types.Diagnostics {
	var d types.Diagnostics
	dust := after.Category.DustLimit
	debt := after.Debt.Amount
	if dust.Sign() > 0 && debt.Sign() > 0 && debt.LessThan(dust) {
		addError(&d, types.NewAmountDiagnostic(types.DustLimit, dust))
	}
	return d
}

// ValidatePayback flags repaying more than the current debt
func ValidatePayback(before types.Position, amount decimal.Decimal) types.Diagnostics {
	var d types.Diagnostics
	if amount.Sign() <= 0 {
		return d
	}
	debt := before.Debt.Amount
	switch {
	case amount.GreaterThan(debt):
		addError(&d, types.NewAmountDiagnostic(types.OverRepay, decimal.Max(debt, decimal.Zero)))
	case amount.Equal(debt):
		addSuccess(&d, types.NewDiagnostic(types.DebtRepaidInFull))
	}
	return d
}

// ValidateWithdraw flags withdrawing more than the balance, or more than
// the remaining debt allows at max LTV.
func ValidateWithdraw(before, after types.Position, amount decimal.Decimal) types.Diagnostics {
	var d types.Diagnostics
	if amount.Sign() <= 0 {
		return d
	}
	if amount.GreaterThan(before.Collateral.Amount) {
		addError(&d, types.NewAmountDiagnostic(types.OverWithdraw, decimal.Max(before.Collateral.Amount, decimal.Zero)))
		return d
	}
	if after.Debt.Amount.Sign() > 0 && after.RiskRatio().GreaterThan(after.MaxRiskRatio()) {
		limit := before
		limit.Debt = after.Debt
		addError(&d, types.NewAmountDiagnostic(types.WithdrawUndercollateralized, limit.MaxCollateralWithdrawable()))
	}
	return d
}

// ValidateBorrow flags a borrow that exceeds max LTV or the market's
// available liquidity. The undercollateralized amount is the largest
// borrow the post-deposit collateral supports.
func ValidateBorrow(before, after types.Position, amount, liquidity decimal.Decimal) types.Diagnostics {
	var d types.Diagnostics
	if amount.Sign() <= 0 {
		return d
	}
	if after.RiskRatio().GreaterThan(after.MaxRiskRatio()) {
		available := after.DebtAvailableFor(after.Collateral.Amount, before.Debt.Amount)
		addError(&d, types.NewAmountDiagnostic(types.BorrowUndercollateralized, available))
	}
	if amount.GreaterThan(liquidity) {
		addError(&d, types.NewAmountDiagnostic(types.InsufficientLiquidity, decimal.Max(liquidity, decimal.Zero)))
	}
	return d
}

// ValidateTargetRisk flags a requested LTV above the category maximum
func ValidateTargetRisk(target types.RiskRatio, category types.Category) types.Diagnostics {
	var d types.Diagnostics
	if target.GreaterThan(types.NewRiskRatio(category.MaxLoanToValue)) {
		addError(&d, types.NewAmountDiagnostic(types.TargetLTVExceedsMax, category.MaxLoanToValue))
	}
	return d
}

// ValidateRisk returns warnings for a position that is allowed but close
// to liquidation.
func ValidateRisk(after types.Position) types.Diagnostics {
	var d types.Diagnostics
	if after.Debt.Amount.Sign() <= 0 {
		return d
	}
	ratio := after.RiskRatio()
	maxRatio := after.MaxRiskRatio()
	if !ratio.GreaterThan(maxRatio) && ratio.LoanToValue.GreaterThan(maxRatio.LoanToValue.Sub(CloseToMaxLTVOffset)) {
		addWarning(&d, types.NewDiagnostic(types.CloseToMaxLTV))
	}

	liq := after.LiquidationPrice()
	price := after.OraclePrice
	if liq.Sign() > 0 && price.Sign() > 0 {
		gap := types.Div(price.Sub(liq).Abs(), price)
		if gap.LessThan(LiquidationPriceProximity) {
			addWarning(&d, types.NewDiagnostic(types.LiquidationPriceCloseToMarket))
		}
	}
	return d
}
