package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/actions"
	"github.com/summerfi/dma-sdk/pkg/fees"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/registry"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// CloseArgs closes a position
type CloseArgs struct {
	Protocol   protocol.Protocol
	Collateral types.Token
	Debt       types.Token
	// ToCollateral sells only the collateral needed to repay the debt and
	// returns the rest. Otherwise all collateral is sold for the debt token.
	ToCollateral bool
	Slippage     decimal.Decimal
	// ReceiveNative unwraps the returned token when it is wrapped native
	ReceiveNative bool
}

// Close flashloans the debt, repays it, withdraws all collateral and swaps
// enough of it to repay the flashloan.
func (e *Engine) Close(ctx context.Context, args CloseArgs, deps Dependencies) (*Result, error) {
	p := args.Protocol
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	combined, err := combinedActions(p)
	if err != nil {
		return nil, err
	}

	before, err := e.currentPosition(ctx, deps, p, args.Collateral, args.Debt)
	if err != nil {
		return nil, err
	}
	if before.IsEmpty() {
		return nil, fmt.Errorf("%w: %s %s/%s is empty", protocol.ErrPositionNotFound, p, args.Collateral, args.Debt)
	}
	data, err := e.protocolData(ctx, deps, p, args.Collateral, args.Debt, nil)
	if err != nil {
		return nil, err
	}
	if before, err = reprice(before, data); err != nil {
		return nil, err
	}

	def, err := e.registry.Operation(p, registry.CloseAndExit)
	if err != nil {
		return nil, err
	}
	lending, err := actions.ForProtocol(p, e.network, data)
	if err != nil {
		return nil, err
	}

	slippage := slippageOrDefault(args.Slippage)
	feeBps := fees.ResolveFee(args.Collateral.Symbol, args.Debt.Symbol, fees.Options{})
	flAmount, sell := CloseSize(before, args.ToCollateral, feeBps, slippage)
	collateral := before.Collateral.Amount
	debt := before.Debt.Amount

	plan := actions.NewPlan(def)
	sim := Simulation{Before: before}

	sim.Flashloan = e.flashloan(args.Debt, flAmount, false)
	takeFl, err := actions.TakeFlashloan(args.Debt.Address, flAmount, sim.Flashloan.Provider)
	if err != nil {
		return nil, err
	}
	if err := plan.Add(registry.StepTakeFlashloan, takeFl); err != nil {
		return nil, err
	}
	approve, err := actions.SetApproval(args.Debt.Address, lending.Spender(), flAmount, false)
	if err != nil {
		return nil, err
	}
	if err := plan.Add(registry.StepApproveDebt, approve); err != nil {
		return nil, err
	}

	withdrawStep := registry.StepWithdrawCollateral
	if combined {
		withdrawStep = registry.StepPaybackWithdraw
		call, err := lending.PaybackWithdraw(collateral, flAmount, true, true)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepPaybackWithdraw, call); err != nil {
			return nil, err
		}
	} else {
		pb, err := lending.Payback(args.Debt.Address, flAmount, true, deps.Proxy)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepPayback, pb); err != nil {
			return nil, err
		}
		w, err := lending.Withdraw(args.Collateral.Address, closeWithdrawAmount(p, collateral), deps.Proxy)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepWithdrawCollateral, w); err != nil {
			return nil, err
		}
	}

	if sell.Sign() > 0 && e.swapNeeded(args.Collateral, args.Debt) {
		swap, err := e.quote(ctx, deps, swapParams{
			from:     args.Collateral,
			to:       args.Debt,
			amount:   sell,
			slippage: slippage,
		}, &sim.Diagnostics)
		if err != nil {
			return nil, err
		}
		sim.Swap = swap
		call, err := swap.call()
		if err != nil {
			return nil, err
		}
		if !args.ToCollateral {
			call = call.MapArg(swapAmountArg, withdrawStep)
		}
		if err := plan.Add(registry.StepSwap, call); err != nil {
			return nil, err
		}
		if swap.MinToAmount.LessThan(flAmount) {
			e.log.Warn().
				Str("min_to", swap.MinToAmount.String()).
				Str("flashloan", flAmount.String()).
				Msg("Swap proceeds may not cover the flashloan")
		}
	}

	if args.ToCollateral {
		if err := e.payout(plan, registry.StepReturnCollateral, args.Collateral, args.ReceiveNative); err != nil {
			return nil, err
		}
		if err := e.payout(plan, registry.StepReturnFunds, args.Debt, false); err != nil {
			return nil, err
		}
	} else {
		if err := e.payout(plan, registry.StepReturnFunds, args.Debt, args.ReceiveNative); err != nil {
			return nil, err
		}
	}

	after, err := before.Payback(debt)
	if err != nil {
		return nil, err
	}
	if after, err = after.Withdraw(collateral); err != nil {
		return nil, err
	}
	sim.Position = after
	if debt.Sign() > 0 {
		addSuccess(&sim.Diagnostics, types.NewDiagnostic(types.DebtRepaidInFull))
	}
	addSuccess(&sim.Diagnostics, types.NewDiagnostic(types.PositionClosed))

	res, err := e.operation(plan, sim, decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("close on %s: %w", p, err)
	}
	return res, nil
}

// closeWithdrawAmount is the withdraw amount that empties the collateral.
// Aave-like pools read max uint256 as the whole aToken balance including
// interest accrued since it was read. MorphoBlue collateral earns nothing
// and its withdrawCollateral does not accept the max form.
func closeWithdrawAmount(p protocol.Protocol, collateral decimal.Decimal) decimal.Decimal {
	if p.IsAaveLike() {
		return actions.MaxAmount
	}
	return collateral
}
