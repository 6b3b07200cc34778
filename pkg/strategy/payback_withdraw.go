package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/actions"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/registry"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// PaybackWithdrawArgs repays debt and/or removes collateral. Amounts are
// base units of the debt and collateral tokens.
type PaybackWithdrawArgs struct {
	Protocol   protocol.Protocol
	Collateral types.Token
	Debt       types.Token
	// EntryToken funds the payback. Nil pays with the debt token; the gas
	// asset can repay wrapped native debt.
	EntryToken     *types.Token
	PaybackAmount  decimal.Decimal
	WithdrawAmount decimal.Decimal
	// ReceiveNative unwraps withdrawn wrapped native before returning it
	ReceiveNative bool
}

// PaybackWithdraw repays and/or withdraws without a flashloan
func (e *Engine) PaybackWithdraw(ctx context.Context, args PaybackWithdrawArgs, deps Dependencies) (*Result, error) {
	p := args.Protocol
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if err := checkAmounts(args.PaybackAmount, args.WithdrawAmount); err != nil {
		return nil, err
	}
	if err := checkNonEmpty(registry.PaybackWithdraw, args.PaybackAmount, args.WithdrawAmount); err != nil {
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
	data, err := e.protocolData(ctx, deps, p, args.Collateral, args.Debt, nil)
	if err != nil {
		return nil, err
	}
	if before, err = reprice(before, data); err != nil {
		return nil, err
	}

	en, err := e.resolveEntry(args.EntryToken, args.Debt)
	if err != nil {
		return nil, err
	}
	if !en.token.Equal(args.Debt) {
		return nil, fmt.Errorf("%w: payback must be funded with %s", ErrUnsupportedEntryToken, args.Debt)
	}
	def, err := e.registry.Operation(p, registry.PaybackWithdraw)
	if err != nil {
		return nil, err
	}
	lending, err := actions.ForProtocol(p, e.network, data)
	if err != nil {
		return nil, err
	}

	payback := args.PaybackAmount
	withdraw := args.WithdrawAmount
	debt := before.Debt.Amount
	paybackAll := payback.Sign() > 0 && payback.GreaterThanOrEqual(debt)
	withdrawAll := withdraw.Sign() > 0 && withdraw.GreaterThanOrEqual(before.Collateral.Amount) && (paybackAll || debt.Sign() <= 0)

	plan := actions.NewPlan(def)
	sim := Simulation{Before: before}

	if err := fund(plan, en, deps.User, payback); err != nil {
		return nil, err
	}
	var paybackFrom registry.Step
	if en.native {
		paybackFrom = registry.StepWrapEth
	}
	if payback.Sign() > 0 {
		approve, err := actions.SetApproval(args.Debt.Address, lending.Spender(), payback, false)
		if err != nil {
			return nil, err
		}
		if err := addMapped(plan, registry.StepApproveDebt, approve, approvalAmountArg, paybackFrom); err != nil {
			return nil, err
		}
	}

	if combined {
		if payback.Sign() > 0 || withdraw.Sign() > 0 {
			call, err := lending.PaybackWithdraw(withdraw, payback, paybackAll, withdrawAll)
			if err != nil {
				return nil, err
			}
			if err := plan.Add(registry.StepPaybackWithdraw, call); err != nil {
				return nil, err
			}
		}
	} else {
		if payback.Sign() > 0 {
			call, err := lending.Payback(args.Debt.Address, payback, paybackAll, deps.Proxy)
			if err != nil {
				return nil, err
			}
			if err := plan.Add(registry.StepPayback, call); err != nil {
				return nil, err
			}
		}
		if withdraw.Sign() > 0 {
			call, err := lending.Withdraw(args.Collateral.Address, withdraw, deps.Proxy)
			if err != nil {
				return nil, err
			}
			if err := plan.Add(registry.StepWithdrawCollateral, call); err != nil {
				return nil, err
			}
		}
	}
	if withdraw.Sign() > 0 {
		if err := e.payout(plan, registry.StepReturnFunds, args.Collateral, args.ReceiveNative); err != nil {
			return nil, err
		}
	}

	after, err := before.Payback(payback)
	if err != nil {
		return nil, err
	}
	if after, err = after.Withdraw(withdraw); err != nil {
		return nil, err
	}
	sim.Position = after
	sim.Merge(ValidatePayback(before, payback))
	sim.Merge(ValidateWithdraw(before, after, withdraw))
	sim.Merge(ValidateDust(after))
	sim.Merge(ValidateRisk(after))

	value := decimal.Zero
	if en.native {
		value = payback
	}
	res, err := e.operation(plan, sim, value)
	if err != nil {
		return nil, fmt.Errorf("payback-withdraw on %s: %w", p, err)
	}
	return res, nil
}
