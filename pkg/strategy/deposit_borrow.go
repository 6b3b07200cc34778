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

// DepositBorrowArgs adds collateral and draws debt on an existing position.
// Amounts are in base units of the token they are spent in.
type DepositBorrowArgs struct {
	Protocol   protocol.Protocol
	Collateral types.Token
	Debt       types.Token
	// EntryToken funds the deposit. Nil deposits the collateral token, the
	// gas asset funds wrapped native collateral and any other token is
	// swapped into collateral first.
	EntryToken    *types.Token
	DepositAmount decimal.Decimal
	BorrowAmount  decimal.Decimal
	Slippage      decimal.Decimal
	// ReceiveNative unwraps borrowed wrapped native before returning it
	ReceiveNative bool
}

// DepositBorrow deposits and/or borrows without a flashloan
func (e *Engine) DepositBorrow(ctx context.Context, args DepositBorrowArgs, deps Dependencies) (*Result, error) {
	p := args.Protocol
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if err := checkAmounts(args.DepositAmount, args.BorrowAmount); err != nil {
		return nil, err
	}
	if err := checkNonEmpty(registry.DepositBorrow, args.DepositAmount, args.BorrowAmount); err != nil {
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

	en, err := e.resolveEntry(args.EntryToken, args.Collateral)
	if err != nil {
		return nil, err
	}
	def, err := e.registry.Operation(p, registry.DepositBorrow)
	if err != nil {
		return nil, err
	}
	lending, err := actions.ForProtocol(p, e.network, data)
	if err != nil {
		return nil, err
	}

	plan := actions.NewPlan(def)
	sim := Simulation{Before: before}

	if err := fund(plan, en, deps.User, args.DepositAmount); err != nil {
		return nil, err
	}
	deposit := args.DepositAmount
	var depositFrom registry.Step
	if en.native {
		depositFrom = registry.StepWrapEth
	}
	if deposit.Sign() > 0 && e.swapNeeded(en.token, args.Collateral) {
		swap, err := e.quote(ctx, deps, swapParams{
			from:        en.token,
			to:          args.Collateral,
			amount:      args.DepositAmount,
			slippage:    slippageOrDefault(args.Slippage),
			isEntrySwap: true,
		}, &sim.Diagnostics)
		if err != nil {
			return nil, err
		}
		call, err := swap.call()
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepSwap, call); err != nil {
			return nil, err
		}
		sim.Swap = swap
		deposit = swap.MinToAmount
		depositFrom = registry.StepSwap
	}

	if deposit.Sign() > 0 {
		approve, err := actions.SetApproval(args.Collateral.Address, lending.Spender(), deposit, false)
		if err != nil {
			return nil, err
		}
		if err := addMapped(plan, registry.StepApproveCollateral, approve, approvalAmountArg, depositFrom); err != nil {
			return nil, err
		}
	}

	if combined {
		call, err := lending.DepositBorrow(deposit, args.BorrowAmount, false)
		if err != nil {
			return nil, err
		}
		if deposit.Sign() > 0 || args.BorrowAmount.Sign() > 0 {
			if err := addMapped(plan, registry.StepDepositBorrow, call, depositAmountArg, depositFrom); err != nil {
				return nil, err
			}
		}
	} else {
		if deposit.Sign() > 0 {
			call, err := lending.Deposit(args.Collateral.Address, deposit, false)
			if err != nil {
				return nil, err
			}
			if err := addMapped(plan, registry.StepDepositCollateral, call, depositAmountArg, depositFrom); err != nil {
				return nil, err
			}
		}
		if args.BorrowAmount.Sign() > 0 {
			call, err := lending.Borrow(args.Debt.Address, args.BorrowAmount, deps.Proxy)
			if err != nil {
				return nil, err
			}
			if err := plan.Add(registry.StepBorrow, call); err != nil {
				return nil, err
			}
		}
	}
	if args.BorrowAmount.Sign() > 0 {
		if err := e.payout(plan, registry.StepReturnFunds, args.Debt, args.ReceiveNative); err != nil {
			return nil, err
		}
	}

	after, err := before.Deposit(deposit)
	if err != nil {
		return nil, err
	}
	if after, err = after.Borrow(args.BorrowAmount); err != nil {
		return nil, err
	}
	sim.Position = after
	sim.Merge(ValidateBorrow(before, after, args.BorrowAmount, data.Debt.AvailableLiquidity))
	sim.Merge(ValidateDust(after))
	sim.Merge(ValidateRisk(after))

	value := decimal.Zero
	if en.native {
		value = args.DepositAmount
	}
	res, err := e.operation(plan, sim, value)
	if err != nil {
		return nil, fmt.Errorf("deposit-borrow on %s: %w", p, err)
	}
	return res, nil
}
