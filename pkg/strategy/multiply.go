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

// DefaultPositionType is emitted by PositionCreated when none is given
const DefaultPositionType = "Multiply"

// OpenArgs opens a leveraged position at a target risk
type OpenArgs struct {
	Protocol   protocol.Protocol
	Collateral types.Token
	Debt       types.Token
	// EntryToken funds the position: nil for the collateral token, the gas
	// asset for wrapped native collateral, or the debt token.
	EntryToken *types.Token
	// DepositAmount is in entry token base units
	DepositAmount decimal.Decimal
	Target        types.RiskRatio
	Slippage      decimal.Decimal
	PositionType  string
}

// AdjustArgs moves an existing position to a target risk
type AdjustArgs struct {
	Protocol   protocol.Protocol
	Collateral types.Token
	Debt       types.Token
	Target     types.RiskRatio
	Slippage   decimal.Decimal
	// ReceiveNative unwraps surplus wrapped native debt when reducing risk
	ReceiveNative bool
}

// increase carries the resolved inputs of a risk increasing operation
type increase struct {
	protocol          protocol.Protocol
	intent            registry.Intent
	data              *protocol.Data
	before            types.Position
	entry             entry
	deposit           decimal.Decimal
	collateralDeposit decimal.Decimal
	debtDeposit       decimal.Decimal
	target            types.RiskRatio
	slippage          decimal.Decimal
	flashloanToken    types.Token
	temporary         bool
	positionType      string
}

// Open opens a position: flashloan, swap debt into collateral, deposit and
// borrow back the flashloaned amount.
func (e *Engine) Open(ctx context.Context, args OpenArgs, deps Dependencies) (*Result, error) {
	p := args.Protocol
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if args.DepositAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: open requires a deposit", types.ErrInvalidAmount)
	}

	en, err := e.resolveEntry(args.EntryToken, args.Collateral)
	if err != nil {
		return nil, err
	}
	inc := increase{
		protocol:     p,
		intent:       registry.OpenPosition,
		entry:        en,
		deposit:      args.DepositAmount,
		target:       args.Target,
		slippage:     slippageOrDefault(args.Slippage),
		positionType: args.PositionType,
	}
	switch {
	case en.token.Equal(args.Collateral):
		inc.collateralDeposit = args.DepositAmount
	case en.token.Equal(args.Debt):
		inc.debtDeposit = args.DepositAmount
	default:
		return nil, fmt.Errorf("%w: open %s/%s with %s", ErrUnsupportedEntryToken, args.Collateral, args.Debt, en.token)
	}
	if inc.positionType == "" {
		inc.positionType = DefaultPositionType
	}

	if inc.flashloanToken, inc.temporary, err = e.flashloanAsset(p, args.Debt, true); err != nil {
		return nil, err
	}
	var fl *types.Token
	if inc.temporary {
		fl = &inc.flashloanToken
	}
	if inc.data, err = e.protocolData(ctx, deps, p, args.Collateral, args.Debt, fl); err != nil {
		return nil, err
	}
	price, err := inc.data.OraclePrice()
	if err != nil {
		return nil, err
	}
	inc.before = types.EmptyPosition(args.Debt, args.Collateral, price, inc.data.Category())

	res, err := e.increaseRisk(ctx, deps, inc)
	if err != nil {
		return nil, fmt.Errorf("open on %s: %w", p, err)
	}
	return res, nil
}

// Adjust moves a position to Target, increasing or decreasing risk
// depending on where the position currently stands.
func (e *Engine) Adjust(ctx context.Context, args AdjustArgs, deps Dependencies) (*Result, error) {
	p := args.Protocol
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if args.Target.Infinite || args.Target.LoanToValue.IsNegative() || args.Target.LoanToValue.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("%w: ltv %s", ErrInvalidTarget, args.Target.LoanToValue)
	}

	before, err := e.currentPosition(ctx, deps, p, args.Collateral, args.Debt)
	if err != nil {
		return nil, err
	}
	if before.IsEmpty() {
		return nil, fmt.Errorf("%w: %s %s/%s is empty", protocol.ErrPositionNotFound, p, args.Collateral, args.Debt)
	}
	current := before.RiskRatio()
	var increasing bool
	switch {
	case args.Target.GreaterThan(current):
		increasing = true
	case current.GreaterThan(args.Target):
		increasing = false
	default:
		return nil, fmt.Errorf("%w: ltv %s", ErrNoAdjustment, current.LoanToValue)
	}

	flToken, temporary, err := e.flashloanAsset(p, args.Debt, increasing)
	if err != nil {
		return nil, err
	}
	var fl *types.Token
	if temporary {
		fl = &flToken
	}
	data, err := e.protocolData(ctx, deps, p, args.Collateral, args.Debt, fl)
	if err != nil {
		return nil, err
	}
	if before, err = reprice(before, data); err != nil {
		return nil, err
	}

	slippage := slippageOrDefault(args.Slippage)
	var res *Result
	if increasing {
		res, err = e.increaseRisk(ctx, deps, increase{
			protocol:       p,
			intent:         registry.AdjustRiskUp,
			data:           data,
			before:         before,
			target:         args.Target,
			slippage:       slippage,
			flashloanToken: flToken,
			temporary:      temporary,
		})
	} else {
		res, err = e.decreaseRisk(ctx, deps, args, data, before, slippage)
	}
	if err != nil {
		return nil, fmt.Errorf("adjust on %s: %w", p, err)
	}
	return res, nil
}

func (e *Engine) increaseRisk(ctx context.Context, deps Dependencies, inc increase) (*Result, error) {
	p := inc.protocol
	before := inc.before
	collateral := before.Collateral.Token
	debt := before.Debt.Token

	combined, err := combinedActions(p)
	if err != nil {
		return nil, err
	}
	def, err := e.registry.Operation(p, inc.intent)
	if err != nil {
		return nil, err
	}
	lending, err := actions.ForProtocol(p, e.network, inc.data)
	if err != nil {
		return nil, err
	}

	sim := Simulation{Before: before}
	sim.Merge(ValidateTargetRisk(inc.target, before.Category))

	feeBps := fees.ResolveFee(debt.Symbol, collateral.Symbol, fees.Options{IsIncreasingRisk: true})
	borrow, err := IncreaseSize(before, inc.collateralDeposit, inc.debtDeposit, inc.target, feeBps, inc.slippage)
	if err != nil {
		return nil, err
	}

	plan := actions.NewPlan(def)

	// flashloan
	flAmount := borrow
	if inc.temporary {
		if flAmount, err = temporaryCollateral(inc.data, debt, inc.flashloanToken, borrow); err != nil {
			return nil, err
		}
	}
	sim.Flashloan = e.flashloan(inc.flashloanToken, flAmount, inc.temporary)
	takeFl, err := actions.TakeFlashloan(inc.flashloanToken.Address, flAmount, sim.Flashloan.Provider)
	if err != nil {
		return nil, err
	}
	if err := plan.Add(registry.StepTakeFlashloan, takeFl); err != nil {
		return nil, err
	}

	if err := fund(plan, inc.entry, deps.User, inc.deposit); err != nil {
		return nil, err
	}

	if inc.temporary {
		approve, err := actions.SetApproval(inc.flashloanToken.Address, lending.Spender(), flAmount, false)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepApproveFlashloan, approve); err != nil {
			return nil, err
		}
		deposit, err := lending.Deposit(inc.flashloanToken.Address, flAmount, false)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepDepositFlashloan, deposit); err != nil {
			return nil, err
		}
		borrowCall, err := lending.Borrow(debt.Address, borrow, deps.Proxy)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepBorrow, borrowCall); err != nil {
			return nil, err
		}
	}

	// swap
	swap, err := e.quote(ctx, deps, swapParams{
		from:             debt,
		to:               collateral,
		amount:           borrow.Add(inc.debtDeposit),
		slippage:         inc.slippage,
		isIncreasingRisk: true,
	}, &sim.Diagnostics)
	if err != nil {
		return nil, err
	}
	sim.Swap = swap
	swapCall, err := swap.call()
	if err != nil {
		return nil, err
	}
	if err := plan.Add(registry.StepSwap, swapCall); err != nil {
		return nil, err
	}

	// deposit collateral, summing the user's deposit with the swap output
	depositTotal := inc.collateralDeposit.Add(swap.MinToAmount)
	approve, err := actions.SetApproval(collateral.Address, lending.Spender(), inc.collateralDeposit, true)
	if err != nil {
		return nil, err
	}
	if err := addMapped(plan, registry.StepApproveCollateral, approve, approvalAmountArg, registry.StepSwap); err != nil {
		return nil, err
	}
	if combined {
		call, err := lending.DepositBorrow(inc.collateralDeposit, borrow, true)
		if err != nil {
			return nil, err
		}
		if err := addMapped(plan, registry.StepDepositBorrow, call, depositAmountArg, registry.StepSwap); err != nil {
			return nil, err
		}
	} else {
		call, err := lending.Deposit(collateral.Address, inc.collateralDeposit, true)
		if err != nil {
			return nil, err
		}
		if err := addMapped(plan, registry.StepDepositCollateral, call, depositAmountArg, registry.StepSwap); err != nil {
			return nil, err
		}
	}

	if def.Index(registry.StepSetEMode) >= 0 && p.SupportsEMode() && before.Category.EModeCategory > 0 {
		call, err := lending.SetEMode(before.Category.EModeCategory)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepSetEMode, call); err != nil {
			return nil, err
		}
	}

	if !combined {
		if inc.temporary {
			call, err := lending.Withdraw(inc.flashloanToken.Address, flAmount, deps.Proxy)
			if err != nil {
				return nil, err
			}
			if err := plan.Add(registry.StepWithdrawFlashloan, call); err != nil {
				return nil, err
			}
		} else {
			call, err := lending.Borrow(debt.Address, borrow, deps.Proxy)
			if err != nil {
				return nil, err
			}
			if err := plan.Add(registry.StepBorrowAfterDeposit, call); err != nil {
				return nil, err
			}
		}
	}

	if def.Index(registry.StepPositionCreated) >= 0 {
		call, err := actions.PositionCreated(p.String(), inc.positionType, collateral.Address, debt.Address)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepPositionCreated, call); err != nil {
			return nil, err
		}
	}

	after, err := before.Deposit(depositTotal)
	if err != nil {
		return nil, err
	}
	if after, err = after.Borrow(borrow); err != nil {
		return nil, err
	}
	sim.Position = after
	sim.Merge(ValidateBorrow(before, after, borrow, inc.data.Debt.AvailableLiquidity))
	sim.Merge(ValidateDust(after))
	sim.Merge(ValidateRisk(after))
	if inc.intent == registry.OpenPosition && !sim.HasErrors() {
		addSuccess(&sim.Diagnostics, types.NewDiagnostic(types.PositionOpened))
	}

	value := decimal.Zero
	if inc.entry.native {
		value = inc.deposit
	}
	return e.operation(plan, sim, value)
}

func (e *Engine) decreaseRisk(ctx context.Context, deps Dependencies, args AdjustArgs, data *protocol.Data, before types.Position, slippage decimal.Decimal) (*Result, error) {
	p := args.Protocol
	collateral := before.Collateral.Token
	debt := before.Debt.Token

	combined, err := combinedActions(p)
	if err != nil {
		return nil, err
	}
	def, err := e.registry.Operation(p, registry.AdjustRiskDown)
	if err != nil {
		return nil, err
	}
	lending, err := actions.ForProtocol(p, e.network, data)
	if err != nil {
		return nil, err
	}

	feeBps := fees.ResolveFee(collateral.Symbol, debt.Symbol, fees.Options{})
	repay, withdraw, err := DecreaseSize(before, args.Target, feeBps, slippage)
	if err != nil {
		return nil, err
	}

	plan := actions.NewPlan(def)
	sim := Simulation{Before: before}

	sim.Flashloan = e.flashloan(debt, repay, false)
	takeFl, err := actions.TakeFlashloan(debt.Address, repay, sim.Flashloan.Provider)
	if err != nil {
		return nil, err
	}
	if err := plan.Add(registry.StepTakeFlashloan, takeFl); err != nil {
		return nil, err
	}

	approve, err := actions.SetApproval(debt.Address, lending.Spender(), repay, false)
	if err != nil {
		return nil, err
	}
	if err := plan.Add(registry.StepApproveDebt, approve); err != nil {
		return nil, err
	}

	withdrawStep := registry.StepWithdrawCollateral
	if combined {
		withdrawStep = registry.StepPaybackWithdraw
		call, err := lending.PaybackWithdraw(withdraw, repay, false, false)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepPaybackWithdraw, call); err != nil {
			return nil, err
		}
	} else {
		pb, err := lending.Payback(debt.Address, repay, false, deps.Proxy)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepPayback, pb); err != nil {
			return nil, err
		}
		w, err := lending.Withdraw(collateral.Address, withdraw, deps.Proxy)
		if err != nil {
			return nil, err
		}
		if err := plan.Add(registry.StepWithdrawCollateral, w); err != nil {
			return nil, err
		}
	}

	swap, err := e.quote(ctx, deps, swapParams{
		from:     collateral,
		to:       debt,
		amount:   withdraw,
		slippage: slippage,
	}, &sim.Diagnostics)
	if err != nil {
		return nil, err
	}
	sim.Swap = swap
	swapCall, err := swap.call()
	if err != nil {
		return nil, err
	}
	if err := addMapped(plan, registry.StepSwap, swapCall, swapAmountArg, withdrawStep); err != nil {
		return nil, err
	}
	if swap.MinToAmount.LessThan(repay) {
		e.log.Warn().
			Str("min_to", swap.MinToAmount.String()).
			Str("flashloan", repay.String()).
			Msg("Swap proceeds may not cover the flashloan")
	}

	if err := e.payout(plan, registry.StepReturnFunds, debt, args.ReceiveNative); err != nil {
		return nil, err
	}

	after, err := before.Payback(repay)
	if err != nil {
		return nil, err
	}
	if after, err = after.Withdraw(withdraw); err != nil {
		return nil, err
	}
	sim.Position = after
	sim.Merge(ValidatePayback(before, repay))
	sim.Merge(ValidateWithdraw(before, after, withdraw))
	sim.Merge(ValidateDust(after))
	sim.Merge(ValidateRisk(after))

	return e.operation(plan, sim, decimal.Zero)
}
