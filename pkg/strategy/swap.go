package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/actions"
	"github.com/summerfi/dma-sdk/pkg/fees"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// swapNeeded reports whether funds in from must be swapped to become to
func (e *Engine) swapNeeded(from, to types.Token) bool {
	if from.Equal(to) {
		return false
	}
	if from.IsNative() && e.network.IsWrappedNative(to) {
		return false
	}
	return true
}

type swapParams struct {
	from, to types.Token
	// amount is the gross amount of from the swap action receives
	amount           decimal.Decimal
	slippage         decimal.Decimal
	isEntrySwap      bool
	isIncreasingRisk bool
}

// quote prices a swap and applies the fee. Risk increasing and entry swaps
// collect the fee in the source token before swapping; risk decreasing
// swaps collect it from the proceeds.
func (e *Engine) quote(ctx context.Context, deps Dependencies, sp swapParams, diags *types.Diagnostics) (*SwapResult, error) {
	if deps.Swapper == nil {
		return nil, fmt.Errorf("%w: swap provider for %s -> %s", ErrMissingDependency, sp.from, sp.to)
	}
	fee := fees.ResolveFee(sp.from.Symbol, sp.to.Symbol, fees.Options{
		IsEntrySwap:      sp.isEntrySwap,
		IsIncreasingRisk: sp.isIncreasingRisk,
	})
	inFrom := sp.isEntrySwap || sp.isIncreasingRisk

	res := &SwapResult{
		From:                  sp.from,
		To:                    sp.to,
		FromAmount:            sp.amount,
		FeeBps:                fee,
		CollectFeeInFromToken: inFrom,
	}

	swapped := sp.amount
	if inFrom {
		res.Fee = fees.CalculateFee(sp.amount, fee)
		res.FeeToken = sp.from
		swapped = sp.amount.Sub(res.Fee)
	}

	data, err := deps.Swapper.GetSwapData(ctx, protocol.SwapRequest{
		From:      sp.from,
		To:        sp.to,
		Amount:    swapped,
		Slippage:  sp.slippage,
		Recipient: deps.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to quote %s -> %s: %w", sp.from, sp.to, err)
	}
	if data == nil {
		return nil, fmt.Errorf("no quote for %s -> %s", sp.from, sp.to)
	}

	res.ToAmount = data.ToAmount
	res.MinToAmount = data.MinToAmount
	res.Source = data.Source
	if !inFrom {
		res.Fee = fees.CalculateFee(data.MinToAmount, fee)
		res.FeeToken = sp.to
		res.ToAmount = data.ToAmount.Sub(fees.CalculateFee(data.ToAmount, fee))
		res.MinToAmount = data.MinToAmount.Sub(res.Fee)
	}

	if sp.isEntrySwap {
		addNotice(diags, types.NewDiagnostic(types.EntrySwap))
	}
	if fee == fees.NoFee {
		addNotice(diags, types.NewDiagnostic(types.SwapFeeWaived))
	}

	e.log.Debug().
		Str("from", sp.from.Symbol).
		Str("to", sp.to.Symbol).
		Str("amount", sp.amount.String()).
		Str("min_to", res.MinToAmount.String()).
		Int64("fee_bps", fee).
		Msg("Swap quoted")

	res.calldata = data.ExchangeCalldata
	res.receiveAtLeast = data.MinToAmount
	return res, nil
}

// call encodes the swap action for a quoted swap
func (s *SwapResult) call() (actions.Call, error) {
	return actions.Swap(s.From.Address, s.To.Address, s.FromAmount, s.receiveAtLeast, s.FeeBps, s.calldata, s.CollectFeeInFromToken)
}

// flashloanAsset picks the token to flashloan. Risk increasing Aave-like
// operations borrow the network stable and post it as temporary collateral
// unless the debt token is itself a stable.
func (e *Engine) flashloanAsset(p protocol.Protocol, debt types.Token, increasingRisk bool) (types.Token, bool, error) {
	switch p {
	case protocol.AaveV2, protocol.AaveV3, protocol.Spark:
		if !increasingRisk || fees.IsStable(debt.Symbol) {
			return debt, false, nil
		}
		fl, err := e.network.Flashloan()
		if err != nil {
			return types.Token{}, false, err
		}
		if fl.Equal(debt) {
			return debt, false, nil
		}
		return fl, true, nil
	case protocol.Ajna, protocol.MorphoBlue:
		return debt, false, nil
	default:
		return types.Token{}, false, fmt.Errorf("%w: %d", protocol.ErrUnsupportedProtocol, int(p))
	}
}

// temporaryCollateral sizes the stable flashloan that backs borrowing
// debtAmount (debt base units) at the flashloan asset's max LTV.
func temporaryCollateral(data *protocol.Data, debt, fl types.Token, debtAmount decimal.Decimal) (decimal.Decimal, error) {
	maxLTV := data.Flashloan.MaxLoanToValue
	if maxLTV.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be used as collateral", protocol.ErrProtocolDataUnavailable, fl)
	}
	debtPerFl, err := protocol.PriceOf(data.DebtPrice, data.FlashloanPrice)
	if err != nil {
		return decimal.Zero, err
	}
	whole := types.Div(debt.FromBaseUnits(debtAmount).Mul(debtPerFl), maxLTV)
	return whole.Shift(int32(fl.Precision)).Ceil(), nil
}

func (e *Engine) flashloan(token types.Token, amount decimal.Decimal, temporary bool) *Flashloan {
	return &Flashloan{
		Token:               token,
		Amount:              amount,
		Provider:            e.network.FlashloanProviderFor(token),
		TemporaryCollateral: temporary,
	}
}
