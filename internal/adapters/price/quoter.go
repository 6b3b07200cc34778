package price

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// Quoter is a swap provider that converts at oracle prices. It returns no
// exchange calldata and is meant for dry runs where no aggregator is
// configured.
type Quoter struct {
	oracle protocol.PriceOracle
}

// NewQuoter quotes swaps with prices from oracle
func NewQuoter(oracle protocol.PriceOracle) *Quoter {
	return &Quoter{oracle: oracle}
}

func (q *Quoter) GetSwapData(ctx context.Context, req protocol.SwapRequest) (*protocol.SwapData, error) {
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: swap amount %s", types.ErrInvalidAmount, req.Amount)
	}
	from, err := q.oracle.GetPrice(ctx, req.From)
	if err != nil {
		return nil, err
	}
	to, err := q.oracle.GetPrice(ctx, req.To)
	if err != nil {
		return nil, err
	}
	rate, err := protocol.PriceOf(from, to)
	if err != nil {
		return nil, fmt.Errorf("no price to swap %s -> %s: %w", req.From, req.To, err)
	}

	out := req.From.FromBaseUnits(req.Amount).Mul(rate)
	return &protocol.SwapData{
		FromAmount:  req.Amount,
		ToAmount:    req.To.ToBaseUnits(out),
		MinToAmount: req.To.ToBaseUnits(out.Mul(decimal.NewFromInt(1).Sub(req.Slippage))),
		Source:      "oracle",
	}, nil
}
