package price

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// Fallback asks each oracle in turn and returns the first price found.
// Oracles must share a base currency.
type Fallback []protocol.PriceOracle

// GetPrice returns nil only when no oracle has a price. Errors are returned
// when every oracle without a price also failed.
func (f Fallback) GetPrice(ctx context.Context, token types.Token) (*decimal.Decimal, error) {
	var errs []error
	for _, o := range f {
		p, err := o.GetPrice(ctx, token)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p != nil {
			return p, nil
		}
	}
	if len(errs) == len(f) {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}
