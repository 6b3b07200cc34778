package protocol

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/types"
)

// PositionQuery identifies a position held by a proxy
type PositionQuery struct {
	Protocol   Protocol
	Collateral types.Token
	Debt       types.Token
	Proxy      common.Address
}

// DataQuery identifies the markets a strategy touches
type DataQuery struct {
	Protocol   Protocol
	Collateral types.Token
	Debt       types.Token
	Flashloan  types.Token
	// Proxy, when set, lets resolvers read account level settings such as e-mode
	Proxy common.Address
}

// DataResolver reads current positions and market parameters
type DataResolver interface {
	// GetCurrentPosition returns a zero balance position when the proxy holds
	// nothing in a known market, and nil when no position can be resolved
	GetCurrentPosition(ctx context.Context, q PositionQuery) (*types.Position, error)
	GetProtocolData(ctx context.Context, q DataQuery) (*Data, error)
}

// PriceOracle returns a token price in a fixed base currency, or nil when
// the oracle has no price for the token.
type PriceOracle interface {
	GetPrice(ctx context.Context, token types.Token) (*decimal.Decimal, error)
}

// SwapRequest asks an aggregator for a route. Amount is in From base units
// and Slippage a fraction.
type SwapRequest struct {
	From      types.Token
	To        types.Token
	Amount    decimal.Decimal
	Slippage  decimal.Decimal
	Recipient common.Address
}

// SwapData is an aggregator quote with calldata. Amounts are base units.
type SwapData struct {
	FromAmount       decimal.Decimal `json:"fromAmount"`
	ToAmount         decimal.Decimal `json:"toAmount"`
	MinToAmount      decimal.Decimal `json:"minToAmount"`
	ExchangeCalldata []byte          `json:"exchangeCalldata"`
	Source           string          `json:"source,omitempty"`
}

// SwapProvider quotes swaps
type SwapProvider interface {
	GetSwapData(ctx context.Context, req SwapRequest) (*SwapData, error)
}
