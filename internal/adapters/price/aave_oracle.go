package price

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/internal/adapters/chain"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// AaveV3Decimals is the precision of Aave v3 USD prices
const AaveV3Decimals = 8

var aaveOracleABI = chain.MustParseABI(chain.AaveOracleABI)

// AaveOracle prices tokens from an Aave price oracle
type AaveOracle struct {
	contract chain.Contract
	decimals int32
}

// NewAaveOracle binds the oracle at address. decimals is the oracle's base
// currency precision.
func NewAaveOracle(caller chain.Caller, address common.Address, decimals int32, log zerolog.Logger) *AaveOracle {
	return &AaveOracle{
		contract: chain.NewContract(caller, address, aaveOracleABI, log.With().Str("oracle", "aave").Logger()),
		decimals: decimals,
	}
}

// GetPrice returns nil when the oracle has no source for token
func (o *AaveOracle) GetPrice(ctx context.Context, token types.Token) (*decimal.Decimal, error) {
	out, err := o.contract.Call(ctx, "getAssetPrice", token.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s price: %w", token.Symbol, err)
	}
	raw, err := chain.BigOut(out, 0)
	if err != nil {
		return nil, err
	}
	if raw.Sign() <= 0 {
		return nil, nil
	}
	price := decimal.NewFromBigInt(raw, -o.decimals)
	return &price, nil
}
