package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// Aave risk parameters are in basis points
const aaveBpsScale = 4

// AaveLike resolves positions and market data for Aave v2, Aave v3 and Spark
// from their protocol data provider, pool and price oracle.
type AaveLike struct {
	caller  Caller
	network *network.Network
	log     zerolog.Logger
}

// NewAaveLike creates a resolver for the Aave-like deployments of n
func NewAaveLike(caller Caller, n *network.Network, log zerolog.Logger) *AaveLike {
	return &AaveLike{caller: caller, network: n, log: log}
}

type aaveContracts struct {
	dataProvider Contract
	pool         Contract
	oracle       Contract
}

func (r *AaveLike) contracts(p protocol.Protocol) (aaveContracts, error) {
	var book *network.AaveLike
	switch p {
	case protocol.AaveV2:
		book = r.network.AaveV2
	case protocol.AaveV3:
		book = r.network.AaveV3
	case protocol.Spark:
		book = r.network.Spark
	case protocol.Ajna, protocol.MorphoBlue:
		return aaveContracts{}, fmt.Errorf("%w: %s is not Aave-like", protocol.ErrUnsupportedProtocol, p)
	default:
		return aaveContracts{}, fmt.Errorf("%w: %d", protocol.ErrUnsupportedProtocol, int(p))
	}
	if book == nil {
		return aaveContracts{}, fmt.Errorf("%w: %s is not deployed on %s", protocol.ErrUnsupportedProtocol, p, r.network.Name)
	}
	log := r.log.With().Str("protocol", p.String()).Logger()
	return aaveContracts{
		dataProvider: NewContract(r.caller, book.DataProvider, aaveDataProvider, log),
		pool:         NewContract(r.caller, book.Pool, aavePool, log),
		oracle:       NewContract(r.caller, book.Oracle, aaveOracle, log),
	}, nil
}

// GetProtocolData reads reserve configuration, prices, debt liquidity and
// the shared e-mode category of the pair.
func (r *AaveLike) GetProtocolData(ctx context.Context, q protocol.DataQuery) (*protocol.Data, error) {
	c, err := r.contracts(q.Protocol)
	if err != nil {
		return nil, err
	}

	data := &protocol.Data{Protocol: q.Protocol}
	withFlashloan := q.Flashloan.HasAddress()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.Collateral, err = reserveConfig(gctx, c.dataProvider, q.Collateral.Address)
		return err
	})
	g.Go(func() (err error) {
		data.CollateralPrice, err = assetPrice(gctx, c.oracle, q.Collateral.Address)
		return err
	})
	g.Go(func() (err error) {
		data.DebtPrice, err = assetPrice(gctx, c.oracle, q.Debt.Address)
		return err
	})
	g.Go(func() (err error) {
		data.Debt.AvailableLiquidity, err = r.availableLiquidity(gctx, c.dataProvider, q.Debt)
		return err
	})
	if withFlashloan {
		g.Go(func() (err error) {
			data.Flashloan, err = reserveConfig(gctx, c.dataProvider, q.Flashloan.Address)
			return err
		})
		g.Go(func() (err error) {
			data.FlashloanPrice, err = assetPrice(gctx, c.oracle, q.Flashloan.Address)
			return err
		})
	}
	if q.Protocol.SupportsEMode() {
		g.Go(func() (err error) {
			data.EMode, err = sharedEMode(gctx, c, q.Collateral.Address, q.Debt.Address)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read %s market %s/%s: %w", q.Protocol, q.Collateral, q.Debt, err)
	}
	return data, nil
}

// GetCurrentPosition reads the proxy's aToken and debt balances. A proxy
// without balances gets an empty position priced at the current market.
func (r *AaveLike) GetCurrentPosition(ctx context.Context, q protocol.PositionQuery) (*types.Position, error) {
	c, err := r.contracts(q.Protocol)
	if err != nil {
		return nil, err
	}

	var (
		data       *protocol.Data
		collateral decimal.Decimal
		debt       decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data, err = r.GetProtocolData(gctx, protocol.DataQuery{
			Protocol:   q.Protocol,
			Collateral: q.Collateral,
			Debt:       q.Debt,
			Proxy:      q.Proxy,
		})
		return err
	})
	g.Go(func() error {
		out, err := c.dataProvider.Call(gctx, "getUserReserveData", q.Collateral.Address, q.Proxy)
		if err != nil {
			return err
		}
		collateral, err = DecimalOut(out, 0, 0)
		return err
	})
	g.Go(func() error {
		out, err := c.dataProvider.Call(gctx, "getUserReserveData", q.Debt.Address, q.Proxy)
		if err != nil {
			return err
		}
		stable, err := DecimalOut(out, 1, 0)
		if err != nil {
			return err
		}
		variable, err := DecimalOut(out, 2, 0)
		if err != nil {
			return err
		}
		debt = stable.Add(variable)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read %s position of %s: %w", q.Protocol, q.Proxy.Hex(), err)
	}

	price, err := data.OraclePrice()
	if err != nil {
		return nil, err
	}
	pos := types.NewPosition(
		types.NewBalance(q.Debt, debt),
		types.NewBalance(q.Collateral, collateral),
		price,
		data.Category(),
	)
	return &pos, nil
}

func reserveConfig(ctx context.Context, dataProvider Contract, asset common.Address) (protocol.ReserveData, error) {
	out, err := dataProvider.Call(ctx, "getReserveConfigurationData", asset)
	if err != nil {
		return protocol.ReserveData{}, err
	}
	ltv, err := DecimalOut(out, 1, aaveBpsScale)
	if err != nil {
		return protocol.ReserveData{}, err
	}
	threshold, err := DecimalOut(out, 2, aaveBpsScale)
	if err != nil {
		return protocol.ReserveData{}, err
	}
	bonus, err := DecimalOut(out, 3, aaveBpsScale)
	if err != nil {
		return protocol.ReserveData{}, err
	}
	return protocol.ReserveData{
		MaxLoanToValue:       ltv,
		LiquidationThreshold: threshold,
		LiquidationPenalty:   liquidationPenalty(bonus),
	}, nil
}

// liquidationPenalty converts Aave's bonus (1.05 for 5%) into a penalty
func liquidationPenalty(bonus decimal.Decimal) decimal.Decimal {
	if bonus.LessThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero
	}
	return bonus.Sub(decimal.NewFromInt(1))
}

// assetPrice returns nil when the oracle has no price for asset
func assetPrice(ctx context.Context, oracle Contract, asset common.Address) (*decimal.Decimal, error) {
	out, err := oracle.Call(ctx, "getAssetPrice", asset)
	if err != nil {
		return nil, err
	}
	raw, err := BigOut(out, 0)
	if err != nil {
		return nil, err
	}
	if raw.Sign() <= 0 {
		return nil, nil
	}
	price := decimal.NewFromBigInt(raw, 0)
	return &price, nil
}

// availableLiquidity is the underlying balance held by the reserve's aToken
func (r *AaveLike) availableLiquidity(ctx context.Context, dataProvider Contract, asset types.Token) (decimal.Decimal, error) {
	out, err := dataProvider.Call(ctx, "getReserveTokensAddresses", asset.Address)
	if err != nil {
		return decimal.Zero, err
	}
	aToken, err := AddressOut(out, 0)
	if err != nil {
		return decimal.Zero, err
	}
	token := NewContract(r.caller, asset.Address, erc20, r.log)
	out, err = token.Call(ctx, "balanceOf", aToken)
	if err != nil {
		return decimal.Zero, err
	}
	return DecimalOut(out, 0, 0)
}

type eModeCategory struct {
	Ltv                  uint16
	LiquidationThreshold uint16
	LiquidationBonus     uint16
	PriceSource          common.Address
	Label                string
}

// sharedEMode returns the e-mode category both assets belong to, or nil
func sharedEMode(ctx context.Context, c aaveContracts, collateral, debt common.Address) (*protocol.EMode, error) {
	var collateralCat, debtCat *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.dataProvider.Call(gctx, "getReserveEModeCategory", collateral)
		if err != nil {
			return err
		}
		collateralCat, err = BigOut(out, 0)
		return err
	})
	g.Go(func() error {
		out, err := c.dataProvider.Call(gctx, "getReserveEModeCategory", debt)
		if err != nil {
			return err
		}
		debtCat, err = BigOut(out, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if collateralCat.Sign() == 0 || collateralCat.Cmp(debtCat) != 0 || !collateralCat.IsUint64() || collateralCat.Uint64() > 255 {
		return nil, nil
	}
	id := uint8(collateralCat.Uint64())

	out, err := c.pool.Call(ctx, "getEModeCategoryData", id)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: getEModeCategoryData returned %d values", ErrUnexpectedOutput, len(out))
	}
	cat, ok := abi.ConvertType(out[0], new(eModeCategory)).(*eModeCategory)
	if !ok || cat.Ltv == 0 {
		return nil, nil
	}
	return &protocol.EMode{
		Category:             id,
		MaxLoanToValue:       decimal.New(int64(cat.Ltv), -aaveBpsScale),
		LiquidationThreshold: decimal.New(int64(cat.LiquidationThreshold), -aaveBpsScale),
		LiquidationPenalty:   liquidationPenalty(decimal.New(int64(cat.LiquidationBonus), -aaveBpsScale)),
	}, nil
}
