package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// Ajna reports amounts and prices with 18 decimals
const wad = 18

// AjnaDustDivisor sets the minimum debt to a tenth of the pool's average loan
var AjnaDustDivisor = decimal.NewFromInt(10)

// Ajna resolves Ajna pool borrower positions through PoolInfoUtils. Ajna
// has no price oracle, so market prices come from oracle.
type Ajna struct {
	caller  Caller
	network *network.Network
	oracle  protocol.PriceOracle
	log     zerolog.Logger
}

// NewAjna creates an Ajna resolver
func NewAjna(caller Caller, n *network.Network, oracle protocol.PriceOracle, log zerolog.Logger) *Ajna {
	return &Ajna{caller: caller, network: n, oracle: oracle, log: log.With().Str("protocol", protocol.Ajna.String()).Logger()}
}

func (r *Ajna) pool(collateral, quote types.Token) (common.Address, Contract, error) {
	if r.network.Ajna == nil {
		return common.Address{}, Contract{}, fmt.Errorf("%w: ajna is not deployed on %s", protocol.ErrUnsupportedProtocol, r.network.Name)
	}
	pool, ok := r.network.Ajna.Pools[collateral.Symbol+"/"+quote.Symbol]
	if !ok {
		return common.Address{}, Contract{}, fmt.Errorf("%w: no ajna pool for %s/%s", protocol.ErrProtocolDataUnavailable, collateral, quote)
	}
	return pool, NewContract(r.caller, r.network.Ajna.PoolInfoUtils, ajnaPoolInfo, r.log), nil
}

// fromWad converts an 18 decimal Ajna amount into token base units
func fromWad(out []interface{}, i int, token types.Token) (decimal.Decimal, error) {
	whole, err := DecimalOut(out, i, wad)
	if err != nil {
		return decimal.Zero, err
	}
	return token.ToBaseUnits(whole), nil
}

// GetProtocolData reads the pool's lowest utilized price, size and debt.
// The max LTV is the LUP over the market price.
func (r *Ajna) GetProtocolData(ctx context.Context, q protocol.DataQuery) (*protocol.Data, error) {
	if q.Protocol != protocol.Ajna {
		return nil, fmt.Errorf("%w: %s is not Ajna", protocol.ErrUnsupportedProtocol, q.Protocol)
	}
	poolAddr, info, err := r.pool(q.Collateral, q.Debt)
	if err != nil {
		return nil, err
	}
	pool := NewContract(r.caller, poolAddr, ajnaPool, r.log)

	data := &protocol.Data{Protocol: q.Protocol}
	var (
		lup, poolSize, poolDebt decimal.Decimal
		loans                   decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := info.Call(gctx, "poolPricesInfo", poolAddr)
		if err != nil {
			return err
		}
		lup, err = DecimalOut(out, 4, wad)
		return err
	})
	g.Go(func() error {
		out, err := info.Call(gctx, "poolLoansInfo", poolAddr)
		if err != nil {
			return err
		}
		if poolSize, err = fromWad(out, 0, q.Debt); err != nil {
			return err
		}
		loans, err = DecimalOut(out, 1, 0)
		return err
	})
	g.Go(func() error {
		out, err := pool.Call(gctx, "debtInfo")
		if err != nil {
			return err
		}
		poolDebt, err = fromWad(out, 0, q.Debt)
		return err
	})
	g.Go(func() (err error) {
		data.CollateralPrice, err = r.oracle.GetPrice(gctx, q.Collateral)
		return err
	})
	g.Go(func() (err error) {
		data.DebtPrice, err = r.oracle.GetPrice(gctx, q.Debt)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read ajna pool %s: %w", poolAddr.Hex(), err)
	}

	data.Ajna = &protocol.AjnaPool{Pool: poolAddr, LowestUtilizedPrice: lup}
	data.Debt.AvailableLiquidity = decimal.Max(poolSize.Sub(poolDebt), decimal.Zero)
	if loans.IsPositive() {
		data.DustLimit = types.Div(poolDebt, loans.Mul(AjnaDustDivisor)).Floor()
	}
	if price, err := data.OraclePrice(); err == nil && price.IsPositive() {
		maxLTV := decimal.Min(types.Div(lup, price), decimal.NewFromInt(1))
		data.Collateral.MaxLoanToValue = maxLTV
		data.Collateral.LiquidationThreshold = maxLTV
	}
	return data, nil
}

// GetCurrentPosition reads the proxy's borrower info in the pool
func (r *Ajna) GetCurrentPosition(ctx context.Context, q protocol.PositionQuery) (*types.Position, error) {
	poolAddr, info, err := r.pool(q.Collateral, q.Debt)
	if err != nil {
		return nil, err
	}

	var (
		data             *protocol.Data
		debt, collateral decimal.Decimal
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
		out, err := info.Call(gctx, "borrowerInfo", poolAddr, q.Proxy)
		if err != nil {
			return err
		}
		if debt, err = fromWad(out, 0, q.Debt); err != nil {
			return err
		}
		collateral, err = fromWad(out, 1, q.Collateral)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read ajna position of %s: %w", q.Proxy.Hex(), err)
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
