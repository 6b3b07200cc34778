package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

const (
	// Morpho oracles scale prices by 1e36 adjusted for token decimals
	morphoOracleScale = 36
	// virtual offsets of the share conversion
	morphoVirtualShares = 1e6
	morphoVirtualAssets = 1
)

// MorphoBlue resolves positions in Morpho Blue markets
type MorphoBlue struct {
	caller  Caller
	network *network.Network
	log     zerolog.Logger
}

// NewMorphoBlue creates a Morpho Blue resolver
func NewMorphoBlue(caller Caller, n *network.Network, log zerolog.Logger) *MorphoBlue {
	return &MorphoBlue{caller: caller, network: n, log: log.With().Str("protocol", protocol.MorphoBlue.String()).Logger()}
}

type morphoMarketState struct {
	totalSupplyAssets *big.Int
	totalBorrowAssets *big.Int
	totalBorrowShares *big.Int
}

func (r *MorphoBlue) market(collateral, loan types.Token) (common.Hash, Contract, error) {
	if r.network.MorphoBlue == nil {
		return common.Hash{}, Contract{}, fmt.Errorf("%w: morpho blue is not deployed on %s", protocol.ErrUnsupportedProtocol, r.network.Name)
	}
	id, ok := r.network.MorphoBlue.Markets[collateral.Symbol+"/"+loan.Symbol]
	if !ok {
		return common.Hash{}, Contract{}, fmt.Errorf("%w: no morpho market for %s/%s", protocol.ErrProtocolDataUnavailable, collateral, loan)
	}
	return id, NewContract(r.caller, r.network.MorphoBlue.Morpho, morpho, r.log), nil
}

// GetProtocolData reads market parameters, totals and the market oracle.
// Prices are expressed in the loan token: debt is 1 and collateral is the
// oracle price.
func (r *MorphoBlue) GetProtocolData(ctx context.Context, q protocol.DataQuery) (*protocol.Data, error) {
	if q.Protocol != protocol.MorphoBlue {
		return nil, fmt.Errorf("%w: %s is not Morpho Blue", protocol.ErrUnsupportedProtocol, q.Protocol)
	}
	id, m, err := r.market(q.Collateral, q.Debt)
	if err != nil {
		return nil, err
	}
	data, _, err := r.read(ctx, m, id, q.Collateral, q.Debt)
	return data, err
}

func (r *MorphoBlue) read(ctx context.Context, m Contract, id common.Hash, collateral, loan types.Token) (*protocol.Data, morphoMarketState, error) {
	params, err := m.Call(ctx, "idToMarketParams", id)
	if err != nil {
		return nil, morphoMarketState{}, err
	}
	market := &protocol.MorphoMarket{ID: id}
	for i, dst := range []*common.Address{&market.LoanToken, &market.CollateralToken, &market.Oracle, &market.Irm} {
		if *dst, err = AddressOut(params, i); err != nil {
			return nil, morphoMarketState{}, err
		}
	}
	if market.LLTV, err = BigOut(params, 4); err != nil {
		return nil, morphoMarketState{}, err
	}
	if market.LoanToken != loan.Address || market.CollateralToken != collateral.Address {
		return nil, morphoMarketState{}, fmt.Errorf("%w: market %s is not %s/%s", protocol.ErrProtocolDataUnavailable, id.Hex(), collateral, loan)
	}

	var (
		state morphoMarketState
		price *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := m.Call(gctx, "market", id)
		if err != nil {
			return err
		}
		if state.totalSupplyAssets, err = BigOut(out, 0); err != nil {
			return err
		}
		if state.totalBorrowAssets, err = BigOut(out, 2); err != nil {
			return err
		}
		state.totalBorrowShares, err = BigOut(out, 3)
		return err
	})
	g.Go(func() error {
		oracle := NewContract(r.caller, market.Oracle, morphoOracle, r.log)
		out, err := oracle.Call(gctx, "price")
		if err != nil {
			return err
		}
		price, err = BigOut(out, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, morphoMarketState{}, fmt.Errorf("failed to read morpho market %s: %w", id.Hex(), err)
	}

	lltv := decimal.NewFromBigInt(market.LLTV, -wad)
	data := &protocol.Data{
		Protocol: protocol.MorphoBlue,
		Morpho:   market,
		Collateral: protocol.ReserveData{
			MaxLoanToValue:       lltv,
			LiquidationThreshold: lltv,
		},
		Debt: protocol.ReserveData{
			AvailableLiquidity: decimal.Max(decimal.NewFromBigInt(new(big.Int).Sub(state.totalSupplyAssets, state.totalBorrowAssets), 0), decimal.Zero),
		},
	}
	if price.Sign() > 0 {
		exp := int32(collateral.Precision-loan.Precision) - morphoOracleScale
		collateralPrice := decimal.NewFromBigInt(price, exp)
		debtPrice := decimal.NewFromInt(1)
		data.CollateralPrice = &collateralPrice
		data.DebtPrice = &debtPrice
	}
	return data, state, nil
}

// toAssetsUp converts borrow shares to assets, rounding up
func toAssetsUp(shares *big.Int, state morphoMarketState) *big.Int {
	assets := new(big.Int).Add(state.totalBorrowAssets, big.NewInt(morphoVirtualAssets))
	total := new(big.Int).Add(state.totalBorrowShares, big.NewInt(morphoVirtualShares))
	num := new(big.Int).Mul(shares, assets)
	num.Add(num, new(big.Int).Sub(total, big.NewInt(1)))
	return num.Div(num, total)
}

// GetCurrentPosition reads the proxy's collateral and borrow shares
func (r *MorphoBlue) GetCurrentPosition(ctx context.Context, q protocol.PositionQuery) (*types.Position, error) {
	id, m, err := r.market(q.Collateral, q.Debt)
	if err != nil {
		return nil, err
	}

	var (
		data         *protocol.Data
		state        morphoMarketState
		borrowShares *big.Int
		collateral   *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data, state, err = r.read(gctx, m, id, q.Collateral, q.Debt)
		return err
	})
	g.Go(func() error {
		out, err := m.Call(gctx, "position", id, q.Proxy)
		if err != nil {
			return err
		}
		if borrowShares, err = BigOut(out, 1); err != nil {
			return err
		}
		collateral, err = BigOut(out, 2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read morpho position of %s: %w", q.Proxy.Hex(), err)
	}

	price, err := data.OraclePrice()
	if err != nil {
		return nil, err
	}
	pos := types.NewPosition(
		types.NewBalance(q.Debt, decimal.NewFromBigInt(toAssetsUp(borrowShares, state), 0)),
		types.NewBalance(q.Collateral, decimal.NewFromBigInt(collateral, 0)),
		price,
		data.Category(),
	)
	return &pos, nil
}
