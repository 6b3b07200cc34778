package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/dma-sdk/pkg/protocol"
)

func TestMorphoBlue(t *testing.T) {
	n := mainnet(t)
	wsteth, weth := token(t, n, "WSTETH"), token(t, n, "WETH")
	id := n.MorphoBlue.Markets["WSTETH/WETH"]
	oracle := common.HexToAddress("0x2a01EB9496094dA03c4E364Def50f5aD1280AD72")

	caller := newFakeCaller()
	m := n.MorphoBlue.Morpho
	caller.returns(m, morpho, "idToMarketParams", weth.Address, wsteth.Address, oracle, common.Address{}, bi("945000000000000000"))
	caller.returns(m, morpho, "market",
		bi("1000000000000000000000"), bi("1000000000000000000000000000"),
		bi("600000000000000000000"), bi("600000000000000000000000000"),
		big.NewInt(0), big.NewInt(0))
	// 1.15 WETH per WSTETH, scaled by 1e36
	caller.returns(oracle, morphoOracle, "price", bi("1150000000000000000000000000000000000"))
	caller.returns(m, morpho, "position", big.NewInt(0), bi("5000000000000000000000000"), bi("10000000000000000000"))

	r := NewMorphoBlue(caller, n, zerolog.Nop())

	t.Run("protocol data", func(t *testing.T) {
		data, err := r.GetProtocolData(context.Background(), protocol.DataQuery{Protocol: protocol.MorphoBlue, Collateral: wsteth, Debt: weth})
		require.NoError(t, err)
		require.NotNil(t, data.Morpho)
		assert.Equal(t, id, data.Morpho.ID)
		assert.Equal(t, oracle, data.Morpho.Oracle)
		assert.True(t, data.Collateral.MaxLoanToValue.Equal(dec("0.945")))
		assert.True(t, data.Debt.AvailableLiquidity.Equal(weth.MustAmount("400")))

		price, err := data.OraclePrice()
		require.NoError(t, err)
		assert.True(t, price.Equal(dec("1.15")))
	})

	t.Run("position rounds debt up", func(t *testing.T) {
		pos, err := r.GetCurrentPosition(context.Background(), protocol.PositionQuery{Protocol: protocol.MorphoBlue, Collateral: wsteth, Debt: weth, Proxy: proxy})
		require.NoError(t, err)
		require.NotNil(t, pos)
		assert.True(t, pos.Collateral.Amount.Equal(wsteth.MustAmount("10")))
		// 5e24 shares at 1e-6 assets per share, plus virtual shares
		debt := pos.Debt.Amount
		assert.True(t, debt.GreaterThan(weth.MustAmount("4.99")))
		assert.True(t, debt.LessThanOrEqual(weth.MustAmount("5")))
		assert.True(t, pos.Category.MaxLoanToValue.Equal(dec("0.945")))
	})

	t.Run("empty position", func(t *testing.T) {
		caller.returns(m, morpho, "position", big.NewInt(0), big.NewInt(0), big.NewInt(0))
		pos, err := r.GetCurrentPosition(context.Background(), protocol.PositionQuery{Protocol: protocol.MorphoBlue, Collateral: wsteth, Debt: weth, Proxy: proxy})
		require.NoError(t, err)
		require.NotNil(t, pos)
		assert.True(t, pos.IsEmpty())
		assert.True(t, pos.OraclePrice.Equal(dec("1.15")))
	})

	t.Run("mismatched market", func(t *testing.T) {
		caller.returns(m, morpho, "idToMarketParams", wsteth.Address, weth.Address, oracle, common.Address{}, bi("945000000000000000"))
		_, err := r.GetProtocolData(context.Background(), protocol.DataQuery{Protocol: protocol.MorphoBlue, Collateral: wsteth, Debt: weth})
		assert.ErrorIs(t, err, protocol.ErrProtocolDataUnavailable)
	})

	t.Run("unknown market", func(t *testing.T) {
		usdc := token(t, n, "USDC")
		_, err := r.GetProtocolData(context.Background(), protocol.DataQuery{Protocol: protocol.MorphoBlue, Collateral: wsteth, Debt: usdc})
		assert.ErrorIs(t, err, protocol.ErrProtocolDataUnavailable)
	})
}

func TestToAssetsUp(t *testing.T) {
	state := morphoMarketState{totalBorrowAssets: big.NewInt(100), totalBorrowShares: big.NewInt(100_000_000)}
	// (100+1)/(1e8+1e6) assets per share
	assert.Equal(t, "1", toAssetsUp(big.NewInt(1), state).String())
	assert.Equal(t, "0", toAssetsUp(big.NewInt(0), state).String())
	assert.Equal(t, "101", toAssetsUp(big.NewInt(101_000_000), state).String())
}
