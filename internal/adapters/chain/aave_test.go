package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

var proxy = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

func reserveConfigOut(ltv, threshold, bonus int64) []interface{} {
	return []interface{}{
		big.NewInt(18), big.NewInt(ltv), big.NewInt(threshold), big.NewInt(bonus), big.NewInt(1000),
		true, true, false, true, false,
	}
}

func userReserveOut(aToken, stableDebt, variableDebt string) []interface{} {
	zero := big.NewInt(0)
	return []interface{}{bi(aToken), bi(stableDebt), bi(variableDebt), zero, zero, zero, zero, zero, true}
}

type aaveFixture struct {
	caller *fakeCaller
	net    *network.Network
	book   *network.AaveLike
	weth   types.Token
	usdc   types.Token
	wsteth types.Token
	dai    types.Token
}

func newAaveFixture(t *testing.T) *aaveFixture {
	n := mainnet(t)
	f := &aaveFixture{
		caller: newFakeCaller(),
		net:    n,
		book:   n.AaveV3,
		weth:   token(t, n, "WETH"),
		usdc:   token(t, n, "USDC"),
		wsteth: token(t, n, "WSTETH"),
		dai:    token(t, n, "DAI"),
	}
	dp, oracle := f.book.DataProvider, f.book.Oracle

	f.caller.returns(dp, aaveDataProvider, "getReserveConfigurationData", reserveConfigOut(8000, 8250, 10500)...)
	f.caller.handle(oracle, aaveOracle, "getAssetPrice", func(args []interface{}) []interface{} {
		switch args[0].(common.Address) {
		case f.weth.Address:
			return []interface{}{bi("200000000000")}
		case f.wsteth.Address:
			return []interface{}{bi("230000000000")}
		case f.usdc.Address, f.dai.Address:
			return []interface{}{bi("100000000")}
		}
		return []interface{}{big.NewInt(0)}
	})
	aToken := common.HexToAddress("0x98C23E9d8f34FEFb1B7BD6a91B7FF122F4e16F5c")
	f.caller.returns(dp, aaveDataProvider, "getReserveTokensAddresses", aToken, common.Address{}, common.Address{})
	f.caller.returns(f.usdc.Address, erc20, "balanceOf", bi("5000000000000"))
	f.caller.returns(f.weth.Address, erc20, "balanceOf", bi("1000000000000000000000"))
	f.caller.returns(dp, aaveDataProvider, "getReserveEModeCategory", big.NewInt(0))
	return f
}

func (f *aaveFixture) resolver() *AaveLike {
	return NewAaveLike(f.caller, f.net, zerolog.Nop())
}

func TestAaveLike_GetProtocolData(t *testing.T) {
	f := newAaveFixture(t)

	data, err := f.resolver().GetProtocolData(context.Background(), protocol.DataQuery{
		Protocol:   protocol.AaveV3,
		Collateral: f.weth,
		Debt:       f.usdc,
	})
	require.NoError(t, err)

	assert.True(t, data.Collateral.MaxLoanToValue.Equal(dec("0.8")))
	assert.True(t, data.Collateral.LiquidationThreshold.Equal(dec("0.825")))
	assert.True(t, data.Collateral.LiquidationPenalty.Equal(dec("0.05")))
	assert.True(t, data.Debt.AvailableLiquidity.Equal(dec("5000000000000")))
	assert.Nil(t, data.EMode)
	assert.Nil(t, data.FlashloanPrice)

	price, err := data.OraclePrice()
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("2000")))
}

func TestAaveLike_EModeAndFlashloan(t *testing.T) {
	f := newAaveFixture(t)
	f.caller.returns(f.book.DataProvider, aaveDataProvider, "getReserveEModeCategory", big.NewInt(1))
	f.caller.returns(f.book.Pool, aavePool, "getEModeCategoryData", eModeCategory{
		Ltv:                  9300,
		LiquidationThreshold: 9500,
		LiquidationBonus:     10100,
		Label:                "ETH correlated",
	})

	data, err := f.resolver().GetProtocolData(context.Background(), protocol.DataQuery{
		Protocol:   protocol.AaveV3,
		Collateral: f.wsteth,
		Debt:       f.weth,
		Flashloan:  f.dai,
	})
	require.NoError(t, err)

	require.NotNil(t, data.EMode)
	assert.Equal(t, uint8(1), data.EMode.Category)
	assert.True(t, data.EMode.MaxLoanToValue.Equal(dec("0.93")))
	assert.True(t, data.EMode.LiquidationPenalty.Equal(dec("0.01")))
	assert.Equal(t, uint8(1), data.Category().EModeCategory)

	require.NotNil(t, data.FlashloanPrice)
	assert.True(t, data.FlashloanPrice.Equal(dec("100000000")))
	assert.True(t, data.Flashloan.MaxLoanToValue.Equal(dec("0.8")))
}

func TestAaveLike_GetCurrentPosition(t *testing.T) {
	f := newAaveFixture(t)
	f.caller.handle(f.book.DataProvider, aaveDataProvider, "getUserReserveData", func(args []interface{}) []interface{} {
		if args[0].(common.Address) == f.weth.Address {
			return userReserveOut("10000000000000000000", "0", "0")
		}
		return userReserveOut("0", "1000000", "5999000000")
	})

	pos, err := f.resolver().GetCurrentPosition(context.Background(), protocol.PositionQuery{
		Protocol:   protocol.AaveV3,
		Collateral: f.weth,
		Debt:       f.usdc,
		Proxy:      proxy,
	})
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.True(t, pos.Collateral.Amount.Equal(f.weth.MustAmount("10")))
	assert.True(t, pos.Debt.Amount.Equal(f.usdc.MustAmount("6000")))
	assert.True(t, pos.OraclePrice.Equal(dec("2000")))
	assert.True(t, pos.RiskRatio().LoanToValue.Equal(dec("0.3")))
}

func TestAaveLike_EmptyPosition(t *testing.T) {
	f := newAaveFixture(t)
	f.caller.returns(f.book.DataProvider, aaveDataProvider, "getUserReserveData", userReserveOut("0", "0", "0")...)

	pos, err := f.resolver().GetCurrentPosition(context.Background(), protocol.PositionQuery{
		Protocol:   protocol.AaveV3,
		Collateral: f.weth,
		Debt:       f.usdc,
		Proxy:      proxy,
	})
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.True(t, pos.IsEmpty())
	assert.True(t, pos.OraclePrice.Equal(dec("2000")))
	assert.True(t, pos.Category.MaxLoanToValue.Equal(dec("0.8")))
}

func TestAaveLike_Errors(t *testing.T) {
	f := newAaveFixture(t)
	r := f.resolver()

	_, err := r.GetProtocolData(context.Background(), protocol.DataQuery{Protocol: protocol.Ajna, Collateral: f.weth, Debt: f.usdc})
	assert.ErrorIs(t, err, protocol.ErrUnsupportedProtocol)

	// spark contracts are not stubbed
	_, err = r.GetProtocolData(context.Background(), protocol.DataQuery{Protocol: protocol.Spark, Collateral: f.weth, Debt: f.usdc})
	require.Error(t, err)
	assert.False(t, errors.Is(err, protocol.ErrUnsupportedProtocol))
	assert.Contains(t, err.Error(), "execution reverted")
}

func TestAaveLike_MissingPrice(t *testing.T) {
	f := newAaveFixture(t)
	cbeth := token(t, f.net, "CBETH")

	data, err := f.resolver().GetProtocolData(context.Background(), protocol.DataQuery{
		Protocol:   protocol.AaveV3,
		Collateral: cbeth,
		Debt:       f.usdc,
	})
	require.NoError(t, err)
	assert.Nil(t, data.CollateralPrice)
	assert.ErrorIs(t, data.Validate(false), protocol.ErrProtocolDataUnavailable)
}
