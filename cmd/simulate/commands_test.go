package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

const proxy = "0x00000000000000000000000000000000000000a1"

func mainnet(t *testing.T) *network.Network {
	t.Helper()
	n, err := network.Load("mainnet")
	require.NoError(t, err)
	return n
}

func TestPositionFlags_Parse(t *testing.T) {
	n := mainnet(t)

	pos, err := (&positionFlags{protocol: "morpho-blue", collateral: "wsteth", debt: "WETH", proxy: proxy}).parse(n)
	require.NoError(t, err)
	assert.Equal(t, protocol.MorphoBlue, pos.protocol)
	assert.Equal(t, "WSTETH", pos.collateral.Symbol)
	assert.Equal(t, "WETH", pos.debt.Symbol)
	assert.Equal(t, pos.proxy, pos.user)

	_, err = (&positionFlags{protocol: "compound", debt: "NOPE", proxy: "xyz"}).parse(n)
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrUnsupportedProtocol)
	assert.ErrorIs(t, err, network.ErrUnknownToken)
	assert.Contains(t, err.Error(), "--collateral is required")
	assert.Contains(t, err.Error(), "--proxy must be a hex address")
}

func TestParseAmount(t *testing.T) {
	usdc := types.Token{Symbol: "USDC", Precision: 6}

	amount, err := parseAmount(usdc, "borrow", "1500.5")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(1500500000)))

	amount, err = parseAmount(usdc, "borrow", "")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	_, err = parseAmount(usdc, "borrow", "-1")
	assert.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = parseAmount(usdc, "borrow", "abc")
	assert.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestParseTarget(t *testing.T) {
	r, err := parseTarget("0.6", "")
	require.NoError(t, err)
	assert.True(t, r.LoanToValue.Equal(decimal.RequireFromString("0.6")))

	r, err = parseTarget("", "2")
	require.NoError(t, err)
	assert.True(t, r.LoanToValue.Equal(decimal.RequireFromString("0.5")))

	_, err = parseTarget("0.6", "2")
	assert.Error(t, err)
	_, err = parseTarget("", "")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "DMA SDK v")
}

func TestStrategyCommandRequiresRPC(t *testing.T) {
	t.Setenv("DMA_RPC_URL", "")
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"close", "--collateral", "WETH", "--debt", "USDC", "--proxy", proxy})

	err := root.Execute()
	assert.ErrorContains(t, err, "DMA_RPC_URL")
}
