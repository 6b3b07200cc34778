package price

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// stubCaller returns fixed outputs per address and method
type stubCaller struct {
	abi     abi.ABI
	outputs map[common.Address]map[string][]interface{}
}

func (s *stubCaller) set(addr common.Address, method string, out ...interface{}) {
	if s.outputs == nil {
		s.outputs = make(map[common.Address]map[string][]interface{})
	}
	if s.outputs[addr] == nil {
		s.outputs[addr] = make(map[string][]interface{})
	}
	s.outputs[addr][method] = out
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m, err := s.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	out, ok := s.outputs[*msg.To][m.Name]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return m.Outputs.Pack(out...)
}

func mainnet(t *testing.T) *network.Network {
	t.Helper()
	n, err := network.Load("mainnet")
	require.NoError(t, err)
	return n
}

func token(t *testing.T, n *network.Network, symbol string) types.Token {
	t.Helper()
	tok, err := n.Token(symbol)
	require.NoError(t, err)
	return tok
}

func roundData(answer int64, updatedAt time.Time) []interface{} {
	return []interface{}{big.NewInt(1), big.NewInt(answer), big.NewInt(updatedAt.Unix()), big.NewInt(updatedAt.Unix()), big.NewInt(1)}
}

func TestChainlink(t *testing.T) {
	n := mainnet(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	weth := token(t, n, "WETH")
	usdc := token(t, n, "USDC")
	wsteth := token(t, n, "WSTETH")

	caller := &stubCaller{abi: aggregator}
	caller.set(n.PriceFeeds["WETH"], "latestRoundData", roundData(200012345678, now.Add(-time.Minute))...)
	caller.set(n.PriceFeeds["WETH"], "decimals", uint8(8))
	caller.set(n.PriceFeeds["USDC"], "latestRoundData", roundData(100000000, now.Add(-48*time.Hour))...)
	caller.set(n.PriceFeeds["USDC"], "decimals", uint8(8))

	oracle := NewChainlink(caller, n, zerolog.Nop())
	oracle.now = func() time.Time { return now }

	p, err := oracle.GetPrice(context.Background(), weth)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Equal(decimal.RequireFromString("2000.12345678")))

	// stale
	p, err = oracle.GetPrice(context.Background(), usdc)
	require.NoError(t, err)
	assert.Nil(t, p)

	// no feed
	p, err = oracle.GetPrice(context.Background(), wsteth)
	require.NoError(t, err)
	assert.Nil(t, p)

	relaxed := NewChainlink(caller, n, zerolog.Nop(), WithMaxAge(0))
	p, err = relaxed.GetPrice(context.Background(), usdc)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Equal(decimal.NewFromInt(1)))
}

func TestChainlink_NegativeAnswer(t *testing.T) {
	n := mainnet(t)
	caller := &stubCaller{abi: aggregator}
	caller.set(n.PriceFeeds["DAI"], "latestRoundData", roundData(-1, time.Now())...)
	caller.set(n.PriceFeeds["DAI"], "decimals", uint8(8))

	p, err := NewChainlink(caller, n, zerolog.Nop()).GetPrice(context.Background(), token(t, n, "DAI"))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAaveOracle(t *testing.T) {
	n := mainnet(t)
	addr := n.AaveV3.Oracle
	caller := &stubCaller{abi: aaveOracleABI}
	caller.set(addr, "getAssetPrice", big.NewInt(230000000000))

	p, err := NewAaveOracle(caller, addr, AaveV3Decimals, zerolog.Nop()).GetPrice(context.Background(), token(t, n, "WSTETH"))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Equal(decimal.NewFromInt(2300)))

	caller.set(addr, "getAssetPrice", big.NewInt(0))
	p, err = NewAaveOracle(caller, addr, AaveV3Decimals, zerolog.Nop()).GetPrice(context.Background(), token(t, n, "WSTETH"))
	require.NoError(t, err)
	assert.Nil(t, p)
}

type fixedOracle struct {
	price *decimal.Decimal
	err   error
}

func (o fixedOracle) GetPrice(context.Context, types.Token) (*decimal.Decimal, error) {
	return o.price, o.err
}

func TestFallback(t *testing.T) {
	tok := types.Token{Symbol: "WETH", Precision: 18}
	price := decimal.NewFromInt(2000)
	boom := errors.New("boom")

	p, err := Fallback{fixedOracle{}, fixedOracle{price: &price}}.GetPrice(context.Background(), tok)
	require.NoError(t, err)
	assert.True(t, p.Equal(price))

	p, err = Fallback{fixedOracle{err: boom}, fixedOracle{price: &price}}.GetPrice(context.Background(), tok)
	require.NoError(t, err)
	assert.True(t, p.Equal(price))

	p, err = Fallback{fixedOracle{err: boom}, fixedOracle{}}.GetPrice(context.Background(), tok)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = Fallback{fixedOracle{err: boom}}.GetPrice(context.Background(), tok)
	assert.ErrorIs(t, err, boom)

	var _ protocol.PriceOracle = Fallback{}
}

func TestQuoter(t *testing.T) {
	n := mainnet(t)
	weth, usdc := token(t, n, "WETH"), token(t, n, "USDC")
	eth := decimal.NewFromInt(2000)
	q := NewQuoter(oracleBySymbol{"WETH": eth, "USDC": decimal.NewFromInt(1)})

	data, err := q.GetSwapData(context.Background(), protocol.SwapRequest{
		From:     weth,
		To:       usdc,
		Amount:   weth.MustAmount("1.5"),
		Slippage: decimal.RequireFromString("0.01"),
	})
	require.NoError(t, err)
	assert.True(t, data.ToAmount.Equal(usdc.MustAmount("3000")))
	assert.True(t, data.MinToAmount.Equal(usdc.MustAmount("2970")))
	assert.Empty(t, data.ExchangeCalldata)

	_, err = q.GetSwapData(context.Background(), protocol.SwapRequest{From: weth, To: token(t, n, "DAI"), Amount: weth.MustAmount("1")})
	assert.ErrorIs(t, err, protocol.ErrProtocolDataUnavailable)
}

type oracleBySymbol map[string]decimal.Decimal

func (o oracleBySymbol) GetPrice(_ context.Context, tok types.Token) (*decimal.Decimal, error) {
	p, ok := o[tok.Symbol]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
