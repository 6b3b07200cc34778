package strategy

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/registry"
	"github.com/summerfi/dma-sdk/pkg/types"
)

var (
	testProxy = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	testUser  = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f2b21D")
)

type fakeResolver struct {
	position *types.Position
	data     *protocol.Data
	posErr   error
	dataErr  error
	queries  []protocol.DataQuery
}

func (f *fakeResolver) GetCurrentPosition(_ context.Context, q protocol.PositionQuery) (*types.Position, error) {
	if f.posErr != nil {
		return nil, f.posErr
	}
	if f.position == nil {
		return nil, nil
	}
	pos := *f.position
	return &pos, nil
}

func (f *fakeResolver) GetProtocolData(_ context.Context, q protocol.DataQuery) (*protocol.Data, error) {
	f.queries = append(f.queries, q)
	if f.dataErr != nil {
		return nil, f.dataErr
	}
	if f.data == nil {
		return nil, nil
	}
	data := *f.data
	data.Protocol = q.Protocol
	return &data, nil
}

// fakeSwapper quotes at fixed USD prices and returns the minimum after slippage
type fakeSwapper struct {
	prices   map[string]decimal.Decimal
	requests []protocol.SwapRequest
}

func (f *fakeSwapper) GetSwapData(_ context.Context, req protocol.SwapRequest) (*protocol.SwapData, error) {
	f.requests = append(f.requests, req)
	whole := types.Div(req.From.FromBaseUnits(req.Amount).Mul(f.prices[req.From.Symbol]), f.prices[req.To.Symbol])
	return &protocol.SwapData{
		FromAmount:       req.Amount,
		ToAmount:         req.To.ToBaseUnits(whole),
		MinToAmount:      req.To.ToBaseUnits(whole.Mul(decimal.NewFromInt(1).Sub(req.Slippage))),
		ExchangeCalldata: []byte{0xde, 0xad, 0xbe, 0xef},
		Source:           "fake",
	}, nil
}

func usd(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fixture struct {
	engine   *Engine
	network  *network.Network
	registry *registry.Registry
	resolver *fakeResolver
	swapper  *fakeSwapper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n, err := network.Load("mainnet")
	require.NoError(t, err)
	reg, err := registry.ForNetwork(n)
	require.NoError(t, err)
	e, err := New(reg, n)
	require.NoError(t, err)

	return &fixture{
		engine:   e,
		network:  n,
		registry: reg,
		resolver: &fakeResolver{},
		swapper: &fakeSwapper{prices: map[string]decimal.Decimal{
			"WETH":   dec("2000"),
			"WSTETH": dec("2300"),
			"USDC":   dec("1"),
			"DAI":    dec("1"),
		}},
	}
}

func (f *fixture) token(t *testing.T, symbol string) types.Token {
	t.Helper()
	tok, err := f.network.Token(symbol)
	require.NoError(t, err)
	return tok
}

func (f *fixture) deps() Dependencies {
	return Dependencies{Resolver: f.resolver, Swapper: f.swapper, Proxy: testProxy, User: testUser}
}

// marketData prices collateral and debt in USD with Aave-like reserve parameters
func marketData(collateralUSD, debtUSD string) *protocol.Data {
	return &protocol.Data{
		CollateralPrice: usd(collateralUSD),
		DebtPrice:       usd(debtUSD),
		Collateral: protocol.ReserveData{
			MaxLoanToValue:       dec("0.8"),
			LiquidationThreshold: dec("0.825"),
			LiquidationPenalty:   dec("0.05"),
		},
		Debt: protocol.ReserveData{
			AvailableLiquidity: dec("1e30"),
		},
	}
}

func (f *fixture) setPosition(collateral, debt types.Token, collateralAmount, debtAmount, price string) {
	pos := types.NewPosition(
		types.NewBalance(debt, debt.MustAmount(debtAmount)),
		types.NewBalance(collateral, collateral.MustAmount(collateralAmount)),
		dec(price),
		types.Category{MaxLoanToValue: dec("0.8"), LiquidationThreshold: dec("0.825")},
	)
	f.resolver.position = &pos
}

func (f *fixture) call(t *testing.T, res *Result, p protocol.Protocol, intent registry.Intent, step registry.Step) types.ActionCall {
	t.Helper()
	def, err := f.registry.Operation(p, intent)
	require.NoError(t, err)
	i := def.Index(step)
	require.GreaterOrEqual(t, i, 0, "step %s not in %s", step, def.Name)
	return res.Operation.Calls[i]
}
