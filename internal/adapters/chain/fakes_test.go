package chain

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/types"
)

type handler func(args []interface{}) []interface{}

type fakeMethod struct {
	method abi.Method
	fn     handler
}

// fakeCaller answers contract calls from handlers keyed by address and selector
type fakeCaller struct {
	methods map[common.Address]map[string]fakeMethod
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{methods: make(map[common.Address]map[string]fakeMethod)}
}

func (f *fakeCaller) handle(addr common.Address, contractABI abi.ABI, name string, fn handler) {
	m, ok := contractABI.Methods[name]
	if !ok {
		panic("unknown method " + name)
	}
	if f.methods[addr] == nil {
		f.methods[addr] = make(map[string]fakeMethod)
	}
	f.methods[addr][string(m.ID)] = fakeMethod{method: m, fn: fn}
}

func (f *fakeCaller) returns(addr common.Address, contractABI abi.ABI, name string, out ...interface{}) {
	f.handle(addr, contractABI, name, func([]interface{}) []interface{} { return out })
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("bad call")
	}
	m, ok := f.methods[*msg.To][string(msg.Data[:4])]
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s %x", msg.To.Hex(), msg.Data[:4])
	}
	args, err := m.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	return m.method.Outputs.Pack(m.fn(args)...)
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

func bi(v string) *big.Int {
	b, ok := new(big.Int).SetString(v, 10)
	if !ok {
		panic("bad integer " + v)
	}
	return b
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type staticOracle map[string]decimal.Decimal

func (o staticOracle) GetPrice(_ context.Context, tok types.Token) (*decimal.Decimal, error) {
	p, ok := o[tok.Symbol]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
