package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrUnexpectedOutput is returned when a contract returns values of an
// unexpected shape
var ErrUnexpectedOutput = errors.New("unexpected contract output")

// Caller is the read side of an EVM client. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dial connects to an EVM JSON-RPC endpoint
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return client, nil
}

// Contract binds an ABI to an address for read-only calls at the latest block
type Contract struct {
	caller  Caller
	address common.Address
	abi     abi.ABI
	log     zerolog.Logger
}

// NewContract binds abi to address
func NewContract(caller Caller, address common.Address, contractABI abi.ABI, log zerolog.Logger) Contract {
	return Contract{caller: caller, address: address, abi: contractABI, log: log}
}

// Address returns the bound address
func (c Contract) Address() common.Address {
	return c.address
}

// Call packs method, calls the contract and unpacks the outputs
func (c Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	to := c.address
	result, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, c.address.Hex(), err)
	}

	out, err := c.abi.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	c.log.Debug().
		Str("contract", c.address.Hex()).
		Str("method", method).
		Msg("Contract call")
	return out, nil
}

// MustParseABI parses a JSON ABI, panicking on malformed input
func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("chain: invalid ABI: %v", err))
	}
	return parsed
}

// BigOut returns output i as an integer. uint8 to uint64 outputs are widened.
func BigOut(out []interface{}, i int) (*big.Int, error) {
	if i >= len(out) {
		return nil, fmt.Errorf("%w: %d outputs, want index %d", ErrUnexpectedOutput, len(out), i)
	}
	switch v := out[i].(type) {
	case *big.Int:
		return v, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("%w: output %d is %T", ErrUnexpectedOutput, i, out[i])
	}
}

// DecimalOut returns output i as a decimal scaled by 10^-scale
func DecimalOut(out []interface{}, i int, scale int32) (decimal.Decimal, error) {
	v, err := BigOut(out, i)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(v, -scale), nil
}

// AddressOut returns output i as an address
func AddressOut(out []interface{}, i int) (common.Address, error) {
	if i >= len(out) {
		return common.Address{}, fmt.Errorf("%w: %d outputs, want index %d", ErrUnexpectedOutput, len(out), i)
	}
	addr, ok := out[i].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: output %d is %T", ErrUnexpectedOutput, i, out[i])
	}
	return addr, nil
}
