// Package executor encodes operations for the operation executor contract.
package executor

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/dma-sdk/pkg/actions"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// Contract ABI methods
const (
	MethodExecuteOp = "executeOp"
)

var (
	ErrEmptyOperation  = errors.New("operation has no calls")
	ErrMissingExecutor = errors.New("operation executor address not set")
)

const executorABI = `[
	{
		"name": "executeOp",
		"type": "function",
		"inputs": [
			{
				"name": "calls",
				"type": "tuple[]",
				"components": [
					{"name": "targetHash", "type": "bytes32"},
					{"name": "callData", "type": "bytes"},
					{"name": "skipped", "type": "bool"}
				]
			},
			{"name": "operationName", "type": "string"}
		],
		"outputs": [],
		"stateMutability": "payable"
	}
]`

// Call is the executor's view of one action call
type Call struct {
	TargetHash [32]byte
	CallData   []byte
	Skipped    bool
}

// Operation is a named call list
type Operation struct {
	Name  string             `json:"name"`
	Calls []types.ActionCall `json:"calls"`
}

// ParseABI returns the executor ABI
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(executorABI))
}

// Encoder builds executeOp transactions
type Encoder struct {
	abi abi.ABI
}

// NewEncoder creates an encoder
func NewEncoder() (*Encoder, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse executor ABI: %w", err)
	}
	return &Encoder{abi: parsed}, nil
}

// Encode builds the executeOp calldata for the present calls of op.
// value is the gas asset sent along, nil for none.
func (e *Encoder) Encode(op Operation, executorAddress common.Address, value *big.Int) (types.Transaction, error) {
	if executorAddress == (common.Address{}) {
		return types.Transaction{}, ErrMissingExecutor
	}
	present := types.PresentCalls(op.Calls)
	if len(present) == 0 {
		return types.Transaction{}, fmt.Errorf("%w: %s", ErrEmptyOperation, op.Name)
	}

	calls := make([]Call, len(present))
	for i, c := range present {
		data, err := actions.CallData(c)
		if err != nil {
			return types.Transaction{}, err
		}
		calls[i] = Call{TargetHash: c.TargetHash, CallData: data}
	}

	data, err := e.abi.Pack(MethodExecuteOp, calls, op.Name)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to pack executeOp: %w", err)
	}

	if value == nil {
		value = new(big.Int)
	}
	return types.Transaction{To: executorAddress, Data: data, Value: value}, nil
}

// Decode unpacks executeOp calldata back into the executor calls and name
func (e *Encoder) Decode(data []byte) ([]Call, string, error) {
	method := e.abi.Methods[MethodExecuteOp]
	if len(data) < 4 || string(data[:4]) != string(method.ID) {
		return nil, "", fmt.Errorf("calldata is not %s", MethodExecuteOp)
	}
	out, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, "", fmt.Errorf("failed to unpack executeOp: %w", err)
	}
	calls := *abi.ConvertType(out[0], new([]Call)).(*[]Call)
	name, _ := out[1].(string)
	return calls, name, nil
}
