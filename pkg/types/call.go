package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ActionCall is one step of an operation. Args holds the ABI-encoded
// action arguments and ArgsMapping the per-argument storage slot to read a
// prior call's output from (0 keeps the encoded value).
type ActionCall struct {
	Name        string        `json:"name"`
	TargetHash  common.Hash   `json:"targetHash"`
	Args        hexutil.Bytes `json:"args"`
	ArgsMapping []uint8       `json:"argsMapping"`
	Skipped     bool          `json:"skipped"`
}

// SkippedCall is the placeholder for an optional action that is not taken
func SkippedCall(name string, hash common.Hash) ActionCall {
	return ActionCall{Name: name, TargetHash: hash, Skipped: true}
}

// PresentCalls drops skipped calls, keeping order
func PresentCalls(calls []ActionCall) []ActionCall {
	out := make([]ActionCall, 0, len(calls))
	for _, c := range calls {
		if !c.Skipped {
			out = append(out, c)
		}
	}
	return out
}

// Transaction is an unsigned transaction request
type Transaction struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *big.Int       `json:"value"`
}
