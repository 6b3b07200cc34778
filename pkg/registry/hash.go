package registry

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/summerfi/dma-sdk/pkg/types"
)

// ActionHash is the service-registry key of an action: keccak256(name)
func ActionHash(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

// OperationHash folds the action hashes into one packed byte string, in
// order, and hashes the result.
func OperationHash(hashes ...common.Hash) common.Hash {
	packed := make([]byte, 0, len(hashes)*common.HashLength)
	for _, h := range hashes {
		packed = append(packed, h.Bytes()...)
	}
	return crypto.Keccak256Hash(packed)
}

// CallsHash hashes the target hashes of the calls that are present;
// skipped calls do not contribute.
func CallsHash(calls []types.ActionCall) common.Hash {
	present := types.PresentCalls(calls)
	hashes := make([]common.Hash, len(present))
	for i, c := range present {
		hashes[i] = c.TargetHash
	}
	return OperationHash(hashes...)
}
