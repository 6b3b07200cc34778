// Package registry maps action and operation names to the hashes the
// on-chain operation executor verifies.
package registry

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
)

// Registry is a read-only action/operation table for one network. It is
// safe for concurrent use once constructed.
type Registry struct {
	network    string
	chainID    uint64
	actions    map[string]common.Hash
	operations map[string]OperationDefinition
}

// New builds a registry from explicit definitions
func New(networkName string, chainID uint64, defs ...OperationDefinition) (*Registry, error) {
	r := &Registry{
		network:    networkName,
		chainID:    chainID,
		actions:    make(map[string]common.Hash),
		operations: make(map[string]OperationDefinition, len(defs)),
	}
	for _, def := range defs {
		if _, dup := r.operations[def.Name]; dup {
			return nil, fmt.Errorf("duplicate operation %s", def.Name)
		}
		if len(def.Actions) == 0 {
			return nil, fmt.Errorf("operation %s has no actions", def.Name)
		}
		seen := make(map[Step]bool, len(def.Actions))
		for _, a := range def.Actions {
			if seen[a.Step] {
				return nil, fmt.Errorf("operation %s repeats step %s", def.Name, a.Step)
			}
			seen[a.Step] = true
			r.actions[a.Name] = a.Hash
		}
		r.operations[def.Name] = def
	}
	return r, nil
}

// ForNetwork registers the operations of every protocol deployed on n
func ForNetwork(n *network.Network) (*Registry, error) {
	var defs []OperationDefinition
	for _, p := range protocol.All {
		if !deployed(n, p) {
			continue
		}
		pd, err := Definitions(p)
		if err != nil {
			return nil, err
		}
		defs = append(defs, pd...)
	}
	return New(n.Name, n.ChainID, defs...)
}

func deployed(n *network.Network, p protocol.Protocol) bool {
	switch p {
	case protocol.AaveV2:
		return n.AaveV2 != nil
	case protocol.AaveV3:
		return n.AaveV3 != nil
	case protocol.Spark:
		return n.Spark != nil
	case protocol.Ajna:
		return n.Ajna != nil
	case protocol.MorphoBlue:
		return n.MorphoBlue != nil
	default:
		return false
	}
}

// Network is the name of the network the registry serves
func (r *Registry) Network() string {
	return r.network
}

// ChainID is the chain the registry serves
func (r *Registry) ChainID() uint64 {
	return r.chainID
}

// ActionHash returns the hash of a registered action
func (r *Registry) ActionHash(name string) (common.Hash, error) {
	h, ok := r.actions[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s on %s", ErrUnknownAction, name, r.network)
	}
	return h, nil
}

// OperationByName returns a registered definition
func (r *Registry) OperationByName(name string) (OperationDefinition, error) {
	def, ok := r.operations[name]
	if !ok {
		return OperationDefinition{}, fmt.Errorf("%w: %s on %s", ErrUnknownOperation, name, r.network)
	}
	return def, nil
}

// Operation returns the definition for a protocol and intent
func (r *Registry) Operation(p protocol.Protocol, intent Intent) (OperationDefinition, error) {
	name, err := OperationName(p, intent)
	if err != nil {
		return OperationDefinition{}, err
	}
	return r.OperationByName(name)
}

// Operations lists registered operation names
func (r *Registry) Operations() []string {
	names := make([]string, 0, len(r.operations))
	for name := range r.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
