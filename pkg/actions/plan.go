package actions

import (
	"errors"
	"fmt"

	"github.com/summerfi/dma-sdk/pkg/registry"
	"github.com/summerfi/dma-sdk/pkg/types"
)

var (
	ErrUnknownStep       = errors.New("step not in operation")
	ErrDuplicateStep     = errors.New("step already planned")
	ErrMissingStep       = errors.New("required step not planned")
	ErrUnresolvedMapping = errors.New("argument mapped to a step that does not precede it")
)

// Plan collects calls for the steps of one operation and lays them out in
// the registered order.
type Plan struct {
	def   registry.OperationDefinition
	calls map[registry.Step]Call
}

// NewPlan starts an empty plan for def
func NewPlan(def registry.OperationDefinition) *Plan {
	return &Plan{def: def, calls: make(map[registry.Step]Call, len(def.Actions))}
}

// Definition returns the operation being planned
func (p *Plan) Definition() registry.OperationDefinition {
	return p.def
}

// Add fills a step
func (p *Plan) Add(step registry.Step, call Call) error {
	if p.def.Index(step) < 0 {
		return fmt.Errorf("%w: %s in %s", ErrUnknownStep, step, p.def.Name)
	}
	if _, ok := p.calls[step]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, step)
	}
	p.calls[step] = call
	return nil
}

// Has reports whether a step was filled
func (p *Plan) Has(step registry.Step) bool {
	_, ok := p.calls[step]
	return ok
}

// Build lays the calls out in definition order. Unfilled optional steps
// become skipped calls. Each storing call takes the next storage slot
// (1-based, counted over present calls) and mapped arguments resolve to
// the slot of the referenced step, or 0 when that step was skipped.
func (p *Plan) Build() ([]types.ActionCall, error) {
	calls := make([]types.ActionCall, 0, len(p.def.Actions))
	slots := make(map[registry.Step]uint8)
	seen := make(map[registry.Step]bool, len(p.def.Actions))
	var stored uint8

	for _, a := range p.def.Actions {
		seen[a.Step] = true
		call, ok := p.calls[a.Step]
		if !ok {
			if !a.Optional {
				return nil, fmt.Errorf("%w: %s in %s", ErrMissingStep, a.Step, p.def.Name)
			}
			calls = append(calls, types.SkippedCall(a.Name, a.Hash))
			continue
		}

		mapping := make([]uint8, len(call.Mapping))
		for i, ref := range call.Mapping {
			if ref == "" {
				continue
			}
			if !seen[ref] || ref == a.Step {
				return nil, fmt.Errorf("%w: %s arg %d -> %s", ErrUnresolvedMapping, a.Step, i, ref)
			}
			mapping[i] = slots[ref]
		}

		calls = append(calls, types.ActionCall{
			Name:        a.Name,
			TargetHash:  a.Hash,
			Args:        call.Args,
			ArgsMapping: mapping,
		})
		if call.Stores {
			stored++
			slots[a.Step] = stored
		}
	}

	if err := p.def.Verify(calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// CallData encodes a call as execute(bytes data, uint8[] paramsMap)
func CallData(call types.ActionCall) ([]byte, error) {
	mapping := call.ArgsMapping
	if mapping == nil {
		mapping = []uint8{}
	}
	data, err := executable.Pack(MethodExecute, []byte(call.Args), mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", call.Name, err)
	}
	return data, nil
}
