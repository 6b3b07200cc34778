package registry

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

var (
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrUnknownAction     = errors.New("unknown action")
	ErrOperationMismatch = errors.New("calls do not match operation definition")
)

// Intent is what the user wants to do with a position
type Intent string

const (
	OpenPosition    Intent = "OpenPosition"
	AdjustRiskUp    Intent = "AdjustRiskUp"
	AdjustRiskDown  Intent = "AdjustRiskDown"
	CloseAndExit    Intent = "CloseAndExit"
	DepositBorrow   Intent = "DepositBorrow"
	PaybackWithdraw Intent = "PaybackWithdraw"
)

// Intents lists every intent
var Intents = []Intent{OpenPosition, AdjustRiskUp, AdjustRiskDown, CloseAndExit, DepositBorrow, PaybackWithdraw}

// Step names a slot of an operation. Steps are unique within a definition.
type Step string

const (
	StepTakeFlashloan      Step = "takeFlashloan"
	StepPullToken          Step = "pullToken"
	StepWrapEth            Step = "wrapEth"
	StepApproveFlashloan   Step = "approveFlashloan"
	StepDepositFlashloan   Step = "depositFlashloan"
	StepBorrow             Step = "borrow"
	StepSwap               Step = "swap"
	StepApproveCollateral  Step = "approveCollateral"
	StepDepositCollateral  Step = "depositCollateral"
	StepSetEMode           Step = "setEMode"
	StepBorrowAfterDeposit Step = "borrowAfterDeposit"
	StepWithdrawFlashloan  Step = "withdrawFlashloan"
	StepPositionCreated    Step = "positionCreated"
	StepApproveDebt        Step = "approveDebt"
	StepPayback            Step = "payback"
	StepWithdrawCollateral Step = "withdrawCollateral"
	StepDepositBorrow      Step = "depositBorrow"
	StepPaybackWithdraw    Step = "paybackWithdraw"
	StepUnwrapEth          Step = "unwrapEth"
	StepReturnFunds        Step = "returnFunds"
	StepReturnCollateral   Step = "returnCollateral"
)

// ActionDefinition is one registered slot of an operation
type ActionDefinition struct {
	Step     Step        `json:"step"`
	Name     string      `json:"name"`
	Hash     common.Hash `json:"hash"`
	Optional bool        `json:"optional"`
}

// OperationDefinition is the ordered action list registered under a name
type OperationDefinition struct {
	Name    string             `json:"name"`
	Actions []ActionDefinition `json:"actions"`
}

// Index returns the position of a step or -1
func (d OperationDefinition) Index(step Step) int {
	for i, a := range d.Actions {
		if a.Step == step {
			return i
		}
	}
	return -1
}

// Hash is the operation hash when every action is present
func (d OperationDefinition) Hash() common.Hash {
	hashes := make([]common.Hash, len(d.Actions))
	for i, a := range d.Actions {
		hashes[i] = a.Hash
	}
	return OperationHash(hashes...)
}

// Verify checks that calls follow the definition slot for slot and that
// no required action was skipped.
func (d OperationDefinition) Verify(calls []types.ActionCall) error {
	if len(calls) != len(d.Actions) {
		return fmt.Errorf("%w: %s expects %d calls, got %d", ErrOperationMismatch, d.Name, len(d.Actions), len(calls))
	}
	for i, a := range d.Actions {
		if calls[i].TargetHash != a.Hash {
			return fmt.Errorf("%w: %s slot %d expects %s", ErrOperationMismatch, d.Name, i, a.Name)
		}
		if calls[i].Skipped && !a.Optional {
			return fmt.Errorf("%w: %s requires %s", ErrOperationMismatch, d.Name, a.Name)
		}
	}
	return nil
}

type slot struct {
	step     Step
	name     string
	optional bool
}

func required(step Step, name string) slot { return slot{step: step, name: name} }
func optional(step Step, name string) slot { return slot{step: step, name: name, optional: true} }

func define(name string, slots ...slot) OperationDefinition {
	def := OperationDefinition{Name: name}
	for _, s := range slots {
		if s.name == "" {
			continue
		}
		def.Actions = append(def.Actions, ActionDefinition{
			Step:     s.step,
			Name:     s.name,
			Hash:     ActionHash(s.name),
			Optional: s.optional,
		})
	}
	return def
}

// OperationName is the registered name for a protocol and intent
func OperationName(p protocol.Protocol, intent Intent) (string, error) {
	prefix, err := p.OperationPrefix()
	if err != nil {
		return "", err
	}
	return prefix + string(intent), nil
}

// Definitions builds every operation definition of a protocol
func Definitions(p protocol.Protocol) ([]OperationDefinition, error) {
	a, err := ActionsFor(p)
	if err != nil {
		return nil, err
	}
	defs := make([]OperationDefinition, 0, len(Intents))
	for _, intent := range Intents {
		name, err := OperationName(p, intent)
		if err != nil {
			return nil, err
		}
		if a.Combined() {
			defs = append(defs, combinedDefinition(name, intent, a))
		} else {
			defs = append(defs, splitDefinition(name, intent, a, p.IsAaveLike()))
		}
	}
	return defs, nil
}

// splitDefinition covers protocols with single-purpose actions. Aave-like
// protocols can take a reference flashloan and post it as temporary
// collateral, which adds the *Flashloan steps and the early borrow.
func splitDefinition(name string, intent Intent, a ProtocolActions, aaveLike bool) OperationDefinition {
	tempCollateral := func(s slot) slot {
		if !aaveLike {
			return slot{}
		}
		return s
	}
	borrowAfterDeposit := required(StepBorrowAfterDeposit, a.Borrow)
	if aaveLike {
		borrowAfterDeposit.optional = true
	}
	switch intent {
	case OpenPosition, AdjustRiskUp:
		slots := []slot{
			required(StepTakeFlashloan, TakeFlashloan),
			optional(StepPullToken, PullToken),
			optional(StepWrapEth, WrapEth),
			tempCollateral(optional(StepApproveFlashloan, SetApproval)),
			tempCollateral(optional(StepDepositFlashloan, a.Deposit)),
			tempCollateral(optional(StepBorrow, a.Borrow)),
			optional(StepSwap, SwapAction),
			required(StepApproveCollateral, SetApproval),
			required(StepDepositCollateral, a.Deposit),
		}
		if intent == OpenPosition {
			slots = append(slots, optional(StepSetEMode, a.SetEMode))
		}
		slots = append(slots,
			borrowAfterDeposit,
			tempCollateral(optional(StepWithdrawFlashloan, a.Withdraw)),
		)
		if intent == OpenPosition {
			slots = append(slots, required(StepPositionCreated, PositionCreated))
		}
		return define(name, slots...)
	case AdjustRiskDown:
		return define(name,
			required(StepTakeFlashloan, TakeFlashloan),
			required(StepApproveDebt, SetApproval),
			required(StepPayback, a.Payback),
			required(StepWithdrawCollateral, a.Withdraw),
			required(StepSwap, SwapAction),
			optional(StepUnwrapEth, UnwrapEth),
			optional(StepReturnFunds, ReturnFunds),
		)
	case CloseAndExit:
		return define(name,
			required(StepTakeFlashloan, TakeFlashloan),
			required(StepApproveDebt, SetApproval),
			required(StepPayback, a.Payback),
			required(StepWithdrawCollateral, a.Withdraw),
			optional(StepSwap, SwapAction),
			optional(StepUnwrapEth, UnwrapEth),
			required(StepReturnFunds, ReturnFunds),
			optional(StepReturnCollateral, ReturnFunds),
		)
	case DepositBorrow:
		return define(name,
			optional(StepPullToken, PullToken),
			optional(StepWrapEth, WrapEth),
			optional(StepSwap, SwapAction),
			optional(StepApproveCollateral, SetApproval),
			optional(StepDepositCollateral, a.Deposit),
			optional(StepBorrow, a.Borrow),
			optional(StepUnwrapEth, UnwrapEth),
			optional(StepReturnFunds, ReturnFunds),
		)
	case PaybackWithdraw:
		return define(name,
			optional(StepPullToken, PullToken),
			optional(StepWrapEth, WrapEth),
			optional(StepApproveDebt, SetApproval),
			optional(StepPayback, a.Payback),
			optional(StepWithdrawCollateral, a.Withdraw),
			optional(StepUnwrapEth, UnwrapEth),
			optional(StepReturnFunds, ReturnFunds),
		)
	default:
		return OperationDefinition{Name: name}
	}
}

func combinedDefinition(name string, intent Intent, a ProtocolActions) OperationDefinition {
	switch intent {
	case OpenPosition, AdjustRiskUp:
		slots := []slot{
			required(StepTakeFlashloan, TakeFlashloan),
			optional(StepPullToken, PullToken),
			optional(StepWrapEth, WrapEth),
			optional(StepSwap, SwapAction),
			required(StepApproveCollateral, SetApproval),
			required(StepDepositBorrow, a.DepositBorrow),
		}
		if intent == OpenPosition {
			slots = append(slots, required(StepPositionCreated, PositionCreated))
		}
		return define(name, slots...)
	case AdjustRiskDown:
		return define(name,
			required(StepTakeFlashloan, TakeFlashloan),
			required(StepApproveDebt, SetApproval),
			required(StepPaybackWithdraw, a.PaybackWithdraw),
			required(StepSwap, SwapAction),
			optional(StepUnwrapEth, UnwrapEth),
			optional(StepReturnFunds, ReturnFunds),
		)
	case CloseAndExit:
		return define(name,
			required(StepTakeFlashloan, TakeFlashloan),
			required(StepApproveDebt, SetApproval),
			required(StepPaybackWithdraw, a.PaybackWithdraw),
			optional(StepSwap, SwapAction),
			optional(StepUnwrapEth, UnwrapEth),
			required(StepReturnFunds, ReturnFunds),
			optional(StepReturnCollateral, ReturnFunds),
		)
	case DepositBorrow:
		return define(name,
			optional(StepPullToken, PullToken),
			optional(StepWrapEth, WrapEth),
			optional(StepSwap, SwapAction),
			optional(StepApproveCollateral, SetApproval),
			required(StepDepositBorrow, a.DepositBorrow),
			optional(StepUnwrapEth, UnwrapEth),
			optional(StepReturnFunds, ReturnFunds),
		)
	case PaybackWithdraw:
		return define(name,
			optional(StepPullToken, PullToken),
			optional(StepWrapEth, WrapEth),
			optional(StepApproveDebt, SetApproval),
			required(StepPaybackWithdraw, a.PaybackWithdraw),
			optional(StepUnwrapEth, UnwrapEth),
			optional(StepReturnFunds, ReturnFunds),
		)
	default:
		return OperationDefinition{Name: name}
	}
}
