package registry

import (
	"fmt"

	"github.com/summerfi/dma-sdk/pkg/protocol"
)

// Common action names as registered in the service registry
const (
	PullToken       = "PullToken_3"
	SetApproval     = "SetApproval_3"
	SwapAction      = "SwapAction_3"
	TakeFlashloan   = "TakeFlashloan_3"
	WrapEth         = "WrapEth_3"
	UnwrapEth       = "UnwrapEth_3"
	ReturnFunds     = "ReturnFunds_3"
	PositionCreated = "PositionCreated"
)

// ProtocolActions names the protocol specific actions. Families that move
// collateral and debt in one call set DepositBorrow and PaybackWithdraw
// instead of the single-purpose actions.
type ProtocolActions struct {
	Deposit  string
	Borrow   string
	Payback  string
	Withdraw string
	SetEMode string

	DepositBorrow   string
	PaybackWithdraw string
}

// Combined reports whether the protocol uses combined actions
func (a ProtocolActions) Combined() bool {
	return a.DepositBorrow != ""
}

// ActionsFor returns the action names used by a protocol
func ActionsFor(p protocol.Protocol) (ProtocolActions, error) {
	switch p {
	case protocol.AaveV2:
		return ProtocolActions{
			Deposit:  "AaveDeposit_3",
			Borrow:   "AaveBorrow_3",
			Payback:  "AavePayback_3",
			Withdraw: "AaveWithdraw_3",
		}, nil
	case protocol.AaveV3:
		return ProtocolActions{
			Deposit:  "AaveV3Deposit",
			Borrow:   "AaveV3Borrow",
			Payback:  "AaveV3Payback",
			Withdraw: "AaveV3Withdraw",
			SetEMode: "AaveV3SetEMode",
		}, nil
	case protocol.Spark:
		return ProtocolActions{
			Deposit:  "SparkDeposit",
			Borrow:   "SparkBorrow",
			Payback:  "SparkPayback",
			Withdraw: "SparkWithdraw",
			SetEMode: "SparkSetEMode",
		}, nil
	case protocol.Ajna:
		return ProtocolActions{
			DepositBorrow:   "AjnaDepositBorrow",
			PaybackWithdraw: "AjnaRepayWithdraw",
		}, nil
	case protocol.MorphoBlue:
		return ProtocolActions{
			Deposit:  "MorphoBlueDeposit",
			Borrow:   "MorphoBlueBorrow",
			Payback:  "MorphoBluePayback",
			Withdraw: "MorphoBlueWithdraw",
		}, nil
	default:
		return ProtocolActions{}, fmt.Errorf("%w: %d", protocol.ErrUnsupportedProtocol, int(p))
	}
}
