// Package actions encodes the arguments of each executor action and
// assembles them into operation call lists.
package actions

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/registry"
)

// Call is an encoded action waiting for its slot in a plan. Mapping has
// one entry per encoded argument naming the step whose stored output
// replaces it; the empty step keeps the encoded value.
type Call struct {
	Args    []byte
	Mapping []registry.Step
	// Stores is set when the action writes its result to operation storage
	Stores bool
}

// MapArg returns a copy of c with argument i read from the output of step
func (c Call) MapArg(i int, from registry.Step) Call {
	mapping := make([]registry.Step, len(c.Mapping))
	copy(mapping, c.Mapping)
	if i >= 0 && i < len(mapping) {
		mapping[i] = from
	}
	c.Mapping = mapping
	return c
}

func encode(args abi.Arguments, width int, stores bool, value any) (Call, error) {
	data, err := args.Pack(value)
	if err != nil {
		return Call{}, fmt.Errorf("failed to pack action args: %w", err)
	}
	return Call{Args: data, Mapping: make([]registry.Step, width), Stores: stores}, nil
}

// PullTokenArgs moves tokens from the user to the proxy
type PullTokenArgs struct {
	Asset  common.Address
	From   common.Address
	Amount *big.Int
}

func PullToken(asset, from common.Address, amount decimal.Decimal) (Call, error) {
	return encode(pullTokenArgs, 3, false, PullTokenArgs{Asset: asset, From: from, Amount: toUint256(amount)})
}

// SetApprovalArgs approves a protocol to spend the proxy's tokens
type SetApprovalArgs struct {
	Asset      common.Address
	Delegate   common.Address
	Amount     *big.Int
	SumAmounts bool
}

func SetApproval(asset, delegate common.Address, amount decimal.Decimal, sumAmounts bool) (Call, error) {
	return encode(setApprovalArgs, 4, false, SetApprovalArgs{Asset: asset, Delegate: delegate, Amount: toUint256(amount), SumAmounts: sumAmounts})
}

// SwapArgs executes an aggregator swap through the executor's swap contract
type SwapArgs struct {
	FromAsset             common.Address
	ToAsset               common.Address
	Amount                *big.Int
	ReceiveAtLeast        *big.Int
	Fee                   *big.Int
	WithData              []byte
	CollectFeeInFromToken bool
}

func Swap(from, to common.Address, amount, receiveAtLeast decimal.Decimal, fee int64, data []byte, collectFeeInFromToken bool) (Call, error) {
	return encode(swapArgs, 7, true, SwapArgs{
		FromAsset:             from,
		ToAsset:               to,
		Amount:                toUint256(amount),
		ReceiveAtLeast:        toUint256(receiveAtLeast),
		Fee:                   big.NewInt(fee),
		WithData:              data,
		CollectFeeInFromToken: collectFeeInFromToken,
	})
}

// TakeFlashloanArgs borrows within the transaction
type TakeFlashloanArgs struct {
	Amount           *big.Int
	Asset            common.Address
	IsProxyFlashloan bool
	IsDPMProxy       bool
	Provider         uint8
}

func TakeFlashloan(asset common.Address, amount decimal.Decimal, provider network.FlashloanProvider) (Call, error) {
	return encode(flashloanArgs, 5, false, TakeFlashloanArgs{
		Amount:           toUint256(amount),
		Asset:            asset,
		IsProxyFlashloan: true,
		IsDPMProxy:       true,
		Provider:         uint8(provider),
	})
}

// AmountArgs is the single-amount argument of wrap and unwrap
type AmountArgs struct {
	Amount *big.Int
}

func WrapEth(amount decimal.Decimal) (Call, error) {
	return encode(wrapEthArgs, 1, true, AmountArgs{Amount: toUint256(amount)})
}

// UnwrapEth unwraps amount. MaxAmount unwraps the whole balance.
func UnwrapEth(amount decimal.Decimal) (Call, error) {
	return encode(wrapEthArgs, 1, false, AmountArgs{Amount: toUint256(amount)})
}

// UnwrapAll unwraps the proxy's whole wrapped native balance
func UnwrapAll() (Call, error) {
	return UnwrapEth(MaxAmount)
}

// ReturnFundsArgs sends the proxy's balance of asset back to the user
type ReturnFundsArgs struct {
	Asset common.Address
}

func ReturnFunds(asset common.Address) (Call, error) {
	return encode(returnFundsArgs, 1, false, ReturnFundsArgs{Asset: asset})
}

// PositionCreatedArgs emits the position event indexed off-chain
type PositionCreatedArgs struct {
	Protocol        string
	PositionType    string
	CollateralToken common.Address
	DebtToken       common.Address
}

func PositionCreated(protocolName, positionType string, collateral, debt common.Address) (Call, error) {
	return encode(positionEventArgs, 4, false, PositionCreatedArgs{
		Protocol:        protocolName,
		PositionType:    positionType,
		CollateralToken: collateral,
		DebtToken:       debt,
	})
}
