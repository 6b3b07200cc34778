package actions

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/shopspring/decimal"
)

// MethodExecute is the entry point every action contract exposes
const MethodExecute = "execute"

const executableABI = `[
	{
		"name": "execute",
		"type": "function",
		"inputs": [
			{"name": "data", "type": "bytes"},
			{"name": "paramsMap", "type": "uint8[]"}
		],
		"outputs": [],
		"stateMutability": "payable"
	}
]`

var executable abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(executableABI))
	if err != nil {
		panic(fmt.Sprintf("actions: invalid executable ABI: %v", err))
	}
	executable = parsed
}

// ExecutableABI returns the ABI of the action execute method
func ExecutableABI() abi.ABI {
	return executable
}

func field(name, typ string) abi.ArgumentMarshaling {
	return abi.ArgumentMarshaling{Name: name, Type: typ}
}

func tuple(name string, components ...abi.ArgumentMarshaling) abi.ArgumentMarshaling {
	return abi.ArgumentMarshaling{Name: name, Type: "tuple", Components: components}
}

func tupleArgs(components ...abi.ArgumentMarshaling) abi.Arguments {
	t, err := abi.NewType("tuple", "", components)
	if err != nil {
		panic(fmt.Sprintf("actions: invalid tuple: %v", err))
	}
	return abi.Arguments{{Type: t}}
}

// MaxAmount is max uint256, which actions read as the proxy's whole balance
var MaxAmount = decimal.NewFromBigInt(abi.MaxUint256, 0)

func toUint256(amount decimal.Decimal) *big.Int {
	if amount.Sign() <= 0 {
		return new(big.Int)
	}
	return amount.BigInt()
}

var marketParams = tuple("marketParams",
	field("loanToken", "address"),
	field("collateralToken", "address"),
	field("oracle", "address"),
	field("irm", "address"),
	field("lltv", "uint256"),
)

var (
	pullTokenArgs     = tupleArgs(field("asset", "address"), field("from", "address"), field("amount", "uint256"))
	setApprovalArgs   = tupleArgs(field("asset", "address"), field("delegate", "address"), field("amount", "uint256"), field("sumAmounts", "bool"))
	swapArgs          = tupleArgs(field("fromAsset", "address"), field("toAsset", "address"), field("amount", "uint256"), field("receiveAtLeast", "uint256"), field("fee", "uint256"), field("withData", "bytes"), field("collectFeeInFromToken", "bool"))
	flashloanArgs     = tupleArgs(field("amount", "uint256"), field("asset", "address"), field("isProxyFlashloan", "bool"), field("isDPMProxy", "bool"), field("provider", "uint8"))
	wrapEthArgs       = tupleArgs(field("amount", "uint256"))
	returnFundsArgs   = tupleArgs(field("asset", "address"))
	positionEventArgs = tupleArgs(field("protocol", "string"), field("positionType", "string"), field("collateralToken", "address"), field("debtToken", "address"))

	aaveDepositArgs  = tupleArgs(field("asset", "address"), field("amount", "uint256"), field("sumAmounts", "bool"), field("setAsCollateral", "bool"))
	aaveBorrowArgs   = tupleArgs(field("asset", "address"), field("amount", "uint256"), field("to", "address"))
	aavePaybackArgs  = tupleArgs(field("asset", "address"), field("amount", "uint256"), field("paybackAll", "bool"), field("onBehalf", "address"))
	aaveWithdrawArgs = tupleArgs(field("asset", "address"), field("amount", "uint256"), field("to", "address"))
	setEModeArgs     = tupleArgs(field("categoryId", "uint8"))

	ajnaDepositBorrowArgs = tupleArgs(field("pool", "address"), field("depositAmount", "uint256"), field("borrowAmount", "uint256"), field("sumDepositAmounts", "bool"), field("price", "uint256"))
	ajnaRepayWithdrawArgs = tupleArgs(field("pool", "address"), field("withdrawAmount", "uint256"), field("repayAmount", "uint256"), field("paybackAll", "bool"), field("withdrawAll", "bool"), field("price", "uint256"))
	morphoDepositArgs     = tupleArgs(marketParams, field("amount", "uint256"), field("sumAmounts", "bool"))
	morphoBorrowArgs      = tupleArgs(marketParams, field("amount", "uint256"))
	morphoPaybackArgs     = tupleArgs(marketParams, field("amount", "uint256"), field("onBehalf", "address"), field("paybackAll", "bool"))
	morphoWithdrawArgs    = tupleArgs(marketParams, field("amount", "uint256"), field("to", "address"))
)
