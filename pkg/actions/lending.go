package actions

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
)

var ErrUnsupportedAction = errors.New("action not supported by protocol")

// Lending encodes the protocol specific calls of one protocol family
type Lending interface {
	// Spender is the contract that pulls approved tokens from the proxy
	Spender() common.Address
	Deposit(asset common.Address, amount decimal.Decimal, sumAmounts bool) (Call, error)
	Borrow(asset common.Address, amount decimal.Decimal, to common.Address) (Call, error)
	Payback(asset common.Address, amount decimal.Decimal, paybackAll bool, onBehalf common.Address) (Call, error)
	Withdraw(asset common.Address, amount decimal.Decimal, to common.Address) (Call, error)
	SetEMode(category uint8) (Call, error)
	DepositBorrow(deposit, borrow decimal.Decimal, sumDeposit bool) (Call, error)
	PaybackWithdraw(withdraw, repay decimal.Decimal, paybackAll, withdrawAll bool) (Call, error)
}

// ForProtocol returns the encoder for p. Ajna and MorphoBlue need the
// pool or market carried by the protocol data.
func ForProtocol(p protocol.Protocol, n *network.Network, data *protocol.Data) (Lending, error) {
	switch p {
	case protocol.AaveV2, protocol.AaveV3, protocol.Spark:
		key, err := p.NetworkKey()
		if err != nil {
			return nil, err
		}
		addrs, err := n.AaveLikeAddresses(key)
		if err != nil {
			return nil, err
		}
		return AaveLike{Pool: addrs.Pool}, nil
	case protocol.Ajna:
		if data == nil || data.Ajna == nil {
			return nil, fmt.Errorf("%w: ajna pool", protocol.ErrProtocolDataUnavailable)
		}
		return Ajna{Pool: data.Ajna.Pool, Price: data.Ajna.LowestUtilizedPrice}, nil
	case protocol.MorphoBlue:
		if data == nil || data.Morpho == nil {
			return nil, fmt.Errorf("%w: morpho market", protocol.ErrProtocolDataUnavailable)
		}
		if n.MorphoBlue == nil {
			return nil, fmt.Errorf("%w: morphoBlue on %s", network.ErrNotDeployed, n.Name)
		}
		return Morpho{Morpho: n.MorphoBlue.Morpho, Market: *data.Morpho}, nil
	default:
		return nil, fmt.Errorf("%w: %d", protocol.ErrUnsupportedProtocol, int(p))
	}
}

// AaveLike encodes Aave v2, Aave v3 and Spark pool calls
type AaveLike struct {
	Pool common.Address
}

type AaveDepositArgs struct {
	Asset           common.Address
	Amount          *big.Int
	SumAmounts      bool
	SetAsCollateral bool
}

type AaveBorrowArgs struct {
	Asset  common.Address
	Amount *big.Int
	To     common.Address
}

type AavePaybackArgs struct {
	Asset      common.Address
	Amount     *big.Int
	PaybackAll bool
	OnBehalf   common.Address
}

type SetEModeArgs struct {
	CategoryId uint8
}

func (a AaveLike) Spender() common.Address { return a.Pool }

func (a AaveLike) Deposit(asset common.Address, amount decimal.Decimal, sumAmounts bool) (Call, error) {
	return encode(aaveDepositArgs, 4, true, AaveDepositArgs{Asset: asset, Amount: toUint256(amount), SumAmounts: sumAmounts, SetAsCollateral: true})
}

func (a AaveLike) Borrow(asset common.Address, amount decimal.Decimal, to common.Address) (Call, error) {
	return encode(aaveBorrowArgs, 3, true, AaveBorrowArgs{Asset: asset, Amount: toUint256(amount), To: to})
}

func (a AaveLike) Payback(asset common.Address, amount decimal.Decimal, paybackAll bool, onBehalf common.Address) (Call, error) {
	return encode(aavePaybackArgs, 4, true, AavePaybackArgs{Asset: asset, Amount: toUint256(amount), PaybackAll: paybackAll, OnBehalf: onBehalf})
}

func (a AaveLike) Withdraw(asset common.Address, amount decimal.Decimal, to common.Address) (Call, error) {
	return encode(aaveWithdrawArgs, 3, true, AaveBorrowArgs{Asset: asset, Amount: toUint256(amount), To: to})
}

func (a AaveLike) SetEMode(category uint8) (Call, error) {
	return encode(setEModeArgs, 1, false, SetEModeArgs{CategoryId: category})
}

func (a AaveLike) DepositBorrow(decimal.Decimal, decimal.Decimal, bool) (Call, error) {
	return Call{}, fmt.Errorf("%w: combined deposit-borrow on aave-like pool", ErrUnsupportedAction)
}

func (a AaveLike) PaybackWithdraw(decimal.Decimal, decimal.Decimal, bool, bool) (Call, error) {
	return Call{}, fmt.Errorf("%w: combined payback-withdraw on aave-like pool", ErrUnsupportedAction)
}

// Ajna encodes calls against one Ajna pool. Price is the bucket price the
// position is drawn against, in whole quote tokens per collateral token.
type Ajna struct {
	Pool  common.Address
	Price decimal.Decimal
}

type AjnaDepositBorrowArgs struct {
	Pool              common.Address
	DepositAmount     *big.Int
	BorrowAmount      *big.Int
	SumDepositAmounts bool
	Price             *big.Int
}

type AjnaRepayWithdrawArgs struct {
	Pool           common.Address
	WithdrawAmount *big.Int
	RepayAmount    *big.Int
	PaybackAll     bool
	WithdrawAll    bool
	Price          *big.Int
}

func (a Ajna) wadPrice() *big.Int {
	return toUint256(a.Price.Shift(18))
}

func (a Ajna) Spender() common.Address { return a.Pool }

func (a Ajna) Deposit(common.Address, decimal.Decimal, bool) (Call, error) {
	return Call{}, fmt.Errorf("%w: ajna deposits go through deposit-borrow", ErrUnsupportedAction)
}

func (a Ajna) Borrow(common.Address, decimal.Decimal, common.Address) (Call, error) {
	return Call{}, fmt.Errorf("%w: ajna borrows go through deposit-borrow", ErrUnsupportedAction)
}

func (a Ajna) Payback(common.Address, decimal.Decimal, bool, common.Address) (Call, error) {
	return Call{}, fmt.Errorf("%w: ajna repayments go through repay-withdraw", ErrUnsupportedAction)
}

func (a Ajna) Withdraw(common.Address, decimal.Decimal, common.Address) (Call, error) {
	return Call{}, fmt.Errorf("%w: ajna withdrawals go through repay-withdraw", ErrUnsupportedAction)
}

func (a Ajna) SetEMode(uint8) (Call, error) {
	return Call{}, fmt.Errorf("%w: ajna has no e-mode", ErrUnsupportedAction)
}

func (a Ajna) DepositBorrow(deposit, borrow decimal.Decimal, sumDeposit bool) (Call, error) {
	return encode(ajnaDepositBorrowArgs, 5, false, AjnaDepositBorrowArgs{
		Pool:              a.Pool,
		DepositAmount:     toUint256(deposit),
		BorrowAmount:      toUint256(borrow),
		SumDepositAmounts: sumDeposit,
		Price:             a.wadPrice(),
	})
}

func (a Ajna) PaybackWithdraw(withdraw, repay decimal.Decimal, paybackAll, withdrawAll bool) (Call, error) {
	return encode(ajnaRepayWithdrawArgs, 6, true, AjnaRepayWithdrawArgs{
		Pool:           a.Pool,
		WithdrawAmount: toUint256(withdraw),
		RepayAmount:    toUint256(repay),
		PaybackAll:     paybackAll,
		WithdrawAll:    withdrawAll,
		Price:          a.wadPrice(),
	})
}

// Morpho encodes calls against one MorphoBlue market
type Morpho struct {
	Morpho common.Address
	Market protocol.MorphoMarket
}

type MarketParams struct {
	LoanToken       common.Address
	CollateralToken common.Address
	Oracle          common.Address
	Irm             common.Address
	Lltv            *big.Int
}

type MorphoDepositArgs struct {
	MarketParams MarketParams
	Amount       *big.Int
	SumAmounts   bool
}

type MorphoBorrowArgs struct {
	MarketParams MarketParams
	Amount       *big.Int
}

type MorphoPaybackArgs struct {
	MarketParams MarketParams
	Amount       *big.Int
	OnBehalf     common.Address
	PaybackAll   bool
}

type MorphoWithdrawArgs struct {
	MarketParams MarketParams
	Amount       *big.Int
	To           common.Address
}

func (m Morpho) params() MarketParams {
	lltv := m.Market.LLTV
	if lltv == nil {
		lltv = new(big.Int)
	}
	return MarketParams{
		LoanToken:       m.Market.LoanToken,
		CollateralToken: m.Market.CollateralToken,
		Oracle:          m.Market.Oracle,
		Irm:             m.Market.Irm,
		Lltv:            lltv,
	}
}

func (m Morpho) Spender() common.Address { return m.Morpho }

func (m Morpho) Deposit(_ common.Address, amount decimal.Decimal, sumAmounts bool) (Call, error) {
	return encode(morphoDepositArgs, 3, true, MorphoDepositArgs{MarketParams: m.params(), Amount: toUint256(amount), SumAmounts: sumAmounts})
}

func (m Morpho) Borrow(_ common.Address, amount decimal.Decimal, _ common.Address) (Call, error) {
	return encode(morphoBorrowArgs, 2, true, MorphoBorrowArgs{MarketParams: m.params(), Amount: toUint256(amount)})
}

func (m Morpho) Payback(_ common.Address, amount decimal.Decimal, paybackAll bool, onBehalf common.Address) (Call, error) {
	return encode(morphoPaybackArgs, 4, true, MorphoPaybackArgs{MarketParams: m.params(), Amount: toUint256(amount), OnBehalf: onBehalf, PaybackAll: paybackAll})
}

func (m Morpho) Withdraw(_ common.Address, amount decimal.Decimal, to common.Address) (Call, error) {
	return encode(morphoWithdrawArgs, 3, true, MorphoWithdrawArgs{MarketParams: m.params(), Amount: toUint256(amount), To: to})
}

func (m Morpho) SetEMode(uint8) (Call, error) {
	return Call{}, fmt.Errorf("%w: morpho blue has no e-mode", ErrUnsupportedAction)
}

func (m Morpho) DepositBorrow(decimal.Decimal, decimal.Decimal, bool) (Call, error) {
	return Call{}, fmt.Errorf("%w: combined deposit-borrow on morpho blue", ErrUnsupportedAction)
}

func (m Morpho) PaybackWithdraw(decimal.Decimal, decimal.Decimal, bool, bool) (Call, error) {
	return Call{}, fmt.Errorf("%w: combined payback-withdraw on morpho blue", ErrUnsupportedAction)
}
