package protocol

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/types"
)

var (
	ErrProtocolDataUnavailable = errors.New("protocol data unavailable")
	ErrPositionNotFound        = errors.New("position not found")
)

// ReserveData is the per-asset state of a lending market. Ratios are
// fractions; AvailableLiquidity is in the asset's base units.
type ReserveData struct {
	MaxLoanToValue       decimal.Decimal `json:"maxLoanToValue"`
	LiquidationThreshold decimal.Decimal `json:"liquidationThreshold"`
	LiquidationPenalty   decimal.Decimal `json:"liquidationPenalty"`
	AvailableLiquidity   decimal.Decimal `json:"availableLiquidity"`
}

// EMode holds efficiency-mode parameters that override the collateral
// reserve's risk parameters.
type EMode struct {
	Category             uint8           `json:"category"`
	MaxLoanToValue       decimal.Decimal `json:"maxLoanToValue"`
	LiquidationThreshold decimal.Decimal `json:"liquidationThreshold"`
	LiquidationPenalty   decimal.Decimal `json:"liquidationPenalty"`
}

// MorphoMarket is a MorphoBlue market's immutable parameters
type MorphoMarket struct {
	ID              common.Hash    `json:"id"`
	LoanToken       common.Address `json:"loanToken"`
	CollateralToken common.Address `json:"collateralToken"`
	Oracle          common.Address `json:"oracle"`
	Irm             common.Address `json:"irm"`
	LLTV            *big.Int       `json:"lltv"`
}

// AjnaPool is the Ajna pool state needed to build calls
type AjnaPool struct {
	Pool common.Address `json:"pool"`
	// LowestUtilizedPrice in whole quote tokens per collateral token
	LowestUtilizedPrice decimal.Decimal `json:"lowestUtilizedPrice"`
}

// Data is the protocol state a strategy needs. Prices share one base
// currency per resolver; a nil price means the value could not be read.
type Data struct {
	Protocol        Protocol         `json:"protocol"`
	CollateralPrice *decimal.Decimal `json:"collateralPrice"`
	DebtPrice       *decimal.Decimal `json:"debtPrice"`
	FlashloanPrice  *decimal.Decimal `json:"flashloanPrice"`
	Collateral      ReserveData      `json:"collateral"`
	Debt            ReserveData      `json:"debt"`
	Flashloan       ReserveData      `json:"flashloan"`
	EMode           *EMode           `json:"eMode,omitempty"`
	// DustLimit is the minimum debt in debt base units
	DustLimit decimal.Decimal `json:"dustLimit"`
	Morpho    *MorphoMarket   `json:"morpho,omitempty"`
	Ajna      *AjnaPool       `json:"ajna,omitempty"`
}

// Validate fails when a required price is missing
func (d *Data) Validate(needFlashloanPrice bool) error {
	var errs []error
	if d.CollateralPrice == nil || d.CollateralPrice.Sign() <= 0 {
		errs = append(errs, fmt.Errorf("%w: collateral price", ErrProtocolDataUnavailable))
	}
	if d.DebtPrice == nil || d.DebtPrice.Sign() <= 0 {
		errs = append(errs, fmt.Errorf("%w: debt price", ErrProtocolDataUnavailable))
	}
	if needFlashloanPrice && (d.FlashloanPrice == nil || d.FlashloanPrice.Sign() <= 0) {
		errs = append(errs, fmt.Errorf("%w: flashloan asset price", ErrProtocolDataUnavailable))
	}
	return errors.Join(errs...)
}

// OraclePrice is the collateral price in whole debt tokens
func (d *Data) OraclePrice() (decimal.Decimal, error) {
	if err := d.Validate(false); err != nil {
		return decimal.Zero, err
	}
	return types.Div(*d.CollateralPrice, *d.DebtPrice), nil
}

// Category builds the position category, applying e-mode when active
func (d *Data) Category() types.Category {
	c := types.Category{
		MaxLoanToValue:       d.Collateral.MaxLoanToValue,
		LiquidationThreshold: d.Collateral.LiquidationThreshold,
		LiquidationPenalty:   d.Collateral.LiquidationPenalty,
		DustLimit:            d.DustLimit,
	}
	if d.EMode != nil && d.EMode.Category > 0 {
		c.MaxLoanToValue = d.EMode.MaxLoanToValue
		c.LiquidationThreshold = d.EMode.LiquidationThreshold
		c.LiquidationPenalty = d.EMode.LiquidationPenalty
		c.EModeCategory = d.EMode.Category
	}
	return c
}

// PriceOf converts an amount of one token into another using the resolver's
// shared base currency.
func PriceOf(from, to *decimal.Decimal) (decimal.Decimal, error) {
	if from == nil || to == nil || to.Sign() <= 0 {
		return decimal.Zero, ErrProtocolDataUnavailable
	}
	return types.Div(*from, *to), nil
}
