package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PositionBalance is an amount of a token in the token's base units
type PositionBalance struct {
	Amount decimal.Decimal `json:"amount"`
	Token  Token           `json:"token"`
}

// NewBalance creates a balance
func NewBalance(token Token, amount decimal.Decimal) PositionBalance {
	return PositionBalance{Amount: amount, Token: token}
}

// Standardised returns the amount scaled to 18 decimals
func (b PositionBalance) Standardised() decimal.Decimal {
	return Standardise(b.Amount, b.Token.Precision)
}

// Normalised returns the amount in whole tokens
func (b PositionBalance) Normalised() decimal.Decimal {
	return b.Token.FromBaseUnits(b.Amount)
}

// IsNegative reports an over-withdrawn or over-repaid balance
func (b PositionBalance) IsNegative() bool {
	return b.Amount.IsNegative()
}

func (b PositionBalance) add(amount decimal.Decimal) PositionBalance {
	return PositionBalance{Amount: b.Amount.Add(amount), Token: b.Token}
}

// Category holds the risk parameters a protocol applies to a position
type Category struct {
	MaxLoanToValue       decimal.Decimal `json:"maxLoanToValue"`
	LiquidationThreshold decimal.Decimal `json:"liquidationThreshold"`
	LiquidationPenalty   decimal.Decimal `json:"liquidationPenalty"`
	// DustLimit is the minimum non-zero debt, in debt base units
	DustLimit     decimal.Decimal `json:"dustLimit"`
	EModeCategory uint8           `json:"eModeCategory,omitempty"`
}

// Position is a collateral/debt pair priced by an oracle. OraclePrice is the
// number of whole debt tokens one whole collateral token is worth.
//
// Transitions never mutate the receiver and never clamp: withdrawing or
// repaying more than the balance yields a negative balance which callers
// are expected to validate.
type Position struct {
	Collateral  PositionBalance `json:"collateral"`
	Debt        PositionBalance `json:"debt"`
	OraclePrice decimal.Decimal `json:"oraclePrice"`
	Category    Category        `json:"category"`
}

// NewPosition creates a position
func NewPosition(debt, collateral PositionBalance, oraclePrice decimal.Decimal, category Category) Position {
	return Position{
		Collateral:  collateral,
		Debt:        debt,
		OraclePrice: oraclePrice,
		Category:    category,
	}
}

// EmptyPosition creates a position with zero balances, used before opening
func EmptyPosition(debtToken, collateralToken Token, oraclePrice decimal.Decimal, category Category) Position {
	return NewPosition(NewBalance(debtToken, decimal.Zero), NewBalance(collateralToken, decimal.Zero), oraclePrice, category)
}

func checkAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}
	return nil
}

// Deposit adds collateral
func (p Position) Deposit(amount decimal.Decimal) (Position, error) {
	if err := checkAmount(amount); err != nil {
		return p, err
	}
	p.Collateral = p.Collateral.add(amount)
	return p, nil
}

// Withdraw removes collateral
func (p Position) Withdraw(amount decimal.Decimal) (Position, error) {
	if err := checkAmount(amount); err != nil {
		return p, err
	}
	p.Collateral = p.Collateral.add(amount.Neg())
	return p, nil
}

// Borrow adds debt
func (p Position) Borrow(amount decimal.Decimal) (Position, error) {
	if err := checkAmount(amount); err != nil {
		return p, err
	}
	p.Debt = p.Debt.add(amount)
	return p, nil
}

// Payback removes debt
func (p Position) Payback(amount decimal.Decimal) (Position, error) {
	if err := checkAmount(amount); err != nil {
		return p, err
	}
	p.Debt = p.Debt.add(amount.Neg())
	return p, nil
}

// WithPrice returns the position repriced
func (p Position) WithPrice(price decimal.Decimal) Position {
	p.OraclePrice = price
	return p
}

// IsEmpty reports a position with neither collateral nor debt
func (p Position) IsEmpty() bool {
	return p.Collateral.Amount.IsZero() && p.Debt.Amount.IsZero()
}

// CollateralValue is the collateral expressed in whole debt tokens
func (p Position) CollateralValue() decimal.Decimal {
	return p.Collateral.Normalised().Mul(p.OraclePrice)
}

// RiskRatio returns the current loan-to-value
func (p Position) RiskRatio() RiskRatio {
	debt := p.Debt.Standardised()
	collateral := p.Collateral.Standardised().Mul(p.OraclePrice)
	if collateral.Sign() <= 0 {
		if debt.Sign() > 0 {
			return RiskRatio{Infinite: true}
		}
		return NewRiskRatio(decimal.Zero)
	}
	return NewRiskRatio(Div(debt, collateral))
}

// MaxRiskRatio is the highest ratio the category allows for new borrowing
func (p Position) MaxRiskRatio() RiskRatio {
	return NewRiskRatio(p.Category.MaxLoanToValue)
}

// MinRiskRatio is the lowest ratio at which the debt stays above the dust
// limit, never above MaxRiskRatio.
func (p Position) MinRiskRatio() RiskRatio {
	value := p.CollateralValue()
	if value.Sign() <= 0 || p.Category.DustLimit.IsZero() {
		return NewRiskRatio(decimal.Zero)
	}
	ltv := Div(p.Debt.Token.FromBaseUnits(p.Category.DustLimit), value)
	if ltv.GreaterThan(p.Category.MaxLoanToValue) {
		ltv = p.Category.MaxLoanToValue
	}
	return NewRiskRatio(ltv)
}

// LiquidationPrice is the oracle price at which the position reaches its
// liquidation threshold. Zero when there is nothing to liquidate.
func (p Position) LiquidationPrice() decimal.Decimal {
	denominator := p.Collateral.Standardised().Mul(p.Category.LiquidationThreshold)
	if denominator.Sign() <= 0 || p.Debt.Amount.Sign() <= 0 {
		return decimal.Zero
	}
	return Div(p.Debt.Standardised(), denominator)
}

// NetValue is collateral value minus debt, in whole debt tokens
func (p Position) NetValue() decimal.Decimal {
	return p.CollateralValue().Sub(p.Debt.Normalised())
}

// BuyingPower is the debt the collateral supports at max LTV, in debt base units
func (p Position) BuyingPower() decimal.Decimal {
	return p.Debt.Token.ToBaseUnits(p.CollateralValue().Mul(p.Category.MaxLoanToValue))
}

// DebtAvailable is the additional debt that can be borrowed at max LTV, in
// debt base units.
func (p Position) DebtAvailable() decimal.Decimal {
	return p.DebtAvailableFor(p.Collateral.Amount, p.Debt.Amount)
}

// DebtAvailableFor computes DebtAvailable for hypothetical balances
func (p Position) DebtAvailableFor(collateral, debt decimal.Decimal) decimal.Decimal {
	value := p.Collateral.Token.FromBaseUnits(collateral).Mul(p.OraclePrice)
	limit := value.Mul(p.Category.MaxLoanToValue)
	available := limit.Sub(p.Debt.Token.FromBaseUnits(debt))
	if available.Sign() <= 0 {
		return decimal.Zero
	}
	return p.Debt.Token.ToBaseUnits(available)
}

// MaxCollateralWithdrawable is the collateral that can leave the position
// while the remaining debt stays within max LTV, in collateral base units.
func (p Position) MaxCollateralWithdrawable() decimal.Decimal {
	if p.Collateral.Amount.Sign() <= 0 {
		return decimal.Zero
	}
	if p.Debt.Amount.Sign() <= 0 {
		return p.Collateral.Amount
	}
	backing := Div(p.Debt.Normalised(), p.OraclePrice.Mul(p.Category.MaxLoanToValue))
	required := p.Collateral.Token.ToBaseUnits(backing)
	if p.Collateral.Token.FromBaseUnits(required).LessThan(backing) {
		required = required.Add(one)
	}
	free := p.Collateral.Amount.Sub(required)
	if free.Sign() <= 0 {
		return decimal.Zero
	}
	return free
}

// PnL is the return on the net deposits (in whole debt tokens) given the
// current net value.
func (p Position) PnL(deposited, withdrawn decimal.Decimal) decimal.Decimal {
	if deposited.Sign() <= 0 {
		return decimal.Zero
	}
	return Div(p.NetValue().Add(withdrawn).Sub(deposited), deposited)
}

func (p Position) String() string {
	return fmt.Sprintf("%s %s / %s %s @ %s",
		p.Collateral.Normalised(), p.Collateral.Token.Symbol,
		p.Debt.Normalised(), p.Debt.Token.Symbol,
		p.OraclePrice)
}
