package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RiskRatio expresses leverage as loan-to-value. Infinite is set when a
// position carries debt without collateral.
type RiskRatio struct {
	LoanToValue decimal.Decimal `json:"loanToValue"`
	Infinite    bool            `json:"infinite,omitempty"`
}

// NewRiskRatio creates a ratio from a loan-to-value fraction
func NewRiskRatio(ltv decimal.Decimal) RiskRatio {
	return RiskRatio{LoanToValue: ltv}
}

// NewRiskRatioFromMultiple creates a ratio from a leverage multiple (2 = 2x)
func NewRiskRatioFromMultiple(multiple decimal.Decimal) RiskRatio {
	if multiple.LessThanOrEqual(one) {
		return RiskRatio{LoanToValue: decimal.Zero}
	}
	return RiskRatio{LoanToValue: one.Sub(Div(one, multiple))}
}

// CollateralisationRatio is the reciprocal of loan-to-value. Zero when the
// position has no debt.
func (r RiskRatio) CollateralisationRatio() decimal.Decimal {
	if r.Infinite {
		return decimal.Zero
	}
	return Div(one, r.LoanToValue)
}

// Multiple is the leverage multiple 1 / (1 - ltv). Zero once ltv reaches 1.
func (r RiskRatio) Multiple() decimal.Decimal {
	if r.Infinite || r.LoanToValue.GreaterThanOrEqual(one) {
		return decimal.Zero
	}
	return Div(one, one.Sub(r.LoanToValue))
}

// GreaterThan compares two ratios, treating Infinite as the largest value
func (r RiskRatio) GreaterThan(other RiskRatio) bool {
	switch {
	case r.Infinite:
		return !other.Infinite
	case other.Infinite:
		return false
	default:
		return r.LoanToValue.GreaterThan(other.LoanToValue)
	}
}

func (r RiskRatio) MarshalJSON() ([]byte, error) {
	out := struct {
		LoanToValue            string `json:"loanToValue"`
		CollateralisationRatio string `json:"collateralisationRatio"`
		Multiple               string `json:"multiple"`
	}{
		LoanToValue:            r.LoanToValue.String(),
		CollateralisationRatio: r.CollateralisationRatio().String(),
		Multiple:               r.Multiple().String(),
	}
	if r.Infinite {
		out.LoanToValue = "Infinity"
	}
	return json.Marshal(out)
}
