package types

import "github.com/shopspring/decimal"

// DiagnosticName tags a validation outcome
type DiagnosticName string

// Errors
const (
	DustLimit                   DiagnosticName = "dust-limit"
	OverRepay                   DiagnosticName = "over-repay"
	OverWithdraw                DiagnosticName = "over-withdraw"
	BorrowUndercollateralized   DiagnosticName = "borrow-undercollateralized"
	WithdrawUndercollateralized DiagnosticName = "withdraw-undercollateralized"
	TargetLTVExceedsMax         DiagnosticName = "target-ltv-exceeds-max"
	InsufficientLiquidity       DiagnosticName = "insufficient-liquidity"
)

// Warnings
const (
	CloseToMaxLTV                 DiagnosticName = "close-to-max-ltv"
	LiquidationPriceCloseToMarket DiagnosticName = "liquidation-price-close-to-market"
)

// Notices and successes
const (
	SwapFeeWaived    DiagnosticName = "swap-fee-waived"
	EntrySwap        DiagnosticName = "entry-swap"
	DebtRepaidInFull DiagnosticName = "debt-repaid-in-full"
	PositionOpened   DiagnosticName = "position-opened"
	PositionClosed   DiagnosticName = "position-closed"
)

// Diagnostic is a structured validation outcome. Amounts in Data are base
// units of the token the diagnostic refers to.
type Diagnostic struct {
	Name DiagnosticName             `json:"name"`
	Data map[string]decimal.Decimal `json:"data,omitempty"`
}

// NewDiagnostic creates a diagnostic without data
func NewDiagnostic(name DiagnosticName) Diagnostic {
	return Diagnostic{Name: name}
}

// NewAmountDiagnostic creates a diagnostic carrying data.amount
func NewAmountDiagnostic(name DiagnosticName, amount decimal.Decimal) Diagnostic {
	return Diagnostic{Name: name, Data: map[string]decimal.Decimal{"amount": amount}}
}

// Amount returns data.amount or zero
func (d Diagnostic) Amount() decimal.Decimal {
	return d.Data["amount"]
}

// Diagnostics groups validation outcomes by severity
type Diagnostics struct {
	Errors    []Diagnostic `json:"errors"`
	Warnings  []Diagnostic `json:"warnings"`
	Notices   []Diagnostic `json:"notices"`
	Successes []Diagnostic `json:"successes"`
}

// HasErrors reports whether any error diagnostic was raised
func (d Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Find returns the first diagnostic with the given name across severities
func (d Diagnostics) Find(name DiagnosticName) (Diagnostic, bool) {
	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Notices, d.Successes} {
		for _, diag := range group {
			if diag.Name == name {
				return diag, true
			}
		}
	}
	return Diagnostic{}, false
}

// Merge appends other's diagnostics
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Notices = append(d.Notices, other.Notices...)
	d.Successes = append(d.Successes, other.Successes...)
}
