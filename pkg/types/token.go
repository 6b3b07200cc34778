package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// StandardPrecision is the precision every amount is scaled to before
// amounts of different tokens are combined.
const StandardPrecision = 18

// MaxPrecision bounds the decimals a token may declare.
const MaxPrecision = 36

// NativeAddress marks the chain's gas asset.
var NativeAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

var (
	ErrInvalidPrecision = errors.New("invalid token precision")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Token is an immutable description of an ERC-20 (or the gas asset).
// A zero Address means the address is not known.
type Token struct {
	Symbol    string         `json:"symbol" yaml:"symbol"`
	Precision int            `json:"precision" yaml:"precision"`
	Address   common.Address `json:"address,omitempty" yaml:"address"`
}

// NewToken creates a token after validating its precision
func NewToken(symbol string, precision int, address common.Address) (Token, error) {
	t := Token{Symbol: symbol, Precision: precision, Address: address}
	if err := t.Validate(); err != nil {
		return Token{}, err
	}
	return t, nil
}

// Validate checks the token precision
func (t Token) Validate() error {
	if t.Precision < 0 || t.Precision > MaxPrecision {
		return fmt.Errorf("%w: %s has %d decimals", ErrInvalidPrecision, t.Symbol, t.Precision)
	}
	return nil
}

// HasAddress reports whether the token address is known
func (t Token) HasAddress() bool {
	return t.Address != (common.Address{})
}

// IsNative reports whether the token is the gas asset
func (t Token) IsNative() bool {
	return t.Address == NativeAddress
}

// Equal compares by address when both are known, by symbol otherwise
func (t Token) Equal(other Token) bool {
	if t.HasAddress() && other.HasAddress() {
		return t.Address == other.Address
	}
	return strings.EqualFold(t.Symbol, other.Symbol)
}

// ToBaseUnits converts a whole-token amount to base units, truncating
// anything below one base unit.
func (t Token) ToBaseUnits(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(int32(t.Precision)).Truncate(0)
}

// FromBaseUnits converts a base-unit amount to whole tokens
func (t Token) FromBaseUnits(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(-int32(t.Precision))
}

// Amount parses a human readable amount ("1.5") into base units
func (t Token) Amount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return t.ToBaseUnits(d), nil
}

// MustAmount is Amount for constants and tests
func (t Token) MustAmount(value string) decimal.Decimal {
	d, err := t.Amount(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (t Token) String() string {
	return t.Symbol
}
