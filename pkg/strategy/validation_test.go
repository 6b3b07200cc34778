package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/dma-sdk/pkg/types"
)

func TestValidateDust(t *testing.T) {
	f := newFixture(t)
	usdc := f.token(t, "USDC")
	pos := sizingPosition(t, f, "10", "5")
	pos.Category.DustLimit = usdc.MustAmount("10")

	d := ValidateDust(pos)
	require.Len(t, d.Errors, 1)
	assert.Equal(t, types.DustLimit, d.Errors[0].Name)
	assert.True(t, d.Errors[0].Amount().Equal(usdc.MustAmount("10")))

	pos.Debt.Amount = usdc.MustAmount("0")
	assert.False(t, ValidateDust(pos).HasErrors())
}

func TestValidateRisk(t *testing.T) {
	f := newFixture(t)

	// ltv 0.78 against max 0.8
	d := ValidateRisk(sizingPosition(t, f, "10", "15600"))
	_, ok := d.Find(types.CloseToMaxLTV)
	assert.True(t, ok)
	assert.Empty(t, d.Errors)

	// ltv 0.81 is within 3% of the 0.825 liquidation threshold
	d = ValidateRisk(sizingPosition(t, f, "10", "16200"))
	_, ok = d.Find(types.LiquidationPriceCloseToMarket)
	assert.True(t, ok)
	_, ok = d.Find(types.CloseToMaxLTV)
	assert.False(t, ok)

	d = ValidateRisk(sizingPosition(t, f, "10", "5000"))
	assert.Empty(t, d.Warnings)
}

func TestValidatePayback(t *testing.T) {
	f := newFixture(t)
	usdc := f.token(t, "USDC")
	pos := sizingPosition(t, f, "10", "1000")

	d := ValidatePayback(pos, usdc.MustAmount("1000"))
	_, ok := d.Find(types.DebtRepaidInFull)
	assert.True(t, ok)

	d = ValidatePayback(pos, usdc.MustAmount("1500"))
	require.Len(t, d.Errors, 1)
	assert.Equal(t, types.OverRepay, d.Errors[0].Name)
	assert.True(t, d.Errors[0].Amount().Equal(usdc.MustAmount("1000")))

	assert.Empty(t, ValidatePayback(pos, usdc.MustAmount("500")).Errors)
}

func TestValidateTargetRisk(t *testing.T) {
	cat := types.Category{MaxLoanToValue: dec("0.8")}
	assert.Empty(t, ValidateTargetRisk(types.NewRiskRatio(dec("0.8")), cat).Errors)

	d := ValidateTargetRisk(types.NewRiskRatio(dec("0.85")), cat)
	require.Len(t, d.Errors, 1)
	assert.Equal(t, types.TargetLTVExceedsMax, d.Errors[0].Name)
}
