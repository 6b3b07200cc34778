package protocol

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/types"
)

func TestParse(t *testing.T) {
	tests := map[string]Protocol{
		"aave-v2":     AaveV2,
		"AaveV3":      AaveV3,
		"spark":       Spark,
		"Ajna":        Ajna,
		"morpho_blue": MorphoBlue,
	}
	for in, want := range tests {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := Parse("compound"); !errors.Is(err, ErrUnsupportedProtocol) {
		t.Errorf("expected ErrUnsupportedProtocol, got %v", err)
	}
}

func TestResolveKeyConfig(t *testing.T) {
	for _, p := range All {
		if _, err := ResolveKeyConfig(p); err != nil {
			t.Errorf("%s: %v", p, err)
		}
		if _, err := p.OperationPrefix(); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
	kc, _ := ResolveKeyConfig(AaveV3)
	if kc.Protocol != "aave" || kc.Version != "v3" {
		t.Errorf("unexpected key config %+v", kc)
	}
	if _, err := ResolveKeyConfig(Protocol(42)); !errors.Is(err, ErrUnsupportedProtocol) {
		t.Errorf("expected ErrUnsupportedProtocol, got %v", err)
	}
}

func TestProtocol_Families(t *testing.T) {
	if !Spark.IsAaveLike() || Ajna.IsAaveLike() {
		t.Error("unexpected aave-like classification")
	}
	if !AaveV3.SupportsEMode() || AaveV2.SupportsEMode() || MorphoBlue.SupportsEMode() {
		t.Error("unexpected e-mode classification")
	}
}

func TestData_OraclePrice(t *testing.T) {
	coll, debt := decimal.NewFromInt(3000), decimal.NewFromInt(1)
	d := &Data{CollateralPrice: &coll, DebtPrice: &debt}

	price, err := d.OraclePrice()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("expected 3000, got %s", price)
	}

	if err := d.Validate(true); !errors.Is(err, ErrProtocolDataUnavailable) {
		t.Errorf("expected missing flashloan price to fail, got %v", err)
	}
	d.DebtPrice = nil
	if _, err := d.OraclePrice(); !errors.Is(err, ErrProtocolDataUnavailable) {
		t.Errorf("expected ErrProtocolDataUnavailable, got %v", err)
	}
}

func TestData_CategoryAppliesEMode(t *testing.T) {
	d := &Data{
		Collateral: ReserveData{MaxLoanToValue: decimal.RequireFromString("0.8"), LiquidationThreshold: decimal.RequireFromString("0.825")},
		EMode:      &EMode{Category: 1, MaxLoanToValue: decimal.RequireFromString("0.93"), LiquidationThreshold: decimal.RequireFromString("0.95")},
	}
	c := d.Category()
	if !c.MaxLoanToValue.Equal(decimal.RequireFromString("0.93")) || c.EModeCategory != 1 {
		t.Errorf("expected e-mode parameters, got %+v", c)
	}
	d.EMode.Category = 0
	if !d.Category().MaxLoanToValue.Equal(decimal.RequireFromString("0.8")) {
		t.Error("expected reserve parameters when e-mode is off")
	}
}

type stubResolver struct{ name string }

func (s stubResolver) GetCurrentPosition(context.Context, PositionQuery) (*types.Position, error) {
	return &types.Position{Collateral: types.PositionBalance{Token: types.Token{Symbol: s.name}}}, nil
}

func (s stubResolver) GetProtocolData(context.Context, DataQuery) (*Data, error) {
	return &Data{}, nil
}

func TestRouter(t *testing.T) {
	r := &Router{AaveLike: stubResolver{"aave"}, MorphoBlue: stubResolver{"morpho"}}

	pos, err := r.GetCurrentPosition(context.Background(), PositionQuery{Protocol: Spark})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Collateral.Token.Symbol != "aave" {
		t.Errorf("spark should route to the aave-like resolver, got %s", pos.Collateral.Token.Symbol)
	}
	if _, err := r.GetProtocolData(context.Background(), DataQuery{Protocol: Ajna}); !errors.Is(err, ErrUnsupportedProtocol) {
		t.Errorf("expected missing ajna resolver to fail, got %v", err)
	}
	if _, err := r.GetProtocolData(context.Background(), DataQuery{Protocol: Protocol(9)}); !errors.Is(err, ErrUnsupportedProtocol) {
		t.Errorf("expected unknown protocol to fail, got %v", err)
	}
}
