package network

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/dma-sdk/pkg/types"
)

func TestLoad_Mainnet(t *testing.T) {
	n, err := Load("mainnet")
	if err != nil {
		t.Fatalf("failed to load mainnet: %v", err)
	}
	if n.ChainID != 1 {
		t.Errorf("expected chain id 1, got %d", n.ChainID)
	}

	usdc, err := n.Token("usdc")
	if err != nil {
		t.Fatalf("failed to resolve USDC: %v", err)
	}
	if usdc.Precision != 6 || usdc.Address != common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48") {
		t.Errorf("unexpected USDC entry: %+v", usdc)
	}

	dai, err := n.Flashloan()
	if err != nil {
		t.Fatalf("failed to resolve flashloan token: %v", err)
	}
	if n.FlashloanProviderFor(dai) != DssFlash {
		t.Error("expected DssFlash for DAI on mainnet")
	}
	if n.FlashloanProviderFor(usdc) != Balancer {
		t.Error("expected Balancer for USDC")
	}

	if _, ok := n.MorphoBlue.Markets["WSTETH/WETH"]; !ok {
		t.Error("expected WSTETH/WETH morpho market")
	}
	if _, err := n.AaveLikeAddresses("spark"); err != nil {
		t.Errorf("expected spark addresses: %v", err)
	}
}

func TestLoad_Base(t *testing.T) {
	n, err := Load("base")
	if err != nil {
		t.Fatalf("failed to load base: %v", err)
	}
	usdc, _ := n.Flashloan()
	if n.FlashloanProviderFor(usdc) != Balancer {
		t.Error("expected Balancer on base")
	}
	if _, err := n.AaveLikeAddresses("aaveV2"); !errors.Is(err, ErrNotDeployed) {
		t.Errorf("expected ErrNotDeployed, got %v", err)
	}
}

func TestLoad_Unknown(t *testing.T) {
	if _, err := Load("atlantis"); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("expected ErrUnknownNetwork, got %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	doc := []byte(`
name: broken
wrappedNative: WETH
flashloanToken: DAI
tokens:
  WETH: { precision: 99, address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2" }
`)
	_, err := Parse(doc)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected missing DAI to be reported, got %v", err)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	want := map[string]bool{"base": true, "mainnet": true, "sepolia": true}
	for _, n := range names {
		delete(want, n)
	}
	if len(want) != 0 {
		t.Errorf("missing embedded networks: %v (have %v)", want, names)
	}
}

func TestLoad_AllEmbedded(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			n, err := Load(name)
			if err != nil {
				t.Fatalf("failed to load %s: %v", name, err)
			}
			if n.ChainID == 0 {
				t.Errorf("%s has no chain id", name)
			}
			if _, err := n.Wrapped(); err != nil {
				t.Errorf("%s wrapped native: %v", name, err)
			}
		})
	}
}

func TestLoad_MainnetExecutor(t *testing.T) {
	n, err := Load("mainnet")
	if err != nil {
		t.Fatalf("failed to load mainnet: %v", err)
	}
	want := common.HexToAddress("0xcA71C36D26e75E8A5D6Db29a39a7c3Ee8Bf9Ce55")
	if n.OperationExecutor != want {
		t.Errorf("expected executor %s, got %s", want.Hex(), n.OperationExecutor.Hex())
	}
}

func TestTokenByAddress(t *testing.T) {
	n, err := Load("mainnet")
	if err != nil {
		t.Fatalf("failed to load mainnet: %v", err)
	}
	tok, err := n.TokenByAddress(common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0"))
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if tok.Symbol != "WSTETH" {
		t.Errorf("expected WSTETH, got %s", tok.Symbol)
	}
	if !n.IsWrappedNative(mustToken(t, n, "WETH")) {
		t.Error("expected WETH to be the wrapped native token")
	}
}

func mustToken(t *testing.T, n *Network, symbol string) types.Token {
	t.Helper()
	tk, err := n.Token(symbol)
	if err != nil {
		t.Fatalf("token %s: %v", symbol, err)
	}
	return tk
}
