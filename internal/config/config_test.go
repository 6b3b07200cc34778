package config

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvRPCURL, "http://localhost:8545")
	t.Setenv(EnvNetwork, "")
	t.Setenv(EnvCacheTTL, "")
	t.Setenv(EnvSlippage, "")
	t.Setenv(EnvOperationExecutor, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Network != "mainnet" {
		t.Errorf("expected default network mainnet, got %s", cfg.Network)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected default ttl 30s, got %s", cfg.CacheTTL)
	}
	if !cfg.Slippage.Equal(decimal.RequireFromString("0.005")) {
		t.Errorf("expected default slippage 0.005, got %s", cfg.Slippage)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvRPCURL, "http://localhost:8545")
	t.Setenv(EnvNetwork, "BASE")
	t.Setenv(EnvCacheTTL, "2m")
	t.Setenv(EnvSlippage, "0.01")
	t.Setenv(EnvOperationExecutor, "0x742d35Cc6634C0532925a3b844Bc9e7595f2b21D")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Network != "base" || cfg.CacheTTL != 2*time.Minute {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.OperationExecutor != common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f2b21D") {
		t.Errorf("unexpected executor %s", cfg.OperationExecutor.Hex())
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvRPCURL, "")
	t.Setenv(EnvSlippage, "1.5")
	t.Setenv(EnvCacheTTL, "soon")
	t.Setenv(EnvOperationExecutor, "nope")

	_, err := Load()
	if !errors.Is(err, ErrMissingEnv) {
		t.Errorf("expected ErrMissingEnv, got %v", err)
	}
	if !errors.Is(err, ErrInvalidEnv) {
		t.Errorf("expected ErrInvalidEnv, got %v", err)
	}
}
