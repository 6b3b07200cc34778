package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Environment variable names
const (
	EnvNetwork           = "DMA_NETWORK"
	EnvRPCURL            = "DMA_RPC_URL"
	EnvRedisURL          = "DMA_REDIS_URL"
	EnvCacheTTL          = "DMA_CACHE_TTL"
	EnvLogLevel          = "DMA_LOG_LEVEL"
	EnvSlippage          = "DMA_SLIPPAGE"
	EnvOperationExecutor = "DMA_OPERATION_EXECUTOR"
)

var (
	ErrMissingEnv = errors.New("missing required environment variable")
	ErrInvalidEnv = errors.New("invalid environment variable")
)

// Config holds runtime configuration for the simulate command
type Config struct {
	Network  string
	RPCURL   string
	RedisURL string
	CacheTTL time.Duration
	LogLevel string
	// Slippage is a fraction (0.005 = 0.5%)
	Slippage decimal.Decimal
	// OperationExecutor overrides the network book when set
	OperationExecutor common.Address
}

// Defaults applied when optional variables are unset
var Defaults = Config{
	Network:  "mainnet",
	CacheTTL: 30 * time.Second,
	LogLevel: "info",
	Slippage: decimal.RequireFromString("0.005"),
}

// Load reads configuration from the environment, loading .env first if present
func Load() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Defaults
	var errs []error

	if v := getEnv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(v)
	}
	cfg.RPCURL = getEnv(EnvRPCURL)
	if cfg.RPCURL == "" {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingEnv, EnvRPCURL))
	}
	cfg.RedisURL = getEnv(EnvRedisURL)
	if v := getEnv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if v := getEnv(EnvCacheTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl < 0 {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvCacheTTL, v))
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if v := getEnv(EnvSlippage); v != "" {
		s, err := decimal.NewFromString(v)
		if err != nil || s.IsNegative() || s.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			errs = append(errs, fmt.Errorf("%w: %s=%q must be a fraction in [0, 1)", ErrInvalidEnv, EnvSlippage, v))
		} else {
			cfg.Slippage = s
		}
	}

	if v := getEnv(EnvOperationExecutor); v != "" {
		if !common.IsHexAddress(v) {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvOperationExecutor, v))
		} else {
			cfg.OperationExecutor = common.HexToAddress(v)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
