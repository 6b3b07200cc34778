package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/internal/adapters/cache"
	"github.com/summerfi/dma-sdk/internal/adapters/chain"
	"github.com/summerfi/dma-sdk/internal/adapters/price"
	"github.com/summerfi/dma-sdk/internal/config"
	"github.com/summerfi/dma-sdk/internal/logger"
	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/registry"
	"github.com/summerfi/dma-sdk/pkg/strategy"
)

// app holds everything a strategy command needs
type app struct {
	cfg      *config.Config
	network  *network.Network
	engine   *strategy.Engine
	resolver protocol.DataResolver
	swapper  protocol.SwapProvider
	log      zerolog.Logger
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) deps(proxy, user common.Address) strategy.Dependencies {
	return strategy.Dependencies{
		Resolver: a.resolver,
		Swapper:  a.swapper,
		Proxy:    proxy,
		User:     user,
	}
}

func (a *app) slippage(flag string) (decimal.Decimal, error) {
	if flag == "" {
		return a.cfg.Slippage, nil
	}
	s, err := decimal.NewFromString(flag)
	if err != nil || s.IsNegative() || s.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("slippage %q must be a fraction in [0, 1)", flag)
	}
	return s, nil
}

// newApp loads configuration and connects the chain readers
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Initialize(cfg.LogLevel)
	log := logger.GetForComponent("simulate")

	n, err := network.Load(cfg.Network)
	if err != nil {
		return nil, err
	}
	reg, err := registry.ForNetwork(n)
	if err != nil {
		return nil, err
	}

	opts := []strategy.Option{strategy.WithLogger(logger.GetForComponent("strategy"))}
	if cfg.OperationExecutor != (common.Address{}) {
		opts = append(opts, strategy.WithExecutor(cfg.OperationExecutor))
	}
	engine, err := strategy.New(reg, n, opts...)
	if err != nil {
		return nil, err
	}

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, network: n, engine: engine, log: log, closers: []func(){client.Close}}

	chainLog := logger.GetForComponent("chain")
	oracles := price.Fallback{price.NewChainlink(client, n, logger.GetForComponent("price"))}
	if n.AaveV3 != nil {
		oracles = append(oracles, price.NewAaveOracle(client, n.AaveV3.Oracle, price.AaveV3Decimals, logger.GetForComponent("price")))
	}

	var resolver protocol.DataResolver = &protocol.Router{
		AaveLike:   chain.NewAaveLike(client, n, chainLog),
		Ajna:       chain.NewAjna(client, n, oracles, chainLog),
		MorphoBlue: chain.NewMorphoBlue(client, n, chainLog),
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		resolver, err = cache.NewResolver(resolver, rdb, n.ChainID, cfg.CacheTTL,
			cache.WithMetrics(cache.NewMetrics(prometheus.DefaultRegisterer)),
			cache.WithLogger(logger.GetForComponent("cache")),
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Debug().Dur("ttl", cfg.CacheTTL).Msg("Protocol data cache enabled")
	}

	a.resolver = resolver
	a.swapper = price.NewQuoter(oracles)

	log.Info().
		Str("network", n.Name).
		Uint64("chain_id", n.ChainID).
		Msg("Runtime ready")
	return a, nil
}
