package price

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/summerfi/dma-sdk/internal/adapters/chain"
	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/types"
)

const aggregatorABI = `[
	{"name":"latestRoundData","type":"function","stateMutability":"view",
	 "inputs":[],
	 "outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}]},
	{"name":"decimals","type":"function","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"uint8"}]}
]`

var aggregator = chain.MustParseABI(aggregatorABI)

// DefaultMaxAge is the oldest Chainlink answer accepted
const DefaultMaxAge = 24 * time.Hour

// Chainlink prices tokens in USD from the network's Chainlink feeds
type Chainlink struct {
	caller chain.Caller
	feeds  map[string]common.Address
	maxAge time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// ChainlinkOption configures a Chainlink oracle
type ChainlinkOption func(*Chainlink)

// WithMaxAge overrides DefaultMaxAge. Zero disables the staleness check.
func WithMaxAge(d time.Duration) ChainlinkOption {
	return func(c *Chainlink) { c.maxAge = d }
}

// NewChainlink creates an oracle over the feeds of n
func NewChainlink(caller chain.Caller, n *network.Network, log zerolog.Logger, opts ...ChainlinkOption) *Chainlink {
	c := &Chainlink{
		caller: caller,
		feeds:  make(map[string]common.Address, len(n.PriceFeeds)),
		maxAge: DefaultMaxAge,
		now:    time.Now,
		log:    log.With().Str("oracle", "chainlink").Logger(),
	}
	for symbol, feed := range n.PriceFeeds {
		c.feeds[strings.ToUpper(symbol)] = feed
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPrice returns the latest answer of the token's feed, or nil when the
// token has no feed or the answer is non-positive or stale.
func (c *Chainlink) GetPrice(ctx context.Context, token types.Token) (*decimal.Decimal, error) {
	feed, ok := c.feeds[strings.ToUpper(token.Symbol)]
	if !ok {
		return nil, nil
	}
	contract := chain.NewContract(c.caller, feed, aggregator, c.log)

	var (
		round    []interface{}
		decimals *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		round, err = contract.Call(gctx, "latestRoundData")
		return err
	})
	g.Go(func() error {
		out, err := contract.Call(gctx, "decimals")
		if err != nil {
			return err
		}
		decimals, err = chain.BigOut(out, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read %s feed: %w", token.Symbol, err)
	}

	answer, err := chain.BigOut(round, 1)
	if err != nil {
		return nil, err
	}
	if answer.Sign() <= 0 {
		return nil, nil
	}
	updatedAt, err := chain.BigOut(round, 3)
	if err != nil {
		return nil, err
	}
	if c.maxAge > 0 {
		age := c.now().Sub(time.Unix(updatedAt.Int64(), 0))
		if age > c.maxAge {
			c.log.Warn().
				Str("token", token.Symbol).
				Dur("age", age).
				Msg("Stale price feed")
			return nil, nil
		}
	}

	price := decimal.NewFromBigInt(answer, -int32(decimals.Int64()))
	return &price, nil
}
