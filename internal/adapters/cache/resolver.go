// Package cache decorates protocol data resolvers with a redis cache and
// prometheus metrics.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

// Store is the subset of a redis client the cache uses. *redis.Client
// satisfies it.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache results
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// Metrics counts cache lookups and times upstream resolver calls
type Metrics struct {
	lookups  *prometheus.CounterVec
	upstream *prometheus.HistogramVec
}

// NewMetrics creates and registers the resolver metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dma",
			Subsystem: "resolver_cache",
			Name:      "lookups_total",
			Help:      "Protocol data cache lookups by protocol and result.",
		}, []string{"protocol", "result"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dma",
			Subsystem: "resolver",
			Name:      "request_duration_seconds",
			Help:      "Latency of upstream resolver requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"protocol", "method"}),
	}
	if reg != nil {
		reg.MustRegister(m.lookups, m.upstream)
	}
	return m
}

// Resolver caches protocol data in redis. Positions are always read from
// the upstream resolver.
type Resolver struct {
	next    protocol.DataResolver
	store   Store
	ttl     time.Duration
	chainID uint64
	metrics *Metrics
	log     zerolog.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithMetrics records lookups and latencies on m
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the resolver logger
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// NewResolver wraps next. Keys are namespaced by chainID.
func NewResolver(next protocol.DataResolver, store Store, chainID uint64, ttl time.Duration, opts ...Option) (*Resolver, error) {
	if next == nil {
		return nil, fmt.Errorf("upstream resolver is required")
	}
	if store == nil {
		return nil, fmt.Errorf("redis store is required")
	}
	r := &Resolver{
		next:    next,
		store:   store,
		ttl:     ttl,
		chainID: chainID,
		metrics: NewMetrics(nil),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Key is the cache key of a data query
func (r *Resolver) Key(q protocol.DataQuery) string {
	return fmt.Sprintf("dma:%d:data:%s:%s:%s:%s:%s",
		r.chainID, q.Protocol, q.Collateral.Address.Hex(), q.Debt.Address.Hex(), q.Flashloan.Address.Hex(), q.Proxy.Hex())
}

func (r *Resolver) GetCurrentPosition(ctx context.Context, q protocol.PositionQuery) (*types.Position, error) {
	start := time.Now()
	pos, err := r.next.GetCurrentPosition(ctx, q)
	r.metrics.upstream.WithLabelValues(q.Protocol.String(), "position").Observe(time.Since(start).Seconds())
	return pos, err
}

// GetProtocolData serves cached data when present. Redis failures fall
// through to the upstream resolver.
func (r *Resolver) GetProtocolData(ctx context.Context, q protocol.DataQuery) (*protocol.Data, error) {
	key := r.Key(q)
	label := q.Protocol.String()

	cached, err := r.store.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		r.metrics.lookups.WithLabelValues(label, resultMiss).Inc()
	case err != nil:
		r.metrics.lookups.WithLabelValues(label, resultError).Inc()
		r.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	default:
		var data protocol.Data
		if err := json.Unmarshal([]byte(cached), &data); err != nil {
			r.metrics.lookups.WithLabelValues(label, resultError).Inc()
			r.log.Warn().Err(err).Str("key", key).Msg("Discarding malformed cache entry")
			break
		}
		r.metrics.lookups.WithLabelValues(label, resultHit).Inc()
		r.log.Debug().Str("key", key).Msg("Cache hit")
		return &data, nil
	}

	start := time.Now()
	data, err := r.next.GetProtocolData(ctx, q)
	r.metrics.upstream.WithLabelValues(label, "data").Observe(time.Since(start).Seconds())
	if err != nil || data == nil {
		return data, err
	}
	if err := data.Validate(q.Flashloan.HasAddress()); err != nil {
		r.log.Debug().Err(err).Str("key", key).Msg("Not caching incomplete protocol data")
		return data, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("Failed to encode protocol data")
		return data, nil
	}
	if err := r.store.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return data, nil
}
