package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/types"
)

type memoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (s *memoryStore) Get(_ context.Context, key string) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return redis.NewStringResult("", s.readErr)
	}
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *memoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		s.values[key] = string(v)
	case string:
		s.values[key] = v
	}
	s.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingResolver struct {
	data      *protocol.Data
	err       error
	dataCalls int
	posCalls  int
}

func (c *countingResolver) GetCurrentPosition(context.Context, protocol.PositionQuery) (*types.Position, error) {
	c.posCalls++
	return nil, nil
}

func (c *countingResolver) GetProtocolData(context.Context, protocol.DataQuery) (*protocol.Data, error) {
	c.dataCalls++
	return c.data, c.err
}

func query(t *testing.T) protocol.DataQuery {
	t.Helper()
	n, err := network.Load("mainnet")
	require.NoError(t, err)
	weth, err := n.Token("WETH")
	require.NoError(t, err)
	usdc, err := n.Token("USDC")
	require.NoError(t, err)
	return protocol.DataQuery{Protocol: protocol.AaveV3, Collateral: weth, Debt: usdc}
}

func sampleData() *protocol.Data {
	collateral := decimal.NewFromInt(2000)
	debt := decimal.NewFromInt(1)
	return &protocol.Data{
		Protocol:        protocol.AaveV3,
		CollateralPrice: &collateral,
		DebtPrice:       &debt,
		Collateral: protocol.ReserveData{
			MaxLoanToValue:       decimal.RequireFromString("0.8"),
			LiquidationThreshold: decimal.RequireFromString("0.825"),
		},
		EMode: &protocol.EMode{Category: 1, MaxLoanToValue: decimal.RequireFromString("0.9")},
	}
}

func TestResolver_CachesProtocolData(t *testing.T) {
	upstream := &countingResolver{data: sampleData()}
	store := newMemoryStore()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	r, err := NewResolver(upstream, store, 1, time.Minute, WithMetrics(metrics))
	require.NoError(t, err)
	q := query(t)

	first, err := r.GetProtocolData(context.Background(), q)
	require.NoError(t, err)
	second, err := r.GetProtocolData(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.dataCalls)
	assert.Equal(t, time.Minute, store.ttls[r.Key(q)])
	assert.Equal(t, protocol.AaveV3, second.Protocol)
	assert.True(t, second.CollateralPrice.Equal(*first.CollateralPrice))
	assert.True(t, second.Collateral.LiquidationThreshold.Equal(decimal.RequireFromString("0.825")))
	require.NotNil(t, second.EMode)
	assert.Equal(t, uint8(1), second.EMode.Category)
	assert.Nil(t, second.FlashloanPrice)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.lookups.WithLabelValues("aave-v3", resultMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.lookups.WithLabelValues("aave-v3", resultHit)))
}

func TestResolver_KeysIncludeFlashloanAndChain(t *testing.T) {
	upstream := &countingResolver{data: sampleData()}
	r, err := NewResolver(upstream, newMemoryStore(), 1, time.Minute)
	require.NoError(t, err)
	other, err := NewResolver(upstream, newMemoryStore(), 8453, time.Minute)
	require.NoError(t, err)

	q := query(t)
	withFl := q
	withFl.Flashloan = q.Debt
	assert.NotEqual(t, r.Key(q), r.Key(withFl))
	assert.NotEqual(t, r.Key(q), other.Key(q))
}

func TestResolver_StoreFailureFallsThrough(t *testing.T) {
	upstream := &countingResolver{data: sampleData()}
	store := newMemoryStore()
	store.readErr = errors.New("connection refused")
	metrics := NewMetrics(prometheus.NewRegistry())

	r, err := NewResolver(upstream, store, 1, time.Minute, WithMetrics(metrics))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := r.GetProtocolData(context.Background(), query(t))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, upstream.dataCalls)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.lookups.WithLabelValues("aave-v3", resultError)))
}

func TestResolver_MalformedEntryIsRefetched(t *testing.T) {
	upstream := &countingResolver{data: sampleData()}
	store := newMemoryStore()
	r, err := NewResolver(upstream, store, 1, time.Minute)
	require.NoError(t, err)
	q := query(t)
	store.values[r.Key(q)] = "{not json"

	data, err := r.GetProtocolData(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Equal(t, 1, upstream.dataCalls)
}

func TestResolver_UpstreamErrorsAreNotCached(t *testing.T) {
	boom := errors.New("rpc down")
	upstream := &countingResolver{err: boom}
	store := newMemoryStore()
	r, err := NewResolver(upstream, store, 1, time.Minute)
	require.NoError(t, err)

	_, err = r.GetProtocolData(context.Background(), query(t))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.values)
}

func TestResolver_IncompleteDataIsNotCached(t *testing.T) {
	data := sampleData()
	data.CollateralPrice = nil
	upstream := &countingResolver{data: data}
	store := newMemoryStore()
	r, err := NewResolver(upstream, store, 1, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := r.GetProtocolData(context.Background(), query(t))
		require.NoError(t, err)
		assert.Nil(t, got.CollateralPrice)
	}
	assert.Equal(t, 2, upstream.dataCalls)
	assert.Empty(t, store.values)

	// a flashloan query also needs the flashloan price
	upstream.data = sampleData()
	q := query(t)
	q.Flashloan = q.Debt
	_, err = r.GetProtocolData(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, store.values)
}

func TestResolver_PositionsBypassCache(t *testing.T) {
	upstream := &countingResolver{}
	store := newMemoryStore()
	r, err := NewResolver(upstream, store, 1, time.Minute)
	require.NoError(t, err)

	q := query(t)
	for i := 0; i < 2; i++ {
		_, err := r.GetCurrentPosition(context.Background(), protocol.PositionQuery{Protocol: q.Protocol, Collateral: q.Collateral, Debt: q.Debt})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, upstream.posCalls)
	assert.Empty(t, store.values)
}

func TestNewResolver_RequiresDependencies(t *testing.T) {
	_, err := NewResolver(nil, newMemoryStore(), 1, time.Minute)
	assert.Error(t, err)
	_, err = NewResolver(&countingResolver{}, nil, 1, time.Minute)
	assert.Error(t, err)
}
