package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect/sql"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("cache down")
	}
	return c.entries[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key], c.ttls[key] = value, ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

var _ weld.Cache = (*memCache)(nil)

func TestRunCached(t *testing.T) {
	ctx := context.Background()
	stats := sql.NewStatsDriver(openShop(t))
	cache := newMemCache()
	queries := func() int64 { return stats.Stats().Snapshot().Queries }

	q := New(orders).Where(orderPrice.GT(4)).OrderByAsc("oid")
	first, err := q.RunCached(ctx, stats, cache, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 5}, oids(t, first))

	second, err := q.RunCached(ctx, stats, cache, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), queries())
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].Columns(), second[i].Columns())
		assert.Equal(t, first[i].Values(), second[i].Values())
	}
	require.Len(t, cache.entries, 1)
	for k, ttl := range cache.ttls {
		assert.True(t, strings.HasPrefix(k, "orders:select:"), k)
		assert.Equal(t, time.Minute, ttl)
	}

	t.Run("args_in_key", func(t *testing.T) {
		rows, err := New(orders).Where(orderPrice.GT(8)).OrderByAsc("oid").RunCached(ctx, stats, cache, 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{5}, oids(t, rows))
		assert.Equal(t, int64(2), queries())
	})

	t.Run("invalidate", func(t *testing.T) {
		_, err := New(orders).Where(orderID.Equal(4)).Set("price", 1.0).Update(ctx, stats)
		require.NoError(t, err)
		require.NoError(t, New(products).Invalidate(ctx, cache))
		assert.Len(t, cache.entries, 2, "other tables are kept")

		require.NoError(t, q.Invalidate(ctx, cache))
		assert.Empty(t, cache.entries)
		rows, err := q.RunCached(ctx, stats, cache, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, []int64{5}, oids(t, rows))
		assert.Equal(t, int64(3), queries())
	})

	t.Run("cache_failure", func(t *testing.T) {
		cache.failGet = true
		defer func() { cache.failGet = false }()
		rows, err := q.RunCached(ctx, stats, cache, time.Minute)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, int64(4), queries())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := New(orders).Where(Text[string]("nope").Equal("x")).RunCached(ctx, stats, cache, 0)
		require.ErrorIs(t, err, weld.ErrUnknownColumn)
		assert.Equal(t, int64(4), queries())
	})
}

func TestCacheKey(t *testing.T) {
	key := weld.CacheKey{Table: "orders", Operation: OpSelect, Dialect: "postgres", Statement: "SELECT 1", Args: []any{1}}
	assert.Equal(t, key.String(), key.String())
	assert.True(t, strings.HasPrefix(key.String(), weld.TablePrefix("orders")))

	other := key
	other.Args = []any{int64(1)}
	assert.NotEqual(t, key.String(), other.String())
	other = key
	other.Dialect = "sqlite"
	assert.NotEqual(t, key.String(), other.String())
}
