package redis_a_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/test/helpers"
)

func newTestCache(t *testing.T) (ports.CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger()), mr
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	level := ports.StockLevel{
		ProductID:    uuid.New(),
		Name:         "Sparkling Water 500ml",
		Code:         "SKU-0001",
		Quantity:     40,
		MinimumStock: 10,
	}
	key := redis_a.BuildKey(redis_a.PrefixStockLevels, "page1")

	require.NoError(t, cache.Set(ctx, key, []ports.StockLevel{level}))

	var got []ports.StockLevel
	require.NoError(t, cache.Get(ctx, key, &got))
	require.Len(t, got, 1)
	assert.Equal(t, level, got[0])
}

func TestCache_Get_MissingKey(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	var dest string
	err := cache.Get(ctx, "levels:absent", &dest)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_SetWithTTL_Expires(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	key := redis_a.BuildKey(redis_a.PrefixReport, "export", "job-1")
	require.NoError(t, cache.SetWithTTL(ctx, key, "https://archive.test/report.xlsx", 100*time.Millisecond))

	var url string
	require.NoError(t, cache.Get(ctx, key, &url))
	assert.Equal(t, "https://archive.test/report.xlsx", url)

	mr.FastForward(200 * time.Millisecond)

	err := cache.Get(ctx, key, &url)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	keys := []string{"dash:summary", "dash:low-stock", "dash:recent"}
	for _, key := range keys {
		require.NoError(t, cache.Set(ctx, key, "cached"))
	}

	require.NoError(t, cache.Delete(ctx, keys...))

	for _, key := range keys {
		var dest string
		assert.ErrorIs(t, cache.Get(ctx, key, &dest), redis_a.ErrCacheMiss)
	}
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	productID := uuid.NewString()
	doomed := []string{
		"card:" + productID + ":2026-07",
		"card:" + productID + ":2026-08",
	}
	survivor := "card:" + uuid.NewString() + ":2026-08"

	for _, key := range append(doomed, survivor) {
		require.NoError(t, cache.Set(ctx, key, "card page"))
	}

	require.NoError(t, cache.DeletePattern(ctx, "card:"+productID+":*"))

	for _, key := range doomed {
		var dest string
		assert.ErrorIs(t, cache.Get(ctx, key, &dest), redis_a.ErrCacheMiss)
	}

	var kept string
	require.NoError(t, cache.Get(ctx, survivor, &kept))
	assert.Equal(t, "card page", kept)
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	fetches := 0
	fetch := func() (interface{}, error) {
		fetches++
		return map[string]int{"total_products": 12}, nil
	}

	key := redis_a.BuildKey(redis_a.PrefixDashboard, "summary")

	var first map[string]int
	require.NoError(t, cache.GetOrSet(ctx, key, &first, fetch, time.Minute))
	assert.Equal(t, 12, first["total_products"])
	assert.Equal(t, 1, fetches)

	var second map[string]int
	require.NoError(t, cache.GetOrSet(ctx, key, &second, fetch, time.Minute))
	assert.Equal(t, 12, second["total_products"])
	assert.Equal(t, 1, fetches, "second read must come from the cache")
}

func TestInvalidateStockCache(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	productID := uuid.NewString()
	seeded := map[string]string{
		"dash:summary":               "dashboard data",
		"levels:page1":               "stock levels page",
		"card:" + productID + ":all": "stock card",
		"report:operations:page1":    "should survive",
	}
	for key, value := range seeded {
		require.NoError(t, cache.Set(ctx, key, value))
	}

	redis_a.InvalidateStockCache(ctx, cache, helpers.TestLogger(), productID)

	for _, key := range []string{"dash:summary", "levels:page1", "card:" + productID + ":all"} {
		var dest string
		assert.ErrorIs(t, cache.Get(ctx, key, &dest), redis_a.ErrCacheMiss, "key should be invalidated: %s", key)
	}

	var kept string
	require.NoError(t, cache.Get(ctx, "report:operations:page1", &kept))
	assert.Equal(t, "should survive", kept)
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{"stock_card_key", redis_a.PrefixStockCard, []string{"123", "2026-08"}, "card:123:2026-08"},
		{"dashboard_key", redis_a.PrefixDashboard, []string{"summary", "2026"}, "dash:summary:2026"},
		{"single_part", redis_a.PrefixStockLevels, []string{"page1"}, "levels:page1"},
		{"no_parts", redis_a.PrefixReport, nil, "report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}

func TestCache_FailureLogsKeyedError(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cache := redis_a.NewCache(client, 5*time.Minute, log)

	mr.SetError("connection reset")
	require.Error(t, cache.Set(ctx, "levels:page1", "stale"))

	assert.Contains(t, logs.String(), "error=")
	assert.NotContains(t, logs.String(), "!BADKEY")
}
