// internal/adapters/redis_adapter/cache.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CacheKeyPrefix namespaces the derived read views kept in Redis.
type CacheKeyPrefix string

const (
	PrefixDashboard   CacheKeyPrefix = "dash"
	PrefixStockLevels CacheKeyPrefix = "levels"
	PrefixStockCard   CacheKeyPrefix = "card"
	PrefixReport      CacheKeyPrefix = "report"
)

// BuildKey joins a prefix and key parts with colons.
func BuildKey(prefix CacheKeyPrefix, parts ...string) string {
	if len(parts) == 0 {
		return string(prefix)
	}
	return string(prefix) + ":" + strings.Join(parts, ":")
}

// Cache stores JSON-encoded values in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.CacheRepository = (*Cache)(nil)

// NewCache wraps a Redis client with the default TTL applied by Set.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) ports.CacheRepository {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Set stores a value under the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value under the given TTL.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to set cache",
			slog.String("key", key),
			slog.Any("error", err))
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Get loads the value at key into dest, returning ErrCacheMiss when absent.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get cache",
			slog.String("key", key),
			slog.Any("error", err))
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete cache keys",
			slog.Any("keys", keys),
			slog.Any("error", err))
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeletePattern removes every key matching a glob pattern, scanning
// incrementally so large keyspaces do not block the server.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.Delete(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to scan cache keys",
			slog.String("pattern", pattern),
			slog.Any("error", err))
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}

	return c.Delete(ctx, batch...)
}

// GetOrSet returns the cached value for key, or populates it from fetch
// under the given TTL on a miss. A failed cache write after a successful
// fetch is logged and swallowed so read paths stay available.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{},
	fetch func() (interface{}, error), ttl time.Duration) error {

	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	value, err := fetch()
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}

	if err := c.SetWithTTL(ctx, key, value, ttl); err != nil {
		c.logger.WarnContext(ctx, "failed to cache fetched value",
			slog.String("key", key),
			slog.Any("error", err))
	}

	// Round-trip through JSON so dest sees the same shape a cache hit gives.
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal fetched value for %s: %w", key, err)
	}
	return json.Unmarshal(data, dest)
}

// InvalidateStockCache drops every derived read view after stock changed:
// dashboard blocks, stock level pages and the touched products' stock cards.
func InvalidateStockCache(ctx context.Context, cache ports.CacheRepository, logger *slog.Logger, productIDs ...string) {
	patterns := []string{
		string(PrefixDashboard) + ":*",
		string(PrefixStockLevels) + ":*",
	}
	for _, id := range productIDs {
		patterns = append(patterns, fmt.Sprintf("%s:%s*", PrefixStockCard, id))
	}

	for _, pattern := range patterns {
		if err := cache.DeletePattern(ctx, pattern); err != nil {
			logger.WarnContext(ctx, "failed to invalidate cache pattern",
				slog.String("pattern", pattern),
				slog.Any("error", err))
		}
	}
}
