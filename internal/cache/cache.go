// Package cache provides a small read-through cache on top of Redis.
//
// The cache is strictly optional: every operation degrades to a no-op or a miss
// when Redis is unavailable, so callers never have to branch on cache errors.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/log"
)

// Cache wraps a Redis client with JSON serialization and a default TTL
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

// New creates a new cache instance. A nil client produces a cache where every
// read misses and every write is discarded.
func New(client *redis.Client, ttl time.Duration, logger *logrus.Entry) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Key builds a cache key for a paginated listing of the given entity.
// Filter values are appended in the order given, so callers have to pass them
// in a stable order for the key to be deterministic.
func Key(entity string, page, limit uint, filters ...string) string {
	parts := []string{entity, fmt.Sprintf("page=%d", page), fmt.Sprintf("limit=%d", limit)}
	for _, f := range filters {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ":")
}

// ListPattern returns the key pattern matching all cached listings of the given entity
func ListPattern(entity string) string {
	return entity + ":*"
}

// Get loads the value stored under the given key into dest. The second return
// value reports whether the key was found. Lookup errors count as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithField(log.FldCacheKey, key).Warnf("Cache lookup failed: %v", err)
		}
		return false, nil
	}
	if err = json.Unmarshal(data, dest); err != nil {
		c.logger.WithField(log.FldCacheKey, key).Warnf("Failed to decode cached value: %v", err)
		return false, nil
	}
	return true, nil
}

// Set stores the given value under the given key using the cache's default TTL.
// Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithField(log.FldCacheKey, key).Warnf("Failed to encode value for caching: %v", err)
		return
	}
	if err = c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithField(log.FldCacheKey, key).Warnf("Failed to write cache entry: %v", err)
	}
}

// Invalidate removes all keys matching the given pattern. Failures are logged
// and swallowed - a stale entry will simply expire via its TTL.
func (c *Cache) Invalidate(ctx context.Context, pattern string) {
	if c == nil || c.client == nil {
		return
	}
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		c.logger.WithField(log.FldCacheKey, pattern).Warnf("Failed to look up cache keys: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err = c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithField(log.FldCacheKey, pattern).Warnf("Failed to invalidate cache entries: %v", err)
	}
}

// Ping checks the connection to the Redis server
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("no redis client configured")
	}
	return c.client.Ping(ctx).Err()
}

// Enabled reports whether the cache has a Redis client attached
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}
