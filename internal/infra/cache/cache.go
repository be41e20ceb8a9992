package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	AvailabilityTTL = 300 * time.Second
	SearchTTL       = 300 * time.Second
	ServiceTypesTTL = time.Hour

	ServiceTypesKey = "service_types:all"
	SearchPattern   = "search:*"
)

func AvailabilityKey(providerID uint) string {
	return fmt.Sprintf("availability:provider:%d", providerID)
}

func AvailabilityPattern(providerID uint) string {
	return AvailabilityKey(providerID) + "*"
}

func SearchKey(fingerprint string) string {
	return "search:" + fingerprint
}

// Cache is advisory: every failure reads as a miss and writes are dropped.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	DeleteByPattern(ctx context.Context, pattern string)
}

type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// New wraps client; a nil client gives a cache that always misses.
func New(client *redis.Client, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// DeleteByPattern walks the keyspace with SCAN, never KEYS.
func (c *RedisCache) DeleteByPattern(ctx context.Context, pattern string) {
	if c.client == nil {
		return
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.log.Warn("cache scan failed", zap.String("pattern", pattern), zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.log.Warn("cache delete failed", zap.String("pattern", pattern), zap.Error(err))
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

var _ Cache = (*RedisCache)(nil)
