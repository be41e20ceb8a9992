package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type slot struct {
	Day   int    `json:"day"`
	Start string `json:"start"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, zap.NewNop()), mr
}

func TestSetGetWithTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.Set(ctx, AvailabilityKey(3), []slot{{Day: 1, Start: "09:00"}}, AvailabilityTTL)

	var got []slot
	require.True(t, c.Get(ctx, AvailabilityKey(3), &got))
	assert.Equal(t, []slot{{Day: 1, Start: "09:00"}}, got)
	assert.Equal(t, AvailabilityTTL, mr.TTL("availability:provider:3"))

	mr.FastForward(AvailabilityTTL + time.Second)
	assert.False(t, c.Get(ctx, AvailabilityKey(3), &got))
}

func TestDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.Set(ctx, SearchKey("a"), 1, SearchTTL)
	c.Set(ctx, SearchKey("b"), 2, SearchTTL)
	c.Set(ctx, AvailabilityKey(1), 3, AvailabilityTTL)
	c.Set(ctx, AvailabilityKey(12), 4, AvailabilityTTL)

	c.DeleteByPattern(ctx, SearchPattern)
	assert.False(t, mr.Exists("search:a"))
	assert.False(t, mr.Exists("search:b"))
	assert.True(t, mr.Exists("availability:provider:1"))

	c.DeleteByPattern(ctx, AvailabilityPattern(1))
	assert.False(t, mr.Exists("availability:provider:1"))
	// provider 12 shares the prefix and is invalidated with it
	assert.False(t, mr.Exists("availability:provider:12"))
}

func TestDegradesWhenUnavailable(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	var v int
	assert.False(t, c.Get(ctx, "k", &v))
	c.Set(ctx, "k", 1, time.Minute)
	c.DeleteByPattern(ctx, "*")

	nilCache := New(nil, zap.NewNop())
	assert.False(t, nilCache.Get(ctx, "k", &v))
	nilCache.Set(ctx, "k", 1, time.Minute)
	nilCache.DeleteByPattern(ctx, "*")
}
