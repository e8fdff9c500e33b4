package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NoopCache{}

	require.NoError(t, c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var out map[string]int
	found, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// port 1 is never served in the test environment
	_, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1", Prefix: "test:"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestRedisCache_ErrorsNameTheKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(client, "flight-search:")
	defer c.Close()

	ctx := context.Background()

	var dest struct{}
	found, err := c.GetJSON(ctx, "MXP-FCO", &dest)
	assert.False(t, found)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read cache key MXP-FCO")

	err = c.SetJSON(ctx, "MXP-FCO", dest, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write cache key MXP-FCO")

	err = c.SetJSON(ctx, "bad", make(chan int), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode cache value")
}
