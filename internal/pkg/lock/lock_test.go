package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis_Acquire(t *testing.T) {
	client := newRedisClient(t)
	locker := NewRedis(client)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "generate:a@example.com", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "generate:a@example.com", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	other, err := locker.Acquire(ctx, "generate:b@example.com", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))

	again, err := locker.Acquire(ctx, "generate:a@example.com", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedis_ReleaseKeepsForeignLock(t *testing.T) {
	client := newRedisClient(t)
	locker := NewRedis(client)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "verify:x", time.Minute)
	require.NoError(t, err)

	// simulate expiry followed by a new holder
	require.NoError(t, client.Set(ctx, "lock:verify:x", "someone-else", time.Minute).Err())

	require.NoError(t, stale(ctx))
	val, err := client.Get(ctx, "lock:verify:x").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}

func TestRedis_AcquireWithoutTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	for _, ttl := range []time.Duration{0, -time.Second} {
		release, err := NewRedis(client).Acquire(context.Background(), "k", ttl)
		assert.ErrorIs(t, err, ErrInvalidTTL)
		assert.Nil(t, release)
	}
}

func TestNoop(t *testing.T) {
	release, err := NewNoop().Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	assert.NoError(t, release(context.Background()))
}
