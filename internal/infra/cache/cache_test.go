package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisIdempotencyStore(client, "")
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "evt-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)
	assert.True(t, mr.Exists(defaultIdempotencyPrefix+"evt-1"))

	mr.FastForward(time.Hour + time.Second)
	expired, err := store.MarkProcessed(ctx, "evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, expired)

	require.NoError(t, store.Forget(ctx, "evt-1"))
	afterForget, err := store.MarkProcessed(ctx, "evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, afterForget)
}

func TestRedisIdempotencyStore_ConnectionError(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisIdempotencyStore(client, "p:")
	mr.Close()

	_, err := store.MarkProcessed(context.Background(), "evt-1", time.Minute)
	assert.Error(t, err)
}

func TestMemoryIdempotencyStore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryIdempotencyStore()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := store.MarkProcessed(ctx, "a", time.Minute)
	assert.True(t, ok)
	ok, _ = store.MarkProcessed(ctx, "a", time.Minute)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, _ = store.MarkProcessed(ctx, "a", time.Minute)
	assert.True(t, ok, "mark expires after ttl")

	require.NoError(t, store.Forget(ctx, "a"))
	ok, _ = store.MarkProcessed(ctx, "a", time.Minute)
	assert.True(t, ok)
}

func TestRedisJSONCache(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisJSONCache(client, "cj:")
	ctx := context.Background()

	var out map[string]string
	hit, err := c.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "categories", map[string]string{"name": "Camera"}, time.Minute))
	assert.True(t, mr.Exists("cj:categories"))

	hit, err = c.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Camera", out["name"])

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisJSONCache_CorruptValue(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisJSONCache(client, "")
	require.NoError(t, mr.Set("bad", "{not json"))

	var out map[string]any
	hit, err := c.Get(context.Background(), "bad", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient(context.Background(), "::not a url")
	assert.Error(t, err)
}

func TestNopCache(t *testing.T) {
	var c JSONCache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "categories", []string{"phones"}, time.Minute))

	var out []string
	hit, err := c.Get(ctx, "categories", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, out)
}
