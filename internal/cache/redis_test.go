package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		CacheTTL:     time.Minute,
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := []models.Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "figma"}}
	require.NoError(t, cache.Set(ctx, KeyTags, expected))

	var actual []models.Tag
	found, err := cache.Get(ctx, KeyTags, &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestSetUsesTTL(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Set(context.Background(), KeyResource(5), models.Resource{ID: 5}))

	assert.Equal(t, time.Minute, mr.TTL(KeyResource(5)))
	mr.FastForward(2 * time.Minute)
	var out models.Resource
	found, err := cache.Get(context.Background(), KeyResource(5), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.Resource
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, KeyTags, []models.Tag{}))
	require.NoError(t, cache.Invalidate(ctx, KeyTags))
	require.NoError(t, cache.Invalidate(ctx))

	var out []models.Tag
	found, err := cache.Get(ctx, KeyTags, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidatePrefix(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	for i := int64(0); i < 250; i++ {
		require.NoError(t, cache.Set(ctx, KeyResource(i), i))
	}
	require.NoError(t, cache.Set(ctx, KeyResourceList("page=1"), []int{1}))
	require.NoError(t, mr.Set("session:keep", "1"))

	require.NoError(t, cache.InvalidatePrefix(ctx, CatalogPrefix))

	assert.Equal(t, []string{"session:keep"}, mr.Keys())
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)

	err := cache.Db.Set(context.Background(), "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out models.Tag
	found, err := cache.Get(context.Background(), "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}
