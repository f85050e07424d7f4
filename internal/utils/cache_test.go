package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCacheRoundTripAndTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	type page struct {
		Items []int `json:"items"`
	}
	require.NoError(t, SetCache(ctx, rdb, "k", page{Items: []int{1, 2}}, CacheTTL))

	var got page
	found, err := GetCache(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{1, 2}, got.Items)

	mr.FastForward(CacheTTL + time.Second)
	found, err = GetCache(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteCacheByPrefix(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	for _, k := range []string{"assets:a", "assets:b", "banners:x"} {
		require.NoError(t, SetCache(ctx, rdb, k, 1, time.Minute))
	}

	require.NoError(t, DeleteCacheByPrefix(ctx, rdb, "assets:"))
	assert.False(t, mr.Exists("assets:a"))
	assert.False(t, mr.Exists("assets:b"))
	assert.True(t, mr.Exists("banners:x"))
}

func TestNilClientDisablesCache(t *testing.T) {
	ctx := context.Background()
	var dest int
	found, err := GetCache(ctx, nil, "k", &dest)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetCache(ctx, nil, "k", 1, time.Minute))
	assert.NoError(t, DeleteCache(ctx, nil, "k"))
	assert.NoError(t, DeleteCacheByPrefix(ctx, nil, "k"))
}
