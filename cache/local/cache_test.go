package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	t.Helper()
	c := NewCache(Config{GCInterval: time.Hour})
	t.Cleanup(c.Close)
	return c
}

func TestSetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestGet_Missing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSet_TTLExpires(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	require.NoError(t, c.Del(ctx, "a", "b"))

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetNX(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", "first", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "k", "second", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := c.Get(ctx, "k")
	assert.Equal(t, "first", got)
}

func TestSetNX_AfterExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", "first", 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
	time.Sleep(30 * time.Millisecond)

	ok, err = c.SetNX(ctx, "k", "second", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpire(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Expire(ctx, "k", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, c.Expire(ctx, "missing", time.Minute), ErrNotFound)
}

func TestZAdd_ZRevRange(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "board", 3, "c"))
	require.NoError(t, c.ZAdd(ctx, "board", 1, "a"))
	require.NoError(t, c.ZAdd(ctx, "board", 2, "b"))

	members, err := c.ZRevRange(ctx, "board", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, members)

	top, err := c.ZRevRange(ctx, "board", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, top)
}

func TestZAdd_UpdatesScore(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "board", 1, "a"))
	require.NoError(t, c.ZAdd(ctx, "board", 5, "a"))

	score, err := c.ZScore(ctx, "board", "a")
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)
}

func TestZScore_Missing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.ZScore(context.Background(), "board", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZRevRange_EmptyKey(t *testing.T) {
	c := newTestCache(t)
	members, err := c.ZRevRange(context.Background(), "nope", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, members)
}
