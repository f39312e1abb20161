package cache

import (
	"context"
	"testing"
	"time"

	"github.com/lawdir/directory-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type navEntry struct {
	Slug  string `json:"slug"`
	Count int64  `json:"count"`
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	var got []navEntry
	found, err := c.Get(ctx, "states", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []navEntry{{Slug: "new-york", Count: 3}, {Slug: "texas", Count: 1}}
	require.NoError(t, c.Set(ctx, "states", want))

	found, err = c.Get(ctx, "states", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1))
	now = now.Add(2 * time.Minute)

	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}

func TestMemory_InvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	require.NoError(t, c.Set(ctx, "directory:states", 1))
	require.NoError(t, c.Set(ctx, "directory:state:ny", 2))
	require.NoError(t, c.Set(ctx, "content:nav", 3))

	require.NoError(t, c.Invalidate(ctx, "directory:"))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Invalidate(ctx, ""))
	assert.Equal(t, 0, c.Len())
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", 1))
	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNew_Modes(t *testing.T) {
	c, err := New(&config.CacheConfig{Mode: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)

	c, err = New(&config.CacheConfig{Mode: "memory", TTL: 60}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	_, err = New(&config.CacheConfig{Mode: "memcached"}, zap.NewNop())
	assert.Error(t, err)
}
