package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeCache_MarkAndSeen(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDedupeCache(client)
	ctx := context.Background()

	// Seen before mark => false
	seen, err := cache.Seen(ctx, 1, "sell-001")
	require.NoError(t, err)
	assert.False(t, seen)

	err = cache.Mark(ctx, 1, "sell-001", 24*time.Hour)
	require.NoError(t, err)

	seen, err = cache.Seen(ctx, 1, "sell-001")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupeCache_ScopedByClient(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDedupeCache(client)
	ctx := context.Background()

	err := cache.Mark(ctx, 1, "sell-001", 24*time.Hour)
	require.NoError(t, err)

	// same key under a different client is unseen
	seen, err := cache.Seen(ctx, 2, "sell-001")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDedupeCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDedupeCache(client)
	ctx := context.Background()

	err := cache.Mark(ctx, 1, "sell-002", 1*time.Second)
	require.NoError(t, err)

	// Fast-forward time in miniredis
	s.FastForward(2 * time.Second)

	// Eviction is fine: the journal check stays authoritative.
	seen, err := cache.Seen(ctx, 1, "sell-002")
	require.NoError(t, err)
	assert.False(t, seen)
}
