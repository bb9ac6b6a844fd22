package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DedupeCache implements ports.DedupeCache using Redis. It is only a fast
// path for sell replay rejection; the journal's dedupe check under the user
// row lock stays authoritative, so a cache miss or eviction is never a
// correctness problem.
type DedupeCache struct {
	client *goredis.Client
	prefix string
}

// NewDedupeCache creates a new Redis-backed dedupe cache.
func NewDedupeCache(client *goredis.Client) *DedupeCache {
	return &DedupeCache{
		client: client,
		prefix: "dedupe:",
	}
}

// Seen reports whether the dedupe key was already consumed by the client.
func (c *DedupeCache) Seen(ctx context.Context, clientID int64, dedupeKey string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(clientID, dedupeKey)).Result()
	if err != nil {
		return false, fmt.Errorf("redis dedupe exists: %w", err)
	}
	return n > 0, nil
}

// Mark records a consumed dedupe key with TTL.
func (c *DedupeCache) Mark(ctx context.Context, clientID int64, dedupeKey string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(clientID, dedupeKey), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis dedupe mark: %w", err)
	}
	return nil
}

func (c *DedupeCache) key(clientID int64, dedupeKey string) string {
	return fmt.Sprintf("%s%d:%s", c.prefix, clientID, dedupeKey)
}
