// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// html.go caches the HTML rendered from post Markdown. Keys embed the
// post's updated_at, so an edit produces a new key and stale entries age
// out through the TTL instead of being invalidated explicitly.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// htmlKeyPrefix is the Valkey key prefix for rendered post bodies.
	htmlKeyPrefix = "html:"

	// DefaultHTMLTTL is how long rendered HTML stays cached.
	DefaultHTMLTTL = 10 * time.Minute
)

// HTMLCache stores rendered post HTML in Valkey. Errors are logged and
// treated as misses; the caller can always render again.
type HTMLCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHTMLCache creates a cache backed by the given Valkey client.
func NewHTMLCache(client *redis.Client, ttl time.Duration) *HTMLCache {
	if ttl == 0 {
		ttl = DefaultHTMLTTL
	}
	return &HTMLCache{client: client, ttl: ttl}
}

// Get returns the cached HTML for key, if any.
func (c *HTMLCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, htmlKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		slog.Warn("html cache get error", "key", key, "error", err)
		return "", false
	}
	return val, true
}

// Set stores html under key with the configured TTL.
func (c *HTMLCache) Set(ctx context.Context, key, html string) {
	if err := c.client.Set(ctx, htmlKeyPrefix+key, html, c.ttl).Err(); err != nil {
		slog.Warn("html cache set error", "key", key, "error", err)
	}
}

// PostKey returns the cache key for a post body at a given revision time.
func PostKey(id uuid.UUID, updatedAt time.Time) string {
	return fmt.Sprintf("post:%s:%d", id, updatedAt.UnixNano())
}
