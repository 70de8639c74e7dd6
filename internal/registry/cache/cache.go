// Package cache provides a Redis-backed read-through cache for name-owner
// lookups. Entries are TTL-bounded; the registry refreshes an entry whenever
// a registration binds the name, so a stale positive can only shorten -
// never skip - the authoritative store lookup.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "vprove/pkg/domain"
)

const nameKeyPrefix = "registry:name:"

// NameCache caches name -> owning account bindings in Redis.
type NameCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New constructs a Redis-backed name cache.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *NameCache {
	return &NameCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached owner for a name. A miss or any Redis failure
// reports not-found; the caller falls through to the store.
func (c *NameCache) Get(ctx context.Context, name string) (id.AccountID, bool) {
	raw, err := c.client.Get(ctx, nameKeyPrefix+name).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "name cache read failed", "error", err)
		}
		return id.AccountID{}, false
	}
	owner, err := id.ParseAccountID(raw)
	if err != nil {
		return id.AccountID{}, false
	}
	return owner, true
}

// Set records a name binding with TTL eviction. Failures are logged and
// swallowed; the cache is advisory.
func (c *NameCache) Set(ctx context.Context, name string, owner id.AccountID) {
	if err := c.client.Set(ctx, nameKeyPrefix+name, owner.String(), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "name cache write failed", "error", err)
	}
}
