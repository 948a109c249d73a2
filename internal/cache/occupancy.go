// Package cache implements the occupancy board's read-through cache.
// Cached projections are never authoritative: the availability check
// and every booking write go straight to the database, and each
// successful write bumps a version key so stale boards become
// unreachable immediately rather than waiting out the TTL.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/driveloop/bookingd/internal/config"
)

// OccupancyCache stores JSON-encoded occupancy boards keyed by filter.
// A nil Redis client disables it entirely; every method degrades to a
// no-op so callers never branch on availability.
type OccupancyCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewOccupancyCache builds a cache from config. Returns a disabled
// instance when caching is off or rdb is nil.
func NewOccupancyCache(cfg config.CacheConfig, rdb *redis.Client) *OccupancyCache {
	c := &OccupancyCache{ttl: cfg.TTL, prefix: cfg.Prefix}
	if cfg.Enabled && rdb != nil {
		c.rdb = rdb
	}
	if c.ttl <= 0 {
		c.ttl = 15 * time.Second
	}
	if c.prefix == "" {
		c.prefix = "occupancy"
	}
	return c
}

func (c *OccupancyCache) versionKey() string { return c.prefix + ":ver" }

// key derives the entry key from the current version and the filter
// string, so bumping the version orphans every previous entry at once.
func (c *OccupancyCache) key(ctx context.Context, filter string) (string, error) {
	ver, err := c.rdb.Get(ctx, c.versionKey()).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	sum := sha1.Sum([]byte(filter))
	return fmt.Sprintf("%s:v%d:%x", c.prefix, ver, sum[:]), nil
}

// Get loads a cached board into dest. It reports false on a miss, a
// decode failure or a disabled cache.
func (c *OccupancyCache) Get(ctx context.Context, filter string, dest interface{}) bool {
	if c.rdb == nil {
		return false
	}
	key, err := c.key(ctx, filter)
	if err != nil {
		return false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

// Set stores a board under the current version with the configured TTL.
// Failures are swallowed: the cache is an optimization, never a
// dependency.
func (c *OccupancyCache) Set(ctx context.Context, filter string, v interface{}) {
	if c.rdb == nil {
		return
	}
	key, err := c.key(ctx, filter)
	if err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate bumps the version counter, instantly orphaning every
// cached board. Called after each successful reserve, check-in,
// check-out or cancellation.
func (c *OccupancyCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Incr(ctx, c.versionKey()).Err()
}
