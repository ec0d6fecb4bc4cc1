// Package enrichment implements the deterministic enrichment services
// (spec.md C4): reverse geocoding, place metadata, and traffic-aware route
// matrices, each HTTP-backed and Redis-cached. Grounded on the teacher's
// Redis-backed stores in orchestration/redis_execution_store.go: a
// key-prefixed client wrapping go-redis/redis/v8, with TTL policy decided
// per key class rather than uniformly.
package enrichment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ridewave/triad/internal/logger"
)

// Cache wraps a Redis client with the two TTL policies spec.md §4.4
// requires: indefinite for coordinate/place identity (it never changes),
// and 24h-with-staleness-refresh for anything time-sensitive (business
// hours, traffic).
type Cache struct {
	client    *redis.Client
	keyPrefix string
	logger    logger.Logger
}

// NewCache constructs a Cache from an existing Redis client. The caller
// owns the client's lifecycle.
func NewCache(client *redis.Client, keyPrefix string, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NoOp{}
	}
	if keyPrefix == "" {
		keyPrefix = "triad:enrichment:"
	}
	return &Cache{client: client, keyPrefix: keyPrefix, logger: log}
}

// staleEntry wraps a cached value with the time it was written so callers
// can decide whether a TTL'd entry needs a background refresh.
type staleEntry struct {
	CachedAt time.Time       `json:"cached_at"`
	Value    json.RawMessage `json:"value"`
}

// GetIndefinite reads a never-expiring cache entry (coordinate/place
// identity keys). Returns ok=false on miss.
func (c *Cache) GetIndefinite(ctx context.Context, key string, dest interface{}) (ok bool, err error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(raw, dest)
}

// PutIndefinite writes a never-expiring cache entry.
func (c *Cache) PutIndefinite(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.keyPrefix+key, raw, 0).Err()
}

// GetFresh reads a TTL'd cache entry and reports whether it's older than
// maxAge, so the caller can serve the stale value while triggering a
// background refresh rather than blocking on one (spec.md §4.4: "24h TTL
// with cached_at staleness check for business-hours-sensitive data").
func (c *Cache) GetFresh(ctx context.Context, key string, maxAge time.Duration, dest interface{}) (ok bool, stale bool, err error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	var entry staleEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false, false, err
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return false, false, err
	}
	return true, time.Since(entry.CachedAt) > maxAge, nil
}

// PutFresh writes a TTL'd cache entry stamped with the current time.
func (c *Cache) PutFresh(ctx context.Context, key string, ttl time.Duration, value interface{}) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := staleEntry{CachedAt: time.Now().UTC(), Value: valueJSON}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err()
}
