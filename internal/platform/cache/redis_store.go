// Package cache provides Redis caching decorators for the marketdata repositories.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// DefaultTTL stays below the one-minute update interval so read-modify-write never sees a stale document.
const DefaultTTL = 30 * time.Second

// jsonCache stores JSON values under namespaced keys.
// A nil rdb disables it.
type jsonCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

func newJSONCache(rdb *redis.Client, ttl time.Duration, namespace string) jsonCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return jsonCache{rdb: rdb, ttl: ttl, namespace: namespace}
}

func (c jsonCache) key(class entity.AssetClass, symbol string) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, safe(string(class)), safe(symbol))
}

// load reports a cache hit. Corrupted entries are deleted.
func (c jsonCache) load(ctx context.Context, key string, out any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, out); err == nil {
		return true
	}
	// Delete corrupted cache entry
	_ = c.rdb.Del(ctx, key).Err()
	return false
}

// store is best effort. If the value cannot be written the old entry is dropped
// so that readers fall back to the database.
func (c jsonCache) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err == nil {
		err = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	if err != nil {
		_ = c.rdb.Del(ctx, key).Err()
	}
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
