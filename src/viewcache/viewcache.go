// Package viewcache is the keyed query cache the view boundary reads through,
// plus the redis channels that tell connected views to refresh. Cached
// entries expire on a short TTL; mutations additionally invalidate the keys
// they touch so the owning view re-fetches promptly.
package viewcache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"photogram_services/src/logger"
)

const (
	// EventsChannel carries engagement notifications to subscribed sockets.
	EventsChannel = "view-events"
	// InvalidationsChannel carries dropped cache keys to subscribed sockets.
	InvalidationsChannel = "view-invalidations"
)

// DefaultTTL bounds staleness for cached entries nothing invalidates
// explicitly, like profile pages keyed by another user's username.
const DefaultTTL = time.Minute

// Key builds a cache key from its parts: Key("timeline", userID).
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Invalidation is the payload published on InvalidationsChannel. UserID
// scopes delivery; sockets forward only their own user's invalidations.
type Invalidation struct {
	UserID string   `json:"user_id"`
	Keys   []string `json:"keys"`
}

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Lookup fills dest from the cached payload under key. A miss, an expired
// entry, or an unreadable payload reports false and the caller falls through
// to the datastore.
func (cache *Cache) Lookup(ctx context.Context, key string, dest interface{}) bool {
	payload, err := cache.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		logger.Errorf("Failed to decode cached payload for %v: %v", key, err)
		return false
	}
	return true
}

// Store caches the rendered query result under key for the configured TTL.
// Cache failures are logged and swallowed; they never block a response.
func (cache *Cache) Store(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		logger.Errorf("Failed to encode payload for %v: %v", key, err)
		return
	}
	if err := cache.rdb.Set(ctx, key, payload, cache.ttl).Err(); err != nil {
		logger.Errorf("Failed to cache %v: %v", key, err)
	}
}

// Invalidate drops the named keys along with every entry stored under them
// (key:<suffix>, the shape limit-scoped reads cache into), then publishes
// the named keys on InvalidationsChannel so the user's connected views
// re-fetch. Failures are logged and swallowed; the TTL still bounds
// staleness when invalidation is lost.
func (cache *Cache) Invalidate(ctx context.Context, userID string, keys ...string) {
	if len(keys) == 0 {
		return
	}
	stale := append([]string{}, keys...)
	for _, key := range keys {
		iter := cache.rdb.Scan(ctx, 0, key+":*", 0).Iterator()
		for iter.Next(ctx) {
			stale = append(stale, iter.Val())
		}
		if err := iter.Err(); err != nil {
			logger.Errorf("Failed to scan entries under %v: %v", key, err)
		}
	}
	if err := cache.rdb.Del(ctx, stale...).Err(); err != nil {
		logger.Errorf("Failed to invalidate %v: %v", stale, err)
	}
	if err := cache.Publish(ctx, InvalidationsChannel, Invalidation{UserID: userID, Keys: keys}); err != nil {
		logger.Errorf("Failed to publish invalidation for %v: %v", userID, err)
	}
}

// Publish marshals value onto a redis channel.
func (cache *Cache) Publish(ctx context.Context, channel string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cache.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a subscription the websocket handlers fan out from.
func (cache *Cache) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return cache.rdb.Subscribe(ctx, channel)
}
