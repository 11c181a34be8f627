package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Cache is a best-effort read-through cache for small string lists
// (distinct class/section lookups). Every failure degrades to a miss;
// callers always fall back to the database.
type Cache struct {
	redis *Redis
	ttl   time.Duration
}

// NewCache builds a cache on top of an existing redis connection.
func NewCache(r *Redis, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{redis: r, ttl: ttl}
}

// GetStrings returns the cached list for key, or ok=false on miss or error.
func (c *Cache) GetStrings(ctx context.Context, key string) ([]string, bool) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return nil, false
	}
	raw, err := c.redis.Client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var vals []string
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return nil, false
	}
	return vals, true
}

// SetStrings stores the list under key with the configured TTL.
func (c *Cache) SetStrings(ctx context.Context, key string, vals []string) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	raw, err := json.Marshal(vals)
	if err != nil {
		return
	}
	_ = c.redis.Client.Set(ctx, key, raw, c.ttl).Err()
}

// InvalidatePrefix drops every key matching prefix*.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	iter := c.redis.Client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		_ = c.redis.Client.Del(ctx, iter.Val()).Err()
	}
}
