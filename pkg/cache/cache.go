// Package cache stores JSON encoded values in Redis with a fixed TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultTTL is used when no TTL is configured. It must stay below the
// lifetime of presigned links embedded in cached values.
const DefaultTTL = 10 * time.Minute

// Client is the subset of the Redis client the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// JSON caches values of type T under a key prefix.
type JSON[T any] struct {
	client Client
	prefix string
	ttl    time.Duration
}

// NewJSON creates a cache. A non-positive ttl falls back to DefaultTTL.
func NewJSON[T any](client Client, prefix string, ttl time.Duration) *JSON[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JSON[T]{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the full Redis key for k.
func (c *JSON[T]) Key(k string) string {
	return c.prefix + k
}

// TTL returns the expiry applied to stored values.
func (c *JSON[T]) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached value for k. ok is false on a miss.
func (c *JSON[T]) Get(ctx context.Context, k string) (value T, ok bool, err error) {
	raw, err := c.client.Get(ctx, c.Key(k)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return value, false, nil
	}
	if err != nil {
		return value, false, fmt.Errorf("redis get %s: %w", k, err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("decode cached %s: %w", k, err)
	}
	return value, true, nil
}

func (c *JSON[T]) Set(ctx context.Context, k string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	if err := c.client.Set(ctx, c.Key(k), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

func (c *JSON[T]) Delete(ctx context.Context, k string) error {
	return c.client.Del(ctx, c.Key(k)).Err()
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
