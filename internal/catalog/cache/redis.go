// Package cache keeps catalog listings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"craft-beer-store/backend/internal/catalog/domain"
)

const (
	keyPrefix  = "catalog"
	versionKey = keyPrefix + ":version"
)

// RedisCache stores product listings per filter under a versioned key. Invalidate bumps the
// version so stale listings are never read again and expire on their own TTL.
type RedisCache struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

// NewRedisCache returns a listing cache. A non-positive ttl means 60s.
func NewRedisCache(rdb goredis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// NewClient opens a go-redis client for addr and verifies it with PING.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisCache) key(ctx context.Context, f domain.Filter) (string, error) {
	v, err := c.version(ctx)
	if err != nil {
		return "", fmt.Errorf("catalog cache version: %w", err)
	}
	return fmt.Sprintf("%s:v%d:%s", keyPrefix, v, f.Key()), nil
}

// Get returns the cached listing for f. ok is false on a miss.
func (c *RedisCache) Get(ctx context.Context, f domain.Filter) ([]*domain.Product, bool, error) {
	key, err := c.key(ctx, f)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog cache get: %w", err)
	}
	var out []*domain.Product
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("catalog cache unmarshal: %w", err)
	}
	return out, true, nil
}

// Set stores the listing for f under the current version.
func (c *RedisCache) Set(ctx context.Context, f domain.Filter, products []*domain.Product) error {
	key, err := c.key(ctx, f)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("catalog cache marshal: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog cache set: %w", err)
	}
	return nil
}

// Invalidate makes every cached listing unreachable.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("catalog cache invalidate: %w", err)
	}
	return nil
}
