// Package cache provides a small JSON-over-Redis read cache used to front
// hot catalog reads (series detail, episode lists).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	return &RedisCache{Client: client, TTL: ttl}, nil
}

// Get unmarshals the cached value for key into dest.
// A nil receiver is a no-op miss, so callers can run without Redis.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.Client == nil {
		return false, nil
	}
	val, err := c.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key with the configured TTL. No-op on nil receiver.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	if c == nil || c.Client == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, b, c.TTL).Err()
}

// Delete drops a key, used when a write invalidates a cached read.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.Client == nil || len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}
