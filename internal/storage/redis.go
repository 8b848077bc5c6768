package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key the client writes to Redis.
const DefaultKeyPrefix = "jobboard"

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// Redis stores one profile's keys as fields of a single Redis hash.
type Redis struct {
	rdb  redis.Cmdable
	hash string
}

// NewRedis returns the Redis-backed store of profile.
func NewRedis(rdb redis.Cmdable, prefix, profile string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{rdb: rdb, hash: fmt.Sprintf("%s:storage:%s", prefix, profile)}
}

// RedisFactory returns a Factory producing Redis stores that share rdb.
func RedisFactory(rdb redis.Cmdable, prefix string) Factory {
	return func(profile string) Store {
		return NewRedis(rdb, prefix, profile)
	}
}

// Get implements Store.
func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements Store.
func (s *Redis) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.HSet(ctx, s.hash, key, value).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove implements Store.
func (s *Redis) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.HDel(ctx, s.hash, keys...).Err(); err != nil {
		return fmt.Errorf("redis remove: %w", err)
	}
	return nil
}
