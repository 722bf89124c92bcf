// Package redis provides a Redis-backed kv.Store using go-redis. Prefix
// listing is implemented with SCAN MATCH + MGET; expiry rides on Redis TTLs.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"microblog/internal/kv"
	"microblog/internal/models"
)

// Config configures the Redis store.
type Config struct {
	// Client is the Redis client instance.
	Client *redis.Client

	// KeyPrefix is prepended to every key. Default: "microblog:".
	KeyPrefix string
}

type Store struct {
	client    *redis.Client
	keyPrefix string
}

// New creates a Redis-backed store. The client is required.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "microblog:"
	}
	return &Store{client: cfg.Client, keyPrefix: cfg.KeyPrefix}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]kv.Entry, error) {
	match := s.keyPrefix + prefix + "*"
	var keys []string
	iter := s.client.Scan(ctx, 0, match, 256).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", match, err)
	}
	if len(keys) == 0 {
		return []kv.Entry{}, nil
	}
	sort.Strings(keys)

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	out := make([]kv.Entry, 0, len(keys))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Key vanished between SCAN and MGET.
			continue
		}
		out = append(out, kv.Entry{Key: keys[i][len(s.keyPrefix):], Value: []byte(str)})
	}
	return out, nil
}

func (s *Store) Close() error { return s.client.Close() }
