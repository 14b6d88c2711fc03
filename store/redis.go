package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps blobs as plain string values under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(s *RedisStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires checkpoints after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

func NewRedisStore(addr string, options ...RedisOption) *RedisStore {
	if addr == "" {
		addr = "localhost:6379"
	}
	s := &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 2 * time.Second,
		}),
		prefix: "blocks:",
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *RedisStore) Save(ctx context.Context, key string, blob []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return blob, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
