package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Fannysbth/kel1paw/internal/config"
)

// Cache is the key-value contract the services and the invalidator depend
// on. Exported as an interface so tests can substitute an in-memory fake.
type Cache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// SetWithExpiry stores value under key, evicted after ttl.
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes the given keys. Deleting an absent key is not an error.
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern removes every key matching a glob pattern and returns
	// how many were dropped. There is no atomicity across matched keys.
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

// Store is the Redis-backed Cache used in production. Any Redis failure is
// reported to the caller, who treats it as a miss; correctness always comes
// from the authoritative store.
type Store struct {
	client *redis.Client
}

var _ Cache = (*Store)(nil)

// NewStore connects to Redis and verifies the connection with a ping.
func NewStore(cfg *config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Get returns the cached value and whether the key was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	return value, true, nil
}

// SetWithExpiry stores value under key with the given TTL.
func (s *Store) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// DeleteByPattern scans for keys matching pattern and deletes them in
// batches. SCAN is used instead of KEYS so a large keyspace never blocks
// the shared Redis instance.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, batch...).Result()
		deleted += n
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := flush(); err != nil {
				return deleted, fmt.Errorf("failed to delete keys for pattern %s: %w", pattern, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan pattern %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return deleted, fmt.Errorf("failed to delete keys for pattern %s: %w", pattern, err)
	}

	return deleted, nil
}

// HealthCheck pings Redis.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
