package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medly/scheduleconsole/internal/domain/providers"
	redisclient "github.com/medly/scheduleconsole/internal/infrastructure/clients/redis"
)

// DefaultKeyPrefix namespaces console keys in a shared Redis
const DefaultKeyPrefix = "scheduleconsole:"

// RedisAdapter stores session records in Redis. Every key is namespaced
// so several consoles, or other services, can share one database.
type RedisAdapter struct {
	client *redis.Client
	prefix string
}

// NewRedisAdapter creates a Redis-backed CacheProvider using DefaultKeyPrefix
func NewRedisAdapter(client *redisclient.Client) providers.CacheProvider {
	return NewRedisAdapterWithPrefix(client.Client(), DefaultKeyPrefix)
}

// NewRedisAdapterWithPrefix creates a Redis-backed CacheProvider over a raw client
func NewRedisAdapterWithPrefix(client *redis.Client, prefix string) *RedisAdapter {
	return &RedisAdapter{client: client, prefix: prefix}
}

func (a *RedisAdapter) key(k string) string {
	return a.prefix + k
}

// Get returns providers.ErrCacheMiss for absent or expired keys
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return result, nil
}

// Set stores value; expirationSeconds <= 0 keeps it until deleted
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	var ttl time.Duration
	if expirationSeconds > 0 {
		ttl = time.Duration(expirationSeconds) * time.Second
	}
	if err := a.client.Set(ctx, a.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, a.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	n, err := a.client.Exists(ctx, a.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}
