package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache holds short-lived credentials such as the shipping aggregator's
// bearer token. Get returns "" when nothing usable is cached.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisTokenCache shares tokens across instances
type RedisTokenCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisTokenCache creates a token cache on a shared client
func NewRedisTokenCache(client redis.UniversalClient) *RedisTokenCache {
	return &RedisTokenCache{client: client, prefix: "d2b:token:"}
}

// Get returns the cached token or ""
func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return v, nil
}

// Set stores a token until ttl elapses
func (c *RedisTokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// InMemoryTokenCache keeps tokens in process
type InMemoryTokenCache struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
}

// NewInMemoryTokenCache creates an empty cache
func NewInMemoryTokenCache() *InMemoryTokenCache {
	return &InMemoryTokenCache{values: make(map[string]string), expires: make(map[string]time.Time)}
}

// Get returns the cached token or ""
func (c *InMemoryTokenCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().After(c.expires[key]) {
		delete(c.values, key)
		delete(c.expires, key)
		return "", nil
	}
	return c.values[key], nil
}

// Set stores a token until ttl elapses
func (c *InMemoryTokenCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.expires[key] = time.Now().Add(ttl)
	return nil
}

var (
	_ TokenCache = (*RedisTokenCache)(nil)
	_ TokenCache = (*InMemoryTokenCache)(nil)
)
