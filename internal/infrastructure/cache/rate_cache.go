package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRateCache stores courier quotes as JSON. Cache failures are logged and
// treated as misses.
type RedisRateCache struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewRedisRateCache creates a rate cache on a shared client
func NewRedisRateCache(client redis.UniversalClient, logger *zap.Logger) *RedisRateCache {
	return &RedisRateCache{client: client, prefix: "d2b:rates:", logger: logger}
}

// Get returns cached rates for key
func (c *RedisRateCache) Get(ctx context.Context, key string) ([]shipping.CourierRate, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("rate cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var rates []shipping.CourierRate
	if err := json.Unmarshal(raw, &rates); err != nil {
		c.logger.Warn("rate cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return rates, true
}

// Set stores rates for key
func (c *RedisRateCache) Set(ctx context.Context, key string, rates []shipping.CourierRate, ttl time.Duration) {
	raw, err := json.Marshal(rates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		c.logger.Warn("rate cache write failed", zap.String("key", key), zap.Error(err))
	}
}

var _ shipping.RateCache = (*RedisRateCache)(nil)

type rateEntry struct {
	rates     []shipping.CourierRate
	expiresAt time.Time
}

// InMemoryRateCache is the single-instance fallback
type InMemoryRateCache struct {
	mu      sync.RWMutex
	entries map[string]rateEntry
}

// NewInMemoryRateCache creates an empty cache
func NewInMemoryRateCache() *InMemoryRateCache {
	return &InMemoryRateCache{entries: make(map[string]rateEntry)}
}

// Get returns cached rates for key
func (c *InMemoryRateCache) Get(_ context.Context, key string) ([]shipping.CourierRate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return append([]shipping.CourierRate(nil), e.rates...), true
}

// Set stores rates for key
func (c *InMemoryRateCache) Set(_ context.Context, key string, rates []shipping.CourierRate, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = rateEntry{
		rates:     append([]shipping.CourierRate(nil), rates...),
		expiresAt: time.Now().Add(ttl),
	}
}

var _ shipping.RateCache = (*InMemoryRateCache)(nil)
