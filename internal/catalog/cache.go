package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/storefront/internal/resilience"
)

const keyPrefix = "catalog:v1:"

// Cache stores raw catalog snapshots in Redis as JSON. Derived prices are
// never written here; they depend on the request time.
type Cache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client or non-positive ttl
// disables caching.
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// WithBreaker guards Redis calls with b. While b is open, reads and writes
// return resilience.ErrOpenCircuit without touching Redis.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	c.breaker = b
	return c
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *Cache) guard(ctx context.Context, fn func(context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Do(ctx, fn)
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled() || key == "" {
		return false, nil
	}
	var data []byte
	err := c.guard(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, keyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.guard(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
	})
}

// Purge drops every catalog snapshot. Merchandising writes call it so new
// banners and overrides show up before the TTL lapses.
func (c *Cache) Purge(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
