package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/gomall/internal/model"
)

// ProductCache is a read-through cache for product detail pages.
// Values are JSON snapshots keyed by product ID; writers must call
// Invalidate after any product mutation so readers never serve a
// stale stock/rating figure for longer than one round trip.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewProductCache builds a cache with the given TTL.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// Get returns the cached product and true on a hit.
// Any redis or decode error is treated as a miss.
func (c *ProductCache) Get(ctx context.Context, id uint) (*model.Product, bool) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}
	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &p, true
}

// Set stores a product snapshot. Failures are ignored: the cache is
// an optimisation, never the source of truth.
func (c *ProductCache) Set(ctx context.Context, p *model.Product) {
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, productKey(p.ID), payload, c.ttl).Err()
}

// Invalidate drops the snapshot for one product.
func (c *ProductCache) Invalidate(ctx context.Context, id uint) error {
	return c.client.Del(ctx, productKey(id)).Err()
}

// Counters reports hit/miss totals since start.
func (c *ProductCache) Counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
