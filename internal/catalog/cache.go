package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores raw catalog payloads in Redis so repeated scans of the same
// product during a checkout session skip the network round trip. A nil cache
// is a valid no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a product cache with the provided TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func productKey(productID string) string {
	return "pos:catalog:product:" + productID
}

// GetProduct reports the cached payload for a product, if any. Cache errors
// are swallowed: a broken cache must never fail a lookup.
func (c *Cache) GetProduct(ctx context.Context, productID string) (productPayload, bool) {
	if c == nil || c.client == nil || productID == "" {
		return productPayload{}, false
	}
	data, err := c.client.Get(ctx, productKey(productID)).Bytes()
	if err != nil {
		return productPayload{}, false
	}
	var payload productPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return productPayload{}, false
	}
	return payload, true
}

// SetProduct stores the payload under the configured TTL.
func (c *Cache) SetProduct(ctx context.Context, productID string, payload productPayload) error {
	if c == nil || c.client == nil || productID == "" || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(productID), data, c.ttl).Err()
}
