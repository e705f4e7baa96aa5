package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"loan-eligibility-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL applies when the configured TTL is not positive.
const DefaultCacheTTL = 5 * time.Minute

func applicantKey(id string) string { return "applicant:" + id }

func productKey(id string) string { return "loan_product:" + id }

// Cache is a JSON read-through cache. Entries expire by TTL only; nothing
// invalidates them on write. Every method is a no-op on a nil *Cache, and
// Redis errors degrade to a miss.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(client redis.Cmdable, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Cache{client: client, ttl: ttl, logger: log}
}

// Get decodes the cached value for key into dst and reports whether it did.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}

	if err := json.Unmarshal(val, dst); err != nil {
		c.logger.Warn("Cache entry undecodable", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

// Set stores v under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, v interface{}) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
