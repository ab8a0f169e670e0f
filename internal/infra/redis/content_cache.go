// Package redis provides Redis-backed infrastructure so generated content
// survives process restarts and is shared across instances.
package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContentCache stores generation results as plain string values under a
// namespaced key with a jittered TTL.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	return &ContentCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *ContentCache) Set(ctx context.Context, key string, value []byte) {
	// best-effort: a cache write failure only costs a regeneration
	_ = c.client.Set(ctx, c.key(key), value, c.ttlWithJitter()).Err()
}

func (c *ContentCache) key(key string) string {
	return "content:cache:" + key
}

// ttlWithJitter spreads expirations by up to 10% so batches generated
// together do not all expire together.
func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
