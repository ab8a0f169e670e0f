package memory

import (
	"context"
	"sync"
)

// ContentCache memoizes generation results in-process for the lifetime of the
// process (unbounded by design: keys are low-cardinality prompt buckets).
type ContentCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewContentCache() *ContentCache {
	return &ContentCache{entries: make(map[string][]byte)}
}

func (c *ContentCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *ContentCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), value...)
}
