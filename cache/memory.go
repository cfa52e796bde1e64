// cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/arbiterhq/arbiter/model"
)

// MemoryCache is an in-process TTL policy cache. Expired entries are
// dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	policy    *model.ABACPolicy
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, policyID string) (*model.ABACPolicy, error) {
	c.mu.RLock()
	entry, ok := c.entries[policyID]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, policyID)
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	return entry.policy, nil
}

func (c *MemoryCache) Set(ctx context.Context, policy *model.ABACPolicy, ttl time.Duration) error {
	entry := memoryEntry{policy: policy}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[policy.ID] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, policyID string) error {
	c.mu.Lock()
	delete(c.entries, policyID)
	c.mu.Unlock()
	return nil
}
