// attribute/caching.go

package attribute

import (
	"context"
	"sync"
	"time"

	"github.com/arbiterhq/arbiter/model"
)

// CachingProvider memoizes another provider's lookups per entity id for
// a fixed TTL. Failed lookups are not cached, so a flaky backend gets
// retried on the next request.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	attributes map[string]any
	expiresAt  time.Time
}

// NewCachingProvider wraps inner with a per-id TTL cache. A zero or
// negative TTL disables caching entirely.
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (p *CachingProvider) Category() model.Category { return p.inner.Category() }
func (p *CachingProvider) Name() string             { return p.inner.Name() }

func (p *CachingProvider) SupportsAttribute(attributeID string) bool {
	return p.inner.SupportsAttribute(attributeID)
}

func (p *CachingProvider) GetAttributes(ctx context.Context, id string) (map[string]any, error) {
	if p.ttl <= 0 {
		return p.inner.GetAttributes(ctx, id)
	}

	p.mu.RLock()
	entry, ok := p.entries[id]
	p.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return model.CopyAttributes(entry.attributes), nil
	}

	attrs, err := p.inner.GetAttributes(ctx, id)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.entries[id] = cacheEntry{
		attributes: model.CopyAttributes(attrs),
		expiresAt:  time.Now().Add(p.ttl),
	}
	p.mu.Unlock()

	return attrs, nil
}

// Invalidate drops the cached attributes for one entity id.
func (p *CachingProvider) Invalidate(id string) {
	p.mu.Lock()
	delete(p.entries, id)
	p.mu.Unlock()
}

// Flush drops every cached entry.
func (p *CachingProvider) Flush() {
	p.mu.Lock()
	p.entries = make(map[string]cacheEntry)
	p.mu.Unlock()
}
