// engine/resolver.go

package engine

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/attribute"
	"github.com/arbiterhq/arbiter/model"
)

// EnvironmentEntityID is the sentinel id environment providers are
// called with, since the environment has no entity of its own.
const EnvironmentEntityID = "environment"

// AttributeResolver aggregates attribute providers per category and
// turns partially attributed requests into fully attributed ones.
// Registration is keyed "category:name"; re-registering a key replaces
// the provider in its original slot so merge order stays stable.
type AttributeResolver struct {
	mu        sync.RWMutex
	providers []attribute.Provider
	index     map[string]int
	log       *zap.Logger
}

func NewAttributeResolver(log *zap.Logger) *AttributeResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttributeResolver{
		index: make(map[string]int),
		log:   log,
	}
}

// AddProvider registers a provider. A later registration for the same
// key replaces the earlier one.
func (r *AttributeResolver) AddProvider(p attribute.Provider) {
	key := attribute.Key(p)
	r.mu.Lock()
	defer r.mu.Unlock()
	if pos, ok := r.index[key]; ok {
		r.providers[pos] = p
		return
	}
	r.index[key] = len(r.providers)
	r.providers = append(r.providers, p)
}

// RemoveProvider unregisters the provider with the given
// "category:name" key, if present.
func (r *AttributeResolver) RemoveProvider(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, ok := r.index[key]
	if !ok {
		return
	}
	r.providers = append(r.providers[:pos], r.providers[pos+1:]...)
	delete(r.index, key)
	for k, p := range r.index {
		if p > pos {
			r.index[k] = p - 1
		}
	}
}

// Providers returns a snapshot of all registered providers in
// registration order.
func (r *AttributeResolver) Providers() []attribute.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]attribute.Provider(nil), r.providers...)
}

func (r *AttributeResolver) providersFor(category model.Category) []attribute.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []attribute.Provider
	for _, p := range r.providers {
		if p.Category() == category {
			out = append(out, p)
		}
	}
	return out
}

// GetAttributeValue resolves one attribute of the request. Synthetic
// fields ("id", resource "type") win over the attribute map; an
// optional dotted path walks into nested maps only. A nil return means
// the reference is unresolvable.
func (r *AttributeResolver) GetAttributeValue(request *model.Request, category model.Category, attributeID, path string) any {
	if request == nil {
		return nil
	}

	var attrs map[string]any
	switch category {
	case model.CategorySubject:
		if attributeID == "id" {
			return request.Subject.ID
		}
		attrs = request.Subject.Attributes
	case model.CategoryResource:
		if attributeID == "id" {
			return request.Resource.ID
		}
		if attributeID == "type" {
			return request.Resource.Type
		}
		attrs = request.Resource.Attributes
	case model.CategoryAction:
		if attributeID == "id" {
			return request.Action.ID
		}
		attrs = request.Action.Attributes
	case model.CategoryEnvironment:
		attrs = request.Environment.Attributes
	default:
		return nil
	}

	value, ok := attrs[attributeID]
	if !ok {
		return nil
	}
	if path == "" {
		return value
	}
	for _, segment := range strings.Split(path, ".") {
		nested, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value, ok = nested[segment]
		if !ok {
			return nil
		}
	}
	return value
}

// EnhanceRequest deep-copies the request and merges in attributes from
// every registered subject, resource, and environment provider.
// Providers within a category are fetched concurrently; results merge
// in registration order so later registrations override earlier ones.
// A failing provider contributes nothing and never aborts enhancement.
func (r *AttributeResolver) EnhanceRequest(ctx context.Context, request *model.Request) *model.Request {
	enhanced := request.Clone()

	enhanced.Subject.Attributes = r.mergeCategory(ctx,
		model.CategorySubject, enhanced.Subject.ID, enhanced.Subject.Attributes)
	enhanced.Resource.Attributes = r.mergeCategory(ctx,
		model.CategoryResource, enhanced.Resource.ID, enhanced.Resource.Attributes)
	enhanced.Environment.Attributes = r.mergeCategory(ctx,
		model.CategoryEnvironment, EnvironmentEntityID, enhanced.Environment.Attributes)

	return enhanced
}

func (r *AttributeResolver) mergeCategory(ctx context.Context, category model.Category, entityID string, attrs map[string]any) map[string]any {
	providers := r.providersFor(category)
	if len(providers) == 0 {
		return attrs
	}
	if attrs == nil {
		attrs = make(map[string]any)
	}
	for _, fetched := range attribute.FetchAll(ctx, providers, entityID, r.log) {
		for k, v := range fetched {
			attrs[k] = v
		}
	}
	return attrs
}
