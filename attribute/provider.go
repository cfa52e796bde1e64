// attribute/provider.go

// Package attribute defines the attribute provider contract (the PIP
// side of the engine) along with caching and composition wrappers and a
// few ready-made providers backed by common directories and stores.
package attribute

import (
	"context"

	"github.com/arbiterhq/arbiter/model"
)

// Provider supplies attributes for entities of one request category.
// Providers are stateless with respect to a single request; their
// lifecycle is owned by whoever registers them on the resolver.
type Provider interface {
	// Category is the request category this provider feeds.
	Category() model.Category

	// Name distinguishes providers within a category. The resolver
	// keys registrations by "category:name".
	Name() string

	// GetAttributes fetches the attributes for the given entity id.
	// Environment providers are called with a fixed sentinel id.
	GetAttributes(ctx context.Context, id string) (map[string]any, error)

	// SupportsAttribute reports whether this provider can contribute
	// the named attribute.
	SupportsAttribute(attributeID string) bool
}

// Key returns the registry key for a provider.
func Key(p Provider) string {
	return string(p.Category()) + ":" + p.Name()
}

// StaticProvider serves a fixed attribute map regardless of entity id.
// Useful for environment attributes and in tests.
type StaticProvider struct {
	ProviderCategory model.Category
	ProviderName     string
	Attributes       map[string]any
}

func (p *StaticProvider) Category() model.Category { return p.ProviderCategory }
func (p *StaticProvider) Name() string             { return p.ProviderName }

func (p *StaticProvider) GetAttributes(ctx context.Context, id string) (map[string]any, error) {
	return model.CopyAttributes(p.Attributes), nil
}

func (p *StaticProvider) SupportsAttribute(attributeID string) bool {
	_, ok := p.Attributes[attributeID]
	return ok
}
