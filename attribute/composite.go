// attribute/composite.go

package attribute

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/model"
)

// CompositeProvider fans one lookup out to several child providers of
// the same category and merges their results, later children overriding
// earlier ones. A failing or panicking child contributes nothing and is
// logged as a warning; it never fails the composite.
type CompositeProvider struct {
	category  model.Category
	name      string
	providers []Provider
	log       *zap.Logger
}

// NewCompositeProvider builds a composite over the given children.
// A nil logger is replaced with a no-op logger.
func NewCompositeProvider(category model.Category, name string, log *zap.Logger, providers ...Provider) *CompositeProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &CompositeProvider{
		category:  category,
		name:      name,
		providers: providers,
		log:       log,
	}
}

func (p *CompositeProvider) Category() model.Category { return p.category }
func (p *CompositeProvider) Name() string             { return p.name }

func (p *CompositeProvider) SupportsAttribute(attributeID string) bool {
	for _, child := range p.providers {
		if child.SupportsAttribute(attributeID) {
			return true
		}
	}
	return false
}

func (p *CompositeProvider) GetAttributes(ctx context.Context, id string) (map[string]any, error) {
	results := FetchAll(ctx, p.providers, id, p.log)
	merged := make(map[string]any)
	for _, attrs := range results {
		for k, v := range attrs {
			merged[k] = v
		}
	}
	return merged, nil
}

// FetchAll calls every provider concurrently and returns one attribute
// map per provider, indexed to match the input order so callers can
// merge with deterministic override semantics. A provider that returns
// an error or panics yields a nil map and a warning log entry.
func FetchAll(ctx context.Context, providers []Provider, id string, log *zap.Logger) []map[string]any {
	results := make([]map[string]any, len(providers))
	var wg sync.WaitGroup
	for i, provider := range providers {
		wg.Add(1)
		go func(i int, provider Provider) {
			defer wg.Done()
			attrs, err := fetchOne(ctx, provider, id)
			if err != nil {
				log.Warn("Attribute provider failed; continuing without its attributes",
					zap.String("provider", Key(provider)),
					zap.String("entity_id", id),
					zap.Error(err))
				return
			}
			results[i] = attrs
		}(i, provider)
	}
	wg.Wait()
	return results
}

func fetchOne(ctx context.Context, provider Provider, id string) (attrs map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			attrs = nil
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return provider.GetAttributes(ctx, id)
}
