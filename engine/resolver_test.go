package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/engine"
	"github.com/arbiterhq/arbiter/model"
)

// fakeProvider is a handwritten test double for attribute.Provider.
type fakeProvider struct {
	category model.Category
	name     string
	attrs    map[string]any
	err      error
	calls    int
	lastID   string
}

func (f *fakeProvider) Category() model.Category { return f.category }
func (f *fakeProvider) Name() string             { return f.name }

func (f *fakeProvider) GetAttributes(ctx context.Context, id string) (map[string]any, error) {
	f.calls++
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.attrs, nil
}

func (f *fakeProvider) SupportsAttribute(attributeID string) bool {
	_, ok := f.attrs[attributeID]
	return ok
}

func TestGetAttributeValue(t *testing.T) {
	r := engine.NewAttributeResolver(zap.NewNop())
	req := &model.Request{
		Subject: model.Subject{
			ID: "alice",
			Attributes: map[string]any{
				"profile": map[string]any{
					"address": map[string]any{"city": "NY"},
				},
				"plain": "value",
			},
		},
		Resource: model.Resource{ID: "doc-1", Type: "document"},
		Action:   model.Action{ID: "read"},
	}

	t.Run("synthetic fields", func(t *testing.T) {
		assert.Equal(t, "alice", r.GetAttributeValue(req, model.CategorySubject, "id", ""))
		assert.Equal(t, "doc-1", r.GetAttributeValue(req, model.CategoryResource, "id", ""))
		assert.Equal(t, "document", r.GetAttributeValue(req, model.CategoryResource, "type", ""))
		assert.Equal(t, "read", r.GetAttributeValue(req, model.CategoryAction, "id", ""))
	})

	t.Run("dotted path into nested maps", func(t *testing.T) {
		assert.Equal(t, "NY", r.GetAttributeValue(req, model.CategorySubject, "profile", "address.city"))
	})

	t.Run("path through a non-map aborts", func(t *testing.T) {
		assert.Nil(t, r.GetAttributeValue(req, model.CategorySubject, "profile", "address.city.zip"))
		assert.Nil(t, r.GetAttributeValue(req, model.CategorySubject, "plain", "anything"))
	})

	t.Run("missing attribute", func(t *testing.T) {
		assert.Nil(t, r.GetAttributeValue(req, model.CategorySubject, "missing", ""))
		assert.Nil(t, r.GetAttributeValue(req, model.CategoryEnvironment, "anything", ""))
	})
}

func TestEnhanceRequest_MergesProviders(t *testing.T) {
	r := engine.NewAttributeResolver(zap.NewNop())
	first := &fakeProvider{category: model.CategorySubject, name: "hr",
		attrs: map[string]any{"department": "Engineering", "level": 5}}
	second := &fakeProvider{category: model.CategorySubject, name: "directory",
		attrs: map[string]any{"level": 7}}
	env := &fakeProvider{category: model.CategoryEnvironment, name: "clock",
		attrs: map[string]any{"business_hours": true}}
	r.AddProvider(first)
	r.AddProvider(second)
	r.AddProvider(env)

	original := &model.Request{
		Subject:  model.Subject{ID: "alice", Attributes: map[string]any{"name": "Alice"}},
		Resource: model.Resource{ID: "doc-1"},
		Action:   model.Action{ID: "read"},
	}

	enhanced := r.EnhanceRequest(context.Background(), original)

	// Later registrations override earlier ones.
	assert.Equal(t, "Engineering", enhanced.Subject.Attributes["department"])
	assert.Equal(t, 7, enhanced.Subject.Attributes["level"])
	assert.Equal(t, "Alice", enhanced.Subject.Attributes["name"])
	assert.Equal(t, true, enhanced.Environment.Attributes["business_hours"])

	// Providers are called with the right entity ids.
	assert.Equal(t, "alice", first.lastID)
	assert.Equal(t, engine.EnvironmentEntityID, env.lastID)

	// The original request is never mutated.
	assert.NotContains(t, original.Subject.Attributes, "department")
	assert.Nil(t, original.Environment.Attributes)
}

func TestEnhanceRequest_IsolatesProviderFailure(t *testing.T) {
	r := engine.NewAttributeResolver(zap.NewNop())
	failing := &fakeProvider{category: model.CategorySubject, name: "flaky",
		err: errors.New("connection refused")}
	healthy := &fakeProvider{category: model.CategorySubject, name: "hr",
		attrs: map[string]any{"department": "Engineering"}}
	r.AddProvider(failing)
	r.AddProvider(healthy)

	original := &model.Request{
		Subject:  model.Subject{ID: "alice", Attributes: map[string]any{"name": "Alice"}},
		Resource: model.Resource{ID: "doc-1"},
		Action:   model.Action{ID: "read"},
	}

	enhanced := r.EnhanceRequest(context.Background(), original)

	assert.Equal(t, "Engineering", enhanced.Subject.Attributes["department"])
	assert.Equal(t, "Alice", enhanced.Subject.Attributes["name"])
	assert.Equal(t, 1, failing.calls)
}

func TestProviderRegistration(t *testing.T) {
	r := engine.NewAttributeResolver(zap.NewNop())
	first := &fakeProvider{category: model.CategorySubject, name: "hr",
		attrs: map[string]any{"department": "Engineering"}}
	r.AddProvider(first)

	t.Run("re-registering a key replaces in place", func(t *testing.T) {
		replacement := &fakeProvider{category: model.CategorySubject, name: "hr",
			attrs: map[string]any{"department": "Research"}}
		r.AddProvider(replacement)
		providers := r.Providers()
		require.Len(t, providers, 1)
		assert.True(t, providers[0].SupportsAttribute("department"))

		req := &model.Request{Subject: model.Subject{ID: "alice"},
			Resource: model.Resource{ID: "d"}, Action: model.Action{ID: "read"}}
		enhanced := r.EnhanceRequest(context.Background(), req)
		assert.Equal(t, "Research", enhanced.Subject.Attributes["department"])
	})

	t.Run("remove by key", func(t *testing.T) {
		r.RemoveProvider("subject:hr")
		assert.Empty(t, r.Providers())
	})

	t.Run("removing an unknown key is a no-op", func(t *testing.T) {
		r.RemoveProvider("subject:unknown")
		assert.Empty(t, r.Providers())
	})
}
