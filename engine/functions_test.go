package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterhq/arbiter/attribute"
	"github.com/arbiterhq/arbiter/engine"
	"github.com/arbiterhq/arbiter/model"
)

func callBuiltin(t *testing.T, name string, args ...any) (bool, error) {
	t.Helper()
	registry := engine.NewFunctionRegistry()
	fn, ok := registry.Get(name)
	require.True(t, ok, "builtin %q should be registered", name)
	return fn(context.Background(), args, &model.Request{}, nil)
}

func TestBuiltin_TimeBetween(t *testing.T) {
	now := time.Now()
	inside, err := callBuiltin(t, "timeBetween",
		now.Add(-time.Hour).Format(time.RFC3339),
		now.Add(time.Hour).Format(time.RFC3339))
	require.NoError(t, err)
	assert.True(t, inside)

	outside, err := callBuiltin(t, "timeBetween",
		now.Add(time.Hour).Format(time.RFC3339),
		now.Add(2*time.Hour).Format(time.RFC3339))
	require.NoError(t, err)
	assert.False(t, outside)

	_, err = callBuiltin(t, "timeBetween", "not-a-time", "also-not")
	assert.Error(t, err)

	_, err = callBuiltin(t, "timeBetween", "lonely-arg")
	assert.Error(t, err)
}

func TestBuiltin_IPInCIDR(t *testing.T) {
	inside, err := callBuiltin(t, "ipInCIDR", "10.1.2.3", "10.0.0.0/8")
	require.NoError(t, err)
	assert.True(t, inside)

	outside, err := callBuiltin(t, "ipInCIDR", "192.168.0.1", "10.0.0.0/8")
	require.NoError(t, err)
	assert.False(t, outside)

	_, err = callBuiltin(t, "ipInCIDR", "not-an-ip", "10.0.0.0/8")
	assert.Error(t, err)

	_, err = callBuiltin(t, "ipInCIDR", "10.1.2.3", "not-a-cidr")
	assert.Error(t, err)
}

func TestBuiltin_DayOfWeekIn(t *testing.T) {
	today := time.Now().Weekday().String()

	match, err := callBuiltin(t, "dayOfWeekIn", today)
	require.NoError(t, err)
	assert.True(t, match)

	none, err := callBuiltin(t, "dayOfWeekIn")
	require.NoError(t, err)
	assert.False(t, none)
}

func TestBuiltin_AttributeContains(t *testing.T) {
	inSlice, err := callBuiltin(t, "attributeContains", []any{"developer", "reviewer"}, "reviewer")
	require.NoError(t, err)
	assert.True(t, inSlice)

	inStringSlice, err := callBuiltin(t, "attributeContains", []string{"a", "b"}, "b")
	require.NoError(t, err)
	assert.True(t, inStringSlice)

	substring, err := callBuiltin(t, "attributeContains", "alice@example.com", "@example")
	require.NoError(t, err)
	assert.True(t, substring)

	missing, err := callBuiltin(t, "attributeContains", []any{"developer"}, "admin")
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestRegistry_CustomRegistrationReplacesBuiltin(t *testing.T) {
	registry := engine.NewFunctionRegistry()
	registry.Register("dayOfWeekIn", func(ctx context.Context, args []any, request *model.Request, providers []attribute.Provider) (bool, error) {
		return true, nil
	})
	fn, ok := registry.Get("dayOfWeekIn")
	require.True(t, ok)
	got, err := fn(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Contains(t, registry.Names(), "timeBetween")
}
