// engine/functions.go

package engine

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"

	"github.com/arbiterhq/arbiter/attribute"
	"github.com/arbiterhq/arbiter/model"
)

// ConditionFunc is a named predicate usable from function conditions.
// Arguments arrive already resolved (attribute references replaced by
// their values, nested conditions by their boolean results); the
// enhanced request and the current provider list are passed alongside.
type ConditionFunc func(ctx context.Context, args []any, request *model.Request, providers []attribute.Provider) (bool, error)

// FunctionRegistry maps names to condition functions. It ships with a
// small built-in set and accepts custom registrations; later
// registrations for a name replace earlier ones.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]ConditionFunc
}

func NewFunctionRegistry() *FunctionRegistry {
	r := &FunctionRegistry{functions: make(map[string]ConditionFunc)}
	r.Register("timeBetween", timeBetween)
	r.Register("ipInCIDR", ipInCIDR)
	r.Register("dayOfWeekIn", dayOfWeekIn)
	r.Register("attributeContains", attributeContains)
	return r
}

func (r *FunctionRegistry) Register(name string, fn ConditionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[name] = fn
}

func (r *FunctionRegistry) Get(name string) (ConditionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[name]
	return fn, ok
}

// Names returns the registered function names, for diagnostics.
func (r *FunctionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}

// timeBetween(start, end) reports whether the current time falls inside
// the RFC3339 window [start, end].
func timeBetween(ctx context.Context, args []any, request *model.Request, providers []attribute.Provider) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("%w: timeBetween expects 2 args, got %d", arbiter_errors.ErrInvalidCondition, len(args))
	}
	start, err := time.Parse(time.RFC3339, toString(args[0]))
	if err != nil {
		return false, fmt.Errorf("timeBetween start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, toString(args[1]))
	if err != nil {
		return false, fmt.Errorf("timeBetween end: %w", err)
	}
	now := time.Now()
	return now.After(start) && now.Before(end), nil
}

// ipInCIDR(ip, cidr) reports whether ip falls inside the CIDR range.
func ipInCIDR(ctx context.Context, args []any, request *model.Request, providers []attribute.Provider) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("%w: ipInCIDR expects 2 args, got %d", arbiter_errors.ErrInvalidCondition, len(args))
	}
	ip := net.ParseIP(toString(args[0]))
	if ip == nil {
		return false, fmt.Errorf("ipInCIDR: invalid IP %q", toString(args[0]))
	}
	_, network, err := net.ParseCIDR(toString(args[1]))
	if err != nil {
		return false, fmt.Errorf("ipInCIDR: %w", err)
	}
	return network.Contains(ip), nil
}

// dayOfWeekIn(day...) reports whether the current weekday is among the
// given day names (case-insensitive).
func dayOfWeekIn(ctx context.Context, args []any, request *model.Request, providers []attribute.Provider) (bool, error) {
	today := strings.ToLower(time.Now().Weekday().String())
	for _, arg := range args {
		if strings.ToLower(toString(arg)) == today {
			return true, nil
		}
	}
	return false, nil
}

// attributeContains(haystack, needle) tests slice membership when the
// first argument is an array, substring containment when it is a
// string.
func attributeContains(ctx context.Context, args []any, request *model.Request, providers []attribute.Provider) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("%w: attributeContains expects 2 args, got %d", arbiter_errors.ErrInvalidCondition, len(args))
	}
	switch haystack := args[0].(type) {
	case []any:
		for _, item := range haystack {
			if strictEqual(item, args[1]) {
				return true, nil
			}
		}
		return false, nil
	case []string:
		needle := toString(args[1])
		for _, item := range haystack {
			if item == needle {
				return true, nil
			}
		}
		return false, nil
	default:
		return strings.Contains(toString(args[0]), toString(args[1])), nil
	}
}
