// cache/cache.go

// Package cache provides the simple TTL policy cache integrators can
// put in front of their policy storage. The engine itself never reads
// it; policies are supplied per evaluation call.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/arbiterhq/arbiter/model"
)

// ErrNotFound is returned when no live entry exists for a policy id.
var ErrNotFound = errors.New("policy not found in cache")

// PolicyCache stores policies by id with a time-to-live.
type PolicyCache interface {
	Get(ctx context.Context, policyID string) (*model.ABACPolicy, error)
	Set(ctx context.Context, policy *model.ABACPolicy, ttl time.Duration) error
	Delete(ctx context.Context, policyID string) error
}
