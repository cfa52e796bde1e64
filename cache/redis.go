// cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/model"
)

// RedisCache stores policies as JSON documents in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// RedisOptions mirrors the subset of redis.Options deployments tune.
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// NewRedisCache connects to Redis and verifies the connection with a
// ping before returning.
func NewRedisCache(opts RedisOptions, log *zap.Logger) (*RedisCache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Connected to Redis policy cache", zap.String("addr", opts.Addr))
	return &RedisCache{client: client, log: log}, nil
}

func policyKey(policyID string) string {
	return "policy:" + policyID
}

func (c *RedisCache) Get(ctx context.Context, policyID string) (*model.ABACPolicy, error) {
	data, err := c.client.Get(ctx, policyKey(policyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached policy: %w", err)
	}
	var policy model.ABACPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("cached policy %s is corrupt: %w", policyID, err)
	}
	return &policy, nil
}

func (c *RedisCache) Set(ctx context.Context, policy *model.ABACPolicy, ttl time.Duration) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, policyKey(policy.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache policy %s: %w", policy.ID, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, policyID string) error {
	return c.client.Del(ctx, policyKey(policyID)).Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() {
	if err := c.client.Close(); err != nil {
		c.log.Error("Error closing Redis connection", zap.Error(err))
	}
}
