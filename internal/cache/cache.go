// Package cache provides the key-value session store client for Hireloop.
//
// It wraps a Redis connection with the small surface the controllers need:
// hash and list access, per-key expiration, and an atomic batch primitive
// whose writes become visible to other readers all at once.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Opts holds configuration for the cache client.
type Opts struct {
	// URL is the Redis connection URL (redis://...).
	URL string
}

// Option configures the cache client.
type Option func(*Opts)

// WithURL sets the Redis connection URL.
func WithURL(url string) Option {
	return func(o *Opts) { o.URL = url }
}

// Client is the key-value session store client.
type Client struct {
	rdb redis.UniversalClient
}

// NewClient creates a cache client from the provided options and verifies the
// connection with a ping.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.URL == "" {
		slog.Error("Cache.NewClient: Redis URL not set")
		return nil, fmt.Errorf("redis URL not set")
	}
	ropts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		slog.Error("Cache.NewClient: invalid Redis URL", "error", err)
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Cache.NewClient: ping failed", "error", err)
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	slog.Debug("Cache.NewClient: connected")
	return &Client{rdb: rdb}, nil
}

// NewClientFromRedis wraps an existing Redis connection. Used by tests.
func NewClientFromRedis(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get returns the string value at key, or "" if the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Set stores a string value with an expiration.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, key).Result()
}

// HGet returns one hash field, or "" if the field or key does not exist.
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	v, err := c.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// LRange returns the full contents of a list.
func (c *Client) LRange(ctx context.Context, key string) ([]string, error) {
	return c.rdb.LRange(ctx, key, 0, -1).Result()
}

// LLen returns the length of a list.
func (c *Client) LLen(ctx context.Context, key string) (int64, error) {
	return c.rdb.LLen(ctx, key).Result()
}

// Del removes the given keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Expire sets the time-to-live on a key.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, key, ttl).Err()
}

// Batch queues writes that are applied atomically: other readers observe
// either none or all of them.
type Batch interface {
	HSet(key string, values map[string]interface{})
	HDel(key string, fields ...string)
	RPush(key string, values ...interface{})
	Del(keys ...string)
	Expire(key string, ttl time.Duration)
}

type txBatch struct {
	pipe redis.Pipeliner
	ctx  context.Context
}

func (b *txBatch) HSet(key string, values map[string]interface{}) {
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	b.pipe.HSet(b.ctx, key, args...)
}

func (b *txBatch) HDel(key string, fields ...string) {
	b.pipe.HDel(b.ctx, key, fields...)
}

func (b *txBatch) RPush(key string, values ...interface{}) {
	b.pipe.RPush(b.ctx, key, values...)
}

func (b *txBatch) Del(keys ...string) {
	b.pipe.Del(b.ctx, keys...)
}

func (b *txBatch) Expire(key string, ttl time.Duration) {
	b.pipe.Expire(b.ctx, key, ttl)
}

// RunBatch executes fn's queued writes as one MULTI/EXEC transaction.
func (c *Client) RunBatch(ctx context.Context, fn func(Batch)) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(&txBatch{pipe: pipe, ctx: ctx})
		return nil
	})
	if err != nil {
		slog.Error("Cache.RunBatch: pipeline failed", "error", err)
		return fmt.Errorf("cache batch failed: %w", err)
	}
	return nil
}
