// Package cache keeps weekly task summaries in Redis so repeated summary
// reads skip the aggregate query.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
	"github.com/redis/go-redis/v9"
)

const (
	fieldCompleted = "completed"
	fieldPending   = "pending"

	scanBatch = 100
)

// Cache stores each summary as a Redis hash of its counters under prefix.
// Entries expire after ttl even if nothing invalidates them.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	hits     atomic.Uint64
	misses   atomic.Uint64
	writes   atomic.Uint64
	dropped  atomic.Uint64
	failures atomic.Uint64
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Writes   uint64 `json:"writes"`
	Dropped  uint64 `json:"dropped"`
	Failures uint64 `json:"failures"`
}

// Config holds cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	Prefix        string
	TTL           time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr: "localhost:6379",
		Prefix:    "tasks:",
		TTL:       5 * time.Minute,
	}
}

// New wraps client. Keys are namespaced by prefix.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// GetSummary returns the summary stored under key. A missing or partially
// written entry is a miss.
func (c *Cache) GetSummary(ctx context.Context, key string) (domain.Summary, bool, error) {
	fields, err := c.client.HGetAll(ctx, c.prefix+key).Result()
	if err != nil {
		c.failures.Add(1)
		return domain.Summary{}, false, fmt.Errorf("read summary %s: %w", key, err)
	}

	completed, okC := fields[fieldCompleted]
	pending, okP := fields[fieldPending]
	if !okC || !okP {
		c.misses.Add(1)
		return domain.Summary{}, false, nil
	}

	var s domain.Summary
	if s.Completed, err = strconv.Atoi(completed); err == nil {
		s.Pending, err = strconv.Atoi(pending)
	}
	if err != nil {
		c.failures.Add(1)
		return domain.Summary{}, false, fmt.Errorf("decode summary %s: %w", key, err)
	}

	c.hits.Add(1)
	return s, true, nil
}

// PutSummary writes s under key. The counters and the expiry are set in
// one transaction.
func (c *Cache) PutSummary(ctx context.Context, key string, s domain.Summary) error {
	fullKey := c.prefix + key
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, fullKey, fieldCompleted, s.Completed, fieldPending, s.Pending)
		pipe.Expire(ctx, fullKey, c.ttl)
		return nil
	})
	if err != nil {
		c.failures.Add(1)
		return fmt.Errorf("write summary %s: %w", key, err)
	}

	c.writes.Add(1)
	return nil
}

// DropSummaries removes every entry whose key starts with keyPrefix. An
// empty keyPrefix clears the whole namespace.
func (c *Cache) DropSummaries(ctx context.Context, keyPrefix string) error {
	match := c.prefix + keyPrefix + "*"
	iter := c.client.Scan(ctx, 0, match, scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
			return err
		}
		c.dropped.Add(uint64(len(batch)))
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				c.failures.Add(1)
				return fmt.Errorf("drop summaries: %w", err)
			}
		}
	}
	err := iter.Err()
	if err == nil {
		err = flush()
	}
	if err != nil {
		c.failures.Add(1)
		return fmt.Errorf("drop summaries: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Writes:   c.writes.Load(),
		Dropped:  c.dropped.Load(),
		Failures: c.failures.Load(),
	}
}

// Ping checks if the Redis connection is healthy.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *Cache) Close() error {
	if err := c.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
