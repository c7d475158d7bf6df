// Package cache holds query results under fixed keys.
//
// A Client wraps a storage Backend (in-process or Redis) and adds the
// read-through policy used by the question list:
//
//   - Fetch serves a cached value when present. On a miss, concurrent callers
//     for the same key share one in-flight fetch.
//   - Invalidate drops the stored value. A fetch that was already in flight
//     when the key was invalidated still answers its callers, but its result
//     is not kept: it is skipped, or deleted again if the write was already
//     under way. The next caller fetches again.
//
// Values are stored as JSON so every caller decodes its own copy.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rentalqa/backend/internal/metrics"
	"github.com/rentalqa/backend/pkg/logger"
)

// Backend stores raw cache entries.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Stats struct {
	Hits          int64
	Misses        int64
	Fetches       int64
	Invalidations int64
}

type Client struct {
	backend Backend
	ttl     time.Duration
	flight  singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64

	hits          atomic.Int64
	misses        atomic.Int64
	fetches       atomic.Int64
	invalidations atomic.Int64
}

// New returns a Client over backend. A ttl of zero keeps entries until they
// are invalidated.
func New(backend Backend, ttl time.Duration) *Client {
	return &Client{
		backend:     backend,
		ttl:         ttl,
		generations: make(map[string]uint64),
	}
}

func (c *Client) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return c.set(ctx, key, data)
}

func (c *Client) set(ctx context.Context, key string, data []byte) error {
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("failed to set cache entry %s: %w", key, err)
	}
	return nil
}

// Invalidate marks key stale. The next Fetch for key runs the fetch function.
func (c *Client) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	c.generations[key]++
	c.mu.Unlock()
	c.flight.Forget(key)

	c.invalidations.Add(1)
	metrics.CacheInvalidations.WithLabelValues(c.backend.Name()).Inc()

	if err := c.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to invalidate cache entry %s: %w", key, err)
	}

	logger.Debug("Cache entry invalidated", zap.String("key", key))
	return nil
}

func (c *Client) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Fetches:       c.fetches.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

func (c *Client) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

// Fetch returns the value cached under key, calling fetch on a miss.
//
// Backend read and write failures are logged and treated as a miss or a
// skipped write; only fetch errors reach the caller, unchanged. Failed
// fetches are not cached. The shared fetch is detached from the first
// caller's cancellation so one abandoned request cannot fail the others.
func Fetch[T any](ctx context.Context, c *Client, key string, fetch func(context.Context) (T, error)) (T, error) {
	var value T

	hit, err := c.Get(ctx, key, &value)
	if err != nil {
		logger.Warn("Cache read failed, fetching from source", zap.String("key", key), zap.Error(err))
	}
	if hit {
		c.hits.Add(1)
		metrics.CacheHits.WithLabelValues(c.backend.Name()).Inc()
		return value, nil
	}
	c.misses.Add(1)
	metrics.CacheMisses.WithLabelValues(c.backend.Name()).Inc()

	result, err, shared := c.flight.Do(key, func() (any, error) {
		gen := c.generation(key)
		c.fetches.Add(1)

		fctx := context.WithoutCancel(ctx)
		fetched, err := fetch(fctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(fetched)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache entry %s: %w", key, err)
		}

		if c.generation(key) != gen {
			logger.Debug("Cache entry invalidated during fetch, not storing", zap.String("key", key))
			return data, nil
		}
		if err := c.set(fctx, key, data); err != nil {
			logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
			return data, nil
		}
		// An Invalidate that ran while the write was in flight may have
		// deleted before the value landed.
		if c.generation(key) != gen {
			logger.Debug("Cache entry invalidated during write, dropping it", zap.String("key", key))
			if err := c.backend.Delete(fctx, key); err != nil {
				logger.Warn("Failed to drop stale cache entry", zap.String("key", key), zap.Error(err))
			}
		}
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	if shared {
		logger.Debug("Joined in-flight fetch", zap.String("key", key))
	}

	var out T
	if err := json.Unmarshal(result.([]byte), &out); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return out, nil
}
