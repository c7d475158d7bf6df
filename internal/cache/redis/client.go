// Package redis is the shared cache backend, for deployments that run more
// than one API instance against the same store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/metrics"
	"github.com/rentalqa/backend/pkg/circuitbreaker"
	"github.com/rentalqa/backend/pkg/logger"
)

type Config struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

type Client struct {
	client  *redis.Client
	prefix  string
	breaker *circuitbreaker.CircuitBreaker
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	breaker := circuitbreaker.NewCircuitBreaker("redis-cache", circuitbreaker.Config{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		Logger:           logger.Log,
		OnStateChange: func(name string, _ circuitbreaker.State, to circuitbreaker.State) {
			metrics.CacheBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	logger.Info("Redis client initialized", zap.String("addr", addr))

	return &Client{client: client, prefix: cfg.KeyPrefix, breaker: breaker}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Name() string { return "redis" }

func (c *Client) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	var found bool

	err := c.breaker.Execute(ctx, func() error {
		b, err := c.client.Get(ctx, c.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		data, found = b, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache key: %w", err)
	}

	if found {
		logger.Debug("Redis cache hit", zap.String("key", key))
	}
	return data, found, nil
}

// Set stores data; ttl zero means no expiry.
func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.breaker.Execute(ctx, func() error {
		return c.client.Set(ctx, c.key(key), data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}

	logger.Debug("Redis cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	err := c.breaker.Execute(ctx, func() error {
		return c.client.Del(ctx, c.key(key)).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache key: %w", err)
	}
	return nil
}

// BreakerState reports whether cache traffic is currently being short-circuited.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
