// Package memory is the in-process cache backend.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

type Backend struct {
	store *gocache.Cache
}

func New() *Backend {
	return &Backend{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (b *Backend) Name() string { return "memory" }

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

// Set stores data; ttl zero means no expiry.
func (b *Backend) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	b.store.Set(key, data, ttl)
	return nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.store.Delete(key)
	return nil
}
