package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/godilite/wellness-insights/pkg/cache"
)

// TrackingCache wraps an in-memory store and counts calls.
type TrackingCache struct {
	mu       sync.Mutex
	store    *cache.Memory
	GetCalls int
	Hits     int
	SetCalls int
}

func NewTrackingCache() *TrackingCache {
	return &TrackingCache{store: cache.NewMemory()}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	err := c.store.Get(ctx, key, dest)
	c.mu.Lock()
	c.GetCalls++
	if err == nil {
		c.Hits++
	}
	c.mu.Unlock()
	return err
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	c.mu.Lock()
	c.SetCalls++
	c.mu.Unlock()
	return c.store.Set(ctx, key, value, exp)
}

func (c *TrackingCache) Close() error {
	return c.store.Close()
}

// Stats returns a consistent snapshot of the counters.
func (c *TrackingCache) Stats() (gets, hits, sets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.GetCalls, c.Hits, c.SetCalls
}
