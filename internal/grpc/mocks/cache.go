package mocks

import (
	"context"
	"time"

	"github.com/godilite/wellness-insights/pkg/cache"
)

// MockCacher stands in for the insights result store in handler tests.
// With no GetFunc set every lookup misses, so handlers fall through to the
// insights service, and writes are accepted and dropped.
type MockCacher struct {
	GetFunc   func(ctx context.Context, key string, dest any) error
	SetFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	CloseFunc func() error
}

// Get looks up a cached Insights payload by its filter key.
func (m *MockCacher) Get(ctx context.Context, key string, dest any) error {
	if m.GetFunc == nil {
		return cache.ErrMiss
	}
	return m.GetFunc(ctx, key, dest)
}

// Set stores a computed Insights payload for the cache TTL.
func (m *MockCacher) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}

func (m *MockCacher) Close() error {
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}
