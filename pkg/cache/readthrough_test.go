package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type payload struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		m := NewMemory()
		var got payload

		assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrMiss)

		require.NoError(t, m.Set(ctx, "k", payload{Name: "a", Score: 2.5}, time.Minute))
		require.NoError(t, m.Get(ctx, "k", &got))
		assert.Equal(t, payload{Name: "a", Score: 2.5}, got)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		m := NewMemory()
		now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return now }

		require.NoError(t, m.Set(ctx, "k", payload{Name: "a"}, time.Second))
		now = now.Add(2 * time.Second)

		var got payload
		assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrMiss)
		assert.Zero(t, m.Len())
	})

	t.Run("close drops entries", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", 1, 0))

		require.NoError(t, m.Close())

		assert.Zero(t, m.Len())
	})
}

func TestFindAndCache(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("miss populates the store", func(t *testing.T) {
		store := NewMemory()
		sf := &singleflight.Group{}
		calls := 0

		fetch := func(context.Context) (payload, error) {
			calls++
			return payload{Name: "fresh", Score: 4}, nil
		}

		got, err := FindAndCache(ctx, store, sf, "k", time.Minute, logger, ReadOptions{}, fetch)
		require.NoError(t, err)
		assert.Equal(t, "fresh", got.Name)

		got, err = FindAndCache(ctx, store, sf, "k", time.Minute, logger, ReadOptions{}, fetch)
		require.NoError(t, err)
		assert.Equal(t, "fresh", got.Name)
		assert.Equal(t, 1, calls)
	})

	t.Run("fetch error is returned and not cached", func(t *testing.T) {
		store := NewMemory()
		boom := errors.New("boom")

		_, err := FindAndCache(ctx, store, &singleflight.Group{}, "k", time.Minute, logger, ReadOptions{},
			func(context.Context) (payload, error) { return payload{}, boom })

		assert.ErrorIs(t, err, boom)
		assert.Zero(t, store.Len())
	})

	t.Run("concurrent misses share one fetch", func(t *testing.T) {
		store := NewMemory()
		sf := &singleflight.Group{}
		var calls atomic.Int32
		release := make(chan struct{})

		fetch := func(context.Context) (payload, error) {
			calls.Add(1)
			<-release
			return payload{Name: "shared"}, nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := FindAndCache(ctx, store, sf, "k", time.Minute, logger, ReadOptions{}, fetch)
				assert.NoError(t, err)
				assert.Equal(t, "shared", got.Name)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.LessOrEqual(t, calls.Load(), int32(8))
		assert.GreaterOrEqual(t, calls.Load(), int32(1))
	})

	t.Run("refresh ahead re-fetches after a hit", func(t *testing.T) {
		store := NewMemory()
		require.NoError(t, store.Set(ctx, "k", payload{Name: "stale"}, time.Minute))
		refreshed := make(chan struct{}, 1)

		got, err := FindAndCache(ctx, store, &singleflight.Group{}, "k", time.Minute, logger, ReadOptions{RefreshAhead: true},
			func(context.Context) (payload, error) {
				refreshed <- struct{}{}
				return payload{Name: "fresh"}, nil
			})

		require.NoError(t, err)
		assert.Equal(t, "stale", got.Name)

		select {
		case <-refreshed:
		case <-time.After(3 * time.Second):
			t.Fatal("background refresh did not run")
		}
	})

	t.Run("nil store always fetches", func(t *testing.T) {
		got, err := FindAndCache[payload](ctx, nil, &singleflight.Group{}, "k", time.Minute, logger, ReadOptions{},
			func(context.Context) (payload, error) { return payload{Name: "direct"}, nil })

		require.NoError(t, err)
		assert.Equal(t, "direct", got.Name)
	})
}

func TestAddTTLJitter(t *testing.T) {
	assert.Equal(t, 10*time.Second, addTTLJitter(10*time.Second))

	for i := 0; i < 50; i++ {
		got := addTTLJitter(10 * time.Minute)
		assert.InDelta(t, float64(10*time.Minute), float64(got), float64(15*time.Second))
	}
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, WithAddress("127.0.0.1:1"), WithDialTimeout(100*time.Millisecond))

	assert.Error(t, err)
}
