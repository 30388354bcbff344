package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "posts:hero", []byte("a"), time.Minute))
	require.NoError(t, m.Set(ctx, "videos", []byte("b"), 0))

	got, err := m.Get(ctx, "posts:hero")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	clock.Advance(time.Minute)
	_, err = m.Get(ctx, "posts:hero")
	assert.True(t, errors.Is(err, ErrMiss))

	got, err = m.Get(ctx, "videos")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'y'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryDeleteAndSweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := NewMemory(WithClock(clock.Now))
	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))

	require.NoError(t, m.Delete(ctx, "c", "missing"))
	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("VITALPRESS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VITALPRESS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, RedisConfig{Addr: addr, Prefix: "vitalpress-test:"})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer r.Close()

	require.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, r.Delete(ctx, "k"))
	_, err = r.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}
