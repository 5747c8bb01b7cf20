package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(limit int) (*SlidingWindowLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewSlidingWindowLimiter(limit, time.Minute)
	l.now = clock.now
	return l, clock
}

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(2)

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "ip:1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := l.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other keys are independent
	ok, _ = l.Allow(ctx, "ip:2")
	assert.True(t, ok)

	clock.t = clock.t.Add(time.Minute + time.Second)
	ok, _ = l.Allow(ctx, "ip:1")
	assert.True(t, ok)
}

func TestSlidingWindowLimiter_ResetAndPrune(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(1)

	_, _ = l.Allow(ctx, "a")
	_, _ = l.Allow(ctx, "b")

	l.Reset("a")
	ok, _ := l.Allow(ctx, "a")
	assert.True(t, ok)

	clock.t = clock.t.Add(2 * time.Minute)
	assert.Equal(t, 2, l.Prune())
	assert.Equal(t, 0, l.Prune())
}

func TestSlidingWindowLimiter_CancelledContext(t *testing.T) {
	l, _ := newTestLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Allow(ctx, "a")

	assert.ErrorIs(t, err, context.Canceled)
}
