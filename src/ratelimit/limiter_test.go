package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *fakeClock, maxRequests, maxTokens int) *Limiter {
	return New(&config.RateLimitConfig{
		Window:         time.Minute,
		MaxRequests:    maxRequests,
		MaxTokens:      maxTokens,
		NearLimitRatio: 0.8,
	}, WithClock(clock.Now))
}

func TestLimiter_RequestCeilingAndSlide(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 3, 100000)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.CheckRateLimit(10))
		clock.Advance(time.Second)
	}

	err := l.CheckRateLimit(10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrRateLimited))

	// still inside the window
	clock.Advance(30 * time.Second)
	assert.Error(t, l.CheckRateLimit(10))

	// first entry (t=0) ages out at t=60s; we are at t=33s
	clock.Advance(27 * time.Second)
	assert.NoError(t, l.CheckRateLimit(10))
	assert.Equal(t, int64(2), l.Status().Rejected)
}

func TestLimiter_TokenCeiling(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 100, 1000)

	require.NoError(t, l.CheckRateLimit(600))
	assert.Error(t, l.CheckRateLimit(500), "projected 1100 tokens exceeds 1000")
	assert.NoError(t, l.CheckRateLimit(400))
	assert.Equal(t, 1000, l.Status().Tokens)
}

func TestLimiter_TimeUntilAvailable(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 2, 100000)

	assert.Zero(t, l.TimeUntilAvailable(1))

	require.NoError(t, l.CheckRateLimit(1))
	clock.Advance(10 * time.Second)
	require.NoError(t, l.CheckRateLimit(1))
	clock.Advance(5 * time.Second)

	// oldest entry was recorded 15s ago and expires 45s from now
	assert.Equal(t, 45*time.Second, l.TimeUntilAvailable(1))

	clock.Advance(45 * time.Second)
	assert.Zero(t, l.TimeUntilAvailable(1))
}

func TestLimiter_TimeUntilAvailableNeedsSeveralEntries(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 100, 100)

	require.NoError(t, l.CheckRateLimit(40)) // t=0
	clock.Advance(10 * time.Second)
	require.NoError(t, l.CheckRateLimit(40)) // t=10
	clock.Advance(10 * time.Second)
	require.NoError(t, l.CheckRateLimit(10)) // t=20

	// 90 tokens need the first two entries gone: the second expires at t=70
	assert.Equal(t, 50*time.Second, l.TimeUntilAvailable(90))
	// 100 tokens need all three gone: the last expires at t=80
	assert.Equal(t, 60*time.Second, l.TimeUntilAvailable(100))
	assert.Negative(t, l.TimeUntilAvailable(101))
}

func TestLimiter_NearLimit(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 10, 100000)

	for i := 0; i < 8; i++ {
		require.NoError(t, l.CheckRateLimit(1))
	}
	status := l.Status()
	assert.InDelta(t, 0.8, status.Utilization, 1e-9)
	assert.False(t, status.IsNearLimit, "exactly 80%% is not above the ratio")

	require.NoError(t, l.CheckRateLimit(1))
	assert.True(t, l.Status().IsNearLimit)

	clock.Advance(2 * time.Minute)
	status = l.Status()
	assert.Zero(t, status.Requests)
	assert.False(t, status.IsNearLimit)
}

func TestLimiter_WaitAdmitsAfterSlide(t *testing.T) {
	l := New(&config.RateLimitConfig{
		Window:         50 * time.Millisecond,
		MaxRequests:    1,
		MaxTokens:      1000,
		NearLimitRatio: 0.8,
	})

	require.NoError(t, l.CheckRateLimit(1))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), 1))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestLimiter_WaitHonoursCancellation(t *testing.T) {
	l := New(&config.RateLimitConfig{
		Window:         time.Hour,
		MaxRequests:    1,
		MaxTokens:      1000,
		NearLimitRatio: 0.8,
	})
	require.NoError(t, l.CheckRateLimit(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_WaitRejectsOversizedRequest(t *testing.T) {
	l := New(&config.RateLimitConfig{Window: time.Minute, MaxRequests: 10, MaxTokens: 100})
	err := l.Wait(context.Background(), 500)
	assert.ErrorIs(t, err, models.ErrRateLimited)
}

func TestLimiter_Reset(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 1, 100)
	require.NoError(t, l.CheckRateLimit(1))
	require.Error(t, l.CheckRateLimit(1))

	l.Reset()
	status := l.Status()
	assert.Zero(t, status.Requests)
	assert.Zero(t, status.Rejected)
	assert.NoError(t, l.CheckRateLimit(1))
}

func TestLimiter_ConcurrentAdmissionsRespectCeiling(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 50, 1000000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.CheckRateLimit(1) == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, admitted)
}
