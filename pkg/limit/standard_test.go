package limit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Since(ts time.Time) time.Duration { return f.now.Sub(ts) }

func (f *fakeClock) Sleep(d time.Duration) { f.now = f.now.Add(d) }

func TestStdRateLimiterBurst(t *testing.T) {
	c := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewStdRateLimiter(1, 2, c)
	assert.True(t, rl.TryAccept())
	assert.True(t, rl.TryAccept())
	assert.False(t, rl.TryAccept())

	c.Sleep(time.Second)
	assert.True(t, rl.TryAccept())
	assert.False(t, rl.TryAccept())
}

func TestStdRateLimiterAcceptSleeps(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &fakeClock{now: start}
	rl := NewStdRateLimiter(2, 1, c)
	rl.Accept()
	rl.Accept()
	assert.Equal(t, 500*time.Millisecond, c.now.Sub(start))
}

func TestFixedLimiters(t *testing.T) {
	assert.True(t, AllowRateLimiter{}.TryAccept())
	assert.NoError(t, AllowRateLimiter{}.Wait(context.Background()))
	assert.False(t, DenyRateLimiter{}.TryAccept())
	assert.Error(t, DenyRateLimiter{}.Wait(context.Background()))
}
