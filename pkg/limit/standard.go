package limit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"marketplace/pkg/clock"
)

type RateLimiter interface {
	// TryAccept takes a token if one is available now.
	TryAccept() bool
	// Accept returns once a token becomes available.
	Accept()
	// Wait returns nil if a token is taken before the Context is done.
	Wait(ctx context.Context) error
}

type AllowRateLimiter struct{}

func (AllowRateLimiter) TryAccept() bool {
	return true
}

func (AllowRateLimiter) Accept() {
}

func (AllowRateLimiter) Wait(context.Context) error {
	return nil
}

type DenyRateLimiter struct{}

func (DenyRateLimiter) TryAccept() bool {
	return false
}

func (DenyRateLimiter) Accept() {
	panic("not implemented")
}

func (DenyRateLimiter) Wait(context.Context) error {
	return errors.New("rate limit denied")
}

// Clock is injectable for tests.
type Clock interface {
	clock.PassiveClock
	Sleep(time.Duration)
}

type stdRateLimiter struct {
	limiter *rate.Limiter
	clock   Clock
}

func NewStdRateLimiter(qps float32, burst int, clock Clock) RateLimiter {
	return &stdRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
		clock:   clock,
	}
}

func (s *stdRateLimiter) TryAccept() bool {
	return s.limiter.AllowN(s.clock.Now(), 1)
}

func (s *stdRateLimiter) Accept() {
	now := s.clock.Now()
	s.clock.Sleep(s.limiter.ReserveN(now, 1).DelayFrom(now))
}

func (s *stdRateLimiter) Wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}
