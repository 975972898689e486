package redis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"marketplace/pkg/logger"
)

const (
	redisStatActive = 1
	redisStatError  = 2
)

// Checker tracks whether redis answers. It turns unavailable only after
// maxFailures consecutive failed pings.
type Checker struct {
	client      redis.Cmdable
	maxFailures int
	state       uint32
}

func NewChecker(client redis.Cmdable, maxFailures int) *Checker {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Checker{client: client, maxFailures: maxFailures, state: redisStatActive}
}

func (c *Checker) check(ctx context.Context) {
	for i := 0; i < c.maxFailures; i++ {
		if err := c.client.Ping(ctx).Err(); err == nil {
			if atomic.SwapUint32(&c.state, redisStatActive) != redisStatActive {
				logger.From(ctx).Info("redis is available again")
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
	if atomic.SwapUint32(&c.state, redisStatError) != redisStatError {
		logger.From(ctx).Warn("redis is unavailable", zap.Int("failures", c.maxFailures))
	}
}

// Run checks every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *Checker) Active() bool {
	return atomic.LoadUint32(&c.state) == redisStatActive
}
