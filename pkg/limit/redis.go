package limit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"marketplace/pkg/code"
)

// reserveScript takes ARGV[4] tokens from the bucket KEYS[1] refilled at
// ARGV[1] tokens per second up to ARGV[2]. It returns the milliseconds to wait
// for the reservation, -1 when the request exceeds the burst and -2 when the
// wait would exceed ARGV[5] (a negative ARGV[5] waits forever). A refused
// reservation takes nothing.
var reserveScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local max_wait = tonumber(ARGV[5])

if requested > burst then
    return -1
end
local values = redis.call("HMGET", KEYS[1], "tokens", "last")
local tokens = tonumber(values[1]) or burst
local last = tonumber(values[2]) or now
tokens = math.min(burst, tokens + math.max(0, now - last) * rate / 1000)

local wait = 0
if tokens < requested then
    wait = math.ceil((requested - tokens) * 1000 / rate)
end
if max_wait >= 0 and wait > max_wait then
    return -2
end
redis.call("HSET", KEYS[1], "tokens", tostring(tokens - requested), "last", now)
redis.call("PEXPIRE", KEYS[1], math.ceil(burst * 1000 / rate) + 1000)
return wait
`)

// cancelScript gives ARGV[2] tokens back to KEYS[1], capped at the burst ARGV[1].
var cancelScript = redis.NewScript(`
local burst = tonumber(ARGV[1])
local requested = tonumber(ARGV[2])
local tokens = tonumber(redis.call("HGET", KEYS[1], "tokens"))
if tokens == nil then
    return 0
end
redis.call("HSET", KEYS[1], "tokens", tostring(math.min(burst, tokens + requested)))
return 0
`)

type redisRateLimiter struct {
	store redis.Scripter
	qps   float32
	burst int
	clock Clock
	key   string
}

// NewRedisRateLimiter shares one token bucket per key across every replica.
func NewRedisRateLimiter(store redis.Scripter, qps float32, burst int, key string, clock Clock) RateLimiter {
	return &redisRateLimiter{
		store: store,
		qps:   qps,
		burst: burst,
		clock: clock,
		key:   "rate_limiter:{" + key + "}",
	}
}

func (r *redisRateLimiter) TryAccept() bool {
	_, err := r.reserve(context.Background(), 1, 0)
	return err == nil
}

func (r *redisRateLimiter) Accept() {
	wait, err := r.reserve(context.Background(), 1, -1)
	if err != nil {
		return
	}
	r.clock.Sleep(wait)
}

func (r *redisRateLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	maxWait := time.Duration(-1)
	if deadline, ok := ctx.Deadline(); ok {
		maxWait = deadline.Sub(r.clock.Now())
		if maxWait < 0 {
			maxWait = 0
		}
	}
	wait, err := r.reserve(ctx, 1, maxWait)
	if err != nil {
		return errors.WithStack(code.ErrTooManyRequests.WithResult(err.Error()))
	}
	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		// give the reservation back so later callers are not delayed by it
		return multierr.Append(ctx.Err(), r.cancel(context.Background(), 1))
	}
}

func (r *redisRateLimiter) reserve(ctx context.Context, n int, maxWait time.Duration) (time.Duration, error) {
	maxWaitMs := int64(-1)
	if maxWait >= 0 {
		maxWaitMs = maxWait.Milliseconds()
	}
	resp, err := reserveScript.Run(ctx, r.store, []string{r.key},
		r.qps, r.burst, r.clock.Now().UnixMilli(), n, maxWaitMs).Int64()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	switch resp {
	case -1:
		return 0, errors.Errorf("rate: Wait(n=%d) exceeds limiter's burst %d", n, r.burst)
	case -2:
		return 0, errors.Errorf("rate: Wait(n=%d) exceeds the allowed wait %s", n, maxWait)
	}
	return time.Duration(resp) * time.Millisecond, nil
}

func (r *redisRateLimiter) cancel(ctx context.Context, n int) error {
	return errors.WithStack(cancelScript.Run(ctx, r.store, []string{r.key}, r.burst, n).Err())
}
