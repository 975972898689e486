package syncx

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// NewRedisKeyedLocker returns a KeyedLocker backed by redis leases, shared by every replica.
// A lease expires after ttl even if its holder crashed; Lock retries until wait has elapsed.
func NewRedisKeyedLocker(client redis.UniversalClient, prefix string, ttl, wait time.Duration) KeyedLocker {
	return &redisKeyed{
		client: redislock.New(client),
		prefix: prefix,
		ttl:    ttl,
		wait:   wait,
	}
}

type redisKeyed struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

func (r *redisKeyed) Locker(ctx context.Context, key string) Locker {
	return &redisMutex{ctx: ctx, keyed: r, key: r.prefix + key}
}

type redisMutex struct {
	ctx   context.Context
	keyed *redisKeyed
	key   string
	lock  *redislock.Lock
}

func (m *redisMutex) obtain(opt *redislock.Options) error {
	lock, err := m.keyed.client.Obtain(m.ctx, m.key, m.keyed.ttl, opt)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return ErrNotObtained
		}
		return errors.WithStack(err)
	}
	m.lock = lock
	return nil
}

func (m *redisMutex) Lock() error {
	step := 50 * time.Millisecond
	retries := int(m.keyed.wait / step)
	return m.obtain(&redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(step), retries),
	})
}

func (m *redisMutex) TryLock() error {
	return m.obtain(nil)
}

func (m *redisMutex) Unlock() error {
	if m.lock == nil {
		return nil
	}
	err := m.lock.Release(m.ctx)
	m.lock = nil
	if err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return errors.WithStack(err)
	}
	return nil
}
