package syncx

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotObtained is returned by TryLock, or by Lock once its wait budget is spent.
var ErrNotObtained = errors.New("lock not obtained")

type Locker interface {
	Lock() error
	TryLock() error
	Unlock() error
}

// KeyedLocker hands out one Locker per key; lockers of different keys never contend.
type KeyedLocker interface {
	Locker(ctx context.Context, key string) Locker
}

type NoopLocker struct{}

func (NoopLocker) Lock() error {
	return nil
}

func (NoopLocker) TryLock() error {
	return nil
}

func (NoopLocker) Unlock() error {
	return nil
}

type noopKeyed struct{}

// NewNoopKeyedLocker returns lockers that never block.
func NewNoopKeyedLocker() KeyedLocker {
	return noopKeyed{}
}

func (noopKeyed) Locker(context.Context, string) Locker {
	return NoopLocker{}
}
