package routine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrGroup runs goroutines sharing one context, cancelled by the first error or panic.
type ErrGroup struct {
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	sem       chan struct{}
	errOnce   sync.Once
	err       error
}

func NewGroup(ctx context.Context, opts ...Option) *ErrGroup {
	newCtx, cancel := context.WithCancel(ctx)
	o := option{}
	for _, opt := range opts {
		opt(&o)
	}
	g := &ErrGroup{
		ctx:    newCtx,
		cancel: cancel,
	}
	if o.limit > 0 {
		g.sem = make(chan struct{}, o.limit)
	}
	return g
}

// Go starts a recoverable goroutine; a panic is reported as the group error.
func (e *ErrGroup) Go(goroutine func(context.Context) error) {
	if e.sem != nil {
		e.sem <- struct{}{}
	}
	e.waitGroup.Add(1)
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
			if err != nil {
				e.errOnce.Do(func() {
					e.err = err
					e.cancel()
				})
			}
			if e.sem != nil {
				<-e.sem
			}
			e.waitGroup.Done()
		}()
		err = goroutine(e.ctx)
	}()
}

func (e *ErrGroup) Wait() error {
	e.waitGroup.Wait()
	e.cancel()
	return e.err
}
