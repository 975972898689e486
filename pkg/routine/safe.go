package routine

import (
	"context"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"marketplace/pkg/logger"
)

// Pool runs fire-and-forget goroutines whose panics are recovered and logged.
type Pool struct {
	waitGroup sync.WaitGroup
	sem       chan struct{}
	option
}

func NewPool(opts ...Option) *Pool {
	p := &Pool{
		option: option{recoverFunc: logRecover},
	}
	for _, opt := range opts {
		opt(&p.option)
	}
	if p.limit > 0 {
		p.sem = make(chan struct{}, p.limit)
	}
	return p
}

func (p *Pool) Go(ctx context.Context, goroutine func(context.Context)) {
	if p.sem != nil {
		p.sem <- struct{}{}
	}
	p.waitGroup.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil && p.recoverFunc != nil {
				p.recoverFunc(ctx, r)
			}
			if p.sem != nil {
				<-p.sem
			}
			p.waitGroup.Done()
		}()
		goroutine(ctx)
	}()
}

// Wait blocks until every started goroutine returned.
func (p *Pool) Wait() {
	p.waitGroup.Wait()
}

func logRecover(ctx context.Context, r interface{}) {
	logger.From(ctx).Error("goroutine panic",
		zap.Any("panic", r),
		zap.ByteString("stack", debug.Stack()))
}
