package routine

import "context"

type option struct {
	limit       int
	recoverFunc func(ctx context.Context, r interface{})
}

type Option func(*option)

// WithLimit bounds the number of goroutines running at once; Go blocks past the limit.
func WithLimit(limit int) Option {
	return func(o *option) { o.limit = limit }
}

// Recover replaces the handler invoked with the value of a recovered panic.
func Recover(f func(context.Context, interface{})) Option {
	return func(o *option) { o.recoverFunc = f }
}
