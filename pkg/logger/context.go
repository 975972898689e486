package logger

import (
	"context"

	"go.uber.org/zap"
)

type logKey struct{}

// From returns the logger carried by ctx, or a no-op logger.
func From(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(logKey{}).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}
	return l
}

func With(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, l)
}

// Detach copies the logger of ctx onto a background context, for work that must outlive the request.
func Detach(ctx context.Context) context.Context {
	return With(context.Background(), From(ctx))
}
