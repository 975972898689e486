// Package ctxw carries the caller identity of a request through context.Context.
package ctxw

import (
	"context"

	"marketplace/pkg/logger"
)

type (
	headerUserIDKey   struct{}
	headerTraceIDKey  struct{}
	headerApproverKey struct{}
)

// Approver records which review roles the gateway granted the caller.
type Approver struct {
	Consumer bool
	Provider bool
}

// NewContext copies the identity and logger of ctx into a context that is not
// canceled with it, for work that outlives the request.
func NewContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	if userID := GetUserID(ctx); userID != "" {
		newCtx = SetUserID(newCtx, userID)
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		newCtx = SetTraceID(newCtx, traceID)
	}
	newCtx = SetApprover(newCtx, GetApprover(ctx))
	return logger.With(newCtx, logger.From(ctx))
}

func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, headerUserIDKey{}, userID)
}

func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(headerUserIDKey{}).(string)
	if !ok {
		return ""
	}
	return userID
}

func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, headerTraceIDKey{}, traceID)
}

func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(headerTraceIDKey{}).(string)
	if !ok {
		return ""
	}
	return traceID
}

func SetApprover(ctx context.Context, a Approver) context.Context {
	return context.WithValue(ctx, headerApproverKey{}, a)
}

func GetApprover(ctx context.Context) Approver {
	a, _ := ctx.Value(headerApproverKey{}).(Approver)
	return a
}
