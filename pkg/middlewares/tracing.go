package middlewares

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"marketplace/pkg/tracex"
	"marketplace/pkg/utils/v"
)

// Tracing opens a server span per request named after the matched route.
func Tracing(service string) gin.HandlerFunc {
	tracer := otel.Tracer(service)
	return func(c *gin.Context) {
		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.target", c.Request.URL.Path),
		}
		if userID := c.GetHeader(v.HeaderUserID); userID != "" {
			attrs = append(attrs, attribute.String("user_id", userID))
		}
		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		ctx := tracex.WithTraceID(c.Request.Context(), c.GetHeader(v.HeaderTraceID))
		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", c.Request.Method, name),
			trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(attrs...))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}
