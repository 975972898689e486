package tracex

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type logExporter struct {
	log *zap.Logger
}

// NewLogExporter writes every finished span as a debug entry.
func NewLogExporter(l *zap.Logger) sdktrace.SpanExporter {
	return &logExporter{log: l.Named("trace")}
}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := []zap.Field{
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.String("span_id", span.SpanContext().SpanID().String()),
			zap.Duration("duration", span.EndTime().Sub(span.StartTime())),
			zap.String("status", span.Status().Code.String()),
		}
		if span.Parent().IsValid() {
			fields = append(fields, zap.String("parent_id", span.Parent().SpanID().String()))
		}
		for _, kv := range span.Attributes() {
			fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
		}
		e.log.Debug(span.Name(), fields...)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error {
	return e.log.Sync()
}
