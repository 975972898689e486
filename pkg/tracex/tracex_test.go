package tracex

import (
	"context"
	"testing"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestTraceIDFromContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := New(zap.NewNop(), WithExporter(exporter), WithServiceName("test"))
	defer func() {
		require.NoError(t, tp.Shutdown(context.Background()))
	}()

	id := uuid.NewV4()
	ctx := WithTraceID(context.Background(), id.String())
	ctx, parent := otel.Tracer("test").Start(ctx, "parent")
	_, child := otel.Tracer("test").Start(ctx, "child")
	child.End()
	parent.End()
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	for _, span := range spans {
		assert.Equal(t, trace.TraceID(id), span.SpanContext.TraceID())
	}
}

func TestInvalidTraceID(t *testing.T) {
	g := newIDGenerator()
	tid, sid := g.NewIDs(WithTraceID(context.Background(), "not-a-uuid"))
	assert.True(t, tid.IsValid())
	assert.True(t, sid.IsValid())
}
