// Package tracex installs the process tracer provider.
package tracex

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"

	uuid "github.com/satori/go.uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type traceIDKey struct{}

// WithTraceID makes id, a uuid, the trace id of root spans started from ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey{}, id)
}

func traceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

type option struct {
	serviceName string
	sampleRatio float64
	exporter    sdktrace.SpanExporter
}

type Option func(*option)

func WithServiceName(name string) Option {
	return func(o *option) {
		o.serviceName = name
	}
}

func WithSampleRatio(ratio float64) Option {
	return func(o *option) {
		o.sampleRatio = ratio
	}
}

func WithExporter(exporter sdktrace.SpanExporter) Option {
	return func(o *option) {
		o.exporter = exporter
	}
}

// New builds the tracer provider and installs it globally. Spans go to the
// logger of the process unless another exporter is given.
func New(l *zap.Logger, opts ...Option) *sdktrace.TracerProvider {
	o := &option{
		serviceName: "marketplace",
		sampleRatio: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.exporter == nil {
		o.exporter = NewLogExporter(l)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(o.exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
		sdktrace.WithIDGenerator(newIDGenerator()),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", o.serviceName))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp
}

type idGenerator struct {
	sync.Mutex
	randSource *rand.Rand
}

func newIDGenerator() *idGenerator {
	var rngSeed int64
	_ = binary.Read(crand.Reader, binary.LittleEndian, &rngSeed)
	return &idGenerator{randSource: rand.New(rand.NewSource(rngSeed))}
}

// NewIDs reuses the request trace id so logs and spans share one key.
func (g *idGenerator) NewIDs(ctx context.Context) (trace.TraceID, trace.SpanID) {
	tid, err := uuid.FromString(traceIDFrom(ctx))
	if err != nil {
		tid = uuid.NewV4()
	}
	return trace.TraceID(tid), g.NewSpanID(ctx, trace.TraceID(tid))
}

func (g *idGenerator) NewSpanID(context.Context, trace.TraceID) trace.SpanID {
	g.Lock()
	defer g.Unlock()
	sid := trace.SpanID{}
	_, _ = g.randSource.Read(sid[:])
	return sid
}
