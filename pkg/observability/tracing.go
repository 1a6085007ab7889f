package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ostium-labs/arbbot/internal/config"
)

// TracingProvider owns the process-wide Jaeger exporter and trace provider,
// when one is configured.
type TracingProvider struct {
	provider *sdktrace.TracerProvider
}

// NewTracingProvider builds a Jaeger-backed tracer provider and registers it
// globally. If cfg.JaegerEndpoint is empty, no exporter is built and the
// process keeps running against the global no-op provider; Tracer() and
// StartSpan() work identically either way, just without recorded spans.
func NewTracingProvider(cfg config.ObservabilityConfig) (*TracingProvider, error) {
	if cfg.JaegerEndpoint == "" {
		return &TracingProvider{}, nil
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("observability: create jaeger exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracingProvider{provider: tp}, nil
}

// Shutdown flushes and stops the exporter, if one was created.
func (tp *TracingProvider) Shutdown(ctx context.Context) error {
	if tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// Tracer returns the package-wide tracer for the arbitrage engine's spans.
// It always resolves against whatever provider is currently registered
// globally, so it picks up a TracingProvider's exporter once one exists.
func Tracer() oteltrace.Tracer {
	return otel.Tracer("arbbot")
}

// SpanFromContext returns the span carried by ctx, if any.
func SpanFromContext(ctx context.Context) oteltrace.Span {
	return oteltrace.SpanFromContext(ctx)
}

// StartSpan starts a child span named name under ctx.
func StartSpan(ctx context.Context, name string, opts ...oteltrace.SpanStartOption) (context.Context, oteltrace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// RecordError records err on the span carried by ctx, if recording.
func RecordError(ctx context.Context, err error) {
	span := SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
