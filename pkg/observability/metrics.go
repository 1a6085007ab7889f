package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/ostium-labs/arbbot/internal/config"
)

// MetricsProvider wires the engine's own counters/histograms through an
// OpenTelemetry meter backed by a Prometheus exporter, so a single
// /metrics endpoint can be scraped without also shipping to Jaeger/OTLP.
type MetricsProvider struct {
	meterProvider *sdkmetric.MeterProvider
	meter metric.Meter
	registry *prometheus.Registry

	blockPassesTotal metric.Int64Counter
	blockPassDuration metric.Float64Histogram
	crossedMarketsFound metric.Int64Counter
	gasTierWei metric.Int64Gauge
	bundlesSubmittedTotal metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider. When cfg.MetricsPort is
// 0, metrics are disabled and every Record/Update call on the returned
// provider is a no-op.
func NewMetricsProvider(cfg config.ObservabilityConfig) (*MetricsProvider, error) {
	if cfg.MetricsPort == 0 {
		return &MetricsProvider{}, nil
	}

	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithNamespace("arbbot"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	mp := &MetricsProvider{
		meterProvider: meterProvider,
		meter: meterProvider.Meter(cfg.ServiceName),
		registry: registry,
	}
	if err := mp.initializeMetrics(); err != nil {
		return nil, err
	}
	return mp, nil
}

func (mp *MetricsProvider) initializeMetrics() error {
	var err error

	mp.blockPassesTotal, err = mp.meter.Int64Counter(
		"block_passes_total",
		metric.WithDescription("Block loop passes, by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("observability: create block_passes_total counter: %w", err)
	}

	mp.blockPassDuration, err = mp.meter.Float64Histogram(
		"block_pass_duration_seconds",
		metric.WithDescription("Wall-clock duration of one search-and-submit pass"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("observability: create block_pass_duration histogram: %w", err)
	}

	mp.crossedMarketsFound, err = mp.meter.Int64Counter(
		"crossed_markets_found_total",
		metric.WithDescription("Crossed-market opportunities discovered by the arbitrage engine"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("observability: create crossed_markets_found_total counter: %w", err)
	}

	mp.gasTierWei, err = mp.meter.Int64Gauge(
		"gas_tier_wei",
		metric.WithDescription("Most recently observed gas price tier, in wei"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("observability: create gas_tier_wei gauge: %w", err)
	}

	mp.bundlesSubmittedTotal, err = mp.meter.Int64Counter(
		"bundles_submitted_total",
		metric.WithDescription("Bundles submitted to a relay, by mode and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("observability: create bundles_submitted_total counter: %w", err)
	}

	return nil
}

// RecordBlockPass records one block loop pass: its outcome ("ok"/"error")
// and wall-clock duration.
func (mp *MetricsProvider) RecordBlockPass(ctx context.Context, outcome string, duration time.Duration) {
	if mp.blockPassesTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	mp.blockPassesTotal.Add(ctx, 1, attrs)
	mp.blockPassDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCrossedMarkets adds n (possibly 0) to the crossed-market counter for
// one pass.
func (mp *MetricsProvider) RecordCrossedMarkets(ctx context.Context, n int) {
	if mp.crossedMarketsFound == nil {
		return
	}
	mp.crossedMarketsFound.Add(ctx, int64(n))
}

// RecordGasTiers publishes the four gas tiers read for the current block.
func (mp *MetricsProvider) RecordGasTiers(ctx context.Context, ludicrous, high, medium, low int64) {
	if mp.gasTierWei == nil {
		return
	}
	mp.gasTierWei.Record(ctx, ludicrous, metric.WithAttributes(attribute.String("tier", "ludicrous")))
	mp.gasTierWei.Record(ctx, high, metric.WithAttributes(attribute.String("tier", "high")))
	mp.gasTierWei.Record(ctx, medium, metric.WithAttributes(attribute.String("tier", "medium")))
	mp.gasTierWei.Record(ctx, low, metric.WithAttributes(attribute.String("tier", "low")))
}

// RecordBundleSubmission records one relay submission by mode
// ("simulate"/"send") and outcome ("ok"/"error").
func (mp *MetricsProvider) RecordBundleSubmission(ctx context.Context, mode, outcome string) {
	if mp.bundlesSubmittedTotal == nil {
		return
	}
	mp.bundlesSubmittedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
}

// StartMetricsServer serves /metrics on the given port. It blocks; callers
// run it in its own goroutine.
func (mp *MetricsProvider) StartMetricsServer(port int) error {
	if mp.registry == nil {
		return fmt.Errorf("observability: metrics not enabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(mp.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return server.ListenAndServe()
}

// Shutdown flushes and stops the meter provider, if one was created.
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp.meterProvider == nil {
		return nil
	}
	return mp.meterProvider.Shutdown(ctx)
}
