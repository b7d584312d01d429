package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/carebridge/synckit/logger"
)

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit,
// or nil when telemetry is disabled.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	cfg.ApplyDefaults()

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.Interval),
		)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments the synckit core records into. It
// implements the coordinator's Recorder interface; the observer methods
// plug into the offline queue and conflict resolver hooks.
type Metrics struct {
	operations  metric.Int64Counter
	duration    metric.Float64Histogram
	retries     metric.Int64Counter
	resolutions metric.Int64Counter
	queueDepth  metric.Int64Gauge
	conflicts   metric.Int64Gauge
}

// NewMetrics creates the synckit instrument set on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operations, err := meter.Int64Counter("synckit.operations",
		metric.WithDescription("Coordinated operations by section and outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("synckit.operation.duration",
		metric.WithDescription("Coordinated operation duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	retries, err := meter.Int64Counter("synckit.retries",
		metric.WithDescription("Retry attempts by section"))
	if err != nil {
		return nil, err
	}
	resolutions, err := meter.Int64Counter("synckit.conflict.resolutions",
		metric.WithDescription("Resolved conflicts by strategy"))
	if err != nil {
		return nil, err
	}
	queueDepth, err := meter.Int64Gauge("synckit.offline.queue_depth",
		metric.WithDescription("Pending offline actions"))
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Gauge("synckit.conflict.open",
		metric.WithDescription("Open data conflicts"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		operations:  operations,
		duration:    duration,
		retries:     retries,
		resolutions: resolutions,
		queueDepth:  queueDepth,
		conflicts:   conflicts,
	}, nil
}

// RecordOperation records one coordinated operation.
func (m *Metrics) RecordOperation(ctx context.Context, section, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("section", section),
		attribute.String("outcome", outcome),
	)
	m.operations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(d.Milliseconds()), attrs)
}

// RecordRetry records one retry attempt.
func (m *Metrics) RecordRetry(ctx context.Context, section string) {
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("section", section)))
}

// RecordResolution records one resolved conflict.
func (m *Metrics) RecordResolution(strategy string) {
	m.resolutions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("strategy", strategy)))
}

// QueueDepthObserver adapts the gauge to the offline queue's depth hook.
func (m *Metrics) QueueDepthObserver() func(int) {
	return func(depth int) {
		m.queueDepth.Record(context.Background(), int64(depth))
	}
}

// OpenConflictObserver adapts the gauge to the conflict resolver's hook.
func (m *Metrics) OpenConflictObserver() func(int) {
	return func(open int) {
		m.conflicts.Record(context.Background(), int64(open))
	}
}
