package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("carebridge")

	if cfg.ServiceName != "carebridge" {
		t.Errorf("expected ServiceName 'carebridge', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestApplyDefaultsFillsEmptyFields(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.ServiceName != "synckit" {
		t.Errorf("expected ServiceName 'synckit', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected default endpoint, got %s", cfg.Endpoint)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestInitDisabledReturnsNil(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Enabled: false}

	tp, err := InitTracer(ctx, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp != nil {
		t.Error("expected nil tracer provider when disabled")
	}

	mp, err := InitMeter(ctx, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mp != nil {
		t.Error("expected nil meter provider when disabled")
	}
}

func TestNewMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected non-nil metrics")
	}

	ctx := context.Background()
	metrics.RecordOperation(ctx, "appointments", "ok", 50*time.Millisecond)
	metrics.RecordRetry(ctx, "appointments")
	metrics.RecordResolution("merge")
	metrics.QueueDepthObserver()(3)
	metrics.OpenConflictObserver()(1)
}
