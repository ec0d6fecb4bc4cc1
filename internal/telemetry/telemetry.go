// Package telemetry wraps go.opentelemetry.io/otel behind the narrow
// span+counter surface the TRIAD Orchestrator needs, grounded on the
// teacher's OTelProvider (telemetry/otel.go's NewOTelProvider,
// StartSpan, RecordMetric) and on core.Telemetry/core.Span
// (core/interfaces.go) — generalized to a single struct since this
// repo has no separate core/telemetry module split to preserve.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/ridewave/triad"

// Config selects how spans leave the process. An empty OTLPEndpoint
// keeps traces local via stdout, matching the teacher's
// development-mode fallback; a non-empty one switches to OTLP/gRPC,
// the teacher's production exporter (go.mod's otlptracegrpc direct
// require).
type Config struct {
	ServiceName  string
	OTLPEndpoint string
}

// Provider is the Orchestrator's handle on tracing and metrics.
type Provider struct {
	tracer      trace.Tracer
	jobsCounter metric.Int64Counter
}

// New builds a live Provider backed by a real span exporter and an
// in-process metric pipeline. The returned func flushes and closes
// both on shutdown.
func New(cfg Config) (*Provider, func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "triad-orchestrator"
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.ServiceName),
	)

	var err error
	var exporter sdktrace.SpanExporter
	if cfg.OTLPEndpoint != "" {
		exporter, err = otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithoutTimestamps())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build span exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)

	meter := mp.Meter(instrumentationName)
	jobsCounter, err := meter.Int64Counter("triad.jobs.completed",
		metric.WithDescription("TRIAD jobs reaching a terminal status, by status"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build counter: %w", err)
	}

	shutdown := func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		return mp.Shutdown(ctx)
	}

	return &Provider{tracer: tp.Tracer(instrumentationName), jobsCounter: jobsCounter}, shutdown, nil
}

// NoOp returns a Provider that discards every span and counter
// increment, for tests and any caller that hasn't configured a
// collector.
func NoOp() *Provider {
	tp := tracenoop.NewTracerProvider()
	mp := metricnoop.NewMeterProvider()
	counter, _ := mp.Meter(instrumentationName).Int64Counter("triad.jobs.completed")
	return &Provider{tracer: tp.Tracer(instrumentationName), jobsCounter: counter}
}

// StartSpan opens a span named name, carrying attrs, as a child of
// whatever span ctx already holds.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordJobOutcome increments the completed-jobs counter, tagged by
// terminal status (spec.md §7's ExecutionRecord.Status).
func (p *Provider) RecordJobOutcome(ctx context.Context, status string) {
	p.jobsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
