// Package otel wires experiment spans to an OTLP/HTTP collector.
package otel

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options selects where spans go and how many are kept.
type Options struct {
	Service     string
	Version     string  // empty: module version from build info
	Endpoint    string  // empty: tracing off
	SampleRatio float64 // share of experiment traces kept, in [0,1]
}

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup registers a global tracer provider when an endpoint is configured.
// Each experiment run is a root span, so the ratio applies per experiment.
func Setup(ctx context.Context, opt Options) (Shutdown, error) {
	endpoint := strings.TrimSpace(opt.Endpoint)
	if endpoint == "" {
		return noop, nil
	}
	if opt.SampleRatio < 0 || opt.SampleRatio > 1 {
		return noop, fmt.Errorf("sample ratio %v outside [0,1]", opt.SampleRatio)
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(opt.Service),
		semconv.ServiceVersion(version(opt.Version)),
	))
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opt.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func version(v string) string {
	if v != "" {
		return v
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "devel"
}
