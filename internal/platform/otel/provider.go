// Package otel wires OpenTelemetry tracing for garden commands.
package otel

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Environment variables read at startup. Tracing is opt-in: without an
// endpoint no provider is registered, and ASTRAL_GARDEN_OTEL_ENABLED=false
// turns it off even when one is set.
const (
	envEndpoint = "ASTRAL_GARDEN_OTEL_ENDPOINT"
	envEnabled  = "ASTRAL_GARDEN_OTEL_ENABLED"
)

func tracingDisabled() bool {
	if strings.EqualFold(os.Getenv(envEnabled), "false") {
		return true
	}
	return os.Getenv(envEndpoint) == ""
}

// Setup installs a global tracer provider exporting OTLP over HTTP and
// returns the flush function the command defers on exit. When tracing is
// disabled the returned function is a no-op.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if tracingDisabled() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(os.Getenv(envEndpoint)))
	if err != nil {
		return noop, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
