// Package observability installs the process-wide OpenTelemetry tracer
// provider used by the gateway's spans and instrumented HTTP transport.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "quizbot"

// TracingConfig selects the span exporters. With neither set, tracing stays
// on the global no-op provider.
type TracingConfig struct {
	// OTLP exports over OTLP/HTTP, configured by the OTEL_EXPORTER_OTLP_* variables.
	OTLP bool
	// Stdout, when non-nil, receives spans as JSON.
	Stdout io.Writer
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// SetupTracing installs a tracer provider as the global one and returns its
// shutdown function.
func SetupTracing(ctx context.Context, cfg TracingConfig) (ShutdownFunc, error) {
	var exporters []sdktrace.SpanExporter
	if cfg.OTLP {
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}
	if cfg.Stdout != nil {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Stdout))
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}
	if len(exporters) == 0 {
		log.Println("tracing: no exporter configured, spans are dropped")
		return func(context.Context) error { return nil }, nil
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	}
	for _, exp := range exporters {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	log.Printf("tracing: exporting spans to %d exporter(s)", len(exporters))

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}, nil
}
