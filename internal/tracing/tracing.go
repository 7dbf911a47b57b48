// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tracing sets up OpenTelemetry spans for pipeline runs.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies this program in exported spans.
const ServiceName = "paper-agent"

// Shutdown flushes pending spans and releases the exporter.
type Shutdown func(context.Context) error

// Init returns a tracer whose spans are written to w as JSON. The returned
// Shutdown must be called before exit to flush buffered spans.
func Init(w io.Writer, version string) (trace.Tracer, Shutdown, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("creating span exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version),
		)),
	)
	return tp.Tracer(ServiceName), tp.Shutdown, nil
}

// Disabled returns a tracer that records nothing.
func Disabled() (trace.Tracer, Shutdown) {
	return noop.NewTracerProvider().Tracer(ServiceName), func(context.Context) error { return nil }
}
