// Package otel wires the engine's action spans to an OTLP collector.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Shutdown flushes pending spans and stops the exporter.
type Shutdown func(context.Context) error

type settings struct {
	logger      *zap.Logger
	headers     map[string]string
	sampleRatio float64
	version     string
}

// Option adjusts tracing setup.
type Option func(*settings)

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHeaders adds headers to every export request, typically collector
// credentials.
func WithHeaders(headers map[string]string) Option {
	return func(s *settings) { s.headers = headers }
}

// WithSampleRatio samples the given fraction of resolutions. Nested
// actions follow their root's decision, so a game turn is traced whole or
// not at all. Ratios at or above 1 sample everything.
func WithSampleRatio(ratio float64) Option {
	return func(s *settings) { s.sampleRatio = ratio }
}

// WithVersion records the server build on the trace resource.
func WithVersion(version string) Option {
	return func(s *settings) { s.version = version }
}

func (s settings) sampler() sdktrace.Sampler {
	if s.sampleRatio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.sampleRatio))
}

// Setup installs a global tracer provider exporting to the OTLP/HTTP
// endpoint, e.g. "http://localhost:4318".
//
// An empty endpoint leaves the global provider alone, so the engine's
// spans are dropped, and returns a no-op Shutdown.
func Setup(ctx context.Context, endpoint, serviceName string, opts ...Option) (Shutdown, error) {
	s := settings{logger: zap.NewNop(), sampleRatio: 1}
	for _, opt := range opts {
		opt(&s)
	}
	noop := func(context.Context) error { return nil }

	if endpoint == "" {
		s.logger.Debug("trace export disabled")
		return noop, nil
	}

	exportOpts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	if len(s.headers) > 0 {
		exportOpts = append(exportOpts, otlptracehttp.WithHeaders(s.headers))
	}
	exporter, err := otlptracehttp.New(ctx, exportOpts...)
	if err != nil {
		return noop, fmt.Errorf("create otlp exporter: %w", err)
	}

	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(serviceName))}
	if s.version != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(s.version)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return noop, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(s.sampler()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	s.logger.Info("trace export enabled",
		zap.String("endpoint", endpoint),
		zap.String("service", serviceName),
		zap.Float64("sample_ratio", min(s.sampleRatio, 1)),
		zap.Int("headers", len(s.headers)))

	return tp.Shutdown, nil
}
