// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider selects the span exporter.
type Provider string

const (
	// NoopProvider records spans without exporting them.
	NoopProvider Provider = "noop"
	// StdoutProvider writes spans as JSON.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports over OTLP/gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports over OTLP/HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

const instrumentationName = "rivaas.dev/params/tracing"

// ErrInvalidConfig is returned by [New] for an invalid configuration.
var ErrInvalidConfig = errors.New("invalid tracing configuration")

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Tracer owns a tracer provider and the propagator of incoming requests.
// It is safe for concurrent use.
type Tracer struct {
	provider       Provider
	endpoint       string
	insecure       bool
	stdout         io.Writer
	processors     []sdktrace.SpanProcessor
	sampleRate     float64
	propagator     propagation.TextMapPropagator
	serviceName    string
	serviceVersion string
	registerGlobal bool
	logger         *slog.Logger

	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer

	isShuttingDown atomic.Bool
}

// New creates a [Tracer]. ctx bounds the connection setup of OTLP exporters.
// Returns an error if configuration is invalid.
func New(ctx context.Context, opts ...Option) (*Tracer, error) {
	t := &Tracer{
		provider:    NoopProvider,
		sampleRate:  1,
		serviceName: "params",
		logger:      noopLogger,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	exporter, err := t.newExporter(ctx)
	if err != nil {
		return nil, err
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", t.serviceName),
			attribute.String("service.version", t.serviceVersion),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	for _, p := range t.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}

	t.sdk = sdktrace.NewTracerProvider(tpOpts...)
	t.tracer = t.sdk.Tracer(instrumentationName)

	if t.registerGlobal {
		otel.SetTracerProvider(t.sdk)
		otel.SetTextMapPropagator(t.propagator)
	}
	t.logger.InfoContext(ctx, "tracing initialized", "provider", t.provider, "service", t.serviceName)

	return t, nil
}

// MustNew creates a [Tracer].
// Panics if configuration is invalid.
func MustNew(ctx context.Context, opts ...Option) *Tracer {
	t, err := New(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("tracing.MustNew: %v", err))
	}

	return t
}

func (t *Tracer) validate() error {
	if t.sampleRate < 0 || t.sampleRate > 1 {
		return fmt.Errorf("%w: sample rate must be within [0, 1], got %v", ErrInvalidConfig, t.sampleRate)
	}
	if t.serviceName == "" {
		return fmt.Errorf("%w: service name is empty", ErrInvalidConfig)
	}
	switch t.provider {
	case NoopProvider, StdoutProvider:
	case OTLPProvider, OTLPHTTPProvider:
		if t.endpoint == "" {
			return fmt.Errorf("%w: %s provider requires an endpoint", ErrInvalidConfig, t.provider)
		}
	default:
		return fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, t.provider)
	}

	return nil
}

func (t *Tracer) newExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch t.provider {
	case StdoutProvider:
		w := t.stdout
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		return exp, nil

	case OTLPHTTPProvider:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(t.endpoint)}
		if t.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create OTLP HTTP exporter: %w", err)
		}
		return exp, nil

	case OTLPProvider:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.endpoint)}
		if t.insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create OTLP gRPC exporter: %w", err)
		}
		return exp, nil

	default:
		return nil, nil //nolint:nilnil // noop exports nothing
	}
}

// Provider returns the configured exporter kind.
func (t *Tracer) Provider() Provider { return t.provider }

// Tracer returns the OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer { return t.tracer }

// Propagator returns the propagator of incoming trace context.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// ForceFlush exports all ended spans.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	return t.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the provider. Calling it more than once is
// a no-op.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if err := t.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}

	return nil
}
