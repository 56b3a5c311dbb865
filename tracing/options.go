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
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// WithNoop records spans without exporting them (default).
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
	}
}

// WithStdout exports spans as JSON to w, or stdout when w is nil.
func WithStdout(w io.Writer) Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.stdout = w
	}
}

// WithOTLP exports spans to an OTLP/HTTP collector at endpoint
// ("host:port").
func WithOTLP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.endpoint = endpoint
	}
}

// WithOTLPGRPC exports spans to an OTLP/gRPC collector at endpoint.
func WithOTLPGRPC(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.endpoint = endpoint
	}
}

// WithInsecure disables TLS towards the OTLP collector.
func WithInsecure() Option {
	return func(t *Tracer) {
		t.insecure = true
	}
}

// WithSpanProcessor adds a span processor, e.g. one wrapping an in-memory
// exporter in tests.
func WithSpanProcessor(p trace.SpanProcessor) Option {
	return func(t *Tracer) {
		t.processors = append(t.processors, p)
	}
}

// WithSampleRate samples a fraction of new traces, between 0 and 1.
// Traces continued from a sampled parent are always recorded.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		t.sampleRate = rate
	}
}

// WithPropagator sets the propagator reading incoming trace context.
// Defaults to W3C trace context and baggage.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		t.propagator = p
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) {
		t.serviceVersion = version
	}
}

// WithGlobalTracerProvider registers the provider and propagator as the
// OpenTelemetry globals.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) {
		t.registerGlobal = true
	}
}

// WithLogger sets the logger for tracer lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		if logger != nil {
			t.logger = logger
		}
	}
}
