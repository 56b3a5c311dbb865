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

package metrics

import (
	"log/slog"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
)

// Option defines functional options for [Recorder] configuration.
type Option func(*Recorder)

// WithPrometheus selects the Prometheus exporter. This is the default.
// Metrics are served by [Recorder.Handler].
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with.
// A private registry is created when not set.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.MustNew(metrics.WithRegistry(reg))
func WithRegistry(reg *promclient.Registry) Option {
	return func(r *Recorder) {
		r.registry = reg
	}
}

// WithOTLP selects the OTLP HTTP exporter sending to endpoint,
// e.g. "http://localhost:4318".
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
	}
}

// WithStdout selects the stdout exporter, for development.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
	}
}

// WithMeterProvider records through a caller-managed meter provider.
// Exporter options are ignored and [Recorder.Shutdown] leaves the provider
// running.
//
// Example:
//
//	reader := sdkmetric.NewManualReader()
//	recorder := metrics.MustNew(
//	    metrics.WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
//	)
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the meter provider as the global
// OpenTelemetry meter provider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithServiceName sets the service name attached to every metric.
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		r.serviceName = name
	}
}

// WithServiceVersion sets the service version attached to every metric.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		r.serviceVersion = version
	}
}

// WithExportInterval sets the export interval of the OTLP and stdout
// exporters.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) {
		r.exportInterval = interval
	}
}

// WithDurationBuckets sets the histogram boundaries, in seconds, of the
// duration metrics. Defaults to [DefaultDurationBuckets].
//
// Example:
//
//	recorder := metrics.MustNew(
//	    metrics.WithDurationBuckets(0.0005, 0.001, 0.005, 0.01, 0.05),
//	)
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.durationBuckets = buckets
	}
}

// WithLogger sets the logger for internal events.
// Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}
