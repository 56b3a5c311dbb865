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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultDurationBuckets are histogram boundaries, in seconds, for
// dependency and resolution durations. Resolution is usually well under
// a millisecond; the upper buckets catch dependencies doing I/O.
var DefaultDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Provider represents the available metrics exporters.
type Provider string

const (
	// PrometheusProvider exposes metrics through [Recorder.Handler] (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics to an OTLP collector over HTTP.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics to stdout (development/testing).
	StdoutProvider Provider = "stdout"
)

// ErrInvalidConfig is returned by [New] for an invalid configuration.
var ErrInvalidConfig = errors.New("invalid metrics configuration")

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Recorder records resolver events as OpenTelemetry metrics.
// All methods are safe for concurrent use.
type Recorder struct {
	provider            Provider
	serviceName         string
	serviceVersion      string
	otlpEndpoint        string
	exportInterval      time.Duration
	durationBuckets     []float64
	registerGlobal      bool
	customMeterProvider bool
	logger              *slog.Logger

	registry          *promclient.Registry
	prometheusHandler http.Handler
	meterProvider     metric.MeterProvider
	meter             metric.Meter
	attrs             []attribute.KeyValue

	dependencyCalls    metric.Int64Counter
	dependencyDuration metric.Float64Histogram
	cacheHits          metric.Int64Counter
	inputs             metric.Int64Counter
	resolutions        metric.Int64Counter
	resolutionDuration metric.Float64Histogram

	isShuttingDown atomic.Bool
}

// New creates a [Recorder] with the given options.
// Returns an error if configuration is invalid or the exporter cannot be
// created.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		provider:        PrometheusProvider,
		serviceName:     "params",
		exportInterval:  30 * time.Second,
		durationBuckets: DefaultDurationBuckets,
		logger:          noopLogger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if err := r.validate(); err != nil {
		return nil, err
	}

	r.attrs = []attribute.KeyValue{attribute.String("service.name", r.serviceName)}
	if r.serviceVersion != "" {
		r.attrs = append(r.attrs, attribute.String("service.version", r.serviceVersion))
	}

	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return r, nil
}

// MustNew creates a [Recorder] with the given options.
// Panics if configuration is invalid.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("metrics.MustNew: %v", err))
	}

	return r
}

func (r *Recorder) validate() error {
	switch r.provider {
	case PrometheusProvider, OTLPProvider, StdoutProvider:
	default:
		return fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, r.provider)
	}
	if r.serviceName == "" {
		return fmt.Errorf("%w: service name is empty", ErrInvalidConfig)
	}
	if r.customMeterProvider && r.meterProvider == nil {
		return fmt.Errorf("%w: meter provider is nil", ErrInvalidConfig)
	}
	if r.exportInterval <= 0 {
		return fmt.Errorf("%w: export interval must be positive", ErrInvalidConfig)
	}
	for i := 1; i < len(r.durationBuckets); i++ {
		if r.durationBuckets[i] <= r.durationBuckets[i-1] {
			return fmt.Errorf("%w: duration buckets must be increasing", ErrInvalidConfig)
		}
	}
	if r.logger == nil {
		r.logger = noopLogger
	}

	return nil
}

// Provider returns the exporter in use. It is meaningless with
// [WithMeterProvider].
func (r *Recorder) Provider() Provider { return r.provider }

// Handler serves the Prometheus exposition of the recorded metrics.
// With another exporter it answers 404.
func (r *Recorder) Handler() http.Handler {
	if r.prometheusHandler == nil {
		return http.NotFoundHandler()
	}

	return r.prometheusHandler
}

// ForceFlush exports pending metrics of push-based exporters.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	mp, ok := r.meterProvider.(*sdkmetric.MeterProvider)
	if !ok || r.customMeterProvider {
		return nil
	}

	return mp.ForceFlush(ctx)
}

// Shutdown flushes and stops the meter provider created by the recorder.
// Caller-managed providers are left running. Safe to call more than once.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if r.customMeterProvider {
		r.logger.Debug("skipping shutdown of custom meter provider")
		return nil
	}

	mp, ok := r.meterProvider.(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}
	if err := mp.ForceFlush(ctx); err != nil {
		r.logger.Warn("metrics flush failed", "error", err)
	}
	if err := mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	return nil
}
