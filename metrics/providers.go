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
	"fmt"
	"strings"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const instrumentationName = "rivaas.dev/params/metrics"

// initializeProvider creates the meter provider and the instruments.
func (r *Recorder) initializeProvider() error {
	if !r.customMeterProvider {
		var (
			reader sdkmetric.Reader
			err    error
		)
		switch r.provider {
		case OTLPProvider:
			reader, err = r.otlpReader()
		case StdoutProvider:
			reader, err = r.stdoutReader()
		default:
			reader, err = r.prometheusReader()
		}
		if err != nil {
			return err
		}

		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		r.meterProvider = mp
		if r.registerGlobal {
			r.logger.Debug("setting global OpenTelemetry meter provider", "provider", r.provider)
			otel.SetMeterProvider(mp)
		}
	}

	r.meter = r.meterProvider.Meter(instrumentationName)

	return r.initializeMetrics()
}

func (r *Recorder) prometheusReader() (sdkmetric.Reader, error) {
	if r.registry == nil {
		r.registry = promclient.NewRegistry()
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(r.registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	r.prometheusHandler = promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})

	return exporter, nil
}

func (r *Recorder) otlpReader() (sdkmetric.Reader, error) {
	var opts []otlpmetrichttp.Option
	if r.otlpEndpoint != "" {
		endpoint := r.otlpEndpoint
		insecure := false
		if after, ok := strings.CutPrefix(endpoint, "http://"); ok {
			endpoint, insecure = after, true
		} else {
			endpoint = strings.TrimPrefix(endpoint, "https://")
		}
		if idx := strings.Index(endpoint, "/"); idx != -1 {
			endpoint = endpoint[:idx]
		}

		opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)), nil
}

func (r *Recorder) stdoutReader() (sdkmetric.Reader, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)), nil
}
