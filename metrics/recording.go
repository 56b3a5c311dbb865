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
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	riverrors "rivaas.dev/params/errors"
	"rivaas.dev/params/resolve"
)

// Outcomes of a dependency call or resolution.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected" // request error, 4xx
	OutcomeError    = "error"
)

func (r *Recorder) initializeMetrics() error {
	var err error

	r.dependencyCalls, err = r.meter.Int64Counter(
		"params_dependency_calls_total",
		metric.WithDescription("Total number of dependant function calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create dependency calls counter: %w", err)
	}

	r.dependencyDuration, err = r.meter.Float64Histogram(
		"params_dependency_duration_seconds",
		metric.WithDescription("Duration of dependant function calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create dependency duration histogram: %w", err)
	}

	r.cacheHits, err = r.meter.Int64Counter(
		"params_dependency_cache_hits_total",
		metric.WithDescription("Total number of cached dependency results reused within a request"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	r.inputs, err = r.meter.Int64Counter(
		"params_inputs_total",
		metric.WithDescription("Total number of parameter and body inputs resolved"),
	)
	if err != nil {
		return fmt.Errorf("failed to create inputs counter: %w", err)
	}

	r.resolutions, err = r.meter.Int64Counter(
		"params_resolutions_total",
		metric.WithDescription("Total number of resolutions"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resolutions counter: %w", err)
	}

	r.resolutionDuration, err = r.meter.Float64Histogram(
		"params_resolution_duration_seconds",
		metric.WithDescription("Duration of whole resolutions in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create resolution duration histogram: %w", err)
	}

	return nil
}

// Events returns resolver hooks recording into r.
//
// Example:
//
//	r := resolve.MustNew(resolve.WithEvents(recorder.Events()))
func (r *Recorder) Events() resolve.Events {
	return resolve.Events{
		InputResolved:    r.RecordInput,
		DependencyCalled: r.RecordDependencyCall,
		CacheHit:         r.RecordCacheHit,
		Done:             r.RecordResolution,
	}
}

// RecordInput counts an input read from source. found is false when the
// default was used or the input was missing.
func (r *Recorder) RecordInput(dependant, _, source string, found bool) {
	if r.isShuttingDown.Load() {
		return
	}
	r.inputs.Add(context.Background(), 1, r.with(
		attribute.String("dependant", dependant),
		attribute.String("source", source),
		attribute.Bool("found", found),
	))
}

// RecordDependencyCall records one call of the dependant name.
func (r *Recorder) RecordDependencyCall(name string, d time.Duration, err error) {
	if r.isShuttingDown.Load() {
		return
	}
	ctx := context.Background()
	r.dependencyCalls.Add(ctx, 1, r.with(
		attribute.String("dependency", name),
		attribute.String("outcome", Outcome(err)),
	))
	r.dependencyDuration.Record(ctx, d.Seconds(), r.with(attribute.String("dependency", name)))
}

// RecordCacheHit counts a reused result of the dependant name.
func (r *Recorder) RecordCacheHit(name string) {
	if r.isShuttingDown.Load() {
		return
	}
	r.cacheHits.Add(context.Background(), 1, r.with(attribute.String("dependency", name)))
}

// RecordResolution records a finished resolution.
func (r *Recorder) RecordResolution(s resolve.Stats) {
	if r.isShuttingDown.Load() {
		return
	}
	ctx := context.Background()
	r.resolutions.Add(ctx, 1, r.with(
		attribute.String("dependant", s.Dependant),
		attribute.String("outcome", Outcome(s.Err)),
	))
	r.resolutionDuration.Record(ctx, s.Duration.Seconds(), r.with(attribute.String("dependant", s.Dependant)))
}

func (r *Recorder) with(attrs ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(append(attrs, r.attrs...)...)
}

// Outcome classifies err: [OutcomeSuccess] for nil, [OutcomeRejected] for
// errors carrying a 4xx status and [OutcomeError] otherwise.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var typed riverrors.ErrorType
	if errors.As(err, &typed) {
		if status := typed.HTTPStatus(); status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			return OutcomeRejected
		}
	}

	return OutcomeError
}
