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

// Package metrics records resolver activity with OpenTelemetry.
//
// A [Recorder] turns resolve.Events into counters and histograms:
// dependency calls and their duration, cache hits, resolved inputs and
// whole resolutions with their outcome. Metrics are exported through
// Prometheus (default), OTLP or stdout.
//
// # Basic Usage
//
//	recorder := metrics.MustNew(metrics.WithServiceName("users-api"))
//	defer recorder.Shutdown(context.Background())
//
//	r := resolve.MustNew(resolve.WithEvents(recorder.Events()))
//	mux.Handle("GET /metrics", recorder.Handler())
//
// # Global State
//
// The package does not set the global OpenTelemetry meter provider unless
// [WithGlobalMeterProvider] is given, so several recorders can coexist.
package metrics
