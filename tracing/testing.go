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
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestingTracer returns a [Tracer] recording spans in memory, shut down
// when the test ends.
//
// Example:
//
//	tracer, spans := tracing.TestingTracer(t)
//	handler := tracing.Middleware(tracer)(mux)
//	// ... serve a request ...
//	require.Len(t, spans.GetSpans(), 1)
func TestingTracer(tb testing.TB, opts ...Option) (*Tracer, *tracetest.InMemoryExporter) {
	tb.Helper()

	exporter := tracetest.NewInMemoryExporter()
	opts = append(opts, WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))

	t, err := New(context.Background(), opts...)
	if err != nil {
		tb.Fatalf("tracing.TestingTracer: %v", err)
	}
	tb.Cleanup(func() {
		_ = t.Shutdown(context.Background())
	})

	return t, exporter
}
