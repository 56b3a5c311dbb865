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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"rivaas.dev/params"
	riverrors "rivaas.dev/params/errors"
	"rivaas.dev/params/resolve"
	"rivaas.dev/params/validation"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

// counter sums the data points of a counter whose attribute key equals value.
func counter(t *testing.T, m metricdata.Metrics, key, value string) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attribute.Key(key)); found && v.Emit() == value {
			total += dp.Value
		}
	}

	return total
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
	}{
		{name: "empty service name", opts: []Option{WithServiceName("")}},
		{name: "nil meter provider", opts: []Option{WithMeterProvider(nil)}},
		{name: "zero export interval", opts: []Option{WithExportInterval(0)}},
		{name: "unsorted buckets", opts: []Option{WithDurationBuckets(1, 0.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.opts...)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	assert.Panics(t, func() { MustNew(WithServiceName("")) })
}

func TestRecorder_Events(t *testing.T) {
	t.Parallel()

	recorder, reader := TestingRecorder(t)
	r := resolve.MustNew(resolve.WithEvents(recorder.Events()))

	fn := func(context.Context, *resolve.Args) (any, error) { return "ok", nil }
	common := resolve.MustDependant("common", fn,
		resolve.In[int]("limit", params.Query(params.WithDefault(10))),
	)
	nested := resolve.MustDependant("nested", fn,
		resolve.In[string]("c", params.Depends(common)),
	)
	root := resolve.MustDependant("root", fn,
		resolve.In[string]("n", params.Depends(nested)),
		resolve.In[string]("c", params.Depends(common)),
	)
	strict := resolve.MustDependant("strict", fn,
		resolve.In[int]("n", params.Query()),
	)

	_, err := r.Call(context.Background(), httptest.NewRequest(http.MethodGet, "/?limit=5", nil), root)
	require.NoError(t, err)
	_, err = r.Call(context.Background(), httptest.NewRequest(http.MethodGet, "/?n=abc", nil), strict)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)

	got := collect(t, reader)

	calls := got["params_dependency_calls_total"]
	assert.Equal(t, int64(1), counter(t, calls, "dependency", "common"))
	assert.Equal(t, int64(1), counter(t, calls, "dependency", "nested"))
	assert.Equal(t, int64(1), counter(t, calls, "dependency", "root"))
	assert.Equal(t, int64(0), counter(t, calls, "dependency", "strict"))

	assert.Equal(t, int64(1), counter(t, got["params_dependency_cache_hits_total"], "dependency", "common"))

	inputs := got["params_inputs_total"]
	assert.Equal(t, int64(1), counter(t, inputs, "dependant", "common"))
	assert.Equal(t, int64(1), counter(t, inputs, "dependant", "strict"))

	resolutions := got["params_resolutions_total"]
	assert.Equal(t, int64(1), counter(t, resolutions, "outcome", OutcomeSuccess))
	assert.Equal(t, int64(1), counter(t, resolutions, "outcome", OutcomeRejected))
	assert.Equal(t, int64(2), counter(t, resolutions, "service.name", "test"))

	hist, ok := got["params_resolution_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestRecorder_Prometheus(t *testing.T) {
	t.Parallel()

	reg := promclient.NewRegistry()
	recorder := MustNew(WithRegistry(reg), WithServiceName("users-api"), WithServiceVersion("1.2.3"))
	t.Cleanup(func() { _ = recorder.Shutdown(context.Background()) })

	recorder.RecordDependencyCall("get_db", 2*time.Millisecond, nil)
	recorder.RecordDependencyCall("get_db", time.Millisecond, errors.New("boom"))
	recorder.RecordCacheHit("get_db")
	recorder.RecordResolution(resolve.Stats{Dependant: "read_users", Duration: 3 * time.Millisecond})

	n, err := testutil.GatherAndCount(reg, "params_dependency_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per outcome")

	n, err = testutil.GatherAndCount(reg, "params_resolutions_total", "params_dependency_cache_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	w := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "params_dependency_duration_seconds_bucket")
	assert.True(t, strings.Contains(body, `outcome="error"`), "error outcome exported")
	assert.Contains(t, body, `service_version="1.2.3"`)
}

func TestRecorder_OtherProviders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
		want Provider
	}{
		{name: "otlp", opt: WithOTLP("http://localhost:4318/v1/metrics"), want: OTLPProvider},
		{name: "stdout", opt: WithStdout(), want: StdoutProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder := MustNew(tt.opt, WithExportInterval(time.Hour))
			assert.Equal(t, tt.want, recorder.Provider())

			w := httptest.NewRecorder()
			recorder.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, http.StatusNotFound, w.Code)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = recorder.Shutdown(ctx)
		})
	}
}

func TestRecorder_ShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	recorder := MustNew()
	require.NoError(t, recorder.Shutdown(context.Background()))
	require.NoError(t, recorder.Shutdown(context.Background()))

	assert.NotPanics(t, func() {
		recorder.RecordCacheHit("get_db")
		recorder.RecordResolution(resolve.Stats{Dependant: "root"})
	})
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: OutcomeSuccess},
		{name: "validation", err: &validation.Error{Fields: []validation.FieldError{{Path: "query.q", Code: "missing"}}}, want: OutcomeRejected},
		{name: "forbidden", err: riverrors.WithStatus(errors.New("no"), http.StatusForbidden), want: OutcomeRejected},
		{name: "wrapped", err: fmt.Errorf("ctx: %w", riverrors.WithStatus(errors.New("gone"), http.StatusNotFound)), want: OutcomeRejected},
		{name: "server", err: riverrors.WithStatus(errors.New("db"), http.StatusServiceUnavailable), want: OutcomeError},
		{name: "plain", err: errors.New("boom"), want: OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}
