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

// Package tracing provides OpenTelemetry tracing for HTTP services built on
// rivaas.dev/params.
//
// A [Tracer] owns a tracer provider exporting to stdout, an OTLP collector
// (HTTP or gRPC) or nowhere. [Middleware] starts a server span per request,
// continuing the trace propagated by the caller. Loggers created by
// rivaas.dev/params/logging add the trace and span IDs of that span to
// every record.
//
//	tracer, err := tracing.New(ctx,
//	    tracing.WithOTLP("otel-collector:4318"),
//	    tracing.WithServiceName("usersapi"),
//	)
//	defer tracer.Shutdown(context.Background())
//	r.Use(tracing.Middleware(tracer, tracing.WithExcludePaths("/metrics")))
package tracing
