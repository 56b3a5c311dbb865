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

// Package middleware provides net/http middleware for services built on
// rivaas.dev/params: request IDs, panic recovery and access logging.
//
// The middleware composes with any router accepting
// func(http.Handler) http.Handler, such as chi:
//
//	r := chi.NewRouter()
//	r.Use(
//	    middleware.RequestID(),
//	    middleware.Recovery(middleware.WithRecoveryLogger(logger)),
//	    middleware.AccessLog(logger, middleware.WithExcludePaths("/metrics")),
//	)
package middleware
