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

// Package openapi documents resolve dependants as OpenAPI 3 operations
// (kin-openapi) and Swagger 2 operations (go-openapi/spec).
//
// Everything is derived from the resolver plan of a dependant: parameters
// of every sub-dependency, the request body (a single schema, an embedded
// object, a form or a multipart upload) and the security requirements with
// the scopes accumulated through params.Security.
//
// # Quick Start
//
//	api := openapi.MustNew(
//	    openapi.WithTitle("Users API", "1.0.0"),
//	    openapi.WithServer("http://localhost:8000", "Local development"),
//	)
//	manager := openapi.NewManager(api, resolver)
//	if err := manager.Register("GET", "/items/{item_id}", readItem,
//	    openapi.WithSummary("Read an item"),
//	    openapi.WithTags("items"),
//	); err != nil {
//	    log.Fatal(err)
//	}
//	router.Get("/openapi.json", manager.Handler().ServeHTTP)
//
// Parameters with include_in_schema disabled are left out. Deprecated
// parameters, examples, defaults and constraints are documented on the
// parameter schema. Swagger 2 cannot describe cookie parameters; they are
// skipped there.
package openapi
