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

// Package resolve turns parameter declarations into handler arguments.
//
// A [Dependant] is a function plus the inputs it declares. Each [Input]
// carries a descriptor from the params package saying where its value comes
// from: a path segment, query parameter, header, cookie, the request body, a
// form field, an uploaded file, or the result of another dependant.
//
//	getDB := resolve.MustDependant("get_db", openConn)
//
//	readItems := resolve.MustDependant("read_items",
//	    func(ctx context.Context, a *resolve.Args) (any, error) {
//	        db := resolve.Arg[*sql.Conn](a, "db")
//	        return listItems(ctx, db, resolve.Arg[int](a, "skip"), resolve.Arg[int](a, "limit"))
//	    },
//	    resolve.In[*sql.Conn]("db", params.Depends(getDB)),
//	    resolve.In[int]("skip", params.Query(params.WithDefault(0))),
//	    resolve.In[int]("limit", params.Query(params.WithDefault(100), params.WithLe(100))),
//	)
//
//	r := resolve.MustNew(resolve.WithPathValueFunc(chi.URLParam))
//	mux.Handle("GET /items/", r.Handler(readItems))
//
// # Resolution
//
// For every request the [Resolver]:
//
//  1. builds (once, then caches) a [Plan] of the dependant tree,
//     rejecting cycles and dependencies it cannot resolve;
//  2. resolves sub-dependencies depth-first, optionally running siblings
//     concurrently ([WithConcurrentDependencies]);
//  3. extracts, converts and validates every parameter, collecting all
//     request errors of a dependant into one validation.Error (422);
//  4. calls each cached dependency at most once per request, keyed by the
//     dependant and the security scopes it is resolved with;
//  5. checks the scopes granted by security dependencies ([ScopeGranter])
//     and fails with [AuthorizationError] (403) when one is missing.
//
// When several bodies are declared across one dependant tree, each is read
// from its own key of the body object, as if declared with
// params.WithEmbed(true).
//
// # Cleanup
//
// Dependencies that acquire per-request resources register cleanups with
// [Args.Defer]. They run in reverse order after the response is written.
package resolve
