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

// Package security provides authentication dependencies for the resolve
// package: bearer tokens, API keys and HS256 JSON Web Tokens.
//
// Security dependencies are declared with params.Security so that the
// scopes required by a handler accumulate along the dependency chain and
// are checked against the scopes granted by the authenticated [Principal].
//
// Example:
//
//	auth := security.MustNew(security.WithSecret(secret))
//
//	readMe := resolve.MustDependant("read_me",
//	    func(ctx context.Context, a *resolve.Args) (any, error) {
//	        return resolve.Arg[*security.Principal](a, "user"), nil
//	    },
//	    resolve.In[*security.Principal]("user",
//	        params.Security(auth.Principal(), params.WithScopes("me"))),
//	)
//
// A request without a valid token fails with [*UnauthenticatedError] (401).
// A valid token lacking a required scope fails with
// resolve.AuthorizationError (403).
package security
