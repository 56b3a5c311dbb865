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

package openapi_test

import (
	"context"

	"rivaas.dev/params"
	"rivaas.dev/params/binding"
	"rivaas.dev/params/resolve"
	"rivaas.dev/params/security"
)

type item struct {
	Name  string   `json:"name" validate:"required"`
	Price float64  `json:"price" validate:"gt=0"`
	Tags  []string `json:"tags,omitempty"`
}

type user struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"full_name,omitempty"`
}

func noop(context.Context, *resolve.Args) (any, error) { return nil, nil }

// fixture is a small API with parameters, bodies and a protected route.
type fixture struct {
	resolver  *resolve.Resolver
	auth      *security.Authenticator
	readItems *resolve.Dependant
	readItem  *resolve.Dependant
	update    *resolve.Dependant
	upload    *resolve.Dependant
	readMe    *resolve.Dependant
	ping      *resolve.Dependant
}

func newFixture() *fixture {
	auth := security.MustNew(
		security.WithSecret([]byte("test-secret")),
		security.WithSchemeName("oauth2"),
		security.WithPasswordFlow("/token", map[string]string{
			"read":  "Read resources.",
			"write": "Write resources.",
		}),
	)

	common := resolve.MustDependant("common_parameters", noop,
		resolve.In[string]("q", params.Query(params.WithDefault(nil), params.WithMinLength(3), params.WithMaxLength(50))),
		resolve.In[int]("skip", params.Query(params.WithDefault(0), params.WithGe(0))),
		resolve.In[int]("limit", params.Query(params.WithDefault(100), params.WithLe(100))),
	)

	writer := resolve.MustDependant("current_writer", noop,
		resolve.In[*security.Principal]("principal", params.Security(auth.Principal(), params.WithScopes("write"))),
	)

	return &fixture{
		resolver: resolve.MustNew(),
		auth:     auth,
		readItems: resolve.MustDependant("read_items", noop,
			resolve.In[any]("commons", params.Depends(common)),
			resolve.In[[]string]("tag", params.Query(params.WithDefault(nil), params.WithDeprecated())),
		),
		readItem: resolve.MustDependant("read_item", noop,
			resolve.In[int]("item_id", params.MustPath(params.WithGt(0), params.WithTitle("Item ID"))),
			resolve.In[string]("x_token", params.Header(params.WithDescription("Client token"))),
			resolve.In[string]("session", params.Cookie(params.WithDefault(nil))),
		),
		update: resolve.MustDependant("update_item", noop,
			resolve.In[int]("item_id", params.MustPath()),
			resolve.In[item]("item", params.Body()),
			resolve.In[user]("user", params.Body()),
			resolve.In[int]("importance", params.Body(params.WithGt(0), params.WithDefault(1))),
			resolve.In[any]("writer", params.Security(writer, params.WithScopes("read"))),
		),
		upload: resolve.MustDependant("upload", noop,
			resolve.In[*binding.File]("file", params.File(params.WithDescription("Upload"))),
			resolve.In[string]("note", params.Form(params.WithDefault(nil))),
		),
		readMe: resolve.MustDependant("read_me", noop,
			resolve.In[*security.Principal]("me", params.Security(auth.Principal(), params.WithScopes("read"))),
		),
		ping: resolve.MustDependant("ping", noop),
	}
}
