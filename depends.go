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

package params

import (
	"slices"
	"strings"
)

// Callable is something a [Dependency] can refer to.
//
// Implementations must be comparable (typically a pointer): the resolver
// uses the value itself as the per-request cache identity.
type Callable interface {
	Name() string
}

// Dependency describes an input whose value is produced by another callable.
type Dependency struct {
	callable Callable
	useCache bool
	scopes   []string
	security bool
}

func (*Dependency) isDescriptor() {}

// Callable returns the referenced callable, or nil when it should be
// inferred from the declared type of the input.
func (d *Dependency) Callable() Callable { return d.callable }

// UseCache reports whether the result is shared within one request.
func (d *Dependency) UseCache() bool { return d.useCache }

// Scopes returns a copy of the required security scopes in declaration order.
// It is empty for plain Depends.
func (d *Dependency) Scopes() []string { return slices.Clone(d.scopes) }

// IsSecurity reports whether the descriptor was built by [Security].
func (d *Dependency) IsSecurity() bool { return d.security }

// String renders the descriptor, e.g. Depends(get_db, use_cache=false).
func (d *Dependency) String() string {
	var b strings.Builder
	if d.security {
		b.WriteString("Security(")
	} else {
		b.WriteString("Depends(")
	}
	if d.callable != nil {
		b.WriteString(d.callable.Name())
	} else {
		b.WriteString("None")
	}
	if d.security && len(d.scopes) > 0 {
		b.WriteString(", scopes=[" + strings.Join(d.scopes, " ") + "]")
	}
	if !d.useCache {
		b.WriteString(", use_cache=false")
	}
	b.WriteString(")")

	return b.String()
}

func applyDependsOptions(opts []DependsOption) *dependsConfig {
	cfg := &dependsConfig{useCache: true}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return cfg
}

// Depends declares an input resolved by invoking callable. A nil callable
// asks the resolver to pick one from the input's declared type.
// WithScopes is ignored; use [Security] for scopes.
//
// Example:
//
//	db := params.Depends(getDB)
//	params.Depends(nil) // resolved from the input type
func Depends(callable Callable, opts ...DependsOption) *Dependency {
	cfg := applyDependsOptions(opts)

	return &Dependency{
		callable: callable,
		useCache: cfg.useCache,
	}
}

// Security declares a dependency that additionally requires scopes.
// The resolver checks them against the scopes granted to the caller and
// documentation lists them as security requirements.
//
// Example:
//
//	me := params.Security(currentUser, params.WithScopes("me"))
func Security(callable Callable, opts ...DependsOption) *Dependency {
	cfg := applyDependsOptions(opts)
	scopes := slices.Clone(cfg.scopes)
	if scopes == nil {
		scopes = []string{}
	}

	return &Dependency{
		callable: callable,
		useCache: cfg.useCache,
		scopes:   scopes,
		security: true,
	}
}
