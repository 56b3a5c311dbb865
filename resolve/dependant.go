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

package resolve

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"rivaas.dev/params"
)

// Func is the body of a [Dependant]. It receives the resolved inputs and
// returns the dependant's result.
type Func func(ctx context.Context, args *Args) (any, error)

// SecurityScheme describes how a security dependant authenticates a
// request. It is documentation metadata; enforcement is the dependant's job.
type SecurityScheme struct {
	Name             string            // Key in the OpenAPI security schemes, defaults to the dependant name
	Type             string            // "http", "apiKey", "oauth2" or "openIdConnect"; defaults to "http"
	Scheme           string            // http scheme, e.g. "bearer" or "basic"
	BearerFormat     string            // e.g. "JWT"
	In               string            // apiKey location: "header", "query" or "cookie"
	ParamName        string            // apiKey parameter name
	TokenURL         string            // oauth2 password flow token URL
	OpenIDConnectURL string            // openIdConnect discovery URL
	Scopes           map[string]string // oauth2 scope descriptions
	Description      string
}

// Dependant is a callable with declared inputs. It is the unit the
// [Resolver] resolves: handlers, dependencies and security dependencies are
// all dependants.
//
// A Dependant is immutable and may be shared by any number of handlers and
// requests. It implements params.Callable, so it is passed to
// params.Depends and params.Security directly.
type Dependant struct {
	name   string
	fn     Func
	inputs []Input
	scheme *SecurityScheme
}

// NewDependant creates a [Dependant].
// Inputs declared with a nil descriptor get one inferred from their type.
// Returns an error for a nil function, unnamed or untyped inputs, and
// duplicate input names.
//
// Example:
//
//	getUser, err := resolve.NewDependant("get_user",
//	    func(ctx context.Context, a *resolve.Args) (any, error) {
//	        return store.User(ctx, resolve.Arg[int](a, "user_id"))
//	    },
//	    resolve.In[int]("user_id", params.MustPath()),
//	)
func NewDependant(name string, fn Func, inputs ...Input) (*Dependant, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: dependant name is empty", ErrInvalidInput)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilFunc, name)
	}

	declared := make([]Input, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		if in.Name == "" {
			return nil, fmt.Errorf("%w: %s input %d has no name", ErrInvalidInput, name, i)
		}
		if in.Type == nil {
			return nil, fmt.Errorf("%w: %s.%s has no type", ErrInvalidInput, name, in.Name)
		}
		if _, dup := seen[in.Name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateInput, name, in.Name)
		}
		seen[in.Name] = struct{}{}

		if isNil(in.Descriptor) {
			in.Descriptor = inferDescriptor(in.Type)
		}
		declared = append(declared, in)
	}

	return &Dependant{name: name, fn: fn, inputs: declared}, nil
}

// MustDependant is like [NewDependant] but panics on error.
func MustDependant(name string, fn Func, inputs ...Input) *Dependant {
	d, err := NewDependant(name, fn, inputs...)
	if err != nil {
		panic(fmt.Sprintf("resolve.MustDependant: %v", err))
	}

	return d
}

// NewSecurityDependant creates a [Dependant] that authenticates requests
// with the given scheme. Documentation generators list the scheme, with the
// scopes accumulated from params.Security declarations, as a security
// requirement of every operation that depends on it.
//
// Example:
//
//	bearer, err := resolve.NewSecurityDependant("bearer",
//	    resolve.SecurityScheme{Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
//	    readToken,
//	    resolve.In[string]("authorization", params.Header(params.WithRequired())),
//	)
func NewSecurityDependant(name string, scheme SecurityScheme, fn Func, inputs ...Input) (*Dependant, error) {
	d, err := NewDependant(name, fn, inputs...)
	if err != nil {
		return nil, err
	}
	if scheme.Name == "" {
		scheme.Name = name
	}
	if scheme.Type == "" {
		scheme.Type = "http"
	}
	scheme.Scopes = maps.Clone(scheme.Scopes)
	d.scheme = &scheme

	return d, nil
}

// MustSecurityDependant is like [NewSecurityDependant] but panics on error.
func MustSecurityDependant(name string, scheme SecurityScheme, fn Func, inputs ...Input) *Dependant {
	d, err := NewSecurityDependant(name, scheme, fn, inputs...)
	if err != nil {
		panic(fmt.Sprintf("resolve.MustSecurityDependant: %v", err))
	}

	return d
}

// Name returns the dependant name. It implements params.Callable.
func (d *Dependant) Name() string { return d.name }

// Inputs returns a copy of the declared inputs.
func (d *Dependant) Inputs() []Input { return slices.Clone(d.inputs) }

// SecurityScheme returns the scheme of a security dependant.
func (d *Dependant) SecurityScheme() (SecurityScheme, bool) {
	if d.scheme == nil {
		return SecurityScheme{}, false
	}
	s := *d.scheme
	s.Scopes = maps.Clone(s.Scopes)

	return s, true
}

// String returns the dependant name.
func (d *Dependant) String() string { return d.name }

var _ params.Callable = (*Dependant)(nil)
