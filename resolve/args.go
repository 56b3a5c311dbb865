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
	"errors"
	"net/http"
	"slices"
	"sync"
)

// Args holds the resolved inputs of one dependant for one request.
//
// Example:
//
//	func readItem(ctx context.Context, a *resolve.Args) (any, error) {
//	    id := resolve.Arg[int](a, "item_id")
//	    q, ok := resolve.Lookup[string](a, "q")
//	    ...
//	}
type Args struct {
	ctx      context.Context
	req      *http.Request
	scopes   []string
	values   map[string]any
	cleanups *cleanups
}

func newArgs(ctx context.Context, req *http.Request, scopes []string, c *cleanups, size int) *Args {
	return &Args{
		ctx:      ctx,
		req:      req,
		scopes:   scopes,
		values:   make(map[string]any, size),
		cleanups: c,
	}
}

// Request returns the request being resolved.
func (a *Args) Request() *http.Request { return a.req }

// Context returns the resolution context.
func (a *Args) Context() context.Context { return a.ctx }

// SecurityScopes returns the scopes accumulated from the params.Security
// declarations on the path from the root to this dependant.
func (a *Args) SecurityScopes() []string { return slices.Clone(a.scopes) }

// Get returns the raw value of an input.
// A present input may hold nil when its default is nil.
func (a *Args) Get(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Defer registers fn to run after the response is written, or when
// resolution fails. Cleanups run in reverse registration order.
//
// Example:
//
//	conn, err := db.Conn(ctx)
//	if err != nil {
//	    return nil, err
//	}
//	a.Defer(conn.Close)
//	return conn, nil
func (a *Args) Defer(fn func() error) {
	if fn != nil {
		a.cleanups.add(fn)
	}
}

// Close runs the registered cleanups of the request. Only the first call
// runs them.
func (a *Args) Close() error {
	return a.cleanups.run()
}

func (a *Args) set(name string, v any) {
	a.values[name] = v
}

// Arg returns the input name converted to T, or the zero value when the
// input is absent, nil or of another type.
func Arg[T any](a *Args, name string) T {
	v, _ := Lookup[T](a, name)
	return v
}

// Lookup returns the input name as T and whether it is present with a
// value of that type.
func Lookup[T any](a *Args, name string) (T, bool) {
	var zero T
	raw, ok := a.values[name]
	if !ok || raw == nil {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}

	return v, true
}

// cleanups is the per-request cleanup stack shared by all [Args] of a
// resolution.
type cleanups struct {
	mu   sync.Mutex
	fns  []func() error
	done bool
}

func (c *cleanups) add(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fns = append(c.fns, fn)
}

func (c *cleanups) run() error {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return nil
	}
	c.done = true
	fns := c.fns
	c.fns = nil
	c.mu.Unlock()

	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
