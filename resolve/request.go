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
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"rivaas.dev/params"
	"rivaas.dev/params/binding"
	"rivaas.dev/params/validation"
)

// request is the state of one resolution. Nothing here outlives it.
type request struct {
	r        *Resolver
	plan     *Plan
	req      *http.Request
	memo     *memo
	cleanups *cleanups

	queryOnce sync.Once
	query     binding.ValueGetter

	cookieOnce sync.Once
	cookies    binding.ValueGetter

	body bodySource

	inputs atomic.Int64
	calls  atomic.Int64
	hits   atomic.Int64
}

func (r *Resolver) newRequest(req *http.Request, plan *Plan) *request {
	rs := &request{
		r:        r,
		plan:     plan,
		req:      req,
		memo:     newMemo(),
		cleanups: &cleanups{},
	}
	rs.body.rs = rs

	return rs
}

func (rs *request) done(start time.Time, err error) {
	if rs.r.cfg.events.Done == nil {
		return
	}
	rs.r.cfg.events.Done(Stats{
		Dependant:       rs.plan.root.dep.name,
		InputsResolved:  int(rs.inputs.Load()),
		DependencyCalls: int(rs.calls.Load()),
		CacheHits:       int(rs.hits.Load()),
		Duration:        time.Since(start),
		Err:             err,
	})
}

// invoke resolves the inputs of n and calls its function.
func (rs *request) invoke(ctx context.Context, n *node) (any, error) {
	args, err := rs.resolveNode(ctx, n)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := n.dep.fn(ctx, args)
	rs.calls.Add(1)
	if hook := rs.r.cfg.events.DependencyCalled; hook != nil {
		hook(n.dep.name, time.Since(start), err)
	}
	if err != nil {
		rs.r.cfg.logger.DebugContext(ctx, "dependency failed", "dependant", n.dep.name, "error", err)
		return nil, err
	}

	if len(n.scopes) > 0 {
		if granter, ok := result.(ScopeGranter); ok {
			if err = checkScopes(n.dep.name, n.scopes, granter); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// dependency resolves a sub-dependency, through the memo when cached.
func (rs *request) dependency(ctx context.Context, n *node) (any, error) {
	if !n.useCache {
		v, err := rs.invoke(ctx, n)
		if err == nil {
			rs.memo.seed(n.key, v)
		}

		return v, err
	}

	v, hit, err := rs.memo.do(n.key, func() (any, error) {
		return rs.invoke(ctx, n)
	})
	if hit {
		rs.hits.Add(1)
		if hook := rs.r.cfg.events.CacheHit; hook != nil {
			hook(n.dep.name)
		}
	}

	return v, err
}

// resolveNode resolves sub-dependencies first, then parameters and bodies.
// Request errors of the whole subtree are collected into one
// validation.Error; any other error stops resolution.
func (rs *request) resolveNode(ctx context.Context, n *node) (*Args, error) {
	args := newArgs(ctx, rs.req, n.scopes, rs.cleanups, len(n.inputs))
	var verr validation.Error

	if err := rs.resolveChildren(ctx, n, args, &verr); err != nil {
		return nil, err
	}

	for i := range n.inputs {
		bi := &n.inputs[i]
		if bi.child != nil {
			continue
		}

		var (
			v   any
			err error
		)
		if bi.param != nil {
			v, err = rs.param(n, bi)
		} else {
			v, err = rs.bodyInput(n, bi)
		}
		if err != nil {
			if !mergeRequestError(&verr, err) {
				return nil, err
			}
			continue
		}
		args.set(bi.in.Name, v)
	}

	if verr.HasErrors() {
		return nil, &verr
	}

	return args, nil
}

func (rs *request) resolveChildren(ctx context.Context, n *node, args *Args, verr *validation.Error) error {
	var children []*boundInput
	for i := range n.inputs {
		if n.inputs[i].child != nil {
			children = append(children, &n.inputs[i])
		}
	}
	if len(children) == 0 {
		return nil
	}

	if !rs.r.cfg.concurrent || len(children) == 1 {
		for _, bi := range children {
			v, err := rs.dependency(ctx, bi.child)
			if err != nil {
				if !mergeRequestError(verr, err) {
					return err
				}
				continue
			}
			args.set(bi.in.Name, v)
		}

		return nil
	}

	results := make([]any, len(children))
	failures := make([]error, len(children))

	var (
		panicOnce sync.Once
		recovered any
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, bi := range children {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					panicOnce.Do(func() { recovered = p })
					err = errDependencyPanicked
				}
			}()

			v, derr := rs.dependency(gctx, bi.child)
			if derr != nil {
				var ve *validation.Error
				if errors.As(derr, &ve) {
					failures[i] = derr
					return nil
				}

				return derr
			}
			results[i] = v

			return nil
		})
	}
	err := g.Wait()
	if recovered != nil {
		// Re-panic on the calling goroutine, where recovery middleware runs.
		panic(recovered)
	}
	if err != nil {
		return err
	}

	for i, bi := range children {
		if failures[i] != nil {
			mergeRequestError(verr, failures[i])
			continue
		}
		args.set(bi.in.Name, results[i])
	}

	return nil
}

var errDependencyPanicked = errors.New("dependency panicked")

// mergeRequestError adds the field errors of err to verr, skipping
// duplicates from cached dependencies used more than once. It reports
// false for errors that are not request errors.
func mergeRequestError(verr *validation.Error, err error) bool {
	var ve *validation.Error
	if !errors.As(err, &ve) {
		return false
	}
	for _, fe := range ve.Fields {
		if dup := verr.GetField(fe.Path); dup != nil && dup.Code == fe.Code {
			continue
		}
		verr.Fields = append(verr.Fields, fe)
	}
	verr.Truncated = verr.Truncated || ve.Truncated

	return true
}

func (rs *request) getter(loc params.Location) (binding.ValueGetter, binding.Source) {
	switch loc {
	case params.LocationPath:
		return binding.NewPathGetter(func(name string) string {
			return rs.r.cfg.pathValue(rs.req, name)
		}), binding.SourcePath

	case params.LocationHeader:
		return binding.NewHeaderGetter(rs.req.Header), binding.SourceHeader

	case params.LocationCookie:
		rs.cookieOnce.Do(func() {
			rs.cookies = binding.NewCookieGetter(rs.req.Cookies())
		})
		return rs.cookies, binding.SourceCookie

	default:
		rs.queryOnce.Do(func() {
			rs.query = binding.NewQueryGetter(rs.req.URL.Query())
		})
		return rs.query, binding.SourceQuery
	}
}

// param resolves a path, query, header or cookie input.
func (rs *request) param(n *node, bi *boundInput) (any, error) {
	info := bi.param
	loc := info.Location()
	path := validation.JoinPath(loc.String(), bi.key)
	if loc == params.LocationHeader {
		path = validation.JoinPath(loc.String(), strings.ToLower(bi.key))
	}

	getter, source := rs.getter(loc)
	v, found, err := rs.r.binder.Lookup(getter, source, bi.key, bi.in.Type)
	rs.inputResolved(n, bi, loc.String(), found && err == nil)
	if err != nil {
		return nil, typeError(path, err)
	}
	if !found {
		return rs.fallback(path, &info.Field, bi.in.Type)
	}

	value := v.Interface()
	if err = rs.r.validator.CheckField(path, &info.Field, value); err != nil {
		return nil, err
	}

	return value, nil
}

func (rs *request) inputResolved(n *node, bi *boundInput, source string, found bool) {
	rs.inputs.Add(1)
	if hook := rs.r.cfg.events.InputResolved; hook != nil {
		hook(n.dep.name, bi.in.Name, source, found)
	}
}

// fallback returns the default of an absent input, or a missing error.
// Defaults are not validated.
func (rs *request) fallback(path string, f *params.Field, typ reflect.Type) (any, error) {
	def, ok := f.Default().Get()
	if !ok {
		return nil, &validation.Error{Fields: []validation.FieldError{{
			Path:    path,
			Code:    validation.CodeMissing,
			Message: "field required",
		}}}
	}

	return rs.coerceDefault(def, typ), nil
}

// coerceDefault converts a declared default to the input type when a
// lossless conversion exists, so that Arg[T] finds it.
func (rs *request) coerceDefault(def any, typ reflect.Type) any {
	if def == nil {
		return nil
	}
	dv := reflect.ValueOf(def)
	if dv.Type().AssignableTo(typ) {
		return def
	}

	target := typ
	if typ.Kind() == reflect.Pointer {
		target = typ.Elem()
	}

	var out reflect.Value
	switch {
	case dv.Type().AssignableTo(target):
		out = dv
	case isNumeric(dv.Kind()) && isNumeric(target.Kind()):
		out = dv.Convert(target)
	case dv.Kind() == reflect.String && dv.Type().ConvertibleTo(target) && target.Kind() == reflect.String:
		out = dv.Convert(target)
	case dv.Kind() == reflect.String:
		converted, err := rs.r.binder.Convert([]string{dv.String()}, target)
		if err != nil {
			return def
		}
		out = converted
	default:
		return def
	}

	if typ.Kind() == reflect.Pointer {
		ptr := reflect.New(target)
		ptr.Elem().Set(out)

		return ptr.Interface()
	}

	return out.Interface()
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// typeError turns a conversion failure into a request error.
func typeError(path string, err error) error {
	fe := validation.FieldError{
		Path:    path,
		Code:    validation.CodeType,
		Message: err.Error(),
	}
	var be *binding.BindError
	if errors.As(err, &be) {
		fe.Meta = map[string]any{"value": be.Value}
		if be.Type != nil {
			fe.Meta["type"] = be.Type.String()
		}
	}

	return &validation.Error{Fields: []validation.FieldError{fe}}
}
