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
	"net/http"
	"sync"
	"time"

	"rivaas.dev/params/binding"
	riverrors "rivaas.dev/params/errors"
	"rivaas.dev/params/validation"
)

// Resolver resolves dependants against incoming requests.
//
// Resolver is safe for concurrent use by multiple goroutines. Plans are
// built on first use and cached.
//
// Example:
//
//	r := resolve.MustNew(
//	    resolve.WithPathValueFunc(chi.URLParam),
//	    resolve.WithLogger(logger),
//	)
//	router.Get("/items/{item_id}", r.HandlerFunc(readItem))
type Resolver struct {
	cfg       *config
	binder    *binding.Binder
	validator *validation.Validator
	formatter riverrors.Formatter

	plans sync.Map // map[*Dependant]*Plan
}

// New creates a [Resolver] with the given options.
// Returns an error if configuration is invalid.
func New(opts ...Option) (*Resolver, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	binder, err := binding.New(cfg.bindingOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	v := cfg.validator
	if v == nil {
		if v, err = validation.New(); err != nil {
			return nil, fmt.Errorf("create validator: %w", err)
		}
	}

	f := cfg.formatter
	if f == nil {
		f = riverrors.NewRFC9457("")
	}

	return &Resolver{
		cfg:       cfg,
		binder:    binder,
		validator: v,
		formatter: f,
	}, nil
}

// MustNew creates a [Resolver] with the given options.
// Panics if configuration is invalid.
func MustNew(opts ...Option) *Resolver {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("resolve.MustNew: %v", err))
	}

	return r
}

// Plan returns the cached plan of d, building it on first use.
// Returns a [*PlanError] for cycles, unresolvable dependencies and invalid
// file inputs.
func (r *Resolver) Plan(d *Dependant) (*Plan, error) {
	if d != nil {
		if cached, ok := r.plans.Load(d); ok {
			if p, isPlan := cached.(*Plan); isPlan {
				return p, nil
			}
		}
	}

	p, err := buildPlan(d, r.cfg.providers)
	if err != nil {
		return nil, err
	}
	actual, _ := r.plans.LoadOrStore(d, p)
	if cached, ok := actual.(*Plan); ok {
		return cached, nil
	}

	return p, nil
}

// Resolve resolves the inputs of d, including every sub-dependency, without
// calling d itself. The caller must Close the returned [Args] once done to
// run the cleanups registered by dependencies.
//
// Request errors (missing, malformed or invalid inputs) are returned as
// *validation.Error. Errors returned by dependencies are returned as is.
//
// Example:
//
//	args, err := r.Resolve(ctx, req, readItems)
//	if err != nil {
//	    return err
//	}
//	defer args.Close()
func (r *Resolver) Resolve(ctx context.Context, req *http.Request, d *Dependant) (*Args, error) {
	plan, err := r.Plan(d)
	if err != nil {
		return nil, err
	}

	rs := r.newRequest(req, plan)
	start := time.Now()

	args, err := rs.resolveNode(ctx, plan.root)
	rs.done(start, err)
	if err != nil {
		if cerr := rs.cleanups.run(); cerr != nil {
			r.cfg.logger.WarnContext(ctx, "dependency cleanup failed", "dependant", d.Name(), "error", cerr)
		}
		return nil, err
	}

	return args, nil
}

// Call resolves d and calls it. Cleanups registered by dependencies run
// before Call returns.
func (r *Resolver) Call(ctx context.Context, req *http.Request, d *Dependant) (any, error) {
	result, c, err := r.call(ctx, req, d)
	if c != nil {
		if cerr := c.run(); cerr != nil {
			r.cfg.logger.WarnContext(ctx, "dependency cleanup failed", "dependant", d.Name(), "error", cerr)
		}
	}

	return result, err
}

// call resolves and calls d, returning the cleanups still to run.
func (r *Resolver) call(ctx context.Context, req *http.Request, d *Dependant) (any, *cleanups, error) {
	plan, err := r.Plan(d)
	if err != nil {
		return nil, nil, err
	}

	rs := r.newRequest(req, plan)
	start := time.Now()

	result, err := rs.invoke(ctx, plan.root)
	rs.done(start, err)

	return result, rs.cleanups, err
}
