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
	"fmt"
	"reflect"
	"slices"
	"strings"

	"rivaas.dev/params"
)

var bytesType = reflect.TypeFor[[]byte]()

// Plan is the flattened, immutable view of a dependant tree.
// Plans are built once per dependant by [Resolver.Plan] and shared.
type Plan struct {
	root     *node
	params   []PlannedParam
	bodies   []*PlannedBody
	security []SecurityRequirement
	deps     []*Dependant
}

// PlannedParam is a path, query, header or cookie input of the tree.
type PlannedParam struct {
	Owner *Dependant        // Dependant declaring the input
	Input Input             // The declared input
	Info  *params.ParamInfo // Its descriptor
	Name  string            // Name looked up in the request
}

// PlannedBody is a body, form or file input of the tree.
type PlannedBody struct {
	Owner *Dependant
	Input Input
	Info  *params.BodyInfo
	Name  string // Key in the body object or form field name
	Embed bool   // Effective embedding; forced when the tree has several bodies
}

// SecurityRequirement is a security scheme with the scopes required by
// the tree, in declaration order.
type SecurityRequirement struct {
	Scheme SecurityScheme
	Scopes []string
}

// node is one occurrence of a dependant in the tree.
type node struct {
	dep      *Dependant
	useCache bool
	scopes   []string // accumulated from the root, declaration order
	key      string   // memo key: identity and scope set
	inputs   []boundInput
}

type boundInput struct {
	in    Input
	param *params.ParamInfo
	body  *PlannedBody
	child *node
	key   string // lookup name of params
}

// Dependant returns the root of the plan.
func (p *Plan) Dependant() *Dependant { return p.root.dep }

// Params returns the parameters of the tree. A parameter declared by a
// dependency used several times is listed once.
func (p *Plan) Params() []PlannedParam { return slices.Clone(p.params) }

// Bodies returns the body inputs of the tree.
func (p *Plan) Bodies() []PlannedBody {
	out := make([]PlannedBody, len(p.bodies))
	for i, b := range p.bodies {
		out[i] = *b
	}

	return out
}

// Security returns the security requirements of the tree, one per scheme.
func (p *Plan) Security() []SecurityRequirement {
	out := make([]SecurityRequirement, len(p.security))
	for i, s := range p.security {
		out[i] = SecurityRequirement{Scheme: s.Scheme, Scopes: slices.Clone(s.Scopes)}
	}

	return out
}

// Dependencies returns the distinct sub-dependants in resolution order.
func (p *Plan) Dependencies() []*Dependant { return slices.Clone(p.deps) }

// planner walks a dependant tree.
type planner struct {
	providers map[reflect.Type]*Dependant
	plan      *Plan
	stack     []*Dependant
	seenDeps  map[*Dependant]struct{}
	seenParam map[string]struct{}
	bodyByKey map[string]*PlannedBody
}

func buildPlan(root *Dependant, providers map[reflect.Type]*Dependant) (*Plan, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil dependant", ErrInvalidInput)
	}

	pl := &planner{
		providers: providers,
		plan:      &Plan{},
		seenDeps:  make(map[*Dependant]struct{}),
		seenParam: make(map[string]struct{}),
		bodyByKey: make(map[string]*PlannedBody),
	}

	n, err := pl.walk(root, false, nil)
	if err != nil {
		return nil, err
	}
	pl.plan.root = n

	if len(pl.plan.bodies) > 1 {
		for _, b := range pl.plan.bodies {
			b.Embed = true
		}
	}

	return pl.plan, nil
}

func (pl *planner) walk(d *Dependant, useCache bool, scopes []string) (*node, error) {
	n := &node{
		dep:      d,
		useCache: useCache,
		scopes:   scopes,
		key:      memoKey(d, scopes),
	}

	pl.stack = append(pl.stack, d)
	defer func() { pl.stack = pl.stack[:len(pl.stack)-1] }()

	for _, in := range d.inputs {
		bi := boundInput{in: in}

		switch desc := in.Descriptor.(type) {
		case *params.ParamInfo:
			bi.param = desc
			bi.key = desc.LookupName(in.Name)
			pl.addParam(d, in, desc, bi.key)

		case *params.BodyInfo:
			b, err := pl.addBody(d, in, desc)
			if err != nil {
				return nil, err
			}
			bi.body = b

		case *params.Dependency:
			child, err := pl.target(d, in, desc)
			if err != nil {
				return nil, err
			}
			if slices.Contains(pl.stack, child) {
				chain := make([]string, 0, len(pl.stack)+1)
				for _, s := range pl.stack {
					chain = append(chain, s.name)
				}
				chain = append(chain, child.name)

				return nil, &PlanError{Dependant: d.name, Input: in.Name, Chain: chain, Err: ErrCycle}
			}

			childScopes := scopes
			if desc.IsSecurity() {
				childScopes = mergeScopes(scopes, desc.Scopes())
			}
			cn, err := pl.walk(child, desc.UseCache(), childScopes)
			if err != nil {
				return nil, err
			}
			bi.child = cn

		default:
			return nil, &PlanError{Dependant: d.name, Input: in.Name, Err: fmt.Errorf("%w: %T", ErrUnknownDescriptor, desc)}
		}

		n.inputs = append(n.inputs, bi)
	}

	if len(pl.stack) > 1 {
		if _, seen := pl.seenDeps[d]; !seen {
			pl.seenDeps[d] = struct{}{}
			pl.plan.deps = append(pl.plan.deps, d)
		}
	}
	if d.scheme != nil {
		pl.addSecurity(*d.scheme, scopes)
	}

	return n, nil
}

// target returns the dependant a dependency descriptor resolves to.
func (pl *planner) target(owner *Dependant, in Input, desc *params.Dependency) (*Dependant, error) {
	callable := desc.Callable()
	if isNil(callable) {
		provider, ok := pl.providers[in.Type]
		if !ok {
			return nil, &PlanError{Dependant: owner.name, Input: in.Name, Err: fmt.Errorf("%w: %s", ErrNoProvider, in.Type)}
		}

		return provider, nil
	}

	d, ok := callable.(*Dependant)
	if !ok {
		return nil, &PlanError{Dependant: owner.name, Input: in.Name, Err: fmt.Errorf("%w: %T", ErrUnsupportedCallable, callable)}
	}

	return d, nil
}

func (pl *planner) addParam(owner *Dependant, in Input, info *params.ParamInfo, key string) {
	id := string(info.Location()) + ":" + key
	if _, seen := pl.seenParam[id]; seen {
		return
	}
	pl.seenParam[id] = struct{}{}
	pl.plan.params = append(pl.plan.params, PlannedParam{Owner: owner, Input: in, Info: info, Name: key})
}

func (pl *planner) addBody(owner *Dependant, in Input, info *params.BodyInfo) (*PlannedBody, error) {
	if info.Kind() == params.BodyKindFile {
		switch in.Type {
		case fileType, filesType, bytesType:
		default:
			return nil, &PlanError{
				Dependant: owner.name,
				Input:     in.Name,
				Err:       fmt.Errorf("%w: file input must be *binding.File, []*binding.File or []byte, got %s", ErrInvalidInput, in.Type),
			}
		}
	}

	id := fmt.Sprintf("%p:%s", owner, in.Name)
	if b, seen := pl.bodyByKey[id]; seen {
		return b, nil
	}

	b := &PlannedBody{
		Owner: owner,
		Input: in,
		Info:  info,
		Name:  info.LookupName(in.Name),
		Embed: info.Embed(),
	}
	pl.bodyByKey[id] = b
	pl.plan.bodies = append(pl.plan.bodies, b)

	return b, nil
}

func (pl *planner) addSecurity(scheme SecurityScheme, scopes []string) {
	for i, req := range pl.plan.security {
		if req.Scheme.Name == scheme.Name {
			pl.plan.security[i].Scopes = mergeScopes(req.Scopes, scopes)
			return
		}
	}
	pl.plan.security = append(pl.plan.security, SecurityRequirement{Scheme: scheme, Scopes: slices.Clone(scopes)})
}

// mergeScopes appends the scopes of b missing from a, keeping order.
func mergeScopes(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	return out
}

// memoKey identifies a cached dependency result within a request: the
// dependant and its scope set.
func memoKey(d *Dependant, scopes []string) string {
	set := slices.Clone(scopes)
	slices.Sort(set)

	return fmt.Sprintf("%p|%s", d, strings.Join(slices.Compact(set), " "))
}
