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

package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-openapi/spec"

	"rivaas.dev/params"
	"rivaas.dev/params/resolve"
)

var timeType = reflect.TypeFor[time.Time]()

// SwaggerOperation describes the dependant d as a Swagger 2 operation.
// Cookie parameters cannot be expressed in Swagger 2 and are skipped.
func SwaggerOperation(r *resolve.Resolver, d *resolve.Dependant, opts ...OperationOption) (*spec.Operation, error) {
	plan, err := r.Plan(d)
	if err != nil {
		return nil, err
	}

	return newSchemas().swaggerOperation(plan, applyOperationOptions(opts))
}

func (s *schemas) swaggerOperation(plan *resolve.Plan, doc *operationDoc) (*spec.Operation, error) {
	id := doc.operationID
	if id == "" {
		id = plan.Dependant().Name()
	}
	op := spec.NewOperation(id).
		WithSummary(doc.summary).
		WithDescription(doc.description).
		WithTags(doc.tags...)
	op.Deprecated = doc.deprecated

	for _, pp := range plan.Params() {
		if !pp.Info.IncludeInSchema() || pp.Info.Location() == params.LocationCookie {
			continue
		}
		op.AddParam(swaggerParam(pp.Name, pp.Info.Location().String(), pp.Input.Type, &pp.Info.Field, pp.Info.Location() == params.LocationPath))
	}

	if err := s.swaggerBody(op, plan.Bodies()); err != nil {
		return nil, err
	}

	for _, req := range plan.Security() {
		op.SecuredWith(req.Scheme.Name, req.Scopes...)
	}

	op.Responses = &spec.Responses{ResponsesProps: spec.ResponsesProps{StatusCodeResponses: make(map[int]spec.Response)}}
	if len(doc.responses) == 0 {
		op.RespondsWith(http.StatusOK, spec.NewResponse().WithDescription("Successful Response"))
	}
	for status, rd := range doc.responses {
		desc := rd.description
		if desc == "" {
			desc = http.StatusText(status)
		}
		resp := spec.NewResponse().WithDescription(desc)
		if rd.body != nil {
			schema, err := s.swaggerSchema(rd.body, nil)
			if err != nil {
				return nil, fmt.Errorf("response %d: %w", status, err)
			}
			resp.WithSchema(schema)
		}
		op.RespondsWith(status, resp)
	}
	if len(plan.Params()) > 0 || len(plan.Bodies()) > 0 {
		if _, ok := op.Responses.StatusCodeResponses[http.StatusUnprocessableEntity]; !ok {
			op.RespondsWith(http.StatusUnprocessableEntity, spec.NewResponse().WithDescription("Validation Error"))
		}
	}

	return op, nil
}

func (s *schemas) swaggerBody(op *spec.Operation, bodies []resolve.PlannedBody) error {
	if len(bodies) == 0 {
		return nil
	}

	form := false
	multipart := false
	for _, b := range bodies {
		form = form || b.Info.IsForm()
		multipart = multipart || b.Info.Kind() == params.BodyKindFile
	}

	if form {
		op.WithConsumes(params.MediaTypeForm)
		if multipart {
			op.Consumes = []string{params.MediaTypeMultipart}
		}
		for _, b := range bodies {
			if !b.Info.IncludeInSchema() {
				continue
			}
			if b.Info.Kind() == params.BodyKindFile {
				p := spec.FileParam(b.Name)
				p.Required = b.Info.IsRequired()
				p.Description = b.Info.Description()
				op.AddParam(p)
				continue
			}
			op.AddParam(swaggerParam(b.Name, "formData", b.Input.Type, &b.Info.Field, false))
		}

		return nil
	}

	op.WithConsumes(bodies[0].Info.MediaType())
	if len(bodies) == 1 && !bodies[0].Embed {
		b := bodies[0]
		schema, err := s.swaggerSchema(b.Input.Type, &b.Info.Field)
		if err != nil {
			return err
		}
		p := spec.BodyParam(b.Name, schema)
		p.Required = b.Info.IsRequired()
		p.Description = b.Info.Description()
		op.AddParam(p)

		return nil
	}

	object := &spec.Schema{SchemaProps: spec.SchemaProps{
		Type:       spec.StringOrArray{"object"},
		Properties: make(spec.SchemaProperties),
	}}
	required := false
	for _, b := range bodies {
		if !b.Info.IncludeInSchema() {
			continue
		}
		schema, err := s.swaggerSchema(b.Input.Type, &b.Info.Field)
		if err != nil {
			return err
		}
		object.Properties[b.Name] = *schema
		if b.Info.IsRequired() {
			object.Required = append(object.Required, b.Name)
			required = true
		}
	}
	p := spec.BodyParam("body", object)
	p.Required = required
	op.AddParam(p)

	return nil
}

// swaggerSchema converts the OpenAPI 3 schema of t. The keywords both
// versions share have the same JSON form.
func (s *schemas) swaggerSchema(t reflect.Type, f *params.Field) (*spec.Schema, error) {
	schema, err := s.forType(t)
	if err != nil {
		return nil, err
	}
	if f != nil {
		applyField(schema, f)
	}

	return toSwaggerSchema(schema)
}

func toSwaggerSchema(schema *openapi3.Schema) (*spec.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	out := new(spec.Schema)
	if err = json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	return out, nil
}

// swaggerParam builds a non-body parameter. Swagger 2 parameters carry
// simple types only; structured types are documented as strings.
func swaggerParam(name, in string, t reflect.Type, f *params.Field, path bool) *spec.Parameter {
	p := &spec.Parameter{ParamProps: spec.ParamProps{
		Name:        name,
		In:          in,
		Description: f.Description(),
		Required:    f.IsRequired() || path,
	}}

	typ, format := simpleType(t)
	p.Typed(typ, format)
	if typ == "array" {
		itemType, itemFormat := simpleType(deref(t).Elem())
		p.CollectionOf(spec.NewItems().Typed(itemType, itemFormat), "multi")
	}

	c := f.Constraints()
	if bound, exclusive := lowerBound(c); bound != nil {
		p.WithMinimum(*bound, exclusive)
	}
	if bound, exclusive := upperBound(c); bound != nil {
		p.WithMaximum(*bound, exclusive)
	}
	if c.MinLength != nil {
		p.WithMinLength(int64(*c.MinLength))
	}
	if c.MaxLength != nil {
		p.WithMaxLength(int64(*c.MaxLength))
	}
	if c.Pattern != "" {
		p.WithPattern(c.Pattern)
	}
	if v, ok := f.Default().Get(); ok && v != nil {
		p.WithDefault(v)
	}
	if v, ok := f.Example(); ok {
		p.Example = v
	}

	return p
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

func simpleType(t reflect.Type) (typ, format string) {
	t = deref(t)
	if t == timeType {
		return "string", "date-time"
	}

	switch t.Kind() {
	case reflect.Bool:
		return "boolean", ""
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return "integer", "int32"
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return "integer", "int64"
	case reflect.Float32:
		return "number", "float"
	case reflect.Float64:
		return "number", "double"
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return "string", "byte"
		}

		return "array", ""
	default:
		return "string", ""
	}
}
