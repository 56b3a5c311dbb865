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
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"rivaas.dev/params"
	"rivaas.dev/params/resolve"
)

// OperationOption documents an operation beyond what the plan describes.
type OperationOption func(*operationDoc)

type operationDoc struct {
	summary     string
	description string
	operationID string
	tags        []string
	deprecated  bool
	responses   map[int]responseDoc
}

type responseDoc struct {
	description string
	body        reflect.Type
}

func applyOperationOptions(opts []OperationOption) *operationDoc {
	d := &operationDoc{responses: make(map[int]responseDoc)}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// WithSummary sets the operation summary.
func WithSummary(s string) OperationOption {
	return func(d *operationDoc) { d.summary = s }
}

// WithDescription sets the operation description.
func WithDescription(s string) OperationOption {
	return func(d *operationDoc) { d.description = s }
}

// WithOperationID sets the operation ID. Defaults to the dependant name.
func WithOperationID(id string) OperationOption {
	return func(d *operationDoc) { d.operationID = id }
}

// WithTags adds tags to the operation.
func WithTags(tags ...string) OperationOption {
	return func(d *operationDoc) { d.tags = append(d.tags, tags...) }
}

// WithDeprecated marks the operation deprecated.
func WithDeprecated() OperationOption {
	return func(d *operationDoc) { d.deprecated = true }
}

// WithResponse documents a response. body is a value of the response type,
// or nil for a response without content.
//
// Example:
//
//	openapi.WithResponse(http.StatusCreated, "User created", User{})
func WithResponse(status int, description string, body any) OperationOption {
	return func(d *operationDoc) {
		d.responses[status] = responseDoc{description: description, body: reflect.TypeOf(body)}
	}
}

// Operation describes the dependant d as an OpenAPI 3 operation.
// Returns the plan error of d, or an error when a type has no schema.
//
// Example:
//
//	op, err := openapi.Operation(resolver, readItems, openapi.WithTags("items"))
func Operation(r *resolve.Resolver, d *resolve.Dependant, opts ...OperationOption) (*openapi3.Operation, error) {
	plan, err := r.Plan(d)
	if err != nil {
		return nil, err
	}

	return newSchemas().operation(plan, applyOperationOptions(opts))
}

func (s *schemas) operation(plan *resolve.Plan, doc *operationDoc) (*openapi3.Operation, error) {
	op := openapi3.NewOperation()
	op.OperationID = doc.operationID
	if op.OperationID == "" {
		op.OperationID = plan.Dependant().Name()
	}
	op.Summary = doc.summary
	op.Description = doc.description
	op.Tags = doc.tags
	op.Deprecated = doc.deprecated

	for _, pp := range plan.Params() {
		if !pp.Info.IncludeInSchema() {
			continue
		}
		p, err := s.parameter(pp)
		if err != nil {
			return nil, err
		}
		op.AddParameter(p)
	}

	body, err := s.requestBody(plan.Bodies())
	if err != nil {
		return nil, err
	}
	if body != nil {
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	if reqs := securityRequirements(plan.Security()); len(reqs) > 0 {
		op.Security = &reqs
	}

	responses, err := s.responses(plan, doc)
	if err != nil {
		return nil, err
	}
	op.Responses = responses

	return op, nil
}

func (s *schemas) parameter(pp resolve.PlannedParam) (*openapi3.Parameter, error) {
	info := pp.Info
	schema, err := s.forType(pp.Input.Type)
	if err != nil {
		return nil, err
	}
	applyField(schema, &info.Field)

	p := &openapi3.Parameter{
		Name:        pp.Name,
		In:          info.Location().String(),
		Description: info.Description(),
		Required:    info.IsRequired() || info.Location() == params.LocationPath,
		Deprecated:  info.Deprecated(),
		Schema:      schema.NewRef(),
	}
	if examples := info.Examples(); len(examples) > 0 {
		p.Examples = make(openapi3.Examples, len(examples))
		for i, v := range examples {
			p.Examples["example"+strconv.Itoa(i+1)] = &openapi3.ExampleRef{Value: openapi3.NewExample(v)}
		}
	}

	return p, nil
}

// requestBody documents the body inputs of a plan: one schema for a single
// unembedded body, an object keyed by input name otherwise. Form and file
// inputs make a form or multipart body.
func (s *schemas) requestBody(bodies []resolve.PlannedBody) (*openapi3.RequestBody, error) {
	if len(bodies) == 0 {
		return nil, nil
	}

	mediaType := bodies[0].Info.MediaType()
	for _, b := range bodies {
		switch b.Info.Kind() {
		case params.BodyKindFile:
			mediaType = params.MediaTypeMultipart
		case params.BodyKindForm:
			if mediaType != params.MediaTypeMultipart {
				mediaType = params.MediaTypeForm
			}
		}
	}

	rb := openapi3.NewRequestBody()
	if len(bodies) == 1 && !bodies[0].Embed && !bodies[0].Info.IsForm() {
		b := bodies[0]
		schema, err := s.forType(b.Input.Type)
		if err != nil {
			return nil, err
		}
		applyField(schema, &b.Info.Field)
		rb.Required = b.Info.IsRequired()
		rb.Description = b.Info.Description()

		return rb.WithContent(openapi3.NewContentWithSchema(schema, []string{mediaType})), nil
	}

	object := openapi3.NewObjectSchema()
	for _, b := range bodies {
		if !b.Info.IncludeInSchema() {
			continue
		}
		schema, err := s.forType(b.Input.Type)
		if err != nil {
			return nil, err
		}
		applyField(schema, &b.Info.Field)
		object.WithProperty(b.Name, schema)
		if b.Info.IsRequired() {
			object.Required = append(object.Required, b.Name)
			rb.Required = true
		}
	}

	return rb.WithContent(openapi3.NewContentWithSchema(object, []string{mediaType})), nil
}

func (s *schemas) responses(plan *resolve.Plan, doc *operationDoc) (*openapi3.Responses, error) {
	responses := openapi3.NewResponsesWithCapacity(len(doc.responses) + 1)

	if len(doc.responses) == 0 {
		responses.Set(strconv.Itoa(http.StatusOK), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("Successful Response").
				WithJSONSchema(&openapi3.Schema{}),
		})
	}
	for status, rd := range doc.responses {
		desc := rd.description
		if desc == "" {
			desc = http.StatusText(status)
		}
		resp := openapi3.NewResponse().WithDescription(desc)
		if rd.body != nil {
			schema, err := s.forType(rd.body)
			if err != nil {
				return nil, fmt.Errorf("response %d: %w", status, err)
			}
			resp.WithJSONSchema(schema)
		}
		responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: resp})
	}

	if len(plan.Params()) > 0 || len(plan.Bodies()) > 0 {
		if responses.Value(strconv.Itoa(http.StatusUnprocessableEntity)) == nil {
			problem := openapi3.NewResponse().
				WithDescription("Validation Error").
				WithContent(openapi3.NewContentWithSchema(problemSchema(), []string{"application/problem+json"}))
			responses.Set(strconv.Itoa(http.StatusUnprocessableEntity), &openapi3.ResponseRef{Value: problem})
		}
	}

	return responses, nil
}
