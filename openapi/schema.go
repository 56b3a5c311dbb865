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
	"reflect"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"rivaas.dev/params"
	"rivaas.dev/params/binding"
)

var (
	fileType  = reflect.TypeFor[*binding.File]()
	filesType = reflect.TypeFor[[]*binding.File]()
	bytesType = reflect.TypeFor[[]byte]()
)

// schemas generates inline schemas for Go types.
// Struct fields use their json names; fields tagged validate:"required"
// are listed as required and a doc tag becomes the description.
type schemas struct {
	gen *openapi3gen.Generator
}

func newSchemas() *schemas {
	return &schemas{
		gen: openapi3gen.NewGenerator(
			openapi3gen.UseAllExportedFields(),
			openapi3gen.SchemaCustomizer(customizeSchema),
		),
	}
}

// forType returns a fresh copy of the schema of t. The copy is shallow:
// callers only set top-level keywords.
func (s *schemas) forType(t reflect.Type) (*openapi3.Schema, error) {
	switch t {
	case fileType, bytesType:
		return openapi3.NewStringSchema().WithFormat("binary"), nil
	case filesType:
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema().WithFormat("binary")), nil
	}

	ref, err := s.gen.GenerateSchemaRef(t)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", t, err)
	}
	if ref.Value == nil {
		return &openapi3.Schema{}, nil
	}
	cp := *ref.Value

	return &cp, nil
}

func customizeSchema(_ string, t reflect.Type, tag reflect.StructTag, schema *openapi3.Schema) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		if doc := tag.Get("doc"); doc != "" {
			schema.Description = doc
		}

		return nil
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || !hasRule(f.Tag.Get("validate"), "required") {
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		if _, ok := schema.Properties[name]; ok && !slices.Contains(schema.Required, name) {
			schema.Required = append(schema.Required, name)
		}
	}

	return nil
}

func hasRule(validate, rule string) bool {
	for r := range strings.SplitSeq(validate, ",") {
		if r == rule {
			return true
		}
	}

	return false
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// lowerBound returns the stricter of the gt and ge constraints, which is the
// one validation ends up enforcing.
func lowerBound(c params.Constraints) (bound *float64, exclusive bool) {
	switch {
	case c.Gt == nil:
		return c.Ge, false
	case c.Ge == nil || *c.Gt >= *c.Ge:
		return c.Gt, true
	default:
		return c.Ge, false
	}
}

// upperBound returns the stricter of the lt and le constraints.
func upperBound(c params.Constraints) (bound *float64, exclusive bool) {
	switch {
	case c.Lt == nil:
		return c.Le, false
	case c.Le == nil || *c.Lt <= *c.Le:
		return c.Lt, true
	default:
		return c.Le, false
	}
}

// applyField documents the constraints and metadata of f on s.
func applyField(s *openapi3.Schema, f *params.Field) {
	c := f.Constraints()
	if bound, exclusive := lowerBound(c); bound != nil {
		s.Min, s.ExclusiveMin = ptr(*bound), exclusive
	}
	if bound, exclusive := upperBound(c); bound != nil {
		s.Max, s.ExclusiveMax = ptr(*bound), exclusive
	}
	if c.MinLength != nil {
		s.MinLength = uint64(max(*c.MinLength, 0))
	}
	if c.MaxLength != nil {
		s.MaxLength = ptr(uint64(max(*c.MaxLength, 0)))
	}
	if c.Pattern != "" {
		s.Pattern = c.Pattern
	}

	if f.Title() != "" {
		s.Title = f.Title()
	}
	if f.Description() != "" {
		s.Description = f.Description()
	}
	if f.Deprecated() {
		s.Deprecated = true
	}
	if v, ok := f.Default().Get(); ok && v != nil {
		s.Default = v
	}
	if v, ok := f.Example(); ok {
		s.Example = v
	}

	for k, v := range f.Extra() {
		applyExtra(s, k, v)
	}
}

// applyExtra maps extra JSON Schema keywords to their OpenAPI 3.0 fields.
// Unknown keywords are kept as x- extensions.
func applyExtra(s *openapi3.Schema, key string, v any) {
	switch key {
	case "format":
		if str, ok := v.(string); ok {
			s.Format = str
			return
		}
	case "enum":
		if list, ok := v.([]any); ok {
			s.Enum = list
			return
		}
	case "multipleOf":
		if n, ok := toFloat(v); ok {
			s.MultipleOf = &n
			return
		}
	}

	if s.Extensions == nil {
		s.Extensions = make(map[string]any)
	}
	if !strings.HasPrefix(key, "x-") {
		key = "x-" + key
	}
	s.Extensions[key] = v
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func ptr[T any](v T) *T { return &v }

// problemSchema describes the RFC 9457 body of request errors.
func problemSchema() *openapi3.Schema {
	fieldError := openapi3.NewObjectSchema().WithProperties(map[string]*openapi3.Schema{
		"path":    openapi3.NewStringSchema(),
		"code":    openapi3.NewStringSchema(),
		"message": openapi3.NewStringSchema(),
		"meta":    openapi3.NewObjectSchema(),
	})
	fieldError.Required = []string{"path", "code", "message"}

	s := openapi3.NewObjectSchema().WithProperties(map[string]*openapi3.Schema{
		"type":     openapi3.NewStringSchema(),
		"title":    openapi3.NewStringSchema(),
		"status":   openapi3.NewIntegerSchema(),
		"detail":   openapi3.NewStringSchema(),
		"instance": openapi3.NewStringSchema(),
		"code":     openapi3.NewStringSchema(),
		"error_id": openapi3.NewStringSchema(),
		"errors":   openapi3.NewArraySchema().WithItems(fieldError),
	})
	s.Title = "ValidationProblem"
	s.Required = []string{"type", "title", "status"}

	return s
}
