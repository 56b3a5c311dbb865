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

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Struct validates `validate` struct tags on a decoded value.
// Structs, pointers to structs and slices or maps of structs are inspected;
// anything else passes. Paths use JSON field names prefixed by path.
//
// Example:
//
//	type Item struct {
//	    Name  string  `json:"name" validate:"required"`
//	    Price float64 `json:"price" validate:"gt=0"`
//	}
//	err := v.Struct("body.item", &item)
//	// body.item.price: tag.gt
func (v *Validator) Struct(path string, value any) error {
	var result Error
	v.structValue(path, reflect.ValueOf(value), &result)

	return result.ErrorOrNil()
}

func (v *Validator) structValue(path string, rv reflect.Value, result *Error) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		v.validateStruct(path, rv, result)

	case reflect.Slice, reflect.Array:
		if !hasStructElem(rv.Type()) {
			return
		}
		for i := range rv.Len() {
			if v.truncate(result) {
				return
			}
			v.structValue(JoinPath(path, strconv.Itoa(i)), rv.Index(i), result)
		}

	case reflect.Map:
		if !hasStructElem(rv.Type()) {
			return
		}
		iter := rv.MapRange()
		for iter.Next() {
			if v.truncate(result) {
				return
			}
			v.structValue(JoinPath(path, fmt.Sprint(iter.Key().Interface())), iter.Value(), result)
		}
	}
}

func hasStructElem(t reflect.Type) bool {
	e := t.Elem()
	for e.Kind() == reflect.Pointer {
		e = e.Elem()
	}

	return e.Kind() == reflect.Struct
}

func (v *Validator) validateStruct(path string, rv reflect.Value, result *Error) {
	if !rv.CanAddr() {
		tmp := reflect.New(rv.Type())
		tmp.Elem().Set(rv)
		rv = tmp.Elem()
	}

	err := v.tagValidator.Struct(rv.Addr().Interface())
	if err == nil {
		return
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		result.Add(path, "tag_error", err.Error(), nil)
		return
	}

	structType := rv.Type()
	for _, e := range errs {
		if v.truncate(result) {
			return
		}

		// Namespace starts with the struct type name.
		ns := e.StructNamespace()
		if idx := strings.Index(ns, "."); idx != -1 {
			ns = ns[idx+1:]
		}
		loc := JoinPath(path, v.jsonPath(ns, structType))

		msg := tagErrorMessage(e)
		value := fmt.Sprint(e.Value())
		if v.redact(loc) {
			if value != "" {
				msg = strings.ReplaceAll(msg, value, redacted)
			}
			value = redacted
		}

		result.Add(loc, "tag."+e.Tag(), msg, map[string]any{
			"tag":   e.Tag(),
			"param": e.Param(),
			"value": value,
		})
	}
}

// jsonPath converts a Go struct namespace into a dotted JSON path, cached
// per struct type.
func (v *Validator) jsonPath(ns string, structType reflect.Type) string {
	cacheVal, _ := v.pathCache.LoadOrStore(structType, &sync.Map{})
	typeCache, ok := cacheVal.(*sync.Map)
	if !ok {
		return namespaceToJSONPath(ns, structType)
	}

	if cached, hit := typeCache.Load(ns); hit {
		if s, isString := cached.(string); isString {
			return s
		}
	}
	p := namespaceToJSONPath(ns, structType)
	typeCache.Store(ns, p)

	return p
}

// namespaceToJSONPath maps "Items[2].Price" to "items.2.price".
func namespaceToJSONPath(ns string, structType reflect.Type) string {
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	parts := strings.Split(ns, ".")
	out := make([]string, 0, len(parts))

	current := structType
	for _, part := range parts {
		for current.Kind() == reflect.Pointer {
			current = current.Elem()
		}

		switch current.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			out = append(out, part)
			current = current.Elem()
			continue
		case reflect.Struct:
			if field, found := current.FieldByName(part); found {
				out = append(out, jsonFieldName(field))
				current = field.Type
				continue
			}
		}

		out = append(out, part)
	}

	return strings.Join(out, ".")
}

func tagErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "slug":
		return "must be lowercase letters, numbers, and hyphens"
	default:
		return fmt.Sprintf("failed validation (%s)", e.Tag())
	}
}
