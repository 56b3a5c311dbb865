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

package binding

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
)

// Source represents where a value was read from.
type Source int

const (
	// SourceUnknown is an unspecified source.
	SourceUnknown Source = iota

	// SourceQuery represents URL query parameters.
	SourceQuery

	// SourcePath represents URL path parameters.
	SourcePath

	// SourceHeader represents HTTP headers.
	SourceHeader

	// SourceCookie represents HTTP cookies.
	SourceCookie

	// SourceForm represents urlencoded or multipart form fields.
	SourceForm

	// SourceFile represents multipart file uploads.
	SourceFile

	// SourceBody represents a decoded request body.
	SourceBody
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceQuery:
		return "query"
	case SourcePath:
		return "path"
	case SourceHeader:
		return "header"
	case SourceCookie:
		return "cookie"
	case SourceForm:
		return "form"
	case SourceFile:
		return "file"
	case SourceBody:
		return "body"
	default:
		return "unknown"
	}
}

// Static errors for binding operations.
var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrUnsupportedType        = errors.New("unsupported type")
	ErrInvalidIPAddress       = errors.New("invalid IP address")
	ErrInvalidBooleanValue    = errors.New("invalid boolean value")
	ErrEmptyTimeValue         = errors.New("empty time value")
	ErrUnableToParseTime      = errors.New("unable to parse time")
	ErrSliceExceedsMaxLength  = errors.New("slice exceeds max length")
	ErrNoValues               = errors.New("no values to convert")
	ErrNotAnObject            = errors.New("body is not an object")
	ErrFileNotFound           = errors.New("file not found")
	ErrOutMustBePointer       = errors.New("out must be a non-nil pointer")
)

// BindError represents a value that could not be converted.
//
// Use [errors.As] to inspect it:
//
//	var bindErr *binding.BindError
//	if errors.As(err, &bindErr) {
//	    fmt.Printf("field %s from %s\n", bindErr.Field, bindErr.Source)
//	}
type BindError struct {
	Field  string       // Lookup name of the value
	Source Source       // Where the value came from
	Value  string       // The raw value that failed conversion
	Type   reflect.Type // Expected Go type
	Reason string       // Human-readable reason, overrides the generated message
	Err    error        // Underlying error
}

// Error returns a formatted error message with a contextual hint.
func (e *BindError) Error() string {
	var base string
	if e.Reason != "" {
		base = fmt.Sprintf("binding %q (%s): %s", e.Field, e.Source, e.Reason)
	} else {
		typeName := "unknown"
		if e.Type != nil {
			typeName = e.Type.String()
		}
		base = fmt.Sprintf("binding %q (%s): failed to convert %q to %s: %v",
			e.Field, e.Source, e.Value, typeName, e.Err)
	}

	if hint := e.hint(); hint != "" {
		base += " (hint: " + hint + ")"
	}

	return base
}

// hint suggests a fix for common mistakes.
func (e *BindError) hint() string {
	if e.Type == nil {
		return ""
	}
	t := e.Type
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}

	switch {
	case isIntType(t) && strings.Contains(e.Value, "."):
		return "use a float type for decimal values"
	case t == timeType:
		return "use RFC3339 (2006-01-02T15:04:05Z07:00) or register layouts with WithTimeLayouts"
	case t == durationType:
		return "use Go duration format such as 1h30m or 500ms"
	case t.Kind() == reflect.Bool:
		return "accepted values: true/false, yes/no, 1/0, on/off"
	}

	return ""
}

func isIntType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *BindError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements rivaas.dev/params/errors.ErrorType.
func (e *BindError) HTTPStatus() int {
	if errors.Is(e.Err, ErrUnsupportedContentType) {
		return http.StatusUnsupportedMediaType
	}

	return http.StatusBadRequest
}

// Code implements rivaas.dev/params/errors.ErrorCode.
func (e *BindError) Code() string {
	return "binding_error"
}
