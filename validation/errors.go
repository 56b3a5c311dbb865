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
	"net/http"
	"slices"
	"strings"
)

// ErrValidation is a sentinel error for validation failures.
// Both [FieldError] and [Error] unwrap to it:
//
//	if errors.Is(err, validation.ErrValidation) {
//	    // Handle validation error
//	}
var ErrValidation = errors.New("validation")

// ErrInvalidConfig is returned by [New] for inconsistent options.
var ErrInvalidConfig = errors.New("invalid validation configuration")

// Stable error codes produced while resolving request inputs.
// Schema and tag failures use the "schema." and "tag." prefixes followed by
// the failing keyword or tag (e.g. "schema.minimum", "tag.email").
const (
	CodeMissing = "missing" // required input absent
	CodeType    = "type"    // raw value could not be converted
	CodeBody    = "body"    // body could not be decoded
)

// FieldError represents a single validation error for a specific input.
type FieldError struct {
	Path    string         `json:"path"`           // Dotted location (e.g., "query.limit", "body.item.price")
	Code    string         `json:"code"`           // Stable code (e.g., "missing", "schema.minimum")
	Message string         `json:"message"`        // Human-readable message
	Meta    map[string]any `json:"meta,omitempty"` // Additional metadata (tag, param, value, ...)
}

// Error returns "path: message", or just the message when path is empty.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns [ErrValidation] for errors.Is compatibility.
func (e FieldError) Unwrap() error {
	return ErrValidation
}

// HTTPStatus implements rivaas.dev/params/errors.ErrorType.
func (e FieldError) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

// Loc splits the path into its segments.
func (e FieldError) Loc() []string {
	if e.Path == "" {
		return nil
	}

	return strings.Split(e.Path, ".")
}

// Error aggregates the field errors of one resolution.
//
// Use [errors.As] to inspect it:
//
//	var verr *validation.Error
//	if errors.As(err, &verr) {
//	    for _, fe := range verr.Fields {
//	        fmt.Printf("%s: %s\n", fe.Path, fe.Message)
//	    }
//	}
type Error struct {
	Fields    []FieldError `json:"errors"`              // Field errors in discovery order
	Truncated bool         `json:"truncated,omitempty"` // True if errors were truncated due to the max errors limit
}

// Error returns a summary of all field errors.
func (v Error) Error() string {
	switch len(v.Fields) {
	case 0:
		return ""
	case 1:
		return v.Fields[0].Error()
	}

	msgs := make([]string, 0, len(v.Fields))
	for _, fe := range v.Fields {
		msgs = append(msgs, fe.Error())
	}
	suffix := ""
	if v.Truncated {
		suffix = " (truncated)"
	}

	return fmt.Sprintf("validation failed: %s%s", strings.Join(msgs, "; "), suffix)
}

// Unwrap returns [ErrValidation] for errors.Is compatibility.
func (v Error) Unwrap() error {
	return ErrValidation
}

// HTTPStatus implements rivaas.dev/params/errors.ErrorType.
func (v Error) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

// Details implements rivaas.dev/params/errors.ErrorDetails.
func (v Error) Details() any {
	return v.Fields
}

// Code implements rivaas.dev/params/errors.ErrorCode.
func (v Error) Code() string {
	return "validation_error"
}

// Add appends a field error.
func (v *Error) Add(path, code, message string, meta map[string]any) {
	v.Fields = append(v.Fields, FieldError{
		Path:    path,
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// AddError merges err into v. FieldError and Error values are flattened;
// anything else becomes a generic entry.
func (v *Error) AddError(err error) {
	if err == nil {
		return
	}

	var ve *Error
	if errors.As(err, &ve) {
		v.Fields = append(v.Fields, ve.Fields...)
		v.Truncated = v.Truncated || ve.Truncated

		return
	}
	var vv Error
	if errors.As(err, &vv) {
		v.Fields = append(v.Fields, vv.Fields...)
		v.Truncated = v.Truncated || vv.Truncated

		return
	}
	var fe FieldError
	if errors.As(err, &fe) {
		v.Fields = append(v.Fields, fe)
		return
	}

	v.Fields = append(v.Fields, FieldError{
		Code:    "validation_error",
		Message: err.Error(),
	})
}

// HasErrors reports whether any field error was collected.
func (v Error) HasErrors() bool {
	return len(v.Fields) > 0
}

// HasCode reports whether any field error has the given code.
func (v Error) HasCode(code string) bool {
	return slices.ContainsFunc(v.Fields, func(fe FieldError) bool { return fe.Code == code })
}

// Has reports whether a field error exists for the exact path.
func (v Error) Has(path string) bool {
	return v.GetField(path) != nil
}

// GetField returns the first field error for path, or nil.
func (v Error) GetField(path string) *FieldError {
	for i := range v.Fields {
		if v.Fields[i].Path == path {
			fe := v.Fields[i]
			return &fe
		}
	}

	return nil
}

// ErrorOrNil returns v as an error when it holds field errors, nil otherwise.
func (v *Error) ErrorOrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}

	return v
}

// Sort orders field errors by path then code.
func (v *Error) Sort() {
	slices.SortStableFunc(v.Fields, func(a, b FieldError) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}

		return strings.Compare(a.Code, b.Code)
	})
}

// JoinPath joins non-empty path segments with dots.
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, ".")
}
