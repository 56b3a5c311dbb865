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

package errors

import (
	"errors"
	"maps"
	"net/http"
)

// Formatter converts errors into HTTP responses.
//
// Example:
//
//	response := formatter.Format(req, err)
//	w.Header().Set("Content-Type", response.ContentType)
//	w.WriteHeader(response.Status)
//	json.NewEncoder(w).Encode(response.Body)
type Formatter interface {
	// Format returns the status code, content type, headers and body for err.
	Format(req *http.Request, err error) Response
}

// Response is a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is marshaled to JSON.
	Body any

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType is implemented by errors that declare their HTTP status.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails is implemented by errors carrying structured details,
// such as field-level validation errors.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode is implemented by errors with a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// ErrorHeaders is implemented by errors that add response headers.
//
// Example:
//
//	func (e *AuthorizationError) Headers() http.Header {
//		return http.Header{"WWW-Authenticate": {`Bearer scope="items:write"`}}
//	}
type ErrorHeaders interface {
	error
	Headers() http.Header
}

// NewRFC9457 creates an [RFC9457] formatter.
// baseURL is prepended to error codes to build problem type URIs.
//
// Example:
//
//	formatter := errors.NewRFC9457("https://api.example.com/problems")
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{
		BaseURL: baseURL,
	}
}

// NewSimple creates a [Simple] formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// WithStatus wraps an error with an explicit HTTP status code.
// If err is nil, the status text is used as the message.
//
// Example:
//
//	return nil, errors.WithStatus(sql.ErrNoRows, http.StatusNotFound)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}

	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}

// statusOf returns the status declared by err, 500 otherwise.
func statusOf(err error, resolver func(error) int) int {
	if resolver != nil {
		return resolver(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

// headersOf collects headers declared anywhere in err's chain.
func headersOf(err error) http.Header {
	var h ErrorHeaders
	if !errors.As(err, &h) {
		return nil
	}
	out := make(http.Header)
	maps.Copy(out, h.Headers())

	return out
}
