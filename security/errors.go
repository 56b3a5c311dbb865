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

package security

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for authentication failures.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidScheme      = errors.New("invalid authorization scheme")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidConfig      = errors.New("invalid security configuration")
)

// UnauthenticatedError reports a request without valid credentials.
// It is rendered as 401 with a WWW-Authenticate challenge.
type UnauthenticatedError struct {
	Scheme string // Challenge scheme, e.g. "Bearer"; empty for API keys
	Err    error  // Underlying cause
}

// Error implements error.
func (e *UnauthenticatedError) Error() string {
	return fmt.Sprintf("not authenticated: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *UnauthenticatedError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements rivaas.dev/params/errors.ErrorType.
func (e *UnauthenticatedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

// Code implements rivaas.dev/params/errors.ErrorCode.
func (e *UnauthenticatedError) Code() string {
	if errors.Is(e.Err, ErrInvalidToken) {
		return "invalid_token"
	}

	return "not_authenticated"
}

// Headers implements rivaas.dev/params/errors.ErrorHeaders.
// Invalid tokens get an RFC 6750 error attribute.
func (e *UnauthenticatedError) Headers() http.Header {
	if e.Scheme == "" {
		return nil
	}

	challenge := e.Scheme
	if errors.Is(e.Err, ErrInvalidToken) {
		challenge += ` error="invalid_token"`
	}

	return http.Header{"Www-Authenticate": {challenge}}
}
