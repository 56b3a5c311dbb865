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
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Static errors for declaration, planning and authorization.
var (
	ErrNilFunc             = errors.New("dependant function is nil")
	ErrInvalidInput        = errors.New("invalid input declaration")
	ErrDuplicateInput      = errors.New("duplicate input name")
	ErrCycle               = errors.New("dependency cycle")
	ErrNoProvider          = errors.New("no provider for inferred dependency")
	ErrUnsupportedCallable = errors.New("dependency callable is not a *resolve.Dependant")
	ErrUnknownDescriptor   = errors.New("unknown descriptor type")
	ErrInsufficientScope   = errors.New("insufficient scope")
	ErrInvalidConfig       = errors.New("invalid resolver configuration")
)

// PlanError reports a dependant tree that cannot be resolved.
// It is a declaration error and surfaces as a 500 when hit at request time.
//
// Use [errors.As] to inspect it:
//
//	var perr *resolve.PlanError
//	if errors.As(err, &perr) {
//	    log.Fatalf("route %s: input %s: %v", perr.Dependant, perr.Input, perr.Err)
//	}
type PlanError struct {
	Dependant string   // Dependant whose input failed
	Input     string   // Input name, empty for dependant-level failures
	Chain     []string // Dependant names from the root, for cycles
	Err       error    // Underlying cause, e.g. ErrCycle
}

// Error returns a formatted error message.
func (e *PlanError) Error() string {
	var b strings.Builder
	b.WriteString("resolve: plan ")
	b.WriteString(e.Dependant)
	if e.Input != "" {
		b.WriteString(".")
		b.WriteString(e.Input)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if len(e.Chain) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Chain, " -> "))
		b.WriteString(")")
	}

	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *PlanError) Unwrap() error {
	return e.Err
}

// ScopeGranter is implemented by security dependency results that know the
// scopes they grant, typically an authenticated principal.
type ScopeGranter interface {
	GrantedScopes() []string
}

// AuthorizationError reports a security dependency whose result does not
// grant every scope the request requires.
type AuthorizationError struct {
	Dependency string   // Name of the security dependant
	Required   []string // Scopes accumulated for the dependency, in declaration order
	Missing    []string // Required scopes not granted
}

// Error returns a formatted error message.
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: missing scope %s", e.Dependency, strings.Join(e.Missing, ", "))
}

// Unwrap returns [ErrInsufficientScope].
func (e *AuthorizationError) Unwrap() error {
	return ErrInsufficientScope
}

// HTTPStatus implements rivaas.dev/params/errors.ErrorType.
func (e *AuthorizationError) HTTPStatus() int {
	return http.StatusForbidden
}

// Code implements rivaas.dev/params/errors.ErrorCode.
func (e *AuthorizationError) Code() string {
	return "insufficient_scope"
}

// Details implements rivaas.dev/params/errors.ErrorDetails.
func (e *AuthorizationError) Details() any {
	return map[string]any{
		"required": e.Required,
		"missing":  e.Missing,
	}
}

// Headers implements rivaas.dev/params/errors.ErrorHeaders with a bearer
// challenge listing the required scopes (RFC 6750).
func (e *AuthorizationError) Headers() http.Header {
	challenge := `Bearer error="insufficient_scope"`
	if len(e.Required) > 0 {
		challenge += `, scope="` + strings.Join(e.Required, " ") + `"`
	}

	return http.Header{"Www-Authenticate": {challenge}}
}

// checkScopes returns an [AuthorizationError] when granter lacks any of required.
func checkScopes(dependency string, required []string, granter ScopeGranter) error {
	granted := make(map[string]struct{})
	for _, s := range granter.GrantedScopes() {
		granted[s] = struct{}{}
	}

	var missing []string
	for _, s := range required {
		if _, ok := granted[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return &AuthorizationError{
		Dependency: dependency,
		Required:   required,
		Missing:    missing,
	}
}
