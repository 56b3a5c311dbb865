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

package params

import (
	"fmt"
	"net/http"
	"strings"
)

// Descriptor is implemented by [*ParamInfo], [*BodyInfo] and [*Dependency].
// The set is closed; the resolve package switches on the concrete type.
type Descriptor interface {
	fmt.Stringer
	isDescriptor()
}

// ParamInfo describes an input bound to a path segment, query parameter,
// header or cookie.
type ParamInfo struct {
	Field
	location           Location
	convertUnderscores bool
}

func (*ParamInfo) isDescriptor() {}

// Location returns where the raw value is read from.
func (p *ParamInfo) Location() Location { return p.location }

// ConvertUnderscores reports whether a header parameter name has its
// underscores mapped to hyphens. Always false for non-header locations.
func (p *ParamInfo) ConvertUnderscores() bool { return p.convertUnderscores }

// LookupName returns the request key for a parameter declared as name.
//
// The alias wins when set. Otherwise header parameters with underscore
// conversion map "x_token" to "X-Token"; every other case returns name
// unchanged.
func (p *ParamInfo) LookupName(name string) string {
	if p.alias != "" {
		return p.alias
	}
	if p.location == LocationHeader && p.convertUnderscores {
		return http.CanonicalHeaderKey(strings.ReplaceAll(name, "_", "-"))
	}

	return name
}

// String renders the descriptor as its constructor call, e.g. Query(10).
func (p *ParamInfo) String() string {
	var name string
	switch p.location {
	case LocationPath:
		name = "Path"
	case LocationQuery:
		name = "Query"
	case LocationHeader:
		name = "Header"
	case LocationCookie:
		name = "Cookie"
	default:
		name = "Param"
	}

	return name + "(" + p.def.String() + ")"
}

func newParam(loc Location, cfg *config) *ParamInfo {
	return &ParamInfo{
		Field:              newField(cfg),
		location:           loc,
		convertUnderscores: loc == LocationHeader && cfg.convertUnderscores,
	}
}

// Path declares a path parameter. Path parameters are always required.
//
// Errors:
//   - [*ConstructionError] wrapping [ErrPathDefault]: a default was supplied
//
// Example:
//
//	itemID, err := params.Path(params.WithGe(1), params.WithTitle("Item ID"))
func Path(opts ...Option) (*ParamInfo, error) {
	cfg := applyOptions(opts)
	if cfg.defaultSet {
		return nil, &ConstructionError{Descriptor: "Path", Err: ErrPathDefault}
	}

	return newParam(LocationPath, cfg), nil
}

// MustPath is like [Path] but panics on a construction error.
// Use it in route declarations where a bad declaration should stop startup.
func MustPath(opts ...Option) *ParamInfo {
	p, err := Path(opts...)
	if err != nil {
		panic(fmt.Sprintf("params.MustPath: %v", err))
	}

	return p
}

// Query declares a URL query parameter.
//
// Example:
//
//	q := params.Query(params.WithDefault(nil), params.WithMaxLength(50))
func Query(opts ...Option) *ParamInfo {
	return newParam(LocationQuery, applyOptions(opts))
}

// Header declares a request header parameter. Underscores in the declared
// name are converted to hyphens unless WithConvertUnderscores(false) is given.
//
// Example:
//
//	userAgent := params.Header(params.WithDefault(nil))
func Header(opts ...Option) *ParamInfo {
	return newParam(LocationHeader, applyOptions(opts))
}

// Cookie declares a cookie parameter.
func Cookie(opts ...Option) *ParamInfo {
	return newParam(LocationCookie, applyOptions(opts))
}
