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
	"context"
	"errors"
	"fmt"
	"strings"

	"rivaas.dev/params"
	"rivaas.dev/params/resolve"
)

// SchemeOption configures a credential dependency.
type SchemeOption func(*schemeConfig)

type schemeConfig struct {
	description  string
	bearerFormat string
	optional     bool
}

// WithDescription sets the scheme description shown in API documentation.
func WithDescription(description string) SchemeOption {
	return func(c *schemeConfig) {
		c.description = description
	}
}

// WithBearerFormat sets the documented bearer token format, e.g. "JWT".
func WithBearerFormat(format string) SchemeOption {
	return func(c *schemeConfig) {
		c.bearerFormat = format
	}
}

// Optional makes missing or foreign credentials resolve to an empty string
// instead of failing with 401. The handler decides what anonymous callers see.
func Optional() SchemeOption {
	return func(c *schemeConfig) {
		c.optional = true
	}
}

func applySchemeOptions(opts []SchemeOption) schemeConfig {
	var c schemeConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}

// BearerToken returns a security dependant resolving to the token of an
// "Authorization: Bearer <token>" header. The token is not verified.
// Panics if name is empty.
//
// Example:
//
//	bearer := security.BearerToken("bearer", security.WithBearerFormat("JWT"))
//	resolve.In[string]("token", params.Security(bearer))
func BearerToken(name string, opts ...SchemeOption) *resolve.Dependant {
	c := applySchemeOptions(opts)

	return newBearer(name, resolve.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: c.bearerFormat,
		Description:  c.description,
	}, c.optional)
}

func newBearer(name string, scheme resolve.SecurityScheme, optional bool) *resolve.Dependant {
	return resolve.MustSecurityDependant(name, scheme,
		func(_ context.Context, a *resolve.Args) (any, error) {
			header, _ := resolve.Lookup[string](a, "authorization")
			token, err := parseBearer(header)
			if err != nil {
				if optional {
					return "", nil
				}

				return nil, &UnauthenticatedError{Scheme: "Bearer", Err: err}
			}

			return token, nil
		},
		resolve.In[string]("authorization", params.Header(params.WithDefault(nil), params.WithIncludeInSchema(false))),
	)
}

// parseBearer extracts the token of a bearer authorization header.
// The scheme is case-insensitive.
func parseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredentials
	}

	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "bearer") {
		return "", fmt.Errorf("%w: %q", ErrInvalidScheme, scheme)
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrMissingCredentials
	}

	return token, nil
}

// APIKey returns a security dependant resolving to an API key read from
// the header, query parameter or cookie paramName. The key is not verified.
// Panics if name is empty or loc is the path.
//
// Example:
//
//	apiKey := security.APIKey("api_key", params.LocationHeader, "X-API-Key")
func APIKey(name string, loc params.Location, paramName string, opts ...SchemeOption) *resolve.Dependant {
	c := applySchemeOptions(opts)

	var desc params.Descriptor
	switch loc {
	case params.LocationHeader:
		desc = params.Header(params.WithAlias(paramName), params.WithDefault(nil), params.WithIncludeInSchema(false))
	case params.LocationQuery:
		desc = params.Query(params.WithAlias(paramName), params.WithDefault(nil), params.WithIncludeInSchema(false))
	case params.LocationCookie:
		desc = params.Cookie(params.WithAlias(paramName), params.WithDefault(nil), params.WithIncludeInSchema(false))
	default:
		panic(fmt.Sprintf("security.APIKey: unsupported location %q", loc))
	}

	return resolve.MustSecurityDependant(name, resolve.SecurityScheme{
		Type:        "apiKey",
		In:          loc.String(),
		ParamName:   paramName,
		Description: c.description,
	}, func(_ context.Context, a *resolve.Args) (any, error) {
		key, _ := resolve.Lookup[string](a, "key")
		if key == "" {
			if c.optional {
				return "", nil
			}

			return nil, &UnauthenticatedError{Err: fmt.Errorf("%w: %s %s", ErrMissingCredentials, loc, paramName)}
		}

		return key, nil
	}, resolve.In[string]("key", desc))
}

// IsUnauthenticated reports whether err is an authentication failure.
func IsUnauthenticated(err error) bool {
	var ue *UnauthenticatedError
	return errors.As(err, &ue)
}
