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
	"maps"

	"github.com/getkin/kin-openapi/openapi3"

	"rivaas.dev/params/resolve"
)

// securityRequirements lists one requirement per scheme. Scopes keep the
// order in which params.Security declared them.
func securityRequirements(reqs []resolve.SecurityRequirement) openapi3.SecurityRequirements {
	out := make(openapi3.SecurityRequirements, 0, len(reqs))
	for _, req := range reqs {
		scopes := req.Scopes
		if scopes == nil {
			scopes = []string{}
		}
		out = append(out, openapi3.SecurityRequirement{req.Scheme.Name: scopes})
	}

	return out
}

// SecuritySchemes returns the security schemes used by the given plans,
// keyed by scheme name.
func SecuritySchemes(plans ...*resolve.Plan) openapi3.SecuritySchemes {
	out := make(openapi3.SecuritySchemes)
	for _, p := range plans {
		for _, req := range p.Security() {
			if _, ok := out[req.Scheme.Name]; !ok {
				out[req.Scheme.Name] = &openapi3.SecuritySchemeRef{Value: securityScheme(req.Scheme)}
			}
		}
	}

	return out
}

func securityScheme(s resolve.SecurityScheme) *openapi3.SecurityScheme {
	out := &openapi3.SecurityScheme{
		Type:        s.Type,
		Description: s.Description,
	}

	switch s.Type {
	case "http":
		out.Scheme = s.Scheme
		out.BearerFormat = s.BearerFormat
	case "apiKey":
		out.In = s.In
		out.Name = s.ParamName
	case "oauth2":
		scopes := maps.Clone(s.Scopes)
		if scopes == nil {
			scopes = map[string]string{}
		}
		out.Flows = &openapi3.OAuthFlows{
			Password: &openapi3.OAuthFlow{TokenURL: s.TokenURL, Scopes: scopes},
		}
	case "openIdConnect":
		out.OpenIdConnectUrl = s.OpenIDConnectURL
	}

	return out
}
