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
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-openapi/spec"

	"rivaas.dev/params/resolve"
)

var nonWord = regexp.MustCompile(`\W`)

// Manager collects routes and generates the API document.
//
// Manager is safe for concurrent use. The generated document is cached
// until a route is registered.
type Manager struct {
	api      *API
	resolver *resolve.Resolver

	mu       sync.Mutex
	routes   []route
	specJSON []byte
	etag     string
}

type route struct {
	method string
	path   string
	dep    *resolve.Dependant
	doc    *operationDoc
}

// NewManager creates a [Manager] documenting dependants planned by r.
func NewManager(api *API, r *resolve.Resolver) *Manager {
	return &Manager{api: api, resolver: r}
}

// Register adds the operation method path served by d.
// Path parameters may be written {name} or :name.
// The operation ID defaults to the dependant name followed by the path and
// the method, e.g. "read_item_items__item_id__get".
// Returns the plan error of d.
func (m *Manager) Register(method, path string, d *resolve.Dependant, opts ...OperationOption) error {
	if _, err := m.resolver.Plan(d); err != nil {
		return fmt.Errorf("register %s %s: %w", method, path, err)
	}

	path = convertPath(path)
	doc := applyOperationOptions(opts)
	if doc.operationID == "" {
		doc.operationID = nonWord.ReplaceAllString(d.Name()+path, "_") + "_" + strings.ToLower(method)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.routes = append(m.routes, route{method: strings.ToUpper(method), path: path, dep: d, doc: doc})
	m.specJSON = nil

	return nil
}

// Document builds the OpenAPI 3 document of the registered routes.
func (m *Manager) Document() (*openapi3.T, error) {
	m.mu.Lock()
	routes := append([]route(nil), m.routes...)
	m.mu.Unlock()

	doc := &openapi3.T{
		OpenAPI:    Version,
		Info:       m.api.info(),
		Servers:    m.api.servers,
		Tags:       m.api.tags,
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{},
	}

	s := newSchemas()
	plans := make([]*resolve.Plan, 0, len(routes))
	for _, rt := range routes {
		plan, err := m.resolver.Plan(rt.dep)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)

		op, err := s.operation(plan, rt.doc)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", rt.method, rt.path, err)
		}
		doc.AddOperation(rt.path, rt.method, op)
	}
	if schemes := SecuritySchemes(plans...); len(schemes) > 0 {
		doc.Components.SecuritySchemes = schemes
	}

	return doc, nil
}

// GenerateSpec returns the JSON document and its ETag, generating it
// when routes changed since the last call.
//
// Example:
//
//	specJSON, etag, err := manager.GenerateSpec()
func (m *Manager) GenerateSpec() ([]byte, string, error) {
	m.mu.Lock()
	if m.specJSON != nil {
		defer m.mu.Unlock()
		return m.specJSON, m.etag, nil
	}
	m.mu.Unlock()

	doc, err := m.Document()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build OpenAPI spec: %w", err)
	}
	specJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode OpenAPI spec: %w", err)
	}
	etag := fmt.Sprintf(`"%x"`, sha256.Sum256(specJSON))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.specJSON, m.etag = specJSON, etag

	return specJSON, etag, nil
}

// Handler serves the JSON document with ETag revalidation.
func (m *Manager) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		specJSON, etag, err := m.GenerateSpec()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("ETag", etag)
		if match := req.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(specJSON)
	})
}

// Swagger builds the Swagger 2 document of the registered routes.
func (m *Manager) Swagger() (*spec.Swagger, error) {
	m.mu.Lock()
	routes := append([]route(nil), m.routes...)
	m.mu.Unlock()

	sw := &spec.Swagger{SwaggerProps: spec.SwaggerProps{
		Swagger: "2.0",
		Info: &spec.Info{InfoProps: spec.InfoProps{
			Title:       m.api.title,
			Version:     m.api.version,
			Description: m.api.description,
		}},
		Paths:               &spec.Paths{Paths: make(map[string]spec.PathItem)},
		SecurityDefinitions: make(spec.SecurityDefinitions),
	}}

	s := newSchemas()
	for _, rt := range routes {
		plan, err := m.resolver.Plan(rt.dep)
		if err != nil {
			return nil, err
		}
		op, err := s.swaggerOperation(plan, rt.doc)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", rt.method, rt.path, err)
		}

		item := sw.Paths.Paths[rt.path]
		setSwaggerOperation(&item, rt.method, op)
		sw.Paths.Paths[rt.path] = item

		for _, req := range plan.Security() {
			if _, ok := sw.SecurityDefinitions[req.Scheme.Name]; !ok {
				sw.SecurityDefinitions[req.Scheme.Name] = swaggerSecurity(req.Scheme)
			}
		}
	}

	return sw, nil
}

func setSwaggerOperation(item *spec.PathItem, method string, op *spec.Operation) {
	switch method {
	case http.MethodGet:
		item.Get = op
	case http.MethodPut:
		item.Put = op
	case http.MethodPost:
		item.Post = op
	case http.MethodDelete:
		item.Delete = op
	case http.MethodOptions:
		item.Options = op
	case http.MethodHead:
		item.Head = op
	case http.MethodPatch:
		item.Patch = op
	}
}

// swaggerSecurity converts a scheme. Swagger 2 has no bearer scheme; bearer
// tokens are documented as an Authorization header API key.
func swaggerSecurity(s resolve.SecurityScheme) *spec.SecurityScheme {
	var out *spec.SecurityScheme
	switch {
	case s.Type == "apiKey":
		out = spec.APIKeyAuth(s.ParamName, s.In)
	case s.Type == "oauth2":
		out = spec.OAuth2Password(s.TokenURL)
		for name, desc := range s.Scopes {
			out.AddScope(name, desc)
		}
	case s.Type == "http" && strings.EqualFold(s.Scheme, "basic"):
		out = spec.BasicAuth()
	default:
		out = spec.APIKeyAuth("Authorization", "header")
	}
	out.Description = s.Description

	return out
}

// convertPath rewrites :name segments to {name}.
func convertPath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if after, found := strings.CutPrefix(part, ":"); found {
			parts[i] = "{" + after + "}"
		}
	}

	return strings.Join(parts, "/")
}
