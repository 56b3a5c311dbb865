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
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Version is the OpenAPI version written to generated documents.
const Version = "3.0.3"

// ErrInvalidConfig is returned by [New] for an invalid configuration.
var ErrInvalidConfig = errors.New("invalid openapi configuration")

// API holds the document-level metadata.
type API struct {
	title       string
	version     string
	description string
	servers     openapi3.Servers
	tags        openapi3.Tags
}

// Option configures an [API].
type Option func(*API)

// New creates an [API] with the given options.
// Returns an error if the title or version is missing.
func New(opts ...Option) (*API, error) {
	a := &API{}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.title == "" || a.version == "" {
		return nil, fmt.Errorf("%w: title and version are required", ErrInvalidConfig)
	}

	return a, nil
}

// MustNew creates an [API] with the given options.
// Panics if configuration is invalid.
func MustNew(opts ...Option) *API {
	a, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("openapi.MustNew: %v", err))
	}

	return a
}

// WithTitle sets the API title and version. Required.
//
// Example:
//
//	openapi.WithTitle("Users API", "1.0.0")
func WithTitle(title, version string) Option {
	return func(a *API) {
		a.title = title
		a.version = version
	}
}

// WithInfoDescription sets the API description. CommonMark is allowed.
func WithInfoDescription(desc string) Option {
	return func(a *API) {
		a.description = desc
	}
}

// WithServer adds a server URL.
func WithServer(url, desc string) Option {
	return func(a *API) {
		a.servers = append(a.servers, &openapi3.Server{URL: url, Description: desc})
	}
}

// WithTag declares a tag with its description.
func WithTag(name, desc string) Option {
	return func(a *API) {
		a.tags = append(a.tags, &openapi3.Tag{Name: name, Description: desc})
	}
}

func (a *API) info() *openapi3.Info {
	return &openapi3.Info{
		Title:       a.title,
		Version:     a.version,
		Description: a.description,
	}
}
