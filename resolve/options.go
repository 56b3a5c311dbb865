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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"

	"rivaas.dev/params/binding"
	riverrors "rivaas.dev/params/errors"
	"rivaas.dev/params/validation"
)

const (
	// DefaultMaxMemory is the multipart form memory limit, as in net/http.
	DefaultMaxMemory = 32 << 20

	// DefaultMaxBodyBytes limits the request body read for decoding.
	DefaultMaxBodyBytes = 10 << 20
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// PathValueFunc returns the value of a named path segment of a request.
// (*http.Request).PathValue is the default; chi.URLParam fits as is.
type PathValueFunc func(r *http.Request, name string) string

// config holds the settings of a [Resolver].
type config struct {
	providers    map[reflect.Type]*Dependant
	pathValue    PathValueFunc
	validator    *validation.Validator
	formatter    riverrors.Formatter
	logger       *slog.Logger
	events       Events
	concurrent   bool
	maxMemory    int64
	maxBodyBytes int64
	bindingOpts  []binding.Option
}

// Option configures a [Resolver].
type Option func(*config)

func defaultConfig() *config {
	return &config{
		providers:    make(map[reflect.Type]*Dependant),
		pathValue:    (*http.Request).PathValue,
		logger:       noopLogger,
		maxMemory:    DefaultMaxMemory,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

func (c *config) validate() error {
	if c.pathValue == nil {
		return fmt.Errorf("%w: path value function is nil", ErrInvalidConfig)
	}
	if c.maxMemory <= 0 {
		return fmt.Errorf("%w: max memory must be > 0, got %d", ErrInvalidConfig, c.maxMemory)
	}
	if c.maxBodyBytes <= 0 {
		return fmt.Errorf("%w: max body bytes must be > 0, got %d", ErrInvalidConfig, c.maxBodyBytes)
	}
	for typ, d := range c.providers {
		if typ == nil || d == nil {
			return fmt.Errorf("%w: provider needs a type and a dependant", ErrInvalidConfig)
		}
	}

	return nil
}

// WithProvider registers d as the dependant resolving params.Depends(nil)
// inputs of type typ.
//
// Example:
//
//	resolve.New(resolve.WithProvider(reflect.TypeFor[*sql.Conn](), getDB))
func WithProvider(typ reflect.Type, d *Dependant) Option {
	return func(c *config) {
		c.providers[typ] = d
	}
}

// Provide registers d as the provider of type T.
//
// Example:
//
//	resolve.New(resolve.Provide[*sql.Conn](getDB))
//	resolve.In[*sql.Conn]("db", params.Depends(nil))
func Provide[T any](d *Dependant) Option {
	return WithProvider(reflect.TypeFor[T](), d)
}

// WithPathValueFunc sets how path segments are read from a request.
//
// Example:
//
//	resolve.New(resolve.WithPathValueFunc(chi.URLParam))
func WithPathValueFunc(fn PathValueFunc) Option {
	return func(c *config) {
		c.pathValue = fn
	}
}

// WithValidator sets the validator used for declared constraints and
// struct tags. A default validator is created otherwise.
func WithValidator(v *validation.Validator) Option {
	return func(c *config) {
		c.validator = v
	}
}

// WithFormatter sets the formatter used by [Resolver.Handler] to render
// errors. Defaults to RFC 9457 problem details.
func WithFormatter(f riverrors.Formatter) Option {
	return func(c *config) {
		c.formatter = f
	}
}

// WithLogger sets the logger for resolution diagnostics.
// Failed dependencies are logged at debug level, server errors at error level.
//
// Example:
//
//	resolve.New(resolve.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEvents sets observability hooks.
func WithEvents(events Events) Option {
	return func(c *config) {
		c.events = events
	}
}

// WithConcurrentDependencies resolves the sub-dependencies of a dependant
// concurrently. Cached dependencies are still called at most once per request.
func WithConcurrentDependencies(enabled bool) Option {
	return func(c *config) {
		c.concurrent = enabled
	}
}

// WithMaxMemory sets the memory limit for parsing multipart forms.
// Larger parts are stored in temporary files.
func WithMaxMemory(n int64) Option {
	return func(c *config) {
		c.maxMemory = n
	}
}

// WithMaxBodyBytes limits the size of bodies read for decoding.
// Larger bodies fail with 413.
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		c.maxBodyBytes = n
	}
}

// WithBindingOptions configures value conversion and body decoding.
//
// Example:
//
//	resolve.New(resolve.WithBindingOptions(
//	    binding.WithConverter[uuid.UUID](uuid.Parse),
//	    binding.WithUnknownFieldPolicy(binding.UnknownError),
//	))
func WithBindingOptions(opts ...binding.Option) Option {
	return func(c *config) {
		c.bindingOpts = append(c.bindingOpts, opts...)
	}
}
