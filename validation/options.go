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
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Redactor reports whether the value at path is sensitive.
// Redacted values are replaced in error metadata and messages.
type Redactor func(path string) bool

const redacted = "***REDACTED***"

type customTag struct {
	name string
	fn   validator.Func
}

type config struct {
	maxErrors        int
	maxCachedSchemas int
	redactor         Redactor
	customTags       []customTag
}

func newConfig() *config {
	return &config{}
}

func (c *config) validate() error {
	if c.maxErrors < 0 {
		return fmt.Errorf("%w: maxErrors must be non-negative", ErrInvalidConfig)
	}
	if c.maxCachedSchemas < 0 {
		return fmt.Errorf("%w: maxCachedSchemas must be non-negative", ErrInvalidConfig)
	}
	for _, ct := range c.customTags {
		if ct.name == "" || ct.fn == nil {
			return fmt.Errorf("%w: custom tag needs a name and a function", ErrInvalidConfig)
		}
	}

	return nil
}

// Option configures a [Validator].
type Option func(*config)

// WithMaxErrors limits the number of field errors reported per call.
// Zero means unlimited. Excess errors set [Error.Truncated].
func WithMaxErrors(n int) Option {
	return func(c *config) {
		c.maxErrors = n
	}
}

// WithMaxCachedSchemas bounds the compiled constraint schema cache.
// The least recently used schema is evicted when the cache is full.
// Zero selects the default of 1024.
func WithMaxCachedSchemas(n int) Option {
	return func(c *config) {
		c.maxCachedSchemas = n
	}
}

// WithRedactor hides sensitive values from error messages and metadata.
//
// Example:
//
//	validation.WithRedactor(func(path string) bool {
//	    return strings.HasSuffix(path, "password")
//	})
func WithRedactor(r Redactor) Option {
	return func(c *config) {
		c.redactor = r
	}
}

// WithCustomTag registers a go-playground/validator tag used by [Validator.Struct].
//
// Example:
//
//	validation.WithCustomTag("phone", func(fl validator.FieldLevel) bool {
//	    return phoneRegex.MatchString(fl.Field().String())
//	})
func WithCustomTag(name string, fn validator.Func) Option {
	return func(c *config) {
		c.customTags = append(c.customTags, customTag{name: name, fn: fn})
	}
}
