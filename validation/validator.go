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
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator checks resolved values against declared constraints and struct tags.
//
// Validator is safe for concurrent use by multiple goroutines. Compiled
// constraint schemas are cached and shared across calls.
//
// Example:
//
//	v := validation.MustNew(validation.WithMaxErrors(10))
//	err := v.CheckField("query.q", &q.Field, "fixedquery")
type Validator struct {
	cfg *config

	tagValidator *validator.Validate

	schemas *schemaCache

	pathCache sync.Map // map[reflect.Type]*sync.Map[string]string
}

// New creates a [Validator] with the given options.
// Returns an error if configuration is invalid.
func New(opts ...Option) (*Validator, error) {
	cfg := newConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	v := &Validator{
		cfg:     cfg,
		schemas: newSchemaCache(cfg.maxCachedSchemas),
	}
	if err := v.initTagValidator(); err != nil {
		return nil, fmt.Errorf("initialize tag validator: %w", err)
	}

	return v, nil
}

// MustNew creates a [Validator] with the given options.
// Panics if configuration is invalid.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("validation.MustNew: %v", err))
	}

	return v
}

var reSlug = regexp.MustCompile(`^[a-z0-9-]+$`)

func (v *Validator) initTagValidator() error {
	v.tagValidator = validator.New(validator.WithRequiredStructEnabled())

	// JSON names in error paths.
	v.tagValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return jsonFieldName(fld)
	})

	if err := v.tagValidator.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return reSlug.MatchString(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register slug validator: %w", err)
	}

	for _, ct := range v.cfg.customTags {
		if err := v.tagValidator.RegisterValidation(ct.name, ct.fn); err != nil {
			return fmt.Errorf("register custom tag %q: %w", ct.name, err)
		}
	}

	return nil
}

// jsonFieldName returns the JSON name of a struct field, "" for skipped fields.
func jsonFieldName(fld reflect.StructField) string {
	name := fld.Tag.Get("json")
	if name == "-" {
		return ""
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	if name == "" {
		return fld.Name
	}

	return name
}

// truncate reports whether the max errors limit is reached, marking result.
func (v *Validator) truncate(result *Error) bool {
	if v.cfg.maxErrors > 0 && len(result.Fields) >= v.cfg.maxErrors {
		result.Truncated = true
		return true
	}

	return false
}

func (v *Validator) redact(path string) bool {
	return v.cfg.redactor != nil && v.cfg.redactor(path)
}
