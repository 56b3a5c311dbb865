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
	"maps"
	"slices"
)

// Constraints are the validation bounds attached to a field.
// Nil pointers mean "no bound". Pattern is stored verbatim; its syntax is
// checked by the schema engine, not here.
type Constraints struct {
	Gt        *float64 // exclusive lower bound
	Ge        *float64 // inclusive lower bound
	Lt        *float64 // exclusive upper bound
	Le        *float64 // inclusive upper bound
	MinLength *int
	MaxLength *int
	Pattern   string
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.Gt == nil && c.Ge == nil && c.Lt == nil && c.Le == nil &&
		c.MinLength == nil && c.MaxLength == nil && c.Pattern == ""
}

// clone returns a deep copy so callers can't mutate the descriptor's bounds.
func (c Constraints) clone() Constraints {
	return Constraints{
		Gt:        clonePtr(c.Gt),
		Ge:        clonePtr(c.Ge),
		Lt:        clonePtr(c.Lt),
		Le:        clonePtr(c.Le),
		MinLength: clonePtr(c.MinLength),
		MaxLength: clonePtr(c.MaxLength),
		Pattern:   c.Pattern,
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p

	return &v
}

// Field is the metadata shared by parameter and body descriptors.
// It is embedded in [ParamInfo] and [BodyInfo] and never mutated after
// construction; accessors return copies of slices and maps.
type Field struct {
	def             Default
	alias           string
	title           string
	description     string
	deprecated      bool
	example         any
	hasExample      bool
	examples        []any
	constraints     Constraints
	includeInSchema bool
	extra           map[string]any
}

func newField(cfg *config) Field {
	return Field{
		def:             cfg.def,
		alias:           cfg.alias,
		title:           cfg.title,
		description:     cfg.description,
		deprecated:      cfg.deprecated,
		example:         cfg.example,
		hasExample:      cfg.hasExample,
		examples:        slices.Clone(cfg.examples),
		constraints:     cfg.constraints.clone(),
		includeInSchema: cfg.includeInSchema,
		extra:           maps.Clone(cfg.extra),
	}
}

// Default returns the tagged default of the field.
func (f *Field) Default() Default { return f.def }

// IsRequired reports whether the request must supply a value.
func (f *Field) IsRequired() bool { return f.def.IsRequired() }

// Alias returns the name used to look up the raw value, or "".
func (f *Field) Alias() string { return f.alias }

// Title returns the display title.
func (f *Field) Title() string { return f.title }

// Description returns the display description.
func (f *Field) Description() string { return f.description }

// Deprecated reports whether the field is marked deprecated.
func (f *Field) Deprecated() bool { return f.deprecated }

// Example returns the single example value, if one was given.
func (f *Field) Example() (any, bool) { return f.example, f.hasExample }

// Examples returns a copy of the example values.
func (f *Field) Examples() []any { return slices.Clone(f.examples) }

// Constraints returns a copy of the validation bounds.
func (f *Field) Constraints() Constraints { return f.constraints.clone() }

// IncludeInSchema reports whether documentation should list the field.
func (f *Field) IncludeInSchema() bool { return f.includeInSchema }

// Extra returns a copy of the additional schema keywords.
func (f *Field) Extra() map[string]any { return maps.Clone(f.extra) }

// name returns the alias when set, otherwise the declared name.
func (f *Field) name(declared string) string {
	if f.alias != "" {
		return f.alias
	}

	return declared
}
