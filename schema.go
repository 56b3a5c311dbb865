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

// JSON Schema keywords emitted by [Field.JSONSchema].
const (
	KeywordExclusiveMinimum = "exclusiveMinimum"
	KeywordMinimum          = "minimum"
	KeywordExclusiveMaximum = "exclusiveMaximum"
	KeywordMaximum          = "maximum"
	KeywordMinLength        = "minLength"
	KeywordMaxLength        = "maxLength"
	KeywordPattern          = "pattern"
	KeywordTitle            = "title"
	KeywordDescription      = "description"
	KeywordExamples         = "examples"
	KeywordDeprecated       = "deprecated"
	KeywordDefault          = "default"
)

// JSONSchema returns the JSON Schema (2020-12) keywords implied by the
// field's constraints and metadata. The type keyword is not included; it
// depends on the Go type the field is declared with.
//
// Extra keywords are merged last and may override generated ones.
func (f *Field) JSONSchema() map[string]any {
	s := f.ConstraintSchema()

	if f.title != "" {
		s[KeywordTitle] = f.title
	}
	if f.description != "" {
		s[KeywordDescription] = f.description
	}
	if f.deprecated {
		s[KeywordDeprecated] = true
	}
	if v, ok := f.def.Get(); ok && v != nil {
		s[KeywordDefault] = v
	}
	examples := f.Examples()
	if f.hasExample {
		examples = append([]any{f.example}, examples...)
	}
	if len(examples) > 0 {
		s[KeywordExamples] = examples
	}

	for k, v := range f.extra {
		s[k] = v
	}

	return s
}

// ConstraintSchema returns only the assertion keywords: bounds, lengths,
// pattern and extra keywords. Annotation keywords are left out.
func (f *Field) ConstraintSchema() map[string]any {
	c := f.constraints
	s := make(map[string]any, 8)

	if c.Gt != nil {
		s[KeywordExclusiveMinimum] = *c.Gt
	}
	if c.Ge != nil {
		s[KeywordMinimum] = *c.Ge
	}
	if c.Lt != nil {
		s[KeywordExclusiveMaximum] = *c.Lt
	}
	if c.Le != nil {
		s[KeywordMaximum] = *c.Le
	}
	if c.MinLength != nil {
		s[KeywordMinLength] = *c.MinLength
	}
	if c.MaxLength != nil {
		s[KeywordMaxLength] = *c.MaxLength
	}
	if c.Pattern != "" {
		s[KeywordPattern] = c.Pattern
	}
	for k, v := range f.extra {
		s[k] = v
	}

	return s
}
