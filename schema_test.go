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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestField_JSONSchema(t *testing.T) {
	t.Parallel()

	q := Query(
		WithDefault(10),
		WithGt(0),
		WithLe(100),
		WithTitle("Size"),
		WithDescription("Page size"),
		WithExample(20),
		WithExamples(50),
		WithDeprecated(),
		WithExtra("multipleOf", 10),
	)

	assert.Equal(t, map[string]any{
		KeywordExclusiveMinimum: 0.0,
		KeywordMaximum:          100.0,
		KeywordTitle:            "Size",
		KeywordDescription:      "Page size",
		KeywordExamples:         []any{20, 50},
		KeywordDeprecated:       true,
		KeywordDefault:          10,
		"multipleOf":            10,
	}, q.JSONSchema())
}

func TestField_ConstraintSchema(t *testing.T) {
	t.Parallel()

	q := Query(
		WithGe(1),
		WithLt(5),
		WithMinLength(2),
		WithMaxLength(8),
		WithPattern("^[a-z]+$"),
		WithTitle("ignored"),
	)

	assert.Equal(t, map[string]any{
		KeywordMinimum:          1.0,
		KeywordExclusiveMaximum: 5.0,
		KeywordMinLength:        2,
		KeywordMaxLength:        8,
		KeywordPattern:          "^[a-z]+$",
	}, q.ConstraintSchema())

	assert.Empty(t, Query().ConstraintSchema())
}

func TestField_JSONSchema_NilDefaultOmitted(t *testing.T) {
	t.Parallel()

	s := Header(WithDefault(nil)).JSONSchema()
	_, ok := s[KeywordDefault]
	assert.False(t, ok)
}
