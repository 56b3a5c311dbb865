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
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/params"
)

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(WithMaxErrors(-1))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(WithMaxCachedSchemas(-1))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(WithCustomTag("", nil))
	require.ErrorIs(t, err, ErrInvalidConfig)

	assert.Panics(t, func() { MustNew(WithMaxErrors(-5)) })
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	q := params.Query(params.WithMinLength(1), params.WithMaxLength(3), params.WithGe(0))

	assert.Equal(t, map[string]any{"minLength": 1, "maxLength": 3, "minimum": 0.0},
		Keywords(&q.Field, reflect.TypeFor[string]()))
	assert.Equal(t, map[string]any{"minItems": 1, "maxItems": 3, "minimum": 0.0},
		Keywords(&q.Field, reflect.TypeFor[[]string]()))
	assert.Equal(t, map[string]any{"minItems": 1, "maxItems": 3, "minimum": 0.0},
		Keywords(&q.Field, reflect.TypeFor[*[]int]()))
	assert.Equal(t, map[string]any{"minProperties": 1, "maxProperties": 3, "minimum": 0.0},
		Keywords(&q.Field, reflect.TypeFor[map[string]int]()))
	assert.Equal(t, map[string]any{"minLength": 1, "maxLength": 3, "minimum": 0.0},
		Keywords(&q.Field, reflect.TypeFor[[]byte]()))
}

func TestCheckField(t *testing.T) {
	t.Parallel()

	v := MustNew()

	tests := []struct {
		name     string
		field    *params.ParamInfo
		value    any
		wantCode string
	}{
		{"gt ok", params.Query(params.WithGt(0)), 1, ""},
		{"gt equal fails", params.Query(params.WithGt(0)), 0, "schema.exclusiveMinimum"},
		{"ge equal ok", params.Query(params.WithGe(1)), 1, ""},
		{"ge fails", params.Query(params.WithGe(1)), 0.5, "schema.minimum"},
		{"lt fails", params.Query(params.WithLt(10)), 10, "schema.exclusiveMaximum"},
		{"le fails", params.Query(params.WithLe(100)), 101, "schema.maximum"},
		{"min length fails", params.Query(params.WithMinLength(3)), "ab", "schema.minLength"},
		{"max length fails", params.Query(params.WithMaxLength(2)), "abc", "schema.maxLength"},
		{"pattern ok", params.Query(params.WithPattern("^fixedquery$")), "fixedquery", ""},
		{"pattern fails", params.Query(params.WithPattern("^fixedquery$")), "other", "schema.pattern"},
		{"list length fails", params.Query(params.WithMinLength(2)), []string{"a"}, "schema.minItems"},
		{"extra keyword", params.Query(params.WithExtra("multipleOf", 5)), 7, "schema.multipleOf"},
		{"no constraints", params.Query(), "anything", ""},
		{"nil value", params.Query(params.WithGt(0)), nil, ""},
		{"numeric bound ignores strings", params.Query(params.WithGt(0)), "abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.CheckField("query.x", &tt.field.Field, tt.value)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}

			var verr *Error
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tt.wantCode, verr.Fields[0].Code)
			assert.Equal(t, "query.x", verr.Fields[0].Path)
			assert.NotEmpty(t, verr.Fields[0].Message)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCheckField_Pointer(t *testing.T) {
	t.Parallel()

	v := MustNew()
	f := params.Query(params.WithGe(10))

	var nilPtr *int
	require.NoError(t, v.CheckField("query.n", &f.Field, nilPtr))

	n := 5
	require.Error(t, v.CheckField("query.n", &f.Field, &n))
}

func TestCheckField_SchemaCacheShared(t *testing.T) {
	t.Parallel()

	v := MustNew(WithMaxCachedSchemas(2))
	a := params.Query(params.WithGe(1))
	b := params.Header(params.WithGe(1))

	require.NoError(t, v.CheckField("query.a", &a.Field, 1))
	require.NoError(t, v.CheckField("header.b", &b.Field, 2))
	assert.Equal(t, 1, v.schemas.len())

	c := params.Query(params.WithLe(1))
	d := params.Query(params.WithPattern("x"))
	require.NoError(t, v.CheckField("query.c", &c.Field, 1))
	require.NoError(t, v.CheckField("query.d", &d.Field, "x"))
	assert.Equal(t, 2, v.schemas.len())
}

func TestCheckField_Concurrent(t *testing.T) {
	t.Parallel()

	v := MustNew()
	f := params.Query(params.WithLe(10))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			err := v.CheckField("query.n", &f.Field, i)
			if i <= 10 {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
	wg.Wait()
}

func TestCheckField_InvalidPattern(t *testing.T) {
	t.Parallel()

	v := MustNew()
	f := params.Query(params.WithPattern("(unclosed"))

	err := v.CheckField("query.q", &f.Field, "x")
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "schema_compile_error", verr.Fields[0].Code)
}

func TestCheckField_Redactor(t *testing.T) {
	t.Parallel()

	v := MustNew(WithRedactor(func(path string) bool { return strings.HasSuffix(path, "password") }))
	f := params.Form(params.WithMinLength(12))

	err := v.CheckField("body.password", &f.Field, "hunter2")
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, redacted, verr.Fields[0].Meta["value"])
	assert.NotContains(t, verr.Error(), "hunter2")
}

type address struct {
	City string `json:"city" validate:"required"`
}

type order struct {
	Email string    `json:"email" validate:"required,email"`
	Qty   int       `json:"qty" validate:"gt=0"`
	Items []address `json:"items" validate:"dive"`
	Code  string    `json:"code" validate:"omitempty,slug"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	v := MustNew()

	err := v.Struct("body", &order{Email: "a@b.co", Qty: 1, Items: []address{{City: "x"}}})
	require.NoError(t, err)

	err = v.Struct("body", order{Email: "nope", Qty: 0, Items: []address{{City: "x"}, {}}, Code: "Not A Slug"})
	var verr *Error
	require.ErrorAs(t, err, &verr)

	assert.True(t, verr.Has("body.email"))
	assert.True(t, verr.Has("body.qty"))
	assert.True(t, verr.Has("body.items.1.city"))
	assert.True(t, verr.Has("body.code"))
	assert.True(t, verr.HasCode("tag.email"))
	assert.Equal(t, "must be greater than 0", verr.GetField("body.qty").Message)
	assert.Equal(t, 422, verr.HTTPStatus())
}

func TestStruct_Collections(t *testing.T) {
	t.Parallel()

	v := MustNew()

	err := v.Struct("body", []address{{City: "a"}, {}})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("body.1.city"))

	err = v.Struct("body", map[string]*address{"home": {}})
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("body.home.city"))

	require.NoError(t, v.Struct("body", []int{1, 2}))
	require.NoError(t, v.Struct("body", "plain"))
	require.NoError(t, v.Struct("body", (*address)(nil)))
}

func TestStruct_MaxErrorsAndCustomTag(t *testing.T) {
	t.Parallel()

	v := MustNew(
		WithMaxErrors(1),
		WithCustomTag("even", func(fl validator.FieldLevel) bool { return fl.Field().Int()%2 == 0 }),
	)

	type payload struct {
		A int `json:"a" validate:"even"`
		B int `json:"b" validate:"even"`
	}

	err := v.Struct("body", payload{A: 1, B: 3})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 1)
	assert.True(t, verr.Truncated)
	assert.Equal(t, "tag.even", verr.Fields[0].Code)
}

func TestError(t *testing.T) {
	t.Parallel()

	var e Error
	assert.False(t, e.HasErrors())
	require.NoError(t, e.ErrorOrNil())

	e.Add("query.limit", CodeType, "invalid integer", nil)
	assert.Equal(t, "query.limit: invalid integer", e.Error())

	e.AddError(FieldError{Path: "header.x-token", Code: CodeMissing, Message: "field required"})
	e.AddError(&Error{Fields: []FieldError{{Path: "body.item", Code: "schema.type", Message: "bad"}}, Truncated: true})
	e.AddError(errors.New("boom"))
	e.AddError(nil)

	require.Len(t, e.Fields, 4)
	assert.True(t, e.Truncated)
	assert.Equal(t, "validation_error", e.Fields[3].Code)
	assert.Contains(t, e.Error(), "validation failed: ")
	assert.Contains(t, e.Error(), "(truncated)")
	assert.Equal(t, "validation_error", e.Code())
	assert.Equal(t, e.Fields, e.Details())
	assert.Equal(t, []string{"header", "x-token"}, e.Fields[1].Loc())

	e.Sort()
	assert.Equal(t, "", e.Fields[0].Path)
	assert.Equal(t, "body.item", e.Fields[1].Path)

	assert.Equal(t, "a.b", JoinPath("a", "", "b"))
}
