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

package binding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type item struct {
	Name  string  `json:"name" yaml:"name" toml:"name"`
	Price float64 `json:"price" yaml:"price" toml:"price"`
}

func TestMediaTypeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/json", MediaTypeOf("application/json; charset=utf-8"))
	assert.Equal(t, "application/yaml", MediaTypeOf("Application/YAML"))
	assert.Empty(t, MediaTypeOf(""))
	assert.Empty(t, MediaTypeOf(";;"))

	assert.True(t, Supports("application/problem+json"))
	assert.True(t, Supports("text/yaml"))
	assert.True(t, Supports("application/x-msgpack"))
	assert.False(t, Supports("text/plain"))
}

func TestBinder_Decode(t *testing.T) {
	t.Parallel()

	packed, err := msgpack.Marshal(map[string]any{"name": "Foo", "price": 1.5})
	require.NoError(t, err)

	tests := []struct {
		name      string
		mediaType string
		data      []byte
	}{
		{"json", MediaTypeJSON, []byte(`{"name":"Foo","price":1.5}`)},
		{"yaml", MediaTypeYAML, []byte("name: Foo\nprice: 1.5\n")},
		{"toml", MediaTypeTOML, []byte("name = \"Foo\"\nprice = 1.5\n")},
		{"msgpack", MediaTypeMsgPack, packed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got item
			require.NoError(t, defaultBinder.Decode(tt.mediaType, tt.data, &got))
			assert.Equal(t, item{Name: "Foo", Price: 1.5}, got)
		})
	}
}

func TestBinder_Decode_Errors(t *testing.T) {
	t.Parallel()

	var got item
	err := defaultBinder.Decode("text/plain", []byte("x"), &got)
	require.ErrorIs(t, err, ErrUnsupportedContentType)

	err = defaultBinder.Decode(MediaTypeJSON, []byte(`{"name":`), &got)
	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, SourceBody, bindErr.Source)

	require.ErrorIs(t, defaultBinder.Decode(MediaTypeJSON, []byte(`{}`), got), ErrOutMustBePointer)
}

func TestBinder_Decode_Proto(t *testing.T) {
	t.Parallel()

	data, err := proto.Marshal(wrapperspb.String("Foo"))
	require.NoError(t, err)
	assert.True(t, Supports("application/protobuf"))

	var ptr *wrapperspb.StringValue
	require.NoError(t, defaultBinder.Decode(MediaTypeProto, data, &ptr))
	require.NotNil(t, ptr)
	assert.Equal(t, "Foo", ptr.GetValue())

	msg := &wrapperspb.StringValue{}
	require.NoError(t, defaultBinder.Decode(MediaTypeProto, data, msg))
	assert.Equal(t, "Foo", msg.GetValue())

	var notProto item
	require.ErrorIs(t, defaultBinder.Decode(MediaTypeProto, data, &notProto), ErrUnsupportedType)

	_, err = defaultBinder.Members(MediaTypeProto, data)
	require.ErrorIs(t, err, ErrNotAnObject)
}

func TestBinder_Decode_UnknownFields(t *testing.T) {
	t.Parallel()

	strict := MustNew(WithUnknownFieldPolicy(UnknownError))

	tests := []struct {
		name      string
		mediaType string
		data      []byte
	}{
		{"json", MediaTypeJSON, []byte(`{"name":"Foo","extra":1}`)},
		{"yaml", MediaTypeYAML, []byte("name: Foo\nextra: 1\n")},
		{"toml", MediaTypeTOML, []byte("name = \"Foo\"\nextra = 1\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got item
			require.NoError(t, defaultBinder.Decode(tt.mediaType, tt.data, &got))
			require.Error(t, strict.Decode(tt.mediaType, tt.data, &got))
		})
	}
}

func TestBinder_Decode_UseNumber(t *testing.T) {
	t.Parallel()

	b := MustNew(WithJSONUseNumber(true))
	var got map[string]any
	require.NoError(t, b.Decode(MediaTypeJSON, []byte(`{"n":12345678901234567890}`), &got))
	assert.Equal(t, json.Number("12345678901234567890"), got["n"])
}

func TestBinder_Members(t *testing.T) {
	t.Parallel()

	packed, err := msgpack.Marshal(map[string]any{
		"item": map[string]any{"name": "Foo", "price": 2.0},
		"qty":  3,
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		mediaType string
		data      []byte
	}{
		{"json", MediaTypeJSON, []byte(`{"item":{"name":"Foo","price":2},"qty":3}`)},
		{"yaml", MediaTypeYAML, []byte("item:\n  name: Foo\n  price: 2\nqty: 3\n")},
		{"toml", MediaTypeTOML, []byte("qty = 3\n[item]\nname = \"Foo\"\nprice = 2.0\n")},
		{"msgpack", MediaTypeMsgPack, packed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			members, err := defaultBinder.Members(tt.mediaType, tt.data)
			require.NoError(t, err)
			require.Contains(t, members, "item")
			require.Contains(t, members, "qty")

			var it item
			require.NoError(t, members["item"](&it))
			assert.Equal(t, item{Name: "Foo", Price: 2}, it)

			var qty int
			require.NoError(t, members["qty"](&qty))
			assert.Equal(t, 3, qty)
		})
	}
}

func TestBinder_Members_NotAnObject(t *testing.T) {
	t.Parallel()

	for _, data := range []string{`[1,2]`, `"x"`, `null`} {
		_, err := defaultBinder.Members(MediaTypeJSON, []byte(data))
		require.ErrorIs(t, err, ErrNotAnObject, data)
	}

	_, err := defaultBinder.Members(MediaTypeYAML, []byte("- a\n- b\n"))
	require.ErrorIs(t, err, ErrNotAnObject)

	_, err = defaultBinder.Members("text/csv", []byte("a,b"))
	require.ErrorIs(t, err, ErrUnsupportedContentType)
}
