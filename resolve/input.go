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
	"encoding"
	"net/url"
	"reflect"
	"time"

	"rivaas.dev/params"
	"rivaas.dev/params/binding"
)

// Input is one declared input of a [Dependant].
type Input struct {
	Name       string            // Argument name, also the default lookup key
	Type       reflect.Type      // Go type the value is converted to
	Descriptor params.Descriptor // Where the value comes from; nil is inferred from Type
}

// In declares an input of type T.
//
// Example:
//
//	resolve.In[int]("limit", params.Query(params.WithDefault(100)))
//	resolve.In[Item]("item", nil) // inferred as params.Body()
func In[T any](name string, d params.Descriptor) Input {
	return Input{Name: name, Type: reflect.TypeFor[T](), Descriptor: d}
}

var (
	fileType            = reflect.TypeFor[*binding.File]()
	filesType           = reflect.TypeFor[[]*binding.File]()
	timeType            = reflect.TypeFor[time.Time]()
	urlType             = reflect.TypeFor[url.URL]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// inferDescriptor picks a descriptor for an input declared without one.
// Structured types are bodies, uploads are files, everything else is a
// query parameter.
func inferDescriptor(typ reflect.Type) params.Descriptor {
	switch {
	case typ == fileType || typ == filesType:
		return params.File()
	case isStructured(typ):
		return params.Body()
	default:
		return params.Query()
	}
}

func isStructured(typ reflect.Type) bool {
	typ = deref(typ)
	switch typ.Kind() {
	case reflect.Struct:
		return !isScalarStruct(typ)
	case reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		elem := deref(typ.Elem())
		return elem.Kind() == reflect.Struct && !isScalarStruct(elem)
	default:
		return false
	}
}

// isScalarStruct reports struct types converted from a single string.
func isScalarStruct(typ reflect.Type) bool {
	return typ == timeType || typ == urlType || reflect.PointerTo(typ).Implements(textUnmarshalerType)
}

func deref(typ reflect.Type) reflect.Type {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	return typ
}

// isNil reports a nil interface or an interface holding a nil pointer.
func isNil(x any) bool {
	if x == nil {
		return true
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
