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
	"fmt"
	"reflect"
)

// Binder converts raw request values with a fixed configuration.
//
// Use [New] or [MustNew] to create a configured Binder, or the package-level
// [Convert] for the defaults. Binder is safe for concurrent use.
//
// Example:
//
//	binder := binding.MustNew(
//	    binding.WithConverter[uuid.UUID](uuid.Parse),
//	    binding.WithTimeLayouts("01/02/2006"),
//	)
//	v, found, err := binder.Lookup(binding.NewQueryGetter(r.URL.Query()),
//	    binding.SourceQuery, "ids", reflect.TypeFor[[]uuid.UUID]())
type Binder struct {
	cfg *config
}

// New creates a [Binder] with the given options.
// Returns an error if configuration is invalid.
func New(opts ...Option) (*Binder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Binder{cfg: cfg}, nil
}

// MustNew creates a [Binder] with the given options.
// Panics if configuration is invalid.
func MustNew(opts ...Option) *Binder {
	b, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("binding.MustNew: %v", err))
	}

	return b
}

var defaultBinder = MustNew()

// Convert converts raw values to typ using the default configuration.
// Slices consume all values, everything else the first one.
//
// Example:
//
//	v, err := binding.Convert([]string{"42"}, reflect.TypeFor[int]())
//	n := v.Interface().(int)
func Convert(values []string, typ reflect.Type) (reflect.Value, error) {
	return defaultBinder.Convert(values, typ)
}

// Convert converts raw values to typ.
func (b *Binder) Convert(values []string, typ reflect.Type) (reflect.Value, error) {
	return b.convert(values, typ)
}

// Lookup reads key from getter and converts it to typ.
// found is false when the key is absent; in that case the returned value is
// invalid and err is nil. Conversion failures are returned as [*BindError].
func (b *Binder) Lookup(getter ValueGetter, source Source, key string, typ reflect.Type) (v reflect.Value, found bool, err error) {
	if !getter.Has(key) {
		return reflect.Value{}, false, nil
	}

	var values []string
	if IsMultiValue(typ) {
		values = getter.GetAll(key)
	} else {
		values = []string{getter.Get(key)}
	}

	v, err = b.convert(values, typ)
	if err != nil {
		raw := ""
		if len(values) > 0 {
			raw = values[0]
		}

		return reflect.Value{}, true, &BindError{
			Field:  key,
			Source: source,
			Value:  raw,
			Type:   typ,
			Err:    err,
		}
	}

	return v, true, nil
}
