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
	"errors"
	"fmt"
	"reflect"
	"time"
)

// UnknownFieldPolicy defines how to handle unknown fields while decoding bodies.
type UnknownFieldPolicy int

const (
	// UnknownIgnore silently ignores unknown fields.
	// This is the default policy.
	UnknownIgnore UnknownFieldPolicy = iota

	// UnknownError fails decoding on the first unknown field.
	UnknownError
)

// SliceParseMode defines how slice values are parsed from query/form data.
type SliceParseMode int

const (
	SliceRepeat SliceParseMode = iota // ?tags=a&tags=b&tags=c (default)
	SliceCSV                          // ?tags=a,b,c
)

const (
	// DefaultMaxSliceLen is the default maximum number of slice elements per value.
	// It prevents memory exhaustion from huge repeated parameters.
	DefaultMaxSliceLen = 10_000
)

// TypeConverter converts a string value to a custom type.
// Registered converters are checked before built-in type handling.
type TypeConverter func(string) (any, error)

// config holds the settings of a [Binder].
type config struct {
	timeLayouts   []string
	converters    map[reflect.Type]TypeConverter
	sliceMode     SliceParseMode
	intBaseAuto   bool
	jsonUseNumber bool
	unknownFields UnknownFieldPolicy
	maxSliceLen   int
}

// Option configures a [Binder].
type Option func(*config)

func defaultConfig() *config {
	return &config{
		sliceMode:   SliceRepeat,
		maxSliceLen: DefaultMaxSliceLen,
	}
}

func (c *config) validate() error {
	if c.maxSliceLen < 0 {
		return fmt.Errorf("%w: max slice length must be >= 0, got %d", ErrInvalidConfig, c.maxSliceLen)
	}
	if c.sliceMode != SliceRepeat && c.sliceMode != SliceCSV {
		return fmt.Errorf("%w: unknown slice parse mode %d", ErrInvalidConfig, c.sliceMode)
	}
	for _, layout := range c.timeLayouts {
		if layout == "" {
			return fmt.Errorf("%w: empty time layout", ErrInvalidConfig)
		}
	}

	return nil
}

// ErrInvalidConfig is returned by [New] for inconsistent options.
var ErrInvalidConfig = errors.New("invalid binding configuration")

// WithTimeLayouts adds time parsing layouts.
// Built-in layouts (RFC3339, date-only, ...) are tried first.
//
// Example:
//
//	binding.MustNew(binding.WithTimeLayouts("01/02/2006"))
func WithTimeLayouts(layouts ...string) Option {
	return func(c *config) {
		c.timeLayouts = append(c.timeLayouts, layouts...)
	}
}

// WithConverter registers a type-safe converter for T.
// It works for both T and *T targets.
//
// Example:
//
//	binding.MustNew(binding.WithConverter[uuid.UUID](uuid.Parse))
func WithConverter[T any](fn func(string) (T, error)) Option {
	return func(c *config) {
		if c.converters == nil {
			c.converters = make(map[reflect.Type]TypeConverter)
		}
		c.converters[reflect.TypeFor[T]()] = func(s string) (any, error) {
			return fn(s)
		}
	}
}

// WithSliceParseMode sets how slice values are read.
// SliceRepeat (default) expects repeated keys: ?tags=a&tags=b
// SliceCSV also splits a single value on commas: ?tags=a,b
func WithSliceParseMode(mode SliceParseMode) Option {
	return func(c *config) {
		c.sliceMode = mode
	}
}

// WithIntBaseAuto enables 0x, 0o and 0b prefixes for integers.
func WithIntBaseAuto(enabled bool) Option {
	return func(c *config) {
		c.intBaseAuto = enabled
	}
}

// WithJSONUseNumber decodes JSON numbers into json.Number instead of float64
// when the target is untyped.
func WithJSONUseNumber(enabled bool) Option {
	return func(c *config) {
		c.jsonUseNumber = enabled
	}
}

// WithUnknownFieldPolicy sets how unknown body fields are handled.
//
// Example:
//
//	binding.MustNew(binding.WithUnknownFieldPolicy(binding.UnknownError))
func WithUnknownFieldPolicy(policy UnknownFieldPolicy) Option {
	return func(c *config) {
		c.unknownFields = policy
	}
}

// WithMaxSliceLen sets the maximum number of slice elements per value.
// When exceeded, conversion returns [ErrSliceExceedsMaxLength].
// Set to 0 to disable the limit.
func WithMaxSliceLen(n int) Option {
	return func(c *config) {
		c.maxSliceLen = n
	}
}

// builtinTimeLayouts are tried before the configured layouts.
var builtinTimeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
}
