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
	"encoding"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Type references for special type handling.
var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	urlType             = reflect.TypeFor[url.URL]()
	ipType              = reflect.TypeFor[net.IP]()
	bytesType           = reflect.TypeFor[[]byte]()
)

// IsMultiValue reports whether typ consumes every occurrence of a key
// (slices other than []byte and net.IP, possibly behind a pointer).
func IsMultiValue(typ reflect.Type) bool {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	return typ.Kind() == reflect.Slice && typ != bytesType && typ != ipType
}

// convert converts raw values into a value of typ.
func (b *Binder) convert(values []string, typ reflect.Type) (reflect.Value, error) {
	if len(values) == 0 {
		return reflect.Value{}, ErrNoValues
	}

	switch {
	case typ.Kind() == reflect.Pointer && findConverter(typ, b.cfg) == nil:
		elem, err := b.convert(values, typ.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(typ.Elem())
		ptr.Elem().Set(elem)

		return ptr, nil

	case IsMultiValue(typ):
		out := reflect.New(typ).Elem()
		if err := b.setSlice(out, values); err != nil {
			return reflect.Value{}, err
		}

		return out, nil

	case typ.Kind() == reflect.Interface:
		if len(values) == 1 {
			return reflect.ValueOf(values[0]), nil
		}

		return reflect.ValueOf(values), nil
	}

	out := reflect.New(typ).Elem()
	if err := b.setValue(out, values[0]); err != nil {
		return reflect.Value{}, err
	}

	return out, nil
}

// setValue sets a single value with type conversion.
// Custom converters win, then special types, then encoding.TextUnmarshaler,
// then primitive kinds.
func (b *Binder) setValue(field reflect.Value, value string) error {
	fieldType := field.Type()

	if converter := findConverter(fieldType, b.cfg); converter != nil {
		converted, err := converter(value)
		if err != nil {
			return err
		}
		if fieldType.Kind() == reflect.Pointer && reflect.TypeOf(converted) != fieldType {
			ptr := reflect.New(fieldType.Elem())
			ptr.Elem().Set(reflect.ValueOf(converted))
			field.Set(ptr)
		} else {
			field.Set(reflect.ValueOf(converted))
		}

		return nil
	}

	// time.Time implements TextUnmarshaler but only accepts RFC3339.
	switch fieldType {
	case timeType:
		t, err := b.parseTime(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))

		return nil

	case durationType:
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

		return nil

	case urlType:
		u, err := url.Parse(value)
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		field.Set(reflect.ValueOf(*u))

		return nil

	case ipType:
		ip := net.ParseIP(strings.TrimSpace(value))
		if ip == nil {
			return fmt.Errorf("%w: %s", ErrInvalidIPAddress, value)
		}
		field.Set(reflect.ValueOf(ip))

		return nil

	case bytesType:
		field.SetBytes([]byte(value))
		return nil
	}

	if field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType) {
		unmarshaler, ok := field.Addr().Interface().(encoding.TextUnmarshaler)
		if !ok {
			return fmt.Errorf("%w: failed to assert TextUnmarshaler", ErrUnsupportedType)
		}

		return unmarshaler.UnmarshalText([]byte(value))
	}

	switch fieldType.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(strings.TrimSpace(value), b.intBase(), fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(strings.TrimSpace(value), b.intBase(), fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %w", err)
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		v, err := parseBoolGenerous(value)
		if err != nil {
			return err
		}
		field.SetBool(v)

	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedType, fieldType)
	}

	return nil
}

func (b *Binder) intBase() int {
	if b.cfg.intBaseAuto {
		return 0
	}

	return 10
}

// setSlice sets a slice from multiple values, honouring the CSV mode and the
// slice length limit.
func (b *Binder) setSlice(field reflect.Value, values []string) error {
	if b.cfg.sliceMode == SliceCSV && len(values) == 1 {
		split := strings.Split(values[0], ",")
		for i := range split {
			split[i] = strings.TrimSpace(split[i])
		}
		values = split
	}

	if b.cfg.maxSliceLen > 0 && len(values) > b.cfg.maxSliceLen {
		return fmt.Errorf("%w: %d > %d (use WithMaxSliceLen to increase)",
			ErrSliceExceedsMaxLength, len(values), b.cfg.maxSliceLen)
	}

	slice := reflect.MakeSlice(field.Type(), len(values), len(values))
	for i, val := range values {
		elem := slice.Index(i)
		if elem.Kind() == reflect.Pointer && findConverter(elem.Type(), b.cfg) == nil {
			elem.Set(reflect.New(elem.Type().Elem()))
			elem = elem.Elem()
		}
		if err := b.setValue(elem, val); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	field.Set(slice)

	return nil
}

// parseBoolGenerous parses true/false, 1/0, yes/no, on/off, t/f, y/n
// (case-insensitive).
func parseBoolGenerous(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on", "t", "y":
		return true, nil
	case "false", "0", "no", "off", "f", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidBooleanValue, s)
	}
}

// parseTime tries the built-in layouts, then the configured ones.
func (b *Binder) parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyTimeValue
	}

	for _, layout := range builtinTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range b.cfg.timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w %q (tried RFC3339, date-only and other common formats)", ErrUnableToParseTime, value)
}

// findConverter locates a registered converter for the type, for T and *T.
func findConverter(typ reflect.Type, cfg *config) TypeConverter {
	if cfg.converters == nil {
		return nil
	}
	if conv, ok := cfg.converters[typ]; ok {
		return conv
	}
	if typ.Kind() == reflect.Pointer {
		if conv, ok := cfg.converters[typ.Elem()]; ok {
			return conv
		}
	}

	return nil
}
