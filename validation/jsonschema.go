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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"rivaas.dev/params"
)

const defaultMaxCachedSchemas = 1024

var printer = message.NewPrinter(language.English)

// Keywords returns the JSON Schema assertion keywords of f adjusted to the
// Go type the value is declared with: length bounds on slices and arrays
// become minItems/maxItems, on maps minProperties/maxProperties.
//
// Example:
//
//	validation.Keywords(&params.Query(params.WithMinLength(1)).Field, reflect.TypeFor[[]string]())
//	// map[minItems:1]
func Keywords(f *params.Field, typ reflect.Type) map[string]any {
	s := f.ConstraintSchema()
	if typ == nil {
		return s
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	var minKey, maxKey string
	switch typ.Kind() {
	case reflect.Slice, reflect.Array:
		if typ.Elem().Kind() == reflect.Uint8 {
			return s
		}
		minKey, maxKey = "minItems", "maxItems"
	case reflect.Map:
		minKey, maxKey = "minProperties", "maxProperties"
	default:
		return s
	}

	if v, ok := s[params.KeywordMinLength]; ok {
		delete(s, params.KeywordMinLength)
		s[minKey] = v
	}
	if v, ok := s[params.KeywordMaxLength]; ok {
		delete(s, params.KeywordMaxLength)
		s[maxKey] = v
	}

	return s
}

// CheckField validates value against the constraints declared on f.
// path prefixes every reported error. A nil value or a field without
// constraints always passes.
//
// Failures are returned as [*Error] with "schema.<keyword>" codes.
//
// Example:
//
//	q := params.Query(params.WithMinLength(3))
//	err := v.CheckField("query.q", &q.Field, "ab")
//	// query.q: schema.minLength
func (v *Validator) CheckField(path string, f *params.Field, value any) error {
	if f == nil || value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		value = rv.Elem().Interface()
	}

	keywords := Keywords(f, reflect.TypeOf(value))
	if len(keywords) == 0 {
		return nil
	}

	schemaJSON, err := json.Marshal(keywords)
	if err != nil {
		return &Error{Fields: []FieldError{{Path: path, Code: "schema_compile_error", Message: err.Error()}}}
	}
	schema, err := v.schemas.getOrCompile(string(schemaJSON))
	if err != nil {
		return &Error{Fields: []FieldError{{Path: path, Code: "schema_compile_error", Message: err.Error()}}}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return &Error{Fields: []FieldError{{Path: path, Code: "marshal_error", Message: err.Error()}}}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &Error{Fields: []FieldError{{Path: path, Code: "unmarshal_error", Message: err.Error()}}}
	}

	if err = schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			var result Error
			v.collectSchemaErrors(path, verr, value, &result)

			return &result
		}

		return &Error{Fields: []FieldError{{Path: path, Code: "schema_validation_error", Message: err.Error()}}}
	}

	return nil
}

// collectSchemaErrors flattens the leaves of a jsonschema error tree.
func (v *Validator) collectSchemaErrors(path string, verr *jsonschema.ValidationError, value any, result *Error) {
	if len(verr.Causes) == 0 {
		loc := JoinPath(append([]string{path}, verr.InstanceLocation...)...)
		keyword := "schema"
		if kp := verr.ErrorKind.KeywordPath(); len(kp) > 0 {
			keyword = kp[len(kp)-1]
		}

		msg := verr.ErrorKind.LocalizedString(printer)
		meta := map[string]any{"keyword": keyword}
		if v.redact(loc) {
			if raw := fmt.Sprint(value); raw != "" {
				msg = strings.ReplaceAll(msg, raw, redacted)
			}
			meta["value"] = redacted
		} else {
			meta["value"] = value
		}
		result.Add(loc, "schema."+keyword, msg, meta)

		return
	}

	for _, cause := range verr.Causes {
		if v.truncate(result) {
			return
		}
		v.collectSchemaErrors(path, cause, value, result)
	}
}

// schemaCache holds compiled schemas keyed by their canonical JSON.
// Identical constraint sets share one compiled schema.
type schemaCache struct {
	max     int
	mu      sync.RWMutex
	entries map[string]*schemaCacheEntry
}

type schemaCacheEntry struct {
	schema     *jsonschema.Schema
	lastAccess atomic.Int64 // Unix nanoseconds
}

func newSchemaCache(limit int) *schemaCache {
	if limit == 0 {
		limit = defaultMaxCachedSchemas
	}

	return &schemaCache{max: limit, entries: make(map[string]*schemaCacheEntry)}
}

func (c *schemaCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *schemaCache) getOrCompile(schemaJSON string) (*jsonschema.Schema, error) {
	now := time.Now().UnixNano()

	c.mu.RLock()
	if entry, ok := c.entries[schemaJSON]; ok {
		c.mu.RUnlock()
		entry.lastAccess.Store(now)

		return entry.schema, nil
	}
	c.mu.RUnlock()

	schema, err := compileSchema(schemaJSON)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[schemaJSON]; ok {
		return entry.schema, nil
	}
	if len(c.entries) >= c.max {
		c.evictOldest()
	}
	entry := &schemaCacheEntry{schema: schema}
	entry.lastAccess.Store(now)
	c.entries[schemaJSON] = entry

	return schema, nil
}

// evictOldest drops the least recently used entry. Caller holds mu.
func (c *schemaCache) evictOldest() {
	var (
		oldestKey  string
		oldestNano int64
		found      bool
	)
	for key, entry := range c.entries {
		if n := entry.lastAccess.Load(); !found || n < oldestNano {
			oldestKey, oldestNano, found = key, n, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func compileSchema(schemaJSON string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()

	const url = "constraints.json"
	if err = compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return schema, nil
}
