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

// Package binding extracts raw request values and turns them into Go values.
//
// It is the layer underneath parameter resolution: it knows where a value
// lives (query string, path, headers, cookies, form fields, multipart files,
// request body) and how to convert it, but nothing about declarations,
// defaults or dependencies.
//
// # Value Sources
//
// Every non-body source implements [ValueGetter]. Implementations distinguish
// "key present with empty value" from "key not present":
//
//	q := binding.NewQueryGetter(r.URL.Query())
//	q.Has("name")    // true for "?name="
//	q.GetAll("tags") // "?tags=a&tags=b" and "?tags[]=a&tags[]=b"
//
//	h := binding.NewHeaderGetter(r.Header)   // case-insensitive
//	c := binding.NewCookieGetter(r.Cookies()) // case-sensitive
//	p := binding.NewPathGetter(r.PathValue)   // or chi.URLParam adapter
//
// # Conversion
//
// A [Binder] converts raw strings into a target type:
//
//	b := binding.MustNew(
//	    binding.WithConverter[uuid.UUID](uuid.Parse),
//	    binding.WithSliceParseMode(binding.SliceCSV),
//	)
//	v, err := b.Convert([]string{"1,2,3"}, reflect.TypeFor[[]int]())
//
// Supported targets are strings, integers, floats, booleans (generous
// spelling), time.Time, time.Duration, net.IP, url.URL, types implementing
// encoding.TextUnmarshaler, pointers to any of these, and slices of them.
//
// # Bodies
//
// Request bodies are decoded by media type. JSON, YAML, TOML and
// MessagePack are built in:
//
//	err := b.Decode(binding.MediaTypeOf(r.Header.Get("Content-Type")), data, &item)
//
// [Binder.Members] splits an object payload into per-key members so that
// several embedded bodies can be decoded from one request.
//
// # Errors
//
// Conversion failures are reported as [*BindError], which carries the
// source, the raw value, the expected type and a hint. Unknown media types
// return [ErrUnsupportedContentType].
package binding
