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
	"net/http"
	"net/url"
)

// ValueGetter abstracts the different sources of raw request values.
//
// Implementers must distinguish between "key present with empty value" and
// "key not present":
//   - Query string "?name=" → Has("name") = true, Get("name") = ""
//   - Query string "?foo=bar" → Has("name") = false
//
// The distinction drives default application: only absent keys fall back to
// a declared default.
type ValueGetter interface {
	// Get returns the first value for the given key, or an empty string if not present.
	Get(key string) string

	// GetAll returns all values for the given key, or nil if not present.
	GetAll(key string) []string

	// Has returns true if the key is present, even if its value is empty.
	Has(key string) bool
}

// GetterFunc is a function adapter that implements [ValueGetter].
//
// Example:
//
//	getter := binding.GetterFunc(func(key string) ([]string, bool) {
//	    v, ok := myMap[key]
//	    return []string{v}, ok
//	})
type GetterFunc func(key string) (values []string, has bool)

// Get returns the first value for the key.
func (f GetterFunc) Get(key string) string {
	values, has := f(key)
	if has && len(values) > 0 {
		return values[0]
	}

	return ""
}

// GetAll returns all values for the key.
func (f GetterFunc) GetAll(key string) []string {
	values, _ := f(key)
	return values
}

// Has returns whether the key exists.
func (f GetterFunc) Has(key string) bool {
	_, has := f(key)
	return has
}

// valuesGetter reads url.Values with repeated and bracket notation.
type valuesGetter struct {
	values url.Values
}

func (v valuesGetter) Get(key string) string {
	if vals := v.GetAll(key); len(vals) > 0 {
		return vals[0]
	}

	return ""
}

// GetAll supports both "ids=1&ids=2" and "ids[]=1&ids[]=2".
func (v valuesGetter) GetAll(key string) []string {
	if vals := v.values[key]; len(vals) > 0 {
		return vals
	}

	return v.values[key+"[]"]
}

func (v valuesGetter) Has(key string) bool {
	return v.values.Has(key) || v.values.Has(key+"[]")
}

// QueryGetter implements [ValueGetter] for URL query parameters.
type QueryGetter struct {
	valuesGetter
}

// NewQueryGetter creates a [QueryGetter] from url.Values.
//
// Example:
//
//	getter := binding.NewQueryGetter(r.URL.Query())
func NewQueryGetter(v url.Values) *QueryGetter {
	return &QueryGetter{valuesGetter{values: v}}
}

// FormGetter implements [ValueGetter] for urlencoded form data.
type FormGetter struct {
	valuesGetter
}

// NewFormGetter creates a [FormGetter] from url.Values.
//
// Example:
//
//	_ = r.ParseForm()
//	getter := binding.NewFormGetter(r.PostForm)
func NewFormGetter(v url.Values) *FormGetter {
	return &FormGetter{valuesGetter{values: v}}
}

// PathValueFunc returns the value of a named path segment, or "" when the
// route has no such segment. (*http.Request).PathValue and chi.URLParam
// (bound to a request) both fit.
type PathValueFunc func(name string) string

// PathGetter implements [ValueGetter] for URL path parameters.
// A path segment is present when the router matched a non-empty value for it.
type PathGetter struct {
	lookup PathValueFunc
}

// NewPathGetter creates a [PathGetter] from a lookup function.
//
// Example:
//
//	getter := binding.NewPathGetter(r.PathValue)
//	getter := binding.NewPathGetter(func(name string) string { return chi.URLParam(r, name) })
func NewPathGetter(lookup PathValueFunc) *PathGetter {
	return &PathGetter{lookup: lookup}
}

// NewPathMapGetter creates a [PathGetter] from a fixed map.
func NewPathMapGetter(params map[string]string) *PathGetter {
	return &PathGetter{lookup: func(name string) string { return params[name] }}
}

// Get returns the value for the key.
func (p *PathGetter) Get(key string) string {
	if p.lookup == nil {
		return ""
	}

	return p.lookup(key)
}

// GetAll returns the single path value as a slice, or nil when absent.
func (p *PathGetter) GetAll(key string) []string {
	if v := p.Get(key); v != "" {
		return []string{v}
	}

	return nil
}

// Has returns whether the router matched a value for the key.
func (p *PathGetter) Has(key string) bool {
	return p.Get(key) != ""
}

// CookieGetter implements [ValueGetter] for HTTP cookies.
// Cookie names are case-sensitive.
type CookieGetter struct {
	cookies []*http.Cookie
}

// NewCookieGetter creates a [CookieGetter] from a slice of HTTP cookies.
//
// Example:
//
//	getter := binding.NewCookieGetter(r.Cookies())
func NewCookieGetter(c []*http.Cookie) *CookieGetter {
	return &CookieGetter{cookies: c}
}

// Get returns the first cookie value for the key.
// Values are URL-unescaped; if unescaping fails the raw value is returned.
func (cg *CookieGetter) Get(key string) string {
	for _, cookie := range cg.cookies {
		if cookie.Name == key {
			return unescapeCookie(cookie.Value)
		}
	}

	return ""
}

// GetAll returns all cookie values for the key.
func (cg *CookieGetter) GetAll(key string) []string {
	var values []string
	for _, cookie := range cg.cookies {
		if cookie.Name == key {
			values = append(values, unescapeCookie(cookie.Value))
		}
	}

	return values
}

// Has returns whether the key exists.
func (cg *CookieGetter) Has(key string) bool {
	for _, cookie := range cg.cookies {
		if cookie.Name == key {
			return true
		}
	}

	return false
}

func unescapeCookie(v string) string {
	if val, err := url.QueryUnescape(v); err == nil {
		return val
	}

	return v
}

// HeaderGetter implements [ValueGetter] for HTTP headers.
// Lookups are case-insensitive through http.CanonicalHeaderKey.
type HeaderGetter struct {
	headers http.Header
}

// NewHeaderGetter creates a [HeaderGetter] from http.Header.
//
// Example:
//
//	getter := binding.NewHeaderGetter(r.Header)
func NewHeaderGetter(h http.Header) *HeaderGetter {
	return &HeaderGetter{headers: h}
}

// Get returns the first header value for the key.
func (h *HeaderGetter) Get(key string) string {
	return h.headers.Get(key)
}

// GetAll returns all header values for the key.
func (h *HeaderGetter) GetAll(key string) []string {
	return h.headers.Values(key)
}

// Has returns whether the key exists.
func (h *HeaderGetter) Has(key string) bool {
	_, ok := h.headers[http.CanonicalHeaderKey(key)]
	return ok
}
