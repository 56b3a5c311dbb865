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

// Location identifies where in the request a parameter's raw value lives.
type Location string

const (
	// LocationPath is a URL path segment (/items/{item_id}).
	LocationPath Location = "path"

	// LocationQuery is a URL query parameter (?q=value).
	LocationQuery Location = "query"

	// LocationHeader is an HTTP request header.
	LocationHeader Location = "header"

	// LocationCookie is an HTTP cookie.
	LocationCookie Location = "cookie"
)

// String returns the location name as used in documentation ("path", "query", ...).
func (l Location) String() string {
	return string(l)
}

// Valid reports whether l is one of the four known locations.
func (l Location) Valid() bool {
	switch l {
	case LocationPath, LocationQuery, LocationHeader, LocationCookie:
		return true
	default:
		return false
	}
}

// BodyKind distinguishes the body descriptor specializations.
type BodyKind int

const (
	// BodyKindBody is a plain request body field (JSON by default).
	BodyKindBody BodyKind = iota

	// BodyKindForm is a form field.
	BodyKindForm

	// BodyKindFile is an uploaded file carried in a multipart form.
	BodyKindFile
)

// String returns the constructor name of the kind.
func (k BodyKind) String() string {
	switch k {
	case BodyKindForm:
		return "Form"
	case BodyKindFile:
		return "File"
	default:
		return "Body"
	}
}

// Media types fixed or defaulted by the body descriptors.
const (
	MediaTypeJSON      = "application/json"
	MediaTypeForm      = "application/x-www-form-urlencoded"
	MediaTypeMultipart = "multipart/form-data"
)
