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

// Package params declares where handler inputs come from.
//
// A descriptor is immutable metadata attached to one declared input of a
// handler or dependency. It names the request location of the raw value
// (path, query, header, cookie, body, form field or uploaded file), carries
// validation constraints and documentation metadata, or marks the input as
// the result of another callable.
//
// Descriptors are created once, when routes are declared, and are read
// concurrently by every request afterwards. They never hold request state.
// The resolve package consumes them at request time.
//
// # Request Parameters
//
//	itemID := params.MustPath(params.WithGe(1), params.WithTitle("Item ID"))
//	q := params.Query(params.WithDefault(""), params.WithMaxLength(50))
//	token := params.Header()                     // x_token -> X-Token
//	session := params.Cookie(params.WithDefault(nil))
//
// A path parameter can never have a default: the segment is always present
// when the route matches. [Path] returns a [*ConstructionError] when
// [WithDefault] is supplied.
//
// # Bodies
//
//	item := params.Body()                              // whole JSON body
//	importance := params.Body(params.WithEmbed(true))  // {"importance": ...}
//	username := params.Form()                          // urlencoded field
//	upload := params.File()                            // multipart file
//
// [Form] and [File] always embed and always use their own media type.
//
// # Dependencies
//
//	db := params.Depends(getDB)
//	fresh := params.Depends(getDB, params.WithoutCache())
//	user := params.Security(currentUser, params.WithScopes("items:read"))
//
// A dependency with no callable is resolved from the declared type of the
// input it is attached to.
package params
