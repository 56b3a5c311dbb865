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

// Package errors renders resolution failures as HTTP error responses.
//
// A [Formatter] turns an error into a [Response]. Two formatters are
// provided:
//   - [RFC9457]: RFC 9457 Problem Details (application/problem+json)
//   - [Simple]: a flat JSON object (application/json)
//
// Errors control the response through optional interfaces:
//
//   - [ErrorType]: HTTP status code
//   - [ErrorCode]: machine-readable code
//   - [ErrorDetails]: structured details, for example field errors
//   - [ErrorHeaders]: extra response headers, for example WWW-Authenticate
//
// The binding, validation and resolve packages implement these interfaces
// on their error types, so a missing query parameter becomes a 422 problem
// with its field errors and a missing scope becomes a 403 with a bearer
// challenge.
//
// # Quick Start
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		if err := someOperation(); err != nil {
//			errors.Write(w, r, errors.NewRFC9457("https://api.example.com/problems"), err)
//			return
//		}
//	}
package errors
