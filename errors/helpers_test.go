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

package errors

import "net/http"

// problem declares its own status.
type problem struct {
	msg    string
	status int
}

func (e *problem) Error() string { return e.msg }

func (e *problem) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}

	return e.status
}

// plainError only implements error.
type plainError struct{ msg string }

func (e *plainError) Error() string { return e.msg }

// codedError only implements ErrorCode.
type codedError struct{ msg, code string }

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

// detailedError implements ErrorDetails and ErrorHeaders.
type detailedError struct {
	msg     string
	details any
	headers http.Header
}

func (e *detailedError) Error() string        { return e.msg }
func (e *detailedError) Details() any         { return e.details }
func (e *detailedError) Headers() http.Header { return e.headers }
