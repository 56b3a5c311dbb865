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

import (
	"errors"
	"fmt"
)

// Static errors wrapped by [ConstructionError].
var (
	// ErrPathDefault is returned when a path parameter is given a default.
	ErrPathDefault = errors.New("path parameters cannot have a default value")
)

// ConstructionError reports an invalid descriptor declaration.
// It is a programmer error raised while routes are declared and should abort
// route registration.
//
// Use [errors.As] to check for ConstructionError:
//
//	var cerr *params.ConstructionError
//	if errors.As(err, &cerr) {
//	    log.Fatalf("bad declaration of %s: %v", cerr.Descriptor, cerr.Err)
//	}
type ConstructionError struct {
	Descriptor string // constructor name, e.g. "Path"
	Err        error  // underlying cause, e.g. ErrPathDefault
}

// Error returns a formatted error message.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("params: invalid %s declaration: %v", e.Descriptor, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}
