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

import "fmt"

// Default is either "required" or a concrete default value.
//
// The zero Default is required. A nil value is a legitimate default and is
// distinct from required:
//
//	params.Required()    // the request must supply the value
//	params.Value(nil)    // optional, defaults to nil
//	params.Value(10)     // optional, defaults to 10
type Default struct {
	value any
	set   bool
}

// Required returns the Default that marks an input as required.
func Required() Default {
	return Default{}
}

// Value returns a Default holding v.
func Value(v any) Default {
	return Default{value: v, set: true}
}

// IsRequired reports whether no default value is present.
func (d Default) IsRequired() bool {
	return !d.set
}

// Get returns the default value and whether one is present.
func (d Default) Get() (any, bool) {
	return d.value, d.set
}

// String renders "..." for required (the conventional spelling) or the value.
func (d Default) String() string {
	if !d.set {
		return "..."
	}
	if d.value == nil {
		return "None"
	}

	return fmt.Sprint(d.value)
}
