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

// Package validation checks resolved request values.
//
// Two strategies are combined during parameter resolution:
//
//  1. Declared constraints - the gt/ge/lt/le, length and pattern bounds of a
//     parameter declaration are compiled to a JSON Schema and checked with
//     santhosh-tekuri/jsonschema ([Validator.CheckField]).
//  2. Struct tags - decoded bodies are checked with go-playground/validator
//     `validate` tags ([Validator.Struct]).
//
// # Getting Started
//
//	v := validation.MustNew(
//	    validation.WithMaxErrors(10),
//	    validation.WithCustomTag("phone", phoneValidator),
//	)
//
//	limit := params.Query(params.WithDefault(10), params.WithLe(100))
//	if err := v.CheckField("query.limit", &limit.Field, 500); err != nil {
//	    var verr *validation.Error
//	    if errors.As(err, &verr) {
//	        for _, fe := range verr.Fields {
//	            fmt.Printf("%s %s: %s\n", fe.Path, fe.Code, fe.Message)
//	        }
//	    }
//	}
//
// # Errors
//
// All failures are reported as [Error], a list of [FieldError] with stable
// codes: "missing", "type", "body", "schema.<keyword>" and "tag.<tag>".
// [Error] maps to HTTP 422 and unwraps to [ErrValidation].
package validation
