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

import (
	"encoding/json"
	"net/http"
)

// Write formats err with f and writes the response to w.
// A nil formatter uses [RFC9457] without a base URL.
// The returned error is the body encoding error, if any.
func Write(w http.ResponseWriter, req *http.Request, f Formatter, err error) error {
	if f == nil {
		f = NewRFC9457("")
	}
	resp := f.Format(req, err)

	h := w.Header()
	for k, vs := range resp.Headers {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	h.Set("Content-Type", resp.ContentType)
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.Status)

	if resp.Body == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(resp.Body)
}
