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

package resolve

import (
	"encoding/json"
	"errors"
	"net/http"

	riverrors "rivaas.dev/params/errors"
)

// Response lets a dependant choose the status code and headers of its
// response. Body is encoded as JSON; a nil Body writes no content.
//
// Example:
//
//	return resolve.Response{Status: http.StatusCreated, Body: user}, nil
type Response struct {
	Status  int
	Body    any
	Headers http.Header
}

// Handler returns an http.Handler calling d for every request.
func (r *Resolver) Handler(d *Dependant) http.Handler {
	return r.HandlerFunc(d)
}

// HandlerFunc returns an http.HandlerFunc calling d for every request.
//
// The result of d is written as JSON with status 200, a [Response] sets
// the status and headers, and a nil result writes 204. Errors are written
// through the configured formatter. Cleanups registered by dependencies run
// after the response is written.
func (r *Resolver) HandlerFunc(d *Dependant) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		result, c, err := r.call(ctx, req, d)
		if c != nil {
			defer func() {
				if cerr := c.run(); cerr != nil {
					r.cfg.logger.WarnContext(ctx, "dependency cleanup failed", "dependant", d.Name(), "error", cerr)
				}
			}()
		}

		if err != nil {
			r.writeError(w, req, d, err)
			return
		}
		r.writeResult(w, req, d, result)
	}
}

func (r *Resolver) writeError(w http.ResponseWriter, req *http.Request, d *Dependant, err error) {
	ctx := req.Context()

	status := http.StatusInternalServerError
	var typed riverrors.ErrorType
	if errors.As(err, &typed) {
		status = typed.HTTPStatus()
	}
	if status >= http.StatusInternalServerError {
		r.cfg.logger.ErrorContext(ctx, "request failed",
			"dependant", d.Name(), "method", req.Method, "path", req.URL.Path, "error", err)
	} else {
		r.cfg.logger.DebugContext(ctx, "request rejected",
			"dependant", d.Name(), "status", status, "error", err)
	}

	if werr := riverrors.Write(w, req, r.formatter, err); werr != nil {
		r.cfg.logger.WarnContext(ctx, "write error response", "error", werr)
	}
}

func (r *Resolver) writeResult(w http.ResponseWriter, req *http.Request, d *Dependant, result any) {
	resp := Response{Status: http.StatusOK, Body: result}
	switch v := result.(type) {
	case nil:
		w.WriteHeader(http.StatusNoContent)
		return
	case Response:
		resp = v
	case *Response:
		if v == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		resp = *v
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}

	h := w.Header()
	for k, vs := range resp.Headers {
		for _, s := range vs {
			h.Add(k, s)
		}
	}

	if resp.Body == nil {
		w.WriteHeader(resp.Status)
		return
	}

	data, err := json.Marshal(resp.Body)
	if err != nil {
		r.writeError(w, req, d, err)
		return
	}
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(resp.Status)
	if _, err = w.Write(append(data, '\n')); err != nil {
		r.cfg.logger.DebugContext(req.Context(), "write response", "dependant", d.Name(), "error", err)
	}
}
