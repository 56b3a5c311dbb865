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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRFC9457_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		formatter  *RFC9457
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "plain error",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        &plainError{msg: "database unavailable"},
			wantStatus: http.StatusInternalServerError,
			wantType:   "about:blank",
		},
		{
			name:       "coded error",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        &codedError{msg: "query.limit: invalid integer", code: "binding_error"},
			wantStatus: http.StatusInternalServerError,
			wantType:   "https://api.example.com/problems/binding_error",
		},
		{
			name:       "status error",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        WithStatus(&plainError{msg: "user not found"}, http.StatusNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   "about:blank",
		},
		{
			name:       "wrapped status error",
			formatter:  NewRFC9457(""),
			err:        fmt.Errorf("lookup: %w", &problem{msg: "gone", status: http.StatusGone}),
			wantStatus: http.StatusGone,
			wantType:   "about:blank",
		},
		{
			name:       "no base URL",
			formatter:  NewRFC9457(""),
			err:        &codedError{msg: "x", code: "insufficient_scope"},
			wantStatus: http.StatusInternalServerError,
			wantType:   "insufficient_scope",
		},
		{
			name: "custom resolvers",
			formatter: &RFC9457{
				TypeResolver:   func(error) string { return "https://errors.example.com/custom" },
				StatusResolver: func(error) int { return http.StatusTeapot },
			},
			err:        &plainError{msg: "x"},
			wantStatus: http.StatusTeapot,
			wantType:   "https://errors.example.com/custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
			response := tt.formatter.Format(req, tt.err)

			assert.Equal(t, tt.wantStatus, response.Status)
			assert.Equal(t, "application/problem+json; charset=utf-8", response.ContentType)

			body, ok := response.Body.(ProblemDetail)
			require.True(t, ok, "Body is not ProblemDetail, got %T", response.Body)
			assert.Equal(t, tt.wantType, body.Type)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, http.StatusText(tt.wantStatus), body.Title)
			assert.Equal(t, tt.err.Error(), body.Detail)
			assert.Equal(t, "/items/42", body.Instance)

			id, ok := body.Extensions["error_id"].(string)
			require.True(t, ok)
			_, err := uuid.Parse(id)
			assert.NoError(t, err)
		})
	}
}

func TestRFC9457_ErrorID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	disabled := &RFC9457{DisableErrorID: true}
	body := disabled.Format(req, &plainError{msg: "x"}).Body.(ProblemDetail)
	assert.NotContains(t, body.Extensions, "error_id")

	custom := &RFC9457{ErrorIDGenerator: func() string { return "req-7" }}
	body = custom.Format(req, &plainError{msg: "x"}).Body.(ProblemDetail)
	assert.Equal(t, "req-7", body.Extensions["error_id"])
}

func TestRFC9457_DetailsAndHeaders(t *testing.T) {
	t.Parallel()

	err := &detailedError{
		msg:     "validation failed",
		details: []map[string]string{{"path": "query.q", "code": "missing"}},
		headers: http.Header{"Www-Authenticate": {`Bearer scope="me"`}},
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	response := NewRFC9457("").Format(req, err)

	body := response.Body.(ProblemDetail)
	assert.Equal(t, err.details, body.Extensions["errors"])
	assert.Equal(t, `Bearer scope="me"`, response.Headers.Get("WWW-Authenticate"))

	err.headers.Set("Www-Authenticate", "changed")
	assert.Equal(t, `Bearer scope="me"`, response.Headers.Get("WWW-Authenticate"))
}

func TestProblemDetail_MarshalJSON(t *testing.T) {
	t.Parallel()

	p := ProblemDetail{
		Type:   "https://api.example.com/problems/validation_error",
		Title:  "Unprocessable Entity",
		Status: 422,
		Extensions: map[string]any{
			"error_id": "err-123",
			"type":     "overwritten",
			"detail":   "overwritten",
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, p.Type, result["type"])
	assert.Equal(t, "err-123", result["error_id"])
	assert.InDelta(t, 422, result["status"], 0)
	assert.NotContains(t, result, "detail")
	assert.NotContains(t, result, "instance")
}
