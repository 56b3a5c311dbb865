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
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/params/validation"
)

func noop(context.Context, *Args) (any, error) { return nil, nil }

type item struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gt=0"`
}

type user struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type principal struct {
	subject string
	scopes  []string
}

func (p principal) GrantedScopes() []string { return p.scopes }

func newRequest(method, target string, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req
}

// assertField checks that verr holds an error with code at path.
func assertField(t *testing.T, verr *validation.Error, path, code string) {
	t.Helper()

	fe := verr.GetField(path)
	require.NotNil(t, fe, "no error at %s in %v", path, verr)
	assert.Equal(t, code, fe.Code)
}
