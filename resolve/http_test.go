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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/params"
	riverrors "rivaas.dev/params/errors"
)

func TestHandler_Results(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		fn          Func
		wantStatus  int
		wantBody    string
		wantHeaders map[string]string
	}{
		{
			name:       "json result",
			fn:         func(context.Context, *Args) (any, error) { return map[string]string{"hello": "world"}, nil },
			wantStatus: http.StatusOK,
			wantBody:   "{\"hello\":\"world\"}\n",
			wantHeaders: map[string]string{
				"Content-Type": "application/json; charset=utf-8",
			},
		},
		{
			name:       "nil result",
			fn:         noop,
			wantStatus: http.StatusNoContent,
		},
		{
			name: "response with status and headers",
			fn: func(context.Context, *Args) (any, error) {
				return Response{
					Status:  http.StatusCreated,
					Body:    item{Name: "Foo", Price: 1},
					Headers: http.Header{"Location": {"/items/1"}},
				}, nil
			},
			wantStatus: http.StatusCreated,
			wantBody:   "{\"name\":\"Foo\",\"price\":1}\n",
			wantHeaders: map[string]string{
				"Location":     "/items/1",
				"Content-Type": "application/json; charset=utf-8",
			},
		},
		{
			name: "response pointer without body",
			fn: func(context.Context, *Args) (any, error) {
				return &Response{Status: http.StatusAccepted}, nil
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "response without status",
			fn: func(context.Context, *Args) (any, error) {
				return Response{Body: []int{1}}, nil
			},
			wantStatus: http.StatusOK,
			wantBody:   "[1]\n",
		},
	}

	r := MustNew()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			r.Handler(MustDependant("h", tt.fn)).ServeHTTP(w, newRequest(http.MethodGet, "/", nil, ""))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			for k, v := range tt.wantHeaders {
				assert.Equal(t, v, w.Header().Get(k), k)
			}
		})
	}
}

func TestHandler_Errors(t *testing.T) {
	t.Parallel()

	r := MustNew(WithFormatter(&riverrors.RFC9457{DisableErrorID: true}))

	t.Run("request errors are 422 problem details", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("read_items", noop, In[int]("limit", params.Query(params.WithLe(100))))
		w := httptest.NewRecorder()
		r.Handler(d).ServeHTTP(w, newRequest(http.MethodGet, "/items/?limit=1000", nil, ""))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "application/problem+json; charset=utf-8", w.Header().Get("Content-Type"))

		var body struct {
			Status   int    `json:"status"`
			Code     string `json:"code"`
			Instance string `json:"instance"`
			Errors   []struct {
				Path string `json:"path"`
				Code string `json:"code"`
			} `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusUnprocessableEntity, body.Status)
		assert.Equal(t, "validation_error", body.Code)
		assert.Equal(t, "/items/", body.Instance)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "query.limit", body.Errors[0].Path)
		assert.Equal(t, "schema.maximum", body.Errors[0].Code)
	})

	t.Run("insufficient scope is 403 with a challenge", func(t *testing.T) {
		t.Parallel()

		currentUser := MustDependant("current_user", func(context.Context, *Args) (any, error) {
			return principal{subject: "alice", scopes: []string{"me"}}, nil
		})
		d := MustDependant("read_items", noop, In[principal]("user", params.Security(currentUser, params.WithScopes("items"))))

		w := httptest.NewRecorder()
		r.Handler(d).ServeHTTP(w, newRequest(http.MethodGet, "/users/me/items", nil, ""))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, `Bearer error="insufficient_scope", scope="items"`, w.Header().Get("WWW-Authenticate"))
		assert.Contains(t, w.Body.String(), `"insufficient_scope"`)
	})

	t.Run("dependency errors keep their status", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", func(context.Context, *Args) (any, error) {
			return nil, riverrors.WithStatus(errors.New("item not found"), http.StatusNotFound)
		})
		w := httptest.NewRecorder()
		r.Handler(d).ServeHTTP(w, newRequest(http.MethodGet, "/items/9", nil, ""))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "item not found")
	})

	t.Run("plan errors are 500", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", noop, In[*conn]("db", params.Depends(nil)))
		w := httptest.NewRecorder()
		r.Handler(d).ServeHTTP(w, newRequest(http.MethodGet, "/", nil, ""))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("unencodable result is 500", func(t *testing.T) {
		t.Parallel()

		d := MustDependant("h", func(context.Context, *Args) (any, error) {
			return map[string]any{"ch": make(chan int)}, nil
		})
		w := httptest.NewRecorder()
		r.Handler(d).ServeHTTP(w, newRequest(http.MethodGet, "/", nil, ""))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandler_SimpleFormatter(t *testing.T) {
	t.Parallel()

	r := MustNew(WithFormatter(riverrors.NewSimple()))
	d := MustDependant("h", noop, In[string]("q", params.Query()))

	w := httptest.NewRecorder()
	r.Handler(d).ServeHTTP(w, newRequest(http.MethodGet, "/", nil, ""))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"query.q"`)
}

func TestHandler_CleanupsRunAfterResponse(t *testing.T) {
	t.Parallel()

	var written, sawResponse bool
	resource := MustDependant("get_db", func(_ context.Context, a *Args) (any, error) {
		a.Defer(func() error {
			sawResponse = written
			return nil
		})
		return "conn", nil
	})
	d := MustDependant("h", func(context.Context, *Args) (any, error) { return "ok", nil },
		In[string]("db", params.Depends(resource)))

	w := &recordingWriter{ResponseRecorder: httptest.NewRecorder(), written: &written}
	MustNew().Handler(d).ServeHTTP(w, newRequest(http.MethodGet, "/", nil, ""))

	assert.True(t, sawResponse)
}

type recordingWriter struct {
	*httptest.ResponseRecorder
	written *bool
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	*w.written = true
	return w.ResponseRecorder.Write(p)
}

func TestHandler_Routers(t *testing.T) {
	t.Parallel()

	readItem := MustDependant("read_item", func(_ context.Context, a *Args) (any, error) {
		return map[string]any{"item_id": Arg[int](a, "item_id"), "q": Arg[string](a, "q")}, nil
	},
		In[int]("item_id", params.MustPath()),
		In[string]("q", params.Query(params.WithDefault(""))),
	)

	t.Run("chi", func(t *testing.T) {
		t.Parallel()

		router := chi.NewRouter()
		router.Get("/items/{item_id}", MustNew(WithPathValueFunc(chi.URLParam)).HandlerFunc(readItem))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodGet, "/items/42?q=x", nil, ""))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"item_id":42,"q":"x"}`, w.Body.String())

		w = httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodGet, "/items/abc", nil, ""))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `"path.item_id"`)
	})

	t.Run("serve mux", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.Handle("GET /items/{item_id}", MustNew().Handler(readItem))

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, newRequest(http.MethodGet, "/items/7", nil, ""))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"item_id":7,"q":""}`, w.Body.String())
	})
}
