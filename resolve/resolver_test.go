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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/params"
	riverrors "rivaas.dev/params/errors"
	"rivaas.dev/params/validation"
)

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(WithMaxMemory(0))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(WithPathValueFunc(nil))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(WithProvider(nil, nil))
	require.ErrorIs(t, err, ErrInvalidConfig)

	assert.Panics(t, func() { MustNew(WithMaxBodyBytes(-1)) })
}

func TestResolve_Query(t *testing.T) {
	t.Parallel()

	r := MustNew()
	d := MustDependant("read_items", noop,
		In[string]("q", params.Query(params.WithDefault(nil), params.WithMinLength(3), params.WithMaxLength(50))),
		In[int]("skip", params.Query(params.WithDefault(0))),
		In[int]("limit", params.Query(params.WithDefault(100), params.WithLe(100))),
		In[[]string]("tags", params.Query(params.WithDefault(nil))),
		In[string]("item_query", params.Query(params.WithAlias("item-query"), params.WithDefault("none"))),
	)

	t.Run("values and defaults", func(t *testing.T) {
		t.Parallel()

		req := newRequest(http.MethodGet, "/items/?limit=10&tags=a&tags=b&item-query=x", nil, "")
		args, err := r.Resolve(context.Background(), req, d)
		require.NoError(t, err)
		defer args.Close()

		_, ok := Lookup[string](args, "q")
		assert.False(t, ok)
		v, present := args.Get("q")
		assert.True(t, present)
		assert.Nil(t, v)

		assert.Equal(t, 0, Arg[int](args, "skip"))
		assert.Equal(t, 10, Arg[int](args, "limit"))
		assert.Equal(t, []string{"a", "b"}, Arg[[]string](args, "tags"))
		assert.Equal(t, "x", Arg[string](args, "item_query"))
		assert.Same(t, req, args.Request())
	})

	t.Run("all request errors are collected", func(t *testing.T) {
		t.Parallel()

		req := newRequest(http.MethodGet, "/items/?q=fo&skip=abc&limit=500", nil, "")
		_, err := r.Resolve(context.Background(), req, d)

		var verr *validation.Error
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 3)
		assert.Equal(t, "query.q", verr.Fields[0].Path)
		assert.Equal(t, "schema.minLength", verr.Fields[0].Code)
		assert.Equal(t, "query.skip", verr.Fields[1].Path)
		assert.Equal(t, validation.CodeType, verr.Fields[1].Code)
		assert.Equal(t, "abc", verr.Fields[1].Meta["value"])
		assert.Equal(t, "query.limit", verr.Fields[2].Path)
		assert.Equal(t, "schema.maximum", verr.Fields[2].Code)
		assert.Equal(t, http.StatusUnprocessableEntity, verr.HTTPStatus())
	})
}

func TestResolve_PathHeaderCookie(t *testing.T) {
	t.Parallel()

	r := MustNew()
	d := MustDependant("read_item", noop,
		In[int]("item_id", params.MustPath(params.WithGe(1))),
		In[string]("x_token", params.Header()),
		In[string]("raw_header", params.Header(params.WithConvertUnderscores(false), params.WithDefault(""))),
		In[string]("user_agent", params.Header(params.WithDefault(nil))),
		In[string]("ads_id", params.Cookie(params.WithDefault(nil))),
	)

	t.Run("resolved", func(t *testing.T) {
		t.Parallel()

		req := newRequest(http.MethodGet, "/items/42", nil, "")
		req.SetPathValue("item_id", "42")
		req.Header.Set("X-Token", "secret")
		req.Header.Set("raw_header", "kept")
		req.Header.Set("User-Agent", "test-agent")
		req.AddCookie(&http.Cookie{Name: "ads_id", Value: "abc"})

		args, err := r.Resolve(context.Background(), req, d)
		require.NoError(t, err)

		assert.Equal(t, 42, Arg[int](args, "item_id"))
		assert.Equal(t, "secret", Arg[string](args, "x_token"))
		assert.Equal(t, "kept", Arg[string](args, "raw_header"))
		assert.Equal(t, "test-agent", Arg[string](args, "user_agent"))
		assert.Equal(t, "abc", Arg[string](args, "ads_id"))
	})

	t.Run("underscore header is not converted without the flag", func(t *testing.T) {
		t.Parallel()

		req := newRequest(http.MethodGet, "/items/1", nil, "")
		req.SetPathValue("item_id", "1")
		req.Header.Set("X-Token", "secret")
		req.Header.Set("Raw-Header", "ignored")

		args, err := r.Resolve(context.Background(), req, d)
		require.NoError(t, err)
		assert.Empty(t, Arg[string](args, "raw_header"))
	})

	t.Run("missing and invalid", func(t *testing.T) {
		t.Parallel()

		req := newRequest(http.MethodGet, "/items/0", nil, "")
		req.SetPathValue("item_id", "0")
		req.Header.Set("x_token", "wrong spelling")

		_, err := r.Resolve(context.Background(), req, d)

		var verr *validation.Error
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 2)
		assert.Equal(t, "path.item_id", verr.Fields[0].Path)
		assert.Equal(t, "schema.minimum", verr.Fields[0].Code)
		assert.Equal(t, "header.x-token", verr.Fields[1].Path)
		assert.Equal(t, validation.CodeMissing, verr.Fields[1].Code)
	})
}

func TestResolve_DefaultCoercion(t *testing.T) {
	t.Parallel()

	type level string

	d := MustDependant("h", noop,
		In[int64]("n", params.Query(params.WithDefault(10))),
		In[*int]("p", params.Query(params.WithDefault(5))),
		In[level]("lvl", params.Query(params.WithDefault("debug"))),
		In[float64]("f", params.Query(params.WithDefault("2.5"))),
	)

	args, err := MustNew().Resolve(context.Background(), newRequest(http.MethodGet, "/", nil, ""), d)
	require.NoError(t, err)

	assert.Equal(t, int64(10), Arg[int64](args, "n"))
	require.NotNil(t, Arg[*int](args, "p"))
	assert.Equal(t, 5, *Arg[*int](args, "p"))
	assert.Equal(t, level("debug"), Arg[level](args, "lvl"))
	assert.InDelta(t, 2.5, Arg[float64](args, "f"), 0)
}

func TestResolve_CachedDependencyCalledOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		concurrent bool
	}{
		{name: "sequential"},
		{name: "concurrent", concurrent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			common := MustDependant("common", func(context.Context, *Args) (any, error) {
				calls.Add(1)
				return "shared", nil
			})
			passThrough := func(_ context.Context, a *Args) (any, error) { return Arg[string](a, "c"), nil }
			left := MustDependant("left", passThrough, In[string]("c", params.Depends(common)))
			right := MustDependant("right", passThrough, In[string]("c", params.Depends(common)))
			root := MustDependant("root", func(_ context.Context, a *Args) (any, error) {
				return Arg[string](a, "l") + "+" + Arg[string](a, "r") + "+" + Arg[string](a, "c"), nil
			},
				In[string]("l", params.Depends(left)),
				In[string]("r", params.Depends(right)),
				In[string]("c", params.Depends(common)),
			)

			var stats Stats
			r := MustNew(
				WithConcurrentDependencies(tt.concurrent),
				WithEvents(Events{Done: func(s Stats) { stats = s }}),
			)

			for range 20 {
				calls.Store(0)
				result, err := r.Call(context.Background(), newRequest(http.MethodGet, "/", nil, ""), root)
				require.NoError(t, err)
				assert.Equal(t, "shared+shared+shared", result)
				assert.Equal(t, int32(1), calls.Load())
			}

			assert.Equal(t, "root", stats.Dependant)
			assert.Equal(t, 4, stats.DependencyCalls)
			assert.Equal(t, 2, stats.CacheHits)
			require.NoError(t, stats.Err)
		})
	}
}

func TestResolve_ConcurrentDependencyPanic(t *testing.T) {
	t.Parallel()

	boom := MustDependant("boom", func(context.Context, *Args) (any, error) {
		panic("boom")
	})
	ok := MustDependant("ok", func(context.Context, *Args) (any, error) {
		return "ok", nil
	})
	uncached := MustDependant("uncached_boom", func(context.Context, *Args) (any, error) {
		panic("uncached boom")
	})

	tests := []struct {
		name      string
		inputs    []Input
		wantPanic string
	}{
		{
			name:      "cached sibling",
			inputs:    []Input{In[any]("boom", params.Depends(boom)), In[string]("ok", params.Depends(ok))},
			wantPanic: "boom",
		},
		{
			name: "uncached sibling",
			inputs: []Input{
				In[any]("boom", params.Depends(uncached, params.WithoutCache())),
				In[string]("ok", params.Depends(ok)),
			},
			wantPanic: "uncached boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := MustDependant("root", noop, tt.inputs...)
			r := MustNew(WithConcurrentDependencies(true))

			assert.PanicsWithValue(t, tt.wantPanic, func() {
				_, _ = r.Call(context.Background(), newRequest(http.MethodGet, "/", nil, ""), root)
			})
		})
	}
}

func TestResolve_ConcurrentErrorCancelsSiblings(t *testing.T) {
	t.Parallel()

	boom := errors.New("database unavailable")
	var cancelled atomic.Bool

	failing := MustDependant("get_db", func(context.Context, *Args) (any, error) {
		return nil, boom
	})
	slow := MustDependant("slow", func(ctx context.Context, _ *Args) (any, error) {
		select {
		case <-ctx.Done():
			cancelled.Store(true)
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return "done", nil
		}
	})
	root := MustDependant("root", noop,
		In[any]("db", params.Depends(failing)),
		In[any]("slow", params.Depends(slow)),
	)

	start := time.Now()
	_, err := MustNew(WithConcurrentDependencies(true)).Call(
		context.Background(), newRequest(http.MethodGet, "/", nil, ""), root)

	require.ErrorIs(t, err, boom)
	assert.True(t, cancelled.Load())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResolve_UncachedResultSeedsCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	counter := MustDependant("counter", func(context.Context, *Args) (any, error) {
		return int(calls.Add(1)), nil
	})
	root := MustDependant("root", func(_ context.Context, a *Args) (any, error) {
		return []int{Arg[int](a, "fresh"), Arg[int](a, "cached")}, nil
	},
		In[int]("fresh", params.Depends(counter, params.WithoutCache())),
		In[int]("cached", params.Depends(counter)),
	)

	result, err := MustNew().Call(context.Background(), newRequest(http.MethodGet, "/", nil, ""), root)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, result)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolve_WithoutCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	counter := MustDependant("counter", func(context.Context, *Args) (any, error) {
		return int(calls.Add(1)), nil
	})
	root := MustDependant("root", func(_ context.Context, a *Args) (any, error) {
		return []int{Arg[int](a, "a"), Arg[int](a, "b")}, nil
	},
		In[int]("a", params.Depends(counter, params.WithoutCache())),
		In[int]("b", params.Depends(counter, params.WithoutCache())),
	)

	result, err := MustNew().Call(context.Background(), newRequest(http.MethodGet, "/", nil, ""), root)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, result)
}

func TestResolve_CacheIsPerRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	counter := MustDependant("counter", func(context.Context, *Args) (any, error) {
		return int(calls.Add(1)), nil
	})
	root := MustDependant("root", func(_ context.Context, a *Args) (any, error) {
		return Arg[int](a, "n"), nil
	}, In[int]("n", params.Depends(counter)))

	r := MustNew(WithConcurrentDependencies(true))
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			_, err := r.Call(context.Background(), newRequest(http.MethodGet, "/", nil, ""), root)
			assert.NoError(t, err)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(10), calls.Load())
}

func TestResolve_SubDependencyErrors(t *testing.T) {
	t.Parallel()

	commonParams := MustDependant("common_parameters", func(_ context.Context, a *Args) (any, error) {
		return map[string]any{"q": Arg[string](a, "q"), "limit": Arg[int](a, "limit")}, nil
	},
		In[string]("q", params.Query(params.WithDefault(nil))),
		In[int]("limit", params.Query(params.WithDefault(100))),
	)
	called := false
	root := MustDependant("read_items", func(context.Context, *Args) (any, error) {
		called = true
		return nil, nil
	},
		In[map[string]any]("commons", params.Depends(commonParams)),
		In[map[string]any]("again", params.Depends(commonParams)),
		In[int]("page", params.Query()),
	)

	_, err := MustNew().Call(context.Background(), newRequest(http.MethodGet, "/?limit=x", nil, ""), root)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "query.limit", verr.Fields[0].Path)
	assert.Equal(t, "query.page", verr.Fields[1].Path)
	assert.False(t, called)
}

func TestResolve_DependencyError(t *testing.T) {
	t.Parallel()

	boom := errors.New("database unavailable")
	failing := MustDependant("get_db", func(context.Context, *Args) (any, error) { return nil, boom })
	root := MustDependant("h", noop,
		In[any]("db", params.Depends(failing)),
		In[int]("page", params.Query()),
	)

	for _, concurrent := range []bool{false, true} {
		_, err := MustNew(WithConcurrentDependencies(concurrent)).Call(
			context.Background(), newRequest(http.MethodGet, "/", nil, ""), root)
		require.ErrorIs(t, err, boom)
	}
}

func TestResolve_SecurityScopes(t *testing.T) {
	t.Parallel()

	bearer := MustSecurityDependant("bearer", SecurityScheme{Scheme: "bearer"},
		func(_ context.Context, a *Args) (any, error) {
			token, ok := Lookup[string](a, "authorization")
			if !ok {
				return nil, riverrors.WithStatus(errors.New("not authenticated"), http.StatusUnauthorized)
			}

			return strings.TrimPrefix(token, "Bearer "), nil
		},
		In[string]("authorization", params.Header(params.WithDefault(nil))),
	)

	var (
		mu         sync.Mutex
		seenScopes []string
	)
	currentUser := MustDependant("current_user", func(_ context.Context, a *Args) (any, error) {
		mu.Lock()
		seenScopes = a.SecurityScopes()
		mu.Unlock()

		return principal{subject: "alice", scopes: strings.Split(Arg[string](a, "token"), ",")}, nil
	}, In[string]("token", params.Depends(bearer)))

	readMe := MustDependant("read_me", func(_ context.Context, a *Args) (any, error) {
		return Arg[principal](a, "user").subject, nil
	}, In[principal]("user", params.Security(currentUser, params.WithScopes("me", "items"))))

	r := MustNew()
	call := func(auth string) (any, error) {
		req := newRequest(http.MethodGet, "/users/me", nil, "")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}

		return r.Call(context.Background(), req, readMe)
	}

	result, err := call("Bearer me,items,admin")
	require.NoError(t, err)
	assert.Equal(t, "alice", result)
	mu.Lock()
	assert.Equal(t, []string{"me", "items"}, seenScopes)
	mu.Unlock()

	_, err = call("Bearer me")
	require.ErrorIs(t, err, ErrInsufficientScope)
	var aerr *AuthorizationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "current_user", aerr.Dependency)
	assert.Equal(t, []string{"me", "items"}, aerr.Required)
	assert.Equal(t, []string{"items"}, aerr.Missing)
	assert.Equal(t, http.StatusForbidden, aerr.HTTPStatus())
	assert.Equal(t, `Bearer error="insufficient_scope", scope="me items"`, aerr.Headers().Get("WWW-Authenticate"))

	_, err = call("")
	var typed riverrors.ErrorType
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, http.StatusUnauthorized, typed.HTTPStatus())
}

func TestResolve_FailedResolveLogsCleanupErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	resource := MustDependant("get_db", func(_ context.Context, a *Args) (any, error) {
		a.Defer(func() error { return errors.New("close: connection reset") })
		return "conn", nil
	})
	root := MustDependant("read", noop,
		In[string]("db", params.Depends(resource)),
		In[int]("page", params.Query()),
	)

	_, err := MustNew(WithLogger(logger)).Resolve(context.Background(), newRequest(http.MethodGet, "/", nil, ""), root)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, buf.String(), "dependency cleanup failed")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestResolve_Cleanups(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) func() error {
		return func() error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)

			return nil
		}
	}

	resource := MustDependant("get_db", func(_ context.Context, a *Args) (any, error) {
		a.Defer(record("get_db"))
		return "conn", nil
	})
	read := MustDependant("read", func(_ context.Context, a *Args) (any, error) {
		a.Defer(record("read"))
		return Arg[string](a, "db"), nil
	}, In[string]("db", params.Depends(resource)))
	failing := MustDependant("failing", func(context.Context, *Args) (any, error) {
		return nil, errors.New("boom")
	}, In[string]("db", params.Depends(resource)))

	r := MustNew()

	_, err := r.Call(context.Background(), newRequest(http.MethodGet, "/", nil, ""), read)
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "get_db"}, order)

	order = nil
	_, err = r.Call(context.Background(), newRequest(http.MethodGet, "/", nil, ""), failing)
	require.Error(t, err)
	assert.Equal(t, []string{"get_db"}, order)

	order = nil
	args, err := r.Resolve(context.Background(), newRequest(http.MethodGet, "/", nil, ""), read)
	require.NoError(t, err)
	assert.Empty(t, order)
	require.NoError(t, args.Close())
	require.NoError(t, args.Close())
	assert.Equal(t, []string{"get_db"}, order)
}

func TestResolve_Events(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		inputs   []string
		called   []string
		cacheHit []string
	)
	events := Events{
		InputResolved: func(dependant, input, source string, found bool) {
			mu.Lock()
			defer mu.Unlock()
			mark := "-"
			if found {
				mark = "+"
			}
			inputs = append(inputs, dependant+"."+input+"@"+source+mark)
		},
		DependencyCalled: func(name string, _ time.Duration, _ error) {
			mu.Lock()
			defer mu.Unlock()
			called = append(called, name)
		},
		CacheHit: func(name string) {
			mu.Lock()
			defer mu.Unlock()
			cacheHit = append(cacheHit, name)
		},
	}

	common := MustDependant("common", noop, In[string]("q", params.Query(params.WithDefault(nil))))
	root := MustDependant("root", noop,
		In[any]("a", params.Depends(common)),
		In[any]("b", params.Depends(common)),
		In[int]("limit", params.Query(params.WithDefault(10))),
	)

	_, err := MustNew(WithEvents(events)).Call(context.Background(), newRequest(http.MethodGet, "/?q=x", nil, ""), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"common.q@query+", "root.limit@query-"}, inputs)
	assert.Equal(t, []string{"common", "root"}, called)
	assert.Equal(t, []string{"common"}, cacheHit)
}

func TestResolve_PlanErrorAtRequestTime(t *testing.T) {
	t.Parallel()

	d := MustDependant("h", noop, In[*conn]("db", params.Depends(nil)))
	_, err := MustNew().Call(context.Background(), newRequest(http.MethodGet, "/", nil, ""), d)

	var perr *PlanError
	require.ErrorAs(t, err, &perr)
}
