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

package sqlapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rivaas.dev/params"
	riverrors "rivaas.dev/params/errors"
	"rivaas.dev/params/metrics"
	"rivaas.dev/params/middleware"
	"rivaas.dev/params/openapi"
	"rivaas.dev/params/resolve"
	"rivaas.dev/params/security"
	"rivaas.dev/params/tracing"
)

// Scopes granted by POST /token.
const (
	ScopeMe    = "me"
	ScopeItems = "items"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Option configures an [App].
type Option func(*App)

// WithLogger sets the logger of the app and its resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records resolution metrics with rec. When rec exports to
// Prometheus, GET /metrics serves them.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(a *App) {
		a.metrics = rec
	}
}

// WithTracer starts a server span for every request.
func WithTracer(t *tracing.Tracer) Option {
	return func(a *App) {
		a.tracer = t
	}
}

// WithConcurrentDependencies resolves sibling dependencies concurrently.
func WithConcurrentDependencies(enabled bool) Option {
	return func(a *App) {
		a.concurrent = enabled
	}
}

// App is the users and items service.
type App struct {
	store      *Store
	auth       *security.Authenticator
	logger     *slog.Logger
	metrics    *metrics.Recorder
	tracer     *tracing.Tracer
	concurrent bool

	resolver *resolve.Resolver
	docs     *openapi.Manager
	router   chi.Router

	getDB *resolve.Dependant
}

// New creates the app serving store. Tokens are issued and verified by auth,
// which must have been created with a password flow at "/token".
func New(store *Store, auth *security.Authenticator, opts ...Option) (*App, error) {
	if store == nil || auth == nil {
		return nil, errors.New("sqlapp: store and authenticator are required")
	}

	a := &App{store: store, auth: auth, logger: noopLogger}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	ropts := []resolve.Option{
		resolve.WithPathValueFunc(chi.URLParam),
		resolve.WithLogger(a.logger),
		resolve.WithConcurrentDependencies(a.concurrent),
	}
	if a.metrics != nil {
		ropts = append(ropts, resolve.WithEvents(a.metrics.Events()))
	}
	r, err := resolve.New(ropts...)
	if err != nil {
		return nil, fmt.Errorf("create resolver: %w", err)
	}
	a.resolver = r

	api, err := openapi.New(
		openapi.WithTitle("SQL App", "0.1.0"),
		openapi.WithTag("users", "User accounts"),
		openapi.WithTag("items", "Items owned by users"),
	)
	if err != nil {
		return nil, err
	}
	a.docs = openapi.NewManager(api, r)

	a.getDB = resolve.MustDependant("get_db", a.openConn)

	if err = a.routes(); err != nil {
		return nil, err
	}

	return a, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	a.router.ServeHTTP(w, req)
}

// Docs returns the OpenAPI document manager of the app.
func (a *App) Docs() *openapi.Manager { return a.docs }

type endpoint struct {
	method string
	path   string
	dep    *resolve.Dependant
	opts   []openapi.OperationOption
}

func (a *App) routes() error {
	db := resolve.In[*sql.Conn]("db", params.Depends(a.getDB))
	skip := resolve.In[int]("skip", params.Query(params.WithDefault(0), params.WithGe(0)))
	limit := resolve.In[int]("limit", params.Query(params.WithDefault(100), params.WithGe(1), params.WithLe(1000)))
	userID := resolve.In[int64]("user_id", params.MustPath(params.WithGt(0)))

	endpoints := []endpoint{
		{
			http.MethodPost, "/users/",
			resolve.MustDependant("create_user", a.createUser,
				resolve.In[UserCreate]("user", params.Body()), db),
			[]openapi.OperationOption{
				openapi.WithTags("users"),
				openapi.WithResponse(http.StatusCreated, "Created user", User{}),
			},
		},
		{
			http.MethodGet, "/users/",
			resolve.MustDependant("read_users", a.readUsers, skip, limit, db),
			[]openapi.OperationOption{
				openapi.WithTags("users"),
				openapi.WithResponse(http.StatusOK, "Users", []User{}),
			},
		},
		{
			http.MethodGet, "/users/{user_id}",
			resolve.MustDependant("read_user", a.readUser, userID, db),
			[]openapi.OperationOption{
				openapi.WithTags("users"),
				openapi.WithResponse(http.StatusOK, "User", User{}),
			},
		},
		{
			http.MethodPost, "/users/{user_id}/items/",
			resolve.MustDependant("create_item_for_user", a.createItem,
				userID, resolve.In[ItemCreate]("item", params.Body()), db),
			[]openapi.OperationOption{
				openapi.WithTags("items"),
				openapi.WithResponse(http.StatusCreated, "Created item", Item{}),
			},
		},
		{
			http.MethodGet, "/items/",
			resolve.MustDependant("read_items", a.readItems, skip, limit, db),
			[]openapi.OperationOption{
				openapi.WithTags("items"),
				openapi.WithResponse(http.StatusOK, "Items", []Item{}),
			},
		},
		{
			http.MethodPost, "/token",
			resolve.MustDependant("login", a.login,
				resolve.In[string]("username", params.Form()),
				resolve.In[string]("password", params.Form()),
				db),
			[]openapi.OperationOption{
				openapi.WithSummary("Exchange credentials for a bearer token"),
				openapi.WithResponse(http.StatusOK, "Token", Token{}),
			},
		},
		{
			http.MethodGet, "/me",
			resolve.MustDependant("read_me", a.readMe,
				resolve.In[*security.Principal]("principal", params.Security(a.auth.Principal(), params.WithScopes(ScopeMe))),
				db),
			[]openapi.OperationOption{
				openapi.WithTags("users"),
				openapi.WithResponse(http.StatusOK, "Current user", User{}),
			},
		},
	}

	router := chi.NewRouter()
	if a.tracer != nil {
		router.Use(tracing.Middleware(a.tracer, tracing.WithExcludePaths("/metrics", "/openapi.json")))
	}
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(middleware.WithRecoveryLogger(a.logger)),
		middleware.AccessLog(a.logger, middleware.WithExcludePaths("/metrics", "/openapi.json", "/healthz", "/readyz")),
		middleware.Compress(
			middleware.WithMinSize(1024),
			middleware.WithCompressExcludePaths("/metrics"),
			middleware.WithCompressLogger(a.logger),
		),
	)
	for _, e := range endpoints {
		if err := a.docs.Register(e.method, e.path, e.dep, e.opts...); err != nil {
			return err
		}
		router.Method(e.method, e.path, a.resolver.Handler(e.dep))
	}
	router.Get("/healthz", a.healthz)
	router.Get("/readyz", a.readyz)
	router.Method(http.MethodGet, "/openapi.json", a.docs.Handler())
	if a.metrics != nil && a.metrics.Provider() == metrics.PrometheusProvider {
		router.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}
	a.router = router

	return nil
}

// openConn hands the request its own connection, closed after the response.
func (a *App) openConn(ctx context.Context, args *resolve.Args) (any, error) {
	conn, err := a.store.Conn(ctx)
	if err != nil {
		return nil, riverrors.WithStatus(fmt.Errorf("get connection: %w", err), http.StatusServiceUnavailable)
	}
	args.Defer(conn.Close)

	return conn, nil
}

func (a *App) createUser(ctx context.Context, args *resolve.Args) (any, error) {
	in := resolve.Arg[UserCreate](args, "user")
	conn := resolve.Arg[*sql.Conn](args, "db")

	if _, err := GetUserByEmail(ctx, conn, in.Email); err == nil {
		return nil, emailRegistered()
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user, err := CreateUser(ctx, conn, in)
	if errors.Is(err, ErrEmailRegistered) {
		return nil, emailRegistered()
	}
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "user created", "user_id", user.ID)

	return resolve.Response{
		Status:  http.StatusCreated,
		Body:    user,
		Headers: http.Header{"Location": {"/users/" + strconv.FormatInt(user.ID, 10)}},
	}, nil
}

func emailRegistered() error {
	return riverrors.WithStatus(errors.New("Email already registered"), http.StatusBadRequest)
}

func (a *App) readUsers(ctx context.Context, args *resolve.Args) (any, error) {
	return ListUsers(ctx, resolve.Arg[*sql.Conn](args, "db"),
		resolve.Arg[int](args, "skip"), resolve.Arg[int](args, "limit"))
}

func (a *App) readUser(ctx context.Context, args *resolve.Args) (any, error) {
	user, err := GetUser(ctx, resolve.Arg[*sql.Conn](args, "db"), resolve.Arg[int64](args, "user_id"))
	if errors.Is(err, ErrNotFound) {
		return nil, riverrors.WithStatus(errors.New("User not found"), http.StatusNotFound)
	}

	return user, err
}

func (a *App) createItem(ctx context.Context, args *resolve.Args) (any, error) {
	item, err := CreateUserItem(ctx, resolve.Arg[*sql.Conn](args, "db"),
		resolve.Arg[ItemCreate](args, "item"), resolve.Arg[int64](args, "user_id"))
	if errors.Is(err, ErrNotFound) {
		return nil, riverrors.WithStatus(errors.New("User not found"), http.StatusNotFound)
	}
	if err != nil {
		return nil, err
	}

	return resolve.Response{Status: http.StatusCreated, Body: item}, nil
}

func (a *App) readItems(ctx context.Context, args *resolve.Args) (any, error) {
	return ListItems(ctx, resolve.Arg[*sql.Conn](args, "db"),
		resolve.Arg[int](args, "skip"), resolve.Arg[int](args, "limit"))
}

func (a *App) login(ctx context.Context, args *resolve.Args) (any, error) {
	user, err := Authenticate(ctx, resolve.Arg[*sql.Conn](args, "db"),
		resolve.Arg[string](args, "username"), resolve.Arg[string](args, "password"))
	if errors.Is(err, ErrInvalidCredentials) {
		return nil, riverrors.WithStatus(err, http.StatusBadRequest)
	}
	if err != nil {
		return nil, err
	}

	token, err := a.auth.IssueToken(user.Email, ScopeMe, ScopeItems)
	if err != nil {
		return nil, err
	}

	return Token{AccessToken: token, TokenType: "bearer"}, nil
}

func (a *App) readMe(ctx context.Context, args *resolve.Args) (any, error) {
	p := resolve.Arg[*security.Principal](args, "principal")
	user, err := GetUserByEmail(ctx, resolve.Arg[*sql.Conn](args, "db"), p.Subject)
	if errors.Is(err, ErrNotFound) {
		return nil, &security.UnauthenticatedError{Scheme: "Bearer", Err: security.ErrInvalidToken}
	}

	return user, err
}
