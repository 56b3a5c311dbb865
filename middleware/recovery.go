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

package middleware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	riverrors "rivaas.dev/params/errors"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ErrPanic wraps the value of a recovered panic.
var ErrPanic = errors.New("panic recovered")

// RecoveryOption configures [Recovery].
type RecoveryOption func(*recoveryConfig)

type recoveryConfig struct {
	logger    *slog.Logger
	formatter riverrors.Formatter
	stack     bool
	stackSize int
}

// WithRecoveryLogger sets the logger receiving recovered panics.
func WithRecoveryLogger(logger *slog.Logger) RecoveryOption {
	return func(c *recoveryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecoveryFormatter sets the formatter of the 500 response.
func WithRecoveryFormatter(f riverrors.Formatter) RecoveryOption {
	return func(c *recoveryConfig) {
		if f != nil {
			c.formatter = f
		}
	}
}

// WithStackTrace controls whether the stack is logged, truncated to size
// bytes when size > 0.
func WithStackTrace(enabled bool, size int) RecoveryOption {
	return func(c *recoveryConfig) {
		c.stack = enabled
		c.stackSize = size
	}
}

// Recovery returns a middleware turning handler panics into 500 responses.
// Register it early so it covers the rest of the chain.
// http.ErrAbortHandler is re-panicked.
func Recovery(opts ...RecoveryOption) func(http.Handler) http.Handler {
	cfg := &recoveryConfig{
		logger:    noopLogger,
		formatter: riverrors.NewRFC9457(""),
		stack:     true,
		stackSize: 4 << 10,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(rec)
				}

				attrs := []any{
					"panic", fmt.Sprint(rec),
					"method", r.Method,
					"path", r.URL.Path,
				}
				if id := GetRequestID(r.Context()); id != "" {
					attrs = append(attrs, "request_id", id)
				}
				if cfg.stack {
					stack := debug.Stack()
					if cfg.stackSize > 0 && len(stack) > cfg.stackSize {
						stack = stack[:cfg.stackSize]
					}
					attrs = append(attrs, "stack", string(stack))
				}
				cfg.logger.ErrorContext(r.Context(), "panic recovered", attrs...)

				err := riverrors.WithStatus(ErrPanic, http.StatusInternalServerError)
				if werr := riverrors.Write(w, r, cfg.formatter, err); werr != nil {
					cfg.logger.WarnContext(r.Context(), "write panic response", "error", werr)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
