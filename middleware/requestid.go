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
	"context"
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// DefaultRequestIDHeader carries the request ID.
const DefaultRequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

// NewUUIDv7 returns a time-ordered UUID v7 (RFC 9562).
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewULID returns a 26-character ULID, monotonic within a millisecond.
func NewULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// RequestIDOption configures [RequestID].
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	header        string
	generator     func() string
	allowClientID bool
}

// WithRequestIDHeader sets the header carrying the request ID.
func WithRequestIDHeader(name string) RequestIDOption {
	return func(c *requestIDConfig) {
		c.header = name
	}
}

// WithGenerator sets the function generating new request IDs.
func WithGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		c.generator = fn
	}
}

// WithULID generates ULIDs instead of UUID v7.
func WithULID() RequestIDOption {
	return WithGenerator(NewULID)
}

// WithAllowClientID controls whether IDs sent by clients are kept.
func WithAllowClientID(allow bool) RequestIDOption {
	return func(c *requestIDConfig) {
		c.allowClientID = allow
	}
}

// RequestID returns a middleware assigning each request an ID, a UUID v7
// by default. The ID is echoed in the response header and stored in the
// request context.
//
// Example:
//
//	r.Use(middleware.RequestID(middleware.WithAllowClientID(false)))
func RequestID(opts ...RequestIDOption) func(http.Handler) http.Handler {
	cfg := &requestIDConfig{
		header:        DefaultRequestIDHeader,
		generator:     NewUUIDv7,
		allowClientID: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cfg.allowClientID {
				id = r.Header.Get(cfg.header)
			}
			if id == "" {
				id = cfg.generator()
			}

			w.Header().Set(cfg.header, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
