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

package security

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"
)

const (
	// DefaultTokenTTL is the lifetime of issued tokens.
	DefaultTokenTTL = 30 * time.Minute

	// DefaultSchemeName names the security scheme in API documentation.
	DefaultSchemeName = "bearer"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// config holds the settings of an [Authenticator].
type config struct {
	secret      []byte
	issuer      string
	audience    string
	ttl         time.Duration
	leeway      time.Duration
	schemeName  string
	tokenURL    string
	scopes      map[string]string
	description string
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an [Authenticator].
type Option func(*config)

func defaultConfig() *config {
	return &config{
		ttl:        DefaultTokenTTL,
		schemeName: DefaultSchemeName,
		now:        time.Now,
		logger:     noopLogger,
	}
}

func (c *config) validate() error {
	if len(c.secret) == 0 {
		return fmt.Errorf("%w: signing secret is empty", ErrInvalidConfig)
	}
	if c.ttl <= 0 {
		return fmt.Errorf("%w: token TTL must be > 0, got %s", ErrInvalidConfig, c.ttl)
	}
	if c.leeway < 0 {
		return fmt.Errorf("%w: leeway must be >= 0, got %s", ErrInvalidConfig, c.leeway)
	}
	if c.schemeName == "" {
		return fmt.Errorf("%w: scheme name is empty", ErrInvalidConfig)
	}
	if c.now == nil {
		return fmt.Errorf("%w: time function is nil", ErrInvalidConfig)
	}

	return nil
}

// WithSecret sets the HS256 signing secret. Required.
func WithSecret(secret []byte) Option {
	return func(c *config) {
		c.secret = secret
	}
}

// WithIssuer sets the "iss" claim of issued tokens and requires it on
// verified ones.
func WithIssuer(issuer string) Option {
	return func(c *config) {
		c.issuer = issuer
	}
}

// WithAudience sets the "aud" claim of issued tokens and requires it on
// verified ones.
func WithAudience(audience string) Option {
	return func(c *config) {
		c.audience = audience
	}
}

// WithTokenTTL sets the lifetime of issued tokens.
// Default: [DefaultTokenTTL].
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithLeeway tolerates clock skew when checking expiry.
func WithLeeway(leeway time.Duration) Option {
	return func(c *config) {
		c.leeway = leeway
	}
}

// WithSchemeName sets the security scheme name.
// Default: [DefaultSchemeName].
func WithSchemeName(name string) Option {
	return func(c *config) {
		c.schemeName = name
	}
}

// WithPasswordFlow documents the scheme as OAuth2 password flow with the
// given token URL and scope descriptions instead of plain HTTP bearer.
//
// Example:
//
//	security.WithPasswordFlow("/token", map[string]string{
//	    "me":    "Read information about the current user.",
//	    "items": "Read items.",
//	})
func WithPasswordFlow(tokenURL string, scopes map[string]string) Option {
	return func(c *config) {
		c.tokenURL = tokenURL
		c.scopes = maps.Clone(scopes)
	}
}

// WithSchemeDescription sets the scheme description shown in API documentation.
func WithSchemeDescription(description string) Option {
	return func(c *config) {
		c.description = description
	}
}

// WithTimeFunc sets the clock used to issue and verify tokens.
func WithTimeFunc(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithLogger sets the logger for rejected tokens, logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
