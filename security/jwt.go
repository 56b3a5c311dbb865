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
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"rivaas.dev/params"
	"rivaas.dev/params/resolve"
)

// Claims are the JWT claims issued and verified by an [Authenticator].
// Scopes are read from the space separated "scope" claim (RFC 8693) and
// the "scopes" array.
type Claims struct {
	Scope  string   `json:"scope,omitempty"`
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// ScopeList returns the scopes of both scope claims, without duplicates.
func (c *Claims) ScopeList() []string {
	out := strings.Fields(c.Scope)
	for _, s := range c.Scopes {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	return out
}

// Authenticator issues and verifies HS256 JSON Web Tokens and exposes
// them as security dependencies.
//
// Authenticator is safe for concurrent use by multiple goroutines.
//
// Example:
//
//	auth := security.MustNew(
//	    security.WithSecret([]byte(os.Getenv("JWT_SECRET"))),
//	    security.WithTokenTTL(time.Hour),
//	)
//	token, err := auth.IssueToken("alice", "me", "items")
type Authenticator struct {
	cfg       *config
	bearer    *resolve.Dependant
	principal *resolve.Dependant
}

// New creates an [Authenticator] with the given options.
// Returns an error if configuration is invalid.
func New(opts ...Option) (*Authenticator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	scheme := resolve.SecurityScheme{
		Name:         cfg.schemeName,
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
		Description:  cfg.description,
	}
	if cfg.tokenURL != "" {
		scheme.Type = "oauth2"
		scheme.TokenURL = cfg.tokenURL
		scheme.Scopes = cfg.scopes
	}

	a := &Authenticator{cfg: cfg}
	a.bearer = newBearer(cfg.schemeName, scheme, false)
	a.principal = resolve.MustDependant("current_principal", a.authenticate,
		resolve.In[string]("token", params.Depends(a.bearer)))

	return a, nil
}

// MustNew creates an [Authenticator] with the given options.
// Panics if configuration is invalid.
func MustNew(opts ...Option) *Authenticator {
	a, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("security.MustNew: %v", err))
	}

	return a
}

// Bearer returns the security dependant reading the raw bearer token.
func (a *Authenticator) Bearer() *resolve.Dependant { return a.bearer }

// Principal returns the dependant verifying the bearer token and resolving
// to a [*Principal]. Declare it with params.Security to require scopes.
func (a *Authenticator) Principal() *resolve.Dependant { return a.principal }

func (a *Authenticator) authenticate(ctx context.Context, args *resolve.Args) (any, error) {
	p, err := a.Verify(resolve.Arg[string](args, "token"))
	if err != nil {
		a.cfg.logger.DebugContext(ctx, "token rejected", "error", err)
		return nil, &UnauthenticatedError{Scheme: "Bearer", Err: err}
	}

	return p, nil
}

// IssueToken signs a token for subject granting scopes.
func (a *Authenticator) IssueToken(subject string, scopes ...string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: subject is empty", ErrInvalidToken)
	}

	now := a.cfg.now()
	claims := &Claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.cfg.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.ttl)),
		},
	}
	if a.cfg.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.cfg.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.cfg.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature, expiry, issuer and audience of token.
// Returns an error wrapping [ErrInvalidToken] on failure.
func (a *Authenticator) Verify(token string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.cfg.leeway),
		jwt.WithTimeFunc(a.cfg.now),
	}
	if a.cfg.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.issuer))
	}
	if a.cfg.audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.cfg.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject claim is missing", ErrInvalidToken)
	}

	p := &Principal{
		Subject: claims.Subject,
		Scopes:  claims.ScopeList(),
		Claims:  claims,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	return p, nil
}
