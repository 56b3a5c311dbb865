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
	"slices"
	"time"

	"rivaas.dev/params/resolve"
)

// Principal is an authenticated caller.
type Principal struct {
	Subject   string    // Token subject
	Scopes    []string  // Granted scopes
	ExpiresAt time.Time // Zero when the credential does not expire
	Claims    *Claims   // Decoded claims for JWT principals, nil otherwise
}

// GrantedScopes implements resolve.ScopeGranter.
func (p *Principal) GrantedScopes() []string {
	if p == nil {
		return nil
	}

	return slices.Clone(p.Scopes)
}

// HasScope reports whether scope was granted.
func (p *Principal) HasScope(scope string) bool {
	return p != nil && slices.Contains(p.Scopes, scope)
}

var _ resolve.ScopeGranter = (*Principal)(nil)
