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
	"errors"
	"fmt"
	"net/http"
	"time"

	riverrors "rivaas.dev/params/errors"
)

const readinessTimeout = time.Second

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// healthz is the liveness probe: the process serves requests.
func (a *App) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok")); err != nil {
		a.logger.Debug("write healthz response", "error", err)
	}
}

// readyz is the readiness probe: the database answers within a second.
func (a *App) readyz(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		a.logger.WarnContext(ctx, "readiness check failed", "check", "database", "error", err)
		notReady := riverrors.WithStatus(
			fmt.Errorf("service not ready: %w", errors.Join(errors.New("database unavailable"), err)),
			http.StatusServiceUnavailable,
		)
		_ = riverrors.Write(w, req, nil, notReady)

		return
	}
	w.WriteHeader(http.StatusNoContent)
}
