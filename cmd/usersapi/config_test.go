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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "usersapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: s3cret\n")

	cfg, err := loadConfig(nil, path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./sql_app.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "prometheus", cfg.Metrics.Exporter)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.InDelta(t, 1.0, cfg.Tracing.SampleRate, 0)
	assert.Empty(t, cfg.Log.Redact)
	assert.False(t, cfg.Resolver.Concurrent)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  shutdown_timeout: 3s
database:
  path: /tmp/file.db
auth:
  jwt_secret: from-file
log:
  level: warn
`)
	t.Setenv("USERSAPI_AUTH_JWT_SECRET", "from-env")
	t.Setenv("USERSAPI_LOG_LEVEL", "debug")
	t.Setenv("USERSAPI_LOG_REDACT", "token,password")

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	registerFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "error", "--concurrent"}))

	cfg, err := loadConfig(fs, path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "file overrides default")
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/file.db", cfg.Database.Path, "unset flag does not override file")
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret, "env overrides file")
	assert.Equal(t, "error", cfg.Log.Level, "flag overrides env")
	assert.Equal(t, []string{"token", "password"}, cfg.Log.Redact, "comma-separated env value")
	assert.True(t, cfg.Resolver.Concurrent)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing secret", "log:\n  level: info\n", "auth.jwt_secret is required"},
		{"otlp without endpoint", "auth:\n  jwt_secret: x\nmetrics:\n  exporter: otlp\n", "metrics.endpoint is required"},
		{"unknown exporter", "auth:\n  jwt_secret: x\nmetrics:\n  exporter: statsd\n", "unknown metrics exporter"},
		{"trace otlp without endpoint", "auth:\n  jwt_secret: x\ntracing:\n  exporter: otlp\n", "tracing.endpoint is required"},
		{"unknown trace exporter", "auth:\n  jwt_secret: x\ntracing:\n  exporter: zipkin\n", "unknown tracing exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(nil, writeConfig(t, tt.content))
			require.ErrorIs(t, err, errInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	_, err := newLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)

	_, err = newLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)

	_, err = newLogger(LogConfig{Level: "info", Format: "xml"})
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "usersapi dev")
}
