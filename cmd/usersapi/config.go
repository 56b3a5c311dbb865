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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the configuration of the serve command.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Resolver ResolverConfig `mapstructure:"resolver"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string   `mapstructure:"level"`
	Format string   `mapstructure:"format"`
	Redact []string `mapstructure:"redact"` // attribute keys logged as "***"
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	Exporter string `mapstructure:"exporter"` // prometheus, otlp, stdout or none
	Endpoint string `mapstructure:"endpoint"`
}

// TracingConfig configures trace export.
type TracingConfig struct {
	Exporter   string  `mapstructure:"exporter"` // none, stdout, otlp or otlp-grpc
	Endpoint   string  `mapstructure:"endpoint"`
	Insecure   bool    `mapstructure:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ResolverConfig configures dependency resolution.
type ResolverConfig struct {
	Concurrent bool `mapstructure:"concurrent"`
}

var errInvalidConfig = errors.New("invalid configuration")

// flagKeys maps serve flags to configuration keys.
var flagKeys = map[string]string{
	"addr":             "server.addr",
	"db":               "database.path",
	"jwt-secret":       "auth.jwt_secret",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"log-redact":       "log.redact",
	"metrics-exporter": "metrics.exporter",
	"metrics-endpoint": "metrics.endpoint",
	"tracing-exporter": "tracing.exporter",
	"tracing-endpoint": "tracing.endpoint",
	"concurrent":       "resolver.concurrent",
}

func registerFlags(fs *pflag.FlagSet) {
	fs.String("addr", ":8000", "Address to listen on")
	fs.String("db", "./sql_app.db", "Path of the SQLite database")
	fs.String("jwt-secret", "", "Secret signing access tokens")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "json", "Log format (json, text, console)")
	fs.String("log-redact", "", "Comma-separated attribute keys to redact")
	fs.String("metrics-exporter", "prometheus", "Metrics exporter (prometheus, otlp, stdout, none)")
	fs.String("metrics-endpoint", "", "OTLP collector endpoint")
	fs.String("tracing-exporter", "none", "Trace exporter (none, stdout, otlp, otlp-grpc)")
	fs.String("tracing-endpoint", "", "OTLP collector endpoint for traces")
	fs.Bool("concurrent", false, "Resolve sibling dependencies concurrently")
}

// loadConfig merges defaults, the config file, USERSAPI_* variables and
// the flags set on the command line.
func loadConfig(fs *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", "./sql_app.db")
	v.SetDefault("auth.token_ttl", 30*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.redact", []string{})
	v.SetDefault("metrics.exporter", "prometheus")
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetEnvPrefix("usersapi")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("usersapi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required (USERSAPI_AUTH_JWT_SECRET or --jwt-secret)", errInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", errInvalidConfig)
	}
	switch c.Metrics.Exporter {
	case "prometheus", "stdout", "none", "":
	case "otlp":
		if c.Metrics.Endpoint == "" {
			return fmt.Errorf("%w: metrics.endpoint is required for the otlp exporter", errInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown metrics exporter %q", errInvalidConfig, c.Metrics.Exporter)
	}
	switch c.Tracing.Exporter {
	case "none", "stdout", "":
	case "otlp", "otlp-grpc":
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("%w: tracing.endpoint is required for the %s exporter", errInvalidConfig, c.Tracing.Exporter)
		}
	default:
		return fmt.Errorf("%w: unknown tracing exporter %q", errInvalidConfig, c.Tracing.Exporter)
	}

	return nil
}
