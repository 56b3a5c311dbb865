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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rivaas.dev/params/internal/sqlapp"
	"rivaas.dev/params/logging"
	"rivaas.dev/params/metrics"
	"rivaas.dev/params/security"
	"rivaas.dev/params/tracing"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(cmd.Flags(), configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
	registerFlags(cmd.Flags())

	return cmd
}

func newLogger(cfg LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	handler, err := logging.ParseHandlerType(cfg.Format)
	if err != nil {
		return nil, err
	}

	return logging.New(
		logging.WithHandlerType(handler),
		logging.WithLevel(level),
		logging.WithServiceName("usersapi"),
		logging.WithServiceVersion(Version),
		logging.WithRedactedKeys(cfg.Redact...),
	)
}

func newRecorder(cfg MetricsConfig, logger *slog.Logger) (*metrics.Recorder, error) {
	opts := []metrics.Option{
		metrics.WithServiceName("usersapi"),
		metrics.WithServiceVersion(Version),
		metrics.WithLogger(logger),
	}
	switch cfg.Exporter {
	case "none", "":
		return nil, nil //nolint:nilnil // metrics disabled
	case "otlp":
		opts = append(opts, metrics.WithOTLP(cfg.Endpoint))
	case "stdout":
		opts = append(opts, metrics.WithStdout())
	default:
		opts = append(opts, metrics.WithPrometheus())
	}

	return metrics.New(opts...)
}

func newTracer(ctx context.Context, cfg TracingConfig, logger *slog.Logger) (*tracing.Tracer, error) {
	opts := []tracing.Option{
		tracing.WithServiceName("usersapi"),
		tracing.WithServiceVersion(Version),
		tracing.WithSampleRate(cfg.SampleRate),
		tracing.WithGlobalTracerProvider(),
		tracing.WithLogger(logger),
	}
	switch cfg.Exporter {
	case "none", "":
		return nil, nil //nolint:nilnil // tracing disabled
	case "stdout":
		opts = append(opts, tracing.WithStdout(nil))
	case "otlp-grpc":
		opts = append(opts, tracing.WithOTLPGRPC(cfg.Endpoint))
	default:
		opts = append(opts, tracing.WithOTLP(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, tracing.WithInsecure())
	}

	return tracing.New(ctx, opts...)
}

func serve(ctx context.Context, cfg *Config) error {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	store, err := sqlapp.Open(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	auth, err := security.New(
		security.WithSecret([]byte(cfg.Auth.JWTSecret)),
		security.WithTokenTTL(cfg.Auth.TokenTTL),
		security.WithSchemeName("OAuth2PasswordBearer"),
		security.WithPasswordFlow("/token", map[string]string{
			sqlapp.ScopeMe:    "Read information about the current user.",
			sqlapp.ScopeItems: "Read items.",
		}),
		security.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	rec, err := newRecorder(cfg.Metrics, logger)
	if err != nil {
		return fmt.Errorf("create metrics recorder: %w", err)
	}

	tracer, err := newTracer(ctx, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("create tracer: %w", err)
	}

	opts := []sqlapp.Option{
		sqlapp.WithLogger(logger),
		sqlapp.WithConcurrentDependencies(cfg.Resolver.Concurrent),
	}
	if rec != nil {
		opts = append(opts, sqlapp.WithMetrics(rec))
	}
	if tracer != nil {
		opts = append(opts, sqlapp.WithTracer(tracer))
	}
	app, err := sqlapp.New(store, auth, opts...)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "server starting", "addr", cfg.Server.Addr, "database", cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err = <-serverErr:
		return err
	case <-ctx.Done():
		logger.InfoContext(ctx, "server shutting down", "reason", ctx.Err())
	}

	// ctx is already canceled; the shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if rec != nil {
		if err = rec.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(shutdownCtx, "metrics shutdown failed", "error", err)
		}
	}
	if tracer != nil {
		if err = tracer.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(shutdownCtx, "tracing shutdown failed", "error", err)
		}
	}
	logger.InfoContext(shutdownCtx, "server exited")

	return nil
}
