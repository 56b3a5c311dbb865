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

package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// HandlerType selects the output format.
type HandlerType string

const (
	// JSONHandler writes one JSON object per record.
	JSONHandler HandlerType = "json"
	// TextHandler writes key=value records.
	TextHandler HandlerType = "text"
	// ConsoleHandler writes colored records for terminals.
	ConsoleHandler HandlerType = "console"
)

// ErrInvalidHandlerType is returned for an unknown [HandlerType].
var ErrInvalidHandlerType = errors.New("invalid handler type")

// ErrInvalidLevel is returned by [ParseLevel] for an unknown level name.
var ErrInvalidLevel = errors.New("invalid log level")

// defaultRedactKeys never reach the output.
var defaultRedactKeys = []string{"password", "token", "access_token", "authorization", "secret", "jwt_secret"}

const redacted = "***"

// New builds a logger from the given options.
// Returns an error for an unknown handler type.
func New(opts ...Option) (*slog.Logger, error) {
	c := &config{
		handlerType: JSONHandler,
		output:      os.Stdout,
		level:       slog.LevelInfo,
		redactKeys:  slices.Clone(defaultRedactKeys),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.output == nil {
		c.output = os.Stdout
	}

	hopts := &slog.HandlerOptions{
		Level:       c.level,
		AddSource:   c.addSource,
		ReplaceAttr: redactor(c.redactKeys),
	}

	var h slog.Handler
	switch c.handlerType {
	case JSONHandler:
		h = slog.NewJSONHandler(c.output, hopts)
	case TextHandler:
		h = slog.NewTextHandler(c.output, hopts)
	case ConsoleHandler:
		h = newConsoleHandler(c.output, hopts, c.color)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidHandlerType, c.handlerType)
	}

	logger := slog.New(&traceHandler{Handler: h})

	var attrs []any
	if c.serviceName != "" {
		attrs = append(attrs, "service", c.serviceName)
	}
	if c.serviceVersion != "" {
		attrs = append(attrs, "version", c.serviceVersion)
	}
	if c.environment != "" {
		attrs = append(attrs, "env", c.environment)
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}

	if c.registerGlobal {
		slog.SetDefault(logger)
	}

	return logger, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *slog.Logger {
	logger, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("logging.MustNew: %v", err))
	}

	return logger
}

// ParseLevel parses "debug", "info", "warn" or "error", case-insensitive.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}

	return level, nil
}

// ParseHandlerType parses "json", "text" or "console", case-insensitive.
func ParseHandlerType(s string) (HandlerType, error) {
	t := HandlerType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case JSONHandler, TextHandler, ConsoleHandler:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidHandlerType, s)
	}
}

func redactor(keys []string) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		for _, k := range keys {
			if strings.EqualFold(a.Key, k) {
				return slog.String(a.Key, redacted)
			}
		}

		return a
	}
}
