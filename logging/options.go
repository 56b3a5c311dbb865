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
	"io"
	"log/slog"
)

// Option configures a logger built by [New].
type Option func(*config)

type config struct {
	handlerType    HandlerType
	output         io.Writer
	level          slog.Level
	addSource      bool
	serviceName    string
	serviceVersion string
	environment    string
	redactKeys     []string
	registerGlobal bool
	color          *bool
}

// WithHandlerType sets the output format.
func WithHandlerType(t HandlerType) Option {
	return func(c *config) { c.handlerType = t }
}

// WithJSONHandler uses JSON structured logging (default).
func WithJSONHandler() Option {
	return WithHandlerType(JSONHandler)
}

// WithTextHandler uses text key=value logging.
func WithTextHandler() Option {
	return WithHandlerType(TextHandler)
}

// WithConsoleHandler uses human-readable console logging.
func WithConsoleHandler() Option {
	return WithHandlerType(ConsoleHandler)
}

// WithColor forces colors of the console handler on or off. By default
// colors are used when the output is a terminal and NO_COLOR is unset.
func WithColor(enabled bool) Option {
	return func(c *config) { c.color = &enabled }
}

// WithOutput sets the output writer. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithLevel sets the minimum log level. Defaults to info.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithSource enables source code location in logs.
func WithSource(enabled bool) Option {
	return func(c *config) { c.addSource = enabled }
}

// WithServiceName adds a service attribute to every record.
func WithServiceName(name string) Option {
	return func(c *config) { c.serviceName = name }
}

// WithServiceVersion adds a version attribute to every record.
func WithServiceVersion(version string) Option {
	return func(c *config) { c.serviceVersion = version }
}

// WithEnvironment adds an env attribute to every record.
func WithEnvironment(env string) Option {
	return func(c *config) { c.environment = env }
}

// WithRedactedKeys adds attribute keys whose values are replaced by
// "***". Matching is case-insensitive.
//
// Example:
//
//	logging.WithRedactedKeys("api_key", "session")
func WithRedactedKeys(keys ...string) Option {
	return func(c *config) { c.redactKeys = append(c.redactKeys, keys...) }
}

// WithGlobalLogger registers the logger as the slog default.
func WithGlobalLogger() Option {
	return func(c *config) { c.registerGlobal = true }
}
