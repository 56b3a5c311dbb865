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

// Package logging builds the [slog.Logger] used across the service.
//
// Loggers write JSON (default), key=value text or colored console output,
// attach service metadata to every record, redact credential attributes
// and add trace_id/span_id when the context carries an OpenTelemetry span.
//
//	logger := logging.MustNew(
//	    logging.WithConsoleHandler(),
//	    logging.WithServiceName("users-api"),
//	    logging.WithLevel(slog.LevelDebug),
//	)
//	r := resolve.MustNew(resolve.WithLogger(logger))
package logging
