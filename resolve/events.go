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

package resolve

import "time"

// Events contains hooks called during resolution. All hooks are optional
// and may be called concurrently when [WithConcurrentDependencies] is set.
//
// Example:
//
//	resolve.WithEvents(resolve.Events{
//	    DependencyCalled: func(name string, d time.Duration, err error) {
//	        log.Printf("%s took %s", name, d)
//	    },
//	})
type Events struct {
	// InputResolved is called for every parameter and body input.
	// source is the location ("query", "body", ...); found is false when the
	// default was used or the input was missing.
	InputResolved func(dependant, input, source string, found bool)

	// DependencyCalled is called after a dependant function returns.
	DependencyCalled func(name string, duration time.Duration, err error)

	// CacheHit is called when a cached dependency result is reused.
	CacheHit func(name string)

	// Done is called once per resolution with its statistics.
	Done func(stats Stats)
}

// Stats summarizes one resolution.
type Stats struct {
	Dependant       string        // Root dependant name
	InputsResolved  int           // Parameter and body inputs processed
	DependencyCalls int           // Dependant functions invoked, root included
	CacheHits       int           // Cached results reused
	Duration        time.Duration // Total resolution time
	Err             error         // Resolution error, nil on success
}
