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

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo caches dependency results for one request.
// Concurrent callers of the same key share one invocation.
type memo struct {
	group   singleflight.Group
	mu      sync.Mutex
	results map[string]memoEntry
}

type memoEntry struct {
	value any
	err   error
}

// panicked carries a dependency panic out of the shared invocation so that
// every waiting caller re-panics with the original value.
type panicked struct {
	value any
}

func (p *panicked) Error() string {
	return fmt.Sprintf("dependency panicked: %v", p.value)
}

func newMemo() *memo {
	return &memo{results: make(map[string]memoEntry)}
}

// do returns the cached result for key, calling fn at most once.
// hit is false only for the caller that ran fn.
func (m *memo) do(key string, fn func() (any, error)) (value any, hit bool, err error) {
	if e, ok := m.load(key); ok {
		return e.value, true, e.err
	}

	executed := false
	value, err, _ = m.group.Do(key, func() (v any, fnErr error) {
		if e, ok := m.load(key); ok {
			return e.value, e.err
		}
		executed = true
		defer func() {
			if p := recover(); p != nil {
				v, fnErr = nil, &panicked{value: p}
			}
		}()
		v, fnErr = fn()

		m.mu.Lock()
		m.results[key] = memoEntry{value: v, err: fnErr}
		m.mu.Unlock()

		return v, fnErr
	})

	var p *panicked
	if errors.As(err, &p) {
		panic(p.value)
	}

	return value, !executed, err
}

// seed stores the result of an uncached call unless key already has one,
// so later cached consumers reuse it.
func (m *memo) seed(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.results[key]; !ok {
		m.results[key] = memoEntry{value: value}
	}
}

func (m *memo) load(key string) (memoEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.results[key]

	return e, ok
}
