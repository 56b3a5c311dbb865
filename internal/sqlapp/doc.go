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

// Package sqlapp is the users and items tutorial service.
//
// It stores users and their items in SQLite and serves them over chi.
// Every route is a resolve.Dependant: a cached get_db dependency hands each
// request its own database connection, closed after the response, and GET
// /me is guarded by a JWT security dependency requiring the "me" scope.
package sqlapp
