/*
Copyright 2026 The iosched Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logging

// Shared verbosity levels for the whole module, used as arguments to
// `logr.Logger.V()`.
const (
	// DEFAULT is for informational messages that should be visible in normal operation.
	DEFAULT = 1
	// VERBOSE is for messages useful when observing the system's behavior over time.
	VERBOSE = 2
	// DEBUG is for messages useful when debugging a specific component.
	DEBUG = 3
	// TRACE is for per-request messages on the hot path.
	TRACE = 4
)
