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

// Package types defines the core value types and service contracts shared
// across the I/O admission-control system: priority-class identities, fair
// ticket values, the request contract submitted to a queue, and the sentinel
// errors surfaced to callers.
//
// These types are deliberately small and copyable. Identity is numeric
// (`ClassID`); human-readable names live only in the priority-class registry
// and in published metrics.
package types
