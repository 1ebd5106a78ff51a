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

// Package ioqueue implements the admission-control and bookkeeping layer
// between application code issuing disk I/O and the asynchronous components
// that execute it.
//
// A `Queue` accepts requests tagged with a priority class, converts each into
// a weighted ticket against a shared capacity `Group`, holds it with the
// external fair scheduler until admission, hands it to the execution engine,
// and delivers exactly one completion back to the caller while releasing the
// consumed capacity.
//
// # Concurrency model
//
// A `Queue` is driven cooperatively: each owner shard runs a single logical
// task, and per-(owner, class) state is mutated only by that shard's own
// callbacks. Cross-shard synchronization is confined to the priority-class
// registry's lock and the capacity group's atomics; all other state is
// shard-local.
//
// # Resource safety
//
// The completion descriptor structurally owns its ticket: capacity is acquired
// at admission and released in the descriptor's single terminal transition, so
// a ticket can neither leak nor be released twice. Violations of the
// exactly-once contract by the execution engine panic rather than degrade.
package ioqueue
