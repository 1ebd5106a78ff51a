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

// Package contracts defines the interfaces the I/O queue consumes from its
// external collaborators: the weighted-fair scheduler that decides when a
// queued ticket may run, and the execution engine that performs the actual
// operation and reports its completion.
//
// The queue is written against these contracts only. Concrete scheduler and
// engine implementations live outside the admission-control core; the
// `mocks` subpackage provides high-fidelity test doubles.
package contracts
