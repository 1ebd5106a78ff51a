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

package types

import "errors"

// --- Synchronous validation errors ---

// These surface to the caller before any shared state is mutated. Callers
// should branch on them with `errors.Is`.
var (
	// ErrCapacityExceeded indicates the priority-class registry has no free
	// identity slot left.
	ErrCapacityExceeded = errors.New("no free priority class slot")

	// ErrNameCollision indicates a rename target name already belongs to a
	// different identity.
	ErrNameCollision = errors.New("priority class name already in use")

	// ErrInvalidShares indicates a registration with zero shares. Shares must
	// be positive; a zero value would mark the registry slot as free.
	ErrInvalidShares = errors.New("priority class shares must be positive")

	// ErrClassNotRegistered indicates a `ClassID` whose registry slot is not
	// occupied was passed to an operation.
	ErrClassNotRegistered = errors.New("priority class not registered")

	// ErrUnsupportedOperation indicates the ticket sizing policy received an
	// operation kind it does not recognize. This is returned before any ticket
	// is admitted, so no capacity can leak.
	ErrUnsupportedOperation = errors.New("unsupported I/O operation kind")
)

// --- Asynchronous errors ---

var (
	// ErrExecutionFailure wraps a failure reported by the execution engine for
	// an admitted request. It is delivered only through the request's result,
	// after the request's capacity has been released.
	ErrExecutionFailure = errors.New("I/O execution failed")
)
