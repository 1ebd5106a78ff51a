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

package contracts

import (
	"github.com/iosched/ioqueue/pkg/ioqueue/types"
)

// DispatchFunc is invoked by the `FairScheduler` exactly once per submitted
// ticket, when the ticket is admitted.
//
// # Conformance
//
// The scheduler MUST invoke it on the owning shard's task, and the function
// MUST NOT block or fail: it only updates counters and hands the request off
// to the execution engine.
type DispatchFunc func()

// ClassHandle is the scheduler-side registration of one priority class. It is
// obtained from `FairScheduler.RegisterClass` and stays valid until passed to
// `FairScheduler.UnregisterClass`.
type ClassHandle interface {
	// Shares returns the class's current share value.
	Shares() uint32

	// UpdateShares replaces the class's share value. It always succeeds once
	// the handle exists; the new value takes effect on subsequent dispatch
	// decisions.
	UpdateShares(shares uint32)
}

// FairScheduler is the consumed interface of the weighted-fair-queuing
// dispatch component. It decides *when* a queued ticket is allowed to run
// given the concurrent classes and their shares; the admission layer decides
// everything else.
//
// # Conformance
//
//   - `Submit` holds the ticket until admission, then invokes `dispatch`
//     exactly once, on the owning shard.
//   - `Release` MUST be called exactly once per admitted ticket, when its work
//     reaches a terminal completion.
type FairScheduler interface {
	// RegisterClass registers a new scheduling class with the given shares and
	// returns its handle. Registration cannot fail under normal capacity; an
	// error indicates the scheduler is shutting down.
	RegisterClass(shares uint32) (ClassHandle, error)

	// Submit queues a ticket for the given class. `dispatch` is invoked when
	// the scheduler admits the ticket.
	Submit(h ClassHandle, t types.Ticket, dispatch DispatchFunc)

	// Release returns an admitted ticket's scheduling capacity.
	Release(t types.Ticket)

	// UnregisterClass removes a class registration. Called at queue teardown,
	// once no further requests for the class will be submitted through the
	// owning queue.
	UnregisterClass(h ClassHandle) error
}

// Completer is the terminal contract of an in-flight request's completion
// descriptor. Logical ownership of the descriptor transfers to the
// `ExecutionEngine` at submission; from then on the engine MUST invoke exactly
// one of the two methods, exactly once in total.
type Completer interface {
	// Complete resolves the request with the number of bytes transferred and
	// releases its capacity.
	Complete(n uint64)

	// Fail resolves the request with a failure and releases its capacity.
	Fail(err error)
}

// ExecutionEngine is the consumed interface of the component that actually
// performs the I/O. The admission layer never inspects the request beyond
// sizing its ticket; the engine is expected to understand the concrete request
// type it is handed.
type ExecutionEngine interface {
	// Submit takes ownership of the descriptor and starts the operation. The
	// engine must uphold the `Completer` exactly-once contract; the admission
	// layer does not defend against violations beyond failing loudly.
	Submit(c Completer, req types.Request)
}
