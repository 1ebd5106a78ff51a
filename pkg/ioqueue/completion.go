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

package ioqueue

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/iosched/ioqueue/pkg/ioqueue/contracts"
	"github.com/iosched/ioqueue/pkg/ioqueue/types"
	logutil "github.com/iosched/ioqueue/pkg/util/logging"
)

// PendingRequest is the caller's handle to one admitted request's eventual
// result. It is a single-producer, single-consumer promise: the completion
// descriptor resolves it exactly once, and the caller observes the terminal
// (bytes, error) pair after `Done` is closed.
type PendingRequest struct {
	// done is closed exactly once, when the request reaches its terminal
	// completion.
	done chan struct{}
	// n and err hold the terminal result. They are written exactly once,
	// before `done` is closed.
	n   atomic.Uint64
	err atomic.Value // stores error
}

func newPendingRequest() *PendingRequest {
	return &PendingRequest{done: make(chan struct{})}
}

// Done returns a channel that is closed when the request has completed or
// failed. It is designed for use in a `select` alongside other events.
func (p *PendingRequest) Done() <-chan struct{} {
	return p.done
}

// Result returns the terminal result: the number of bytes transferred, or the
// failure reported by the execution engine (wrapping
// `types.ErrExecutionFailure`).
//
// It must only be called after the channel returned by `Done` has been
// closed.
func (p *PendingRequest) Result() (uint64, error) {
	if e, ok := p.err.Load().(error); ok {
		return 0, e
	}
	return p.n.Load(), nil
}

// Wait blocks until the request completes or the context is cancelled. Note
// that cancellation only abandons the wait: an admitted request always runs to
// its terminal completion and its capacity is released regardless.
func (p *PendingRequest) Wait(ctx context.Context) (uint64, error) {
	select {
	case <-p.done:
		return p.Result()
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// resolve publishes the terminal result and wakes the consumer. Callers must
// hold the completion descriptor's terminal transition.
func (p *PendingRequest) resolve(n uint64, err error) {
	if err != nil {
		p.err.Store(err)
	} else {
		p.n.Store(n)
	}
	close(p.done)
}

// Completion is the lifecycle descriptor of one in-flight request. It owns
// the request's ticket from admission until the single terminal transition,
// at which point it releases the ticket's capacity and resolves the caller's
// `PendingRequest`.
//
// Logical ownership of the descriptor transfers to the execution engine at
// submission. The engine must invoke exactly one of `Complete` or `Fail`,
// exactly once in total; a second terminal call panics.
type Completion struct {
	q      *Queue
	ticket types.Ticket
	reqID  string

	pending *PendingRequest

	// settled guards the terminal transition. The CAS is both the
	// exactly-once enforcement and the publication point for the release.
	settled atomic.Bool
}

var _ contracts.Completer = &Completion{}

func newCompletion(q *Queue, ticket types.Ticket, reqID string) *Completion {
	return &Completion{
		q:       q,
		ticket:  ticket,
		reqID:   reqID,
		pending: newPendingRequest(),
	}
}

// Complete resolves the request with the number of bytes transferred,
// releasing its capacity first.
func (c *Completion) Complete(n uint64) {
	c.settle()
	c.q.logger.V(logutil.TRACE).Info("Request complete", "requestID", c.reqID, "bytes", n)
	c.pending.resolve(n, nil)
}

// Fail resolves the request with the failure reported by the execution
// engine, releasing its capacity first. The caller observes the error wrapped
// in `types.ErrExecutionFailure`.
func (c *Completion) Fail(err error) {
	c.settle()
	c.q.logger.V(logutil.TRACE).Info("Request failed", "requestID", c.reqID, "cause", err)
	c.pending.resolve(0, fmt.Errorf("%w: %w", types.ErrExecutionFailure, err))
}

// settle performs the single terminal transition: it releases the ticket back
// to the capacity group and the scheduler, and decrements the queue's
// executing counter. A repeated call is a violated structural invariant and
// fails loudly.
func (c *Completion) settle() {
	if !c.settled.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("ioqueue: completion descriptor for request %q finalized twice", c.reqID))
	}
	c.q.notifyRequestFinished(c.ticket)
}
