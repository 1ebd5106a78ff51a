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

// Package mocks provides test doubles for the interfaces defined in the
// `contracts` package.
//
// The queue under test is an asynchronous orchestrator, so these mocks are
// deliberately stateful and goroutine-safe rather than bare stubs: the
// scheduler mock holds submitted tickets until a test decides to admit them,
// and the engine mock holds descriptors until a test completes or fails them.
// That makes the admission → dispatch → completion sequence fully
// deterministic in tests. Function-field overrides allow injecting specific
// failures.
package mocks

import (
	"sync"
	"sync/atomic"

	"github.com/iosched/ioqueue/pkg/ioqueue/contracts"
	"github.com/iosched/ioqueue/pkg/ioqueue/types"
)

// --- FairScheduler mocks ---

// MockClassHandle is a scheduler class registration that just remembers its
// share value.
type MockClassHandle struct {
	shares atomic.Uint32
}

// NewMockClassHandle creates a handle with the given initial shares.
func NewMockClassHandle(shares uint32) *MockClassHandle {
	h := &MockClassHandle{}
	h.shares.Store(shares)
	return h
}

func (h *MockClassHandle) Shares() uint32             { return h.shares.Load() }
func (h *MockClassHandle) UpdateShares(shares uint32) { h.shares.Store(shares) }

var _ contracts.ClassHandle = &MockClassHandle{}

// submission is one ticket held by the mock scheduler awaiting admission.
type submission struct {
	handle   contracts.ClassHandle
	ticket   types.Ticket
	dispatch contracts.DispatchFunc
}

// MockFairScheduler is a stateful fair scheduler double. Submitted tickets
// queue in FIFO order until the test admits them with `AdmitNext` or
// `AdmitAll`; released tickets and unregistered handles are recorded for
// assertions.
type MockFairScheduler struct {
	RegisterClassFunc   func(shares uint32) (contracts.ClassHandle, error)
	UnregisterClassFunc func(h contracts.ClassHandle) error

	mu           sync.Mutex
	pending      []submission
	registered   []contracts.ClassHandle
	unregistered []contracts.ClassHandle
	released     []types.Ticket
}

var _ contracts.FairScheduler = &MockFairScheduler{}

func (m *MockFairScheduler) RegisterClass(shares uint32) (contracts.ClassHandle, error) {
	if m.RegisterClassFunc != nil {
		return m.RegisterClassFunc(shares)
	}
	h := NewMockClassHandle(shares)
	m.mu.Lock()
	m.registered = append(m.registered, h)
	m.mu.Unlock()
	return h, nil
}

func (m *MockFairScheduler) Submit(h contracts.ClassHandle, t types.Ticket, dispatch contracts.DispatchFunc) {
	m.mu.Lock()
	m.pending = append(m.pending, submission{handle: h, ticket: t, dispatch: dispatch})
	m.mu.Unlock()
}

func (m *MockFairScheduler) Release(t types.Ticket) {
	m.mu.Lock()
	m.released = append(m.released, t)
	m.mu.Unlock()
}

func (m *MockFairScheduler) UnregisterClass(h contracts.ClassHandle) error {
	if m.UnregisterClassFunc != nil {
		return m.UnregisterClassFunc(h)
	}
	m.mu.Lock()
	m.unregistered = append(m.unregistered, h)
	m.mu.Unlock()
	return nil
}

// AdmitNext admits the oldest held ticket, invoking its dispatch callback on
// the calling goroutine. It returns false if nothing is queued.
func (m *MockFairScheduler) AdmitNext() bool {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		return false
	}
	next := m.pending[0]
	m.pending = m.pending[1:]
	m.mu.Unlock()

	// Dispatch runs outside the lock, like a real scheduler's poll loop.
	next.dispatch()
	return true
}

// AdmitAll admits every held ticket in submission order and returns how many
// were dispatched.
func (m *MockFairScheduler) AdmitAll() int {
	n := 0
	for m.AdmitNext() {
		n++
	}
	return n
}

// QueuedLen returns the number of tickets held awaiting admission.
func (m *MockFairScheduler) QueuedLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Registered returns the class handles issued so far.
func (m *MockFairScheduler) Registered() []contracts.ClassHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contracts.ClassHandle(nil), m.registered...)
}

// Unregistered returns the class handles unregistered so far.
func (m *MockFairScheduler) Unregistered() []contracts.ClassHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contracts.ClassHandle(nil), m.unregistered...)
}

// Released returns the tickets released so far.
func (m *MockFairScheduler) Released() []types.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Ticket(nil), m.released...)
}

// --- ExecutionEngine mocks ---

// MockSubmission is one descriptor held by the mock engine.
type MockSubmission struct {
	Completer contracts.Completer
	Request   types.Request
}

// MockExecutionEngine is a stateful execution engine double. Submissions are
// held until the test resolves them through the descriptor, emulating the
// engine's ownership of the in-flight request.
type MockExecutionEngine struct {
	SubmitFunc func(c contracts.Completer, req types.Request)

	mu          sync.Mutex
	submissions []MockSubmission
}

var _ contracts.ExecutionEngine = &MockExecutionEngine{}

func (m *MockExecutionEngine) Submit(c contracts.Completer, req types.Request) {
	if m.SubmitFunc != nil {
		m.SubmitFunc(c, req)
		return
	}
	m.mu.Lock()
	m.submissions = append(m.submissions, MockSubmission{Completer: c, Request: req})
	m.mu.Unlock()
}

// Submissions returns the descriptors handed to the engine so far.
func (m *MockExecutionEngine) Submissions() []MockSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockSubmission(nil), m.submissions...)
}

// --- Request mocks ---

// MockRequest is a minimal `types.Request` for tests.
type MockRequest struct {
	OpKind types.OpKind
	ReqID  string
}

func (r *MockRequest) Op() types.OpKind { return r.OpKind }
func (r *MockRequest) ID() string       { return r.ReqID }

var _ types.Request = &MockRequest{}
