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

// Package registry implements the process-wide priority-class registry: a
// bounded table mapping small numeric identities to (name, shares) pairs.
//
// A single registry instance is shared by every I/O queue in the process, and
// its one mutex is the only cross-shard synchronization point in the admission
// subsystem besides the capacity group's atomics. Critical sections contain
// nothing but short table scans, so the lock cannot be held across fallible
// external calls.
//
// The registry is an explicitly constructed object rather than ambient
// process state, so tests can run with independent registries.
package registry

import (
	"fmt"
	"sync"

	"github.com/iosched/ioqueue/pkg/ioqueue/types"
)

// MaxClasses is the default identity capacity of a registry.
const MaxClasses = 256

// slot is one identity's entry. A slot with zero shares is free; slots are
// never individually freed, so the occupied slots always form a prefix of the
// table.
type slot struct {
	name   string
	shares uint32
}

// Registry is a bounded, mutex-protected priority-class table.
type Registry struct {
	mu    sync.Mutex
	slots []slot
}

// New creates a registry with the default `MaxClasses` capacity.
func New() *Registry {
	return NewWithCapacity(MaxClasses)
}

// NewWithCapacity creates a registry with an explicit identity capacity.
// Intended for tests that exercise capacity exhaustion.
func NewWithCapacity(capacity int) *Registry {
	return &Registry{slots: make([]slot, capacity)}
}

// Register resolves `name` to a class identity, occupying the first free slot
// if the name is new. Registration is idempotent: registering an existing
// name with the same shares returns the existing identity.
//
// Registering an existing name with different shares panics: the caller holds
// inconsistent views of one class, which is a structural invariant violation,
// not a recoverable condition. Note the registered shares are only the
// class's initial value; the live value may change later through the fair
// scheduler's class handle.
//
// Returns an error wrapping `types.ErrInvalidShares` for zero shares, and one
// wrapping `types.ErrCapacityExceeded` when no free slot remains; both leave
// the table untouched.
func (r *Registry) Register(name string, shares uint32) (types.ClassID, error) {
	if shares == 0 {
		return 0, fmt.Errorf("cannot register class %q: %w", name, types.ErrInvalidShares)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		s := &r.slots[i]
		switch {
		case s.shares == 0:
			// First free slot. Occupied slots form a prefix, so the name is
			// guaranteed absent from the rest of the table.
			s.name = name
			s.shares = shares
		case s.name != name:
			continue
		case s.shares != shares:
			panic(fmt.Sprintf(
				"ioqueue: priority class %q re-registered with %d shares, already registered with %d",
				name, shares, s.shares))
		}
		return types.ClassID(i), nil
	}
	return 0, fmt.Errorf("cannot register class %q: %w", name, types.ErrCapacityExceeded)
}

// Rename assigns a new name to an existing identity. It returns false with no
// error when the identity already carries `newName`, and an error wrapping
// `types.ErrNameCollision` when `newName` belongs to a different identity.
func (r *Registry) Rename(id types.ClassID, newName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		if r.slots[i].shares == 0 {
			break
		}
		if r.slots[i].name == newName {
			if types.ClassID(i) == id {
				return false, nil
			}
			return false, fmt.Errorf("cannot rename class %d to %q: %w", id, newName, types.ErrNameCollision)
		}
	}
	if int(id) >= len(r.slots) || r.slots[id].shares == 0 {
		return false, fmt.Errorf("cannot rename class %d: %w", id, types.ErrClassNotRegistered)
	}
	r.slots[id].name = newName
	return true, nil
}

// Lookup returns the name and registered shares for an identity. It returns
// an error wrapping `types.ErrClassNotRegistered` for an unoccupied slot.
func (r *Registry) Lookup(id types.ClassID) (string, uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(id) >= len(r.slots) || r.slots[id].shares == 0 {
		return "", 0, fmt.Errorf("cannot look up class %d: %w", id, types.ErrClassNotRegistered)
	}
	return r.slots[id].name, r.slots[id].shares, nil
}

// Len returns the number of occupied identity slots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		if r.slots[i].shares == 0 {
			return i
		}
	}
	return len(r.slots)
}
