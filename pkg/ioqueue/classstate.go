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
	"sync/atomic"
	"time"

	"github.com/iosched/ioqueue/pkg/ioqueue/contracts"
)

// classState is one (owner shard, priority class) accumulator within a queue.
// It is created lazily on the first request referencing the pair and lives
// until the queue is closed.
//
// The counters are mutated only by the owning shard's callbacks, but they are
// atomics so metrics collectors can read them from the scrape goroutine
// without coordination.
type classState struct {
	// handle is the class's registration with the external fair scheduler.
	// Set at creation, immutable afterwards.
	handle contracts.ClassHandle

	bytes  atomic.Uint64
	ops    atomic.Uint64
	queued atomic.Uint64
	// queueDelay is the admission-to-dispatch interval of the most recently
	// dispatched request, in nanoseconds. Execution time is excluded.
	queueDelay atomic.Int64

	metrics *classMetrics
}

func newClassState(handle contracts.ClassHandle) *classState {
	cs := &classState{handle: handle}
	// Matches the delay reported before the first dispatch is observed.
	cs.queueDelay.Store(int64(time.Second))
	return cs
}

// recordDispatch applies the dispatch-time bookkeeping for one request: the
// class stops counting it as queued, accumulates its volume, and notes its
// queuing delay.
func (cs *classState) recordDispatch(length uint64, delay time.Duration) {
	cs.queued.Add(^uint64(0))
	cs.ops.Add(1)
	cs.bytes.Add(length)
	cs.queueDelay.Store(delay.Nanoseconds())
}
