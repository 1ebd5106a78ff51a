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
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"

	"github.com/iosched/ioqueue/pkg/ioqueue/contracts"
	"github.com/iosched/ioqueue/pkg/ioqueue/registry"
	"github.com/iosched/ioqueue/pkg/ioqueue/types"
	logutil "github.com/iosched/ioqueue/pkg/util/logging"
)

// Config carries one queue's identity and ticket sizing multipliers.
type Config struct {
	// DeviceID identifies the backing device, for logging only.
	DeviceID uint32

	// Mountpoint is the target identifier published as a metrics label.
	Mountpoint string

	// ReqWriteMultiplier is the request-count cost of one write, in read
	// units. Defaults to 1.
	ReqWriteMultiplier uint32

	// BytesWriteMultiplier is the byte cost of one written byte, in read
	// units. Defaults to 1.
	BytesWriteMultiplier uint32

	// MetricsRegisterer receives the per-class collectors. Defaults to
	// `prometheus.DefaultRegisterer`.
	MetricsRegisterer prometheus.Registerer
}

func (c *Config) setDefaults() {
	if c.ReqWriteMultiplier == 0 {
		c.ReqWriteMultiplier = 1
	}
	if c.BytesWriteMultiplier == 0 {
		c.BytesWriteMultiplier = 1
	}
	if c.MetricsRegisterer == nil {
		c.MetricsRegisterer = prometheus.DefaultRegisterer
	}
}

// QueueStats is a point-in-time snapshot of a queue's request counters.
type QueueStats struct {
	// QueuedRequests is the number of admitted requests still held by the
	// fair scheduler.
	QueuedRequests uint64
	// RequestsExecuting is the number of requests handed to the execution
	// engine and not yet completed.
	RequestsExecuting uint64
}

// Queue is the request lifecycle manager for one scheduling domain: it admits
// requests against a capacity `Group`, tracks per-class state, and shepherds
// every request through dispatch, submission, and its exactly-once
// completion.
//
// Construction wires the queue to its collaborators; all of them are shared
// or external: the priority-class registry (process-wide), the capacity group
// (per physical device), the fair scheduler, and the execution engine.
type Queue struct {
	// --- Immutable dependencies (set at construction) ---

	cfg      Config
	logger   logr.Logger
	clock    clock.PassiveClock
	group    *Group
	sched    contracts.FairScheduler
	engine   contracts.ExecutionEngine
	registry *registry.Registry

	// --- Per-class state (cold-path lock) ---

	// mu guards the topology of the two-level classes table. The table is a
	// sparse structure indexed by owner shard then class identity, grown on
	// demand and never shrunk. Entry counters are atomics and are read
	// without the lock.
	mu      sync.RWMutex
	classes [][]*classState

	// --- Queue-wide counters (lock-free) ---

	queuedRequests    atomic.Uint64
	requestsExecuting atomic.Uint64

	closed atomic.Bool
}

// queueOption applies a configuration change to a Queue.
// test-only
type queueOption func(*Queue)

// withClock replaces the queue's clock.
// test-only
func withClock(c clock.PassiveClock) queueOption {
	return func(q *Queue) { q.clock = c }
}

// NewQueue creates a request lifecycle manager drawing capacity from `group`.
// Multiple queues may share one group (and always share one registry); the
// group's accounting and the registry's lock are the only cross-queue
// synchronization points.
func NewQueue(
	reg *registry.Registry,
	group *Group,
	sched contracts.FairScheduler,
	engine contracts.ExecutionEngine,
	cfg Config,
	logger logr.Logger,
	opts ...queueOption,
) *Queue {
	cfg.setDefaults()
	q := &Queue{
		cfg:      cfg,
		logger:   logger.WithName("io-queue").WithValues("device", cfg.DeviceID, "mountpoint", cfg.Mountpoint),
		clock:    clock.RealClock{},
		group:    group,
		sched:    sched,
		engine:   engine,
		registry: reg,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger.V(logutil.DEBUG).Info("Created I/O queue",
		"reqWriteMultiplier", cfg.ReqWriteMultiplier,
		"bytesWriteMultiplier", cfg.BytesWriteMultiplier)
	return q
}

// QueueRequest admits one request for the given priority class and returns
// its pending result immediately. The result resolves asynchronously once the
// fair scheduler admits the request's ticket and the execution engine reports
// its completion.
//
// Validation errors (an unregistered class, an unrecognized operation kind)
// surface synchronously, before any capacity is consumed.
//
// The owner shard is taken from the context; admission and everything after
// it execute on that shard only.
func (q *Queue) QueueRequest(
	ctx context.Context,
	pc types.ClassID,
	length uint64,
	req types.Request,
) (*PendingRequest, error) {
	start := q.clock.Now()
	owner := OwnerShardFromContext(ctx)

	cs, err := q.findOrCreateClass(pc, owner)
	if err != nil {
		return nil, err
	}

	ticket, err := sizeTicket(req.Op(), length, q.cfg)
	if err != nil {
		return nil, err
	}

	desc := newCompletion(q, ticket, req.ID())
	q.logger.V(logutil.TRACE).Info("Request queued",
		"requestID", req.ID(), "length", length, "ticket", ticket, "shard", owner)

	// Counters and capacity move before the scheduler sees the ticket, so a
	// dispatch callback can never observe them early.
	cs.queued.Add(1)
	q.queuedRequests.Add(1)
	q.group.acquire(ticket)

	q.sched.Submit(cs.handle, ticket, func() {
		q.dispatch(cs, desc, req, length, start)
	})
	return desc.pending, nil
}

// dispatch is invoked by the fair scheduler exactly once per admitted ticket,
// on the owning shard. It must not block: it only moves the request's
// bookkeeping from queued to executing and hands off to the execution engine,
// which owns the descriptor from here on.
func (q *Queue) dispatch(cs *classState, desc *Completion, req types.Request, length uint64, start time.Time) {
	q.queuedRequests.Add(^uint64(0))
	q.requestsExecuting.Add(1)
	cs.recordDispatch(length, q.clock.Since(start))

	q.logger.V(logutil.TRACE).Info("Request submitted", "requestID", req.ID())
	q.engine.Submit(desc, req)
}

// notifyRequestFinished is the single release point for an admitted ticket,
// reached through the completion descriptor's terminal transition.
func (q *Queue) notifyRequestFinished(t types.Ticket) {
	q.requestsExecuting.Add(^uint64(0))
	q.group.release(t)
	q.sched.Release(t)
}

// UpdateSharesForClass forwards a new share value to the class's scheduler
// registration on the calling shard, creating the per-class state if this is
// the shard's first reference to the class.
func (q *Queue) UpdateSharesForClass(ctx context.Context, pc types.ClassID, shares uint32) error {
	cs, err := q.findOrCreateClass(pc, OwnerShardFromContext(ctx))
	if err != nil {
		return err
	}
	cs.handle.UpdateShares(shares)
	return nil
}

// RenamePriorityClass re-publishes the class's metrics under its new registry
// name, on every owner shard that has state for it. The registry itself is
// renamed separately (`registry.Rename`); this call propagates the result to
// this queue's published observability.
func (q *Queue) RenamePriorityClass(pc types.ClassID, newName string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for owner := range q.classes {
		if int(pc) < len(q.classes[owner]) && q.classes[owner][pc] != nil {
			cs := q.classes[owner][pc]
			cs.metrics.rename(cs, newName)
		}
	}
}

// Stats returns a snapshot of the queue-wide request counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		QueuedRequests:    q.queuedRequests.Load(),
		RequestsExecuting: q.requestsExecuting.Load(),
	}
}

// Close tears the queue down: it unregisters every per-class scheduler
// registration and retires the published metrics.
//
// It is illegal to close a queue with requests still queued or executing;
// every admitted ticket must reach its terminal completion first. Closing
// with pending requests is a violated structural invariant and panics.
func (q *Queue) Close() error {
	if stats := q.Stats(); stats.QueuedRequests != 0 || stats.RequestsExecuting != 0 {
		panic(fmt.Sprintf("ioqueue: queue for %q closed with %d queued and %d executing requests",
			q.cfg.Mountpoint, stats.QueuedRequests, stats.RequestsExecuting))
	}
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var errs *multierror.Error
	for owner := range q.classes {
		for id, cs := range q.classes[owner] {
			if cs == nil {
				continue
			}
			if err := q.sched.UnregisterClass(cs.handle); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("unregistering class %d on shard %d: %w", id, owner, err))
			}
			cs.metrics.unregister()
		}
	}
	q.classes = nil
	q.logger.V(logutil.DEFAULT).Info("I/O queue closed")
	return errs.ErrorOrNil()
}

// findOrCreateClass resolves the per-class state for (pc, owner), creating it
// on first use: the registry supplies the class's current name and shares,
// the fair scheduler issues the class handle, and the stats block is
// published to the metrics registerer labeled by shard, mountpoint and class
// name. Subsequent lookups return the existing entry.
func (q *Queue) findOrCreateClass(pc types.ClassID, owner uint32) (*classState, error) {
	q.mu.RLock()
	if int(owner) < len(q.classes) && int(pc) < len(q.classes[owner]) {
		if cs := q.classes[owner][pc]; cs != nil {
			q.mu.RUnlock()
			return cs, nil
		}
	}
	q.mu.RUnlock()

	name, shares, err := q.registry.Lookup(pc)
	if err != nil {
		return nil, err
	}
	handle, err := q.sched.RegisterClass(shares)
	if err != nil {
		return nil, fmt.Errorf("registering class %q with the fair scheduler: %w", name, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	// Another task on this shard cannot race us here, but a lookup from a
	// different owner may have grown the table meanwhile.
	for int(owner) >= len(q.classes) {
		q.classes = append(q.classes, nil)
	}
	for int(pc) >= len(q.classes[owner]) {
		q.classes[owner] = append(q.classes[owner], nil)
	}
	if cs := q.classes[owner][pc]; cs != nil {
		_ = q.sched.UnregisterClass(handle)
		return cs, nil
	}

	cs := newClassState(handle)
	cs.metrics = newClassMetrics(q.cfg.MetricsRegisterer, q.logger, cs, owner, q.cfg.Mountpoint, name)
	q.classes[owner][pc] = cs
	q.logger.V(logutil.DEBUG).Info("Created priority class state",
		"class", name, "classID", pc, "shard", owner, "shares", shares)
	return cs, nil
}
