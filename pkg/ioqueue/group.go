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

	"github.com/go-logr/logr"

	"github.com/iosched/ioqueue/pkg/ioqueue/types"
	logutil "github.com/iosched/ioqueue/pkg/util/logging"
)

// GroupConfig bounds the total outstanding work a capacity group admits.
type GroupConfig struct {
	// MaxRequestCount is the maximum outstanding request-count equivalent
	// (sum of admitted ticket weights).
	MaxRequestCount uint64
	// MaxByteCount is the maximum outstanding byte-volume equivalent, in
	// bytes. It is coarsened by `TicketSizeShift` internally.
	MaxByteCount uint64
}

// Group is the shared capacity limiter one or more queues draw tickets from.
// It models several logical queues backed by one physical device: every queue
// referencing the group charges admitted tickets against the same outstanding
// totals.
//
// All accounting is atomic; a group may be shared freely across queues and
// shards. Its lifetime is simply the union of its referencing queues.
type Group struct {
	maxWeight uint64
	maxSize   uint64

	outstandingWeight atomic.Uint64
	outstandingSize   atomic.Uint64
}

// NewGroup creates a capacity group with the given limits.
func NewGroup(cfg GroupConfig, logger logr.Logger) *Group {
	g := &Group{
		maxWeight: cfg.MaxRequestCount,
		maxSize:   cfg.MaxByteCount >> TicketSizeShift,
	}
	logger.V(logutil.DEBUG).Info("Created capacity group",
		"maxRequestCount", g.maxWeight, "maxTicketSize", g.maxSize)
	return g
}

// Max returns the group's admission limits as a ticket, with size in
// coarsened units.
func (g *Group) Max() types.Ticket {
	return types.Ticket{Weight: g.maxWeight, Size: g.maxSize}
}

// Outstanding returns a snapshot of the currently admitted ticket totals.
func (g *Group) Outstanding() types.Ticket {
	return types.Ticket{
		Weight: g.outstandingWeight.Load(),
		Size:   g.outstandingSize.Load(),
	}
}

// acquire charges a ticket against the group at admission time. The group
// records consumption only; enforcement of the limits is the fair scheduler's
// concern.
func (g *Group) acquire(t types.Ticket) {
	g.outstandingWeight.Add(t.Weight)
	g.outstandingSize.Add(t.Size)
}

// release returns a ticket's capacity. Called exactly once per acquired
// ticket, from the completion descriptor's terminal transition.
func (g *Group) release(t types.Ticket) {
	// Adding the two's complement is the standard atomic way to subtract from
	// a Uint64.
	g.outstandingWeight.Add(^(t.Weight - 1))
	g.outstandingSize.Add(^(t.Size - 1))
}
