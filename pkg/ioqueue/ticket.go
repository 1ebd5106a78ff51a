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
	"fmt"

	"github.com/iosched/ioqueue/pkg/ioqueue/types"
)

const (
	// TicketSizeShift coarsens ticket sizes to 512-byte granularity, bounding
	// their magnitude against the capacity group's counters.
	TicketSizeShift = 9

	// readRequestBaseCount is the base cost unit a read contributes to both
	// ticket dimensions. Write costs are expressed as multiples of it.
	readRequestBaseCount = 1
)

// sizeTicket is the pure ticket sizing policy: it maps an operation kind and
// byte length to the two-dimensional ticket the request will consume.
//
// Writes are weighted by the configured multipliers because they are
// typically costlier than reads on the backing medium; the multipliers let
// the weighting reflect that without touching the scheduler's algorithm.
func sizeTicket(op types.OpKind, length uint64, cfg Config) (types.Ticket, error) {
	var weight, size uint64
	switch op {
	case types.OpRead:
		weight = readRequestBaseCount
		size = readRequestBaseCount * length
	case types.OpWrite:
		weight = uint64(cfg.ReqWriteMultiplier)
		size = uint64(cfg.BytesWriteMultiplier) * length
	default:
		return types.Ticket{}, fmt.Errorf("%w: %s", types.ErrUnsupportedOperation, op)
	}
	return types.Ticket{Weight: weight, Size: size >> TicketSizeShift}, nil
}
