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

import "fmt"

// ClassID is the opaque identity of a registered priority class. It is an
// index into the registry's fixed-capacity slot table and is only valid if it
// was returned by a successful registration against that registry.
type ClassID uint32

// OpKind identifies the kind of disk operation a request performs. The ticket
// sizing policy weighs reads and writes differently because writes are
// typically costlier on the backing medium.
type OpKind uint8

const (
	// OpRead is a read from the backing device.
	OpRead OpKind = iota
	// OpWrite is a write to the backing device.
	OpWrite
)

// String returns a human-readable name for the operation kind, for logging.
func (k OpKind) String() string {
	switch k {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Ticket is a two-dimensional claim against a capacity `Group`: a request
// count equivalent (`Weight`) and a byte-volume equivalent (`Size`). `Size`
// is expressed in coarsened units (bytes right-shifted by the configured
// granularity shift) to bound its magnitude.
//
// A ticket is created at admission time and must be matched by exactly one
// release at the request's terminal completion.
type Ticket struct {
	Weight uint64
	Size   uint64
}

// String formats the ticket as "weight:size" for trace logging.
func (t Ticket) String() string {
	return fmt.Sprintf("%d:%d", t.Weight, t.Size)
}

// Request is the contract for a unit of I/O work submitted to a queue. It
// carries only what admission control needs; execution engines that require
// richer data (offsets, buffers) type-assert to their own request types, using
// this interface as the escape hatch.
type Request interface {
	// Op returns the kind of operation this request performs. Admission fails
	// synchronously with `ErrUnsupportedOperation` for kinds the ticket sizing
	// policy does not recognize.
	Op() OpKind

	// ID returns an optional caller-facing identifier used for logging and
	// tracing only. It plays no role in scheduling decisions.
	ID() string
}
