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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iosched/ioqueue/pkg/ioqueue/types"
	logutil "github.com/iosched/ioqueue/pkg/util/logging"
)

func TestGroup_Limits(t *testing.T) {
	t.Parallel()
	g := NewGroup(GroupConfig{MaxRequestCount: 128, MaxByteCount: 1 << 20}, logutil.NewTestLogger())

	max := g.Max()
	assert.Equal(t, uint64(128), max.Weight)
	assert.Equal(t, uint64((1<<20)>>TicketSizeShift), max.Size,
		"byte limit is coarsened to ticket size units")
}

func TestGroup_AcquireRelease(t *testing.T) {
	t.Parallel()
	g := NewGroup(GroupConfig{MaxRequestCount: 128, MaxByteCount: 1 << 20}, logutil.NewTestLogger())

	before := g.Outstanding()
	ticket := types.Ticket{Weight: 2, Size: 24}

	g.acquire(ticket)
	assert.Equal(t, types.Ticket{Weight: 2, Size: 24}, g.Outstanding())

	g.release(ticket)
	assert.Equal(t, before, g.Outstanding(),
		"outstanding totals must return to their pre-admission value")
}

func TestGroup_ConcurrentAccounting(t *testing.T) {
	t.Parallel()
	g := NewGroup(GroupConfig{MaxRequestCount: 1 << 16, MaxByteCount: 1 << 30}, logutil.NewTestLogger())

	const workers = 16
	const perWorker = 100
	ticket := types.Ticket{Weight: 1, Size: 8}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				g.acquire(ticket)
				g.release(ticket)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, types.Ticket{}, g.Outstanding(),
		"balanced acquire/release pairs from many goroutines must cancel out")
}
