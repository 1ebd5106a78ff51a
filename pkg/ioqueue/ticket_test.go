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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosched/ioqueue/pkg/ioqueue/types"
)

func TestSizeTicket(t *testing.T) {
	t.Parallel()

	cfg := Config{ReqWriteMultiplier: 2, BytesWriteMultiplier: 3}

	t.Run("ShouldUseBaseUnit_ForReads", func(t *testing.T) {
		t.Parallel()
		ticket, err := sizeTicket(types.OpRead, 4096, cfg)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), ticket.Weight, "a read costs one base request unit")
		assert.Equal(t, uint64(4096>>TicketSizeShift), ticket.Size,
			"read size is the byte length coarsened by the granularity shift")
	})

	t.Run("ShouldApplyMultipliers_ForWrites", func(t *testing.T) {
		t.Parallel()
		ticket, err := sizeTicket(types.OpWrite, 4096, cfg)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), ticket.Weight, "write weight is the request multiplier")
		assert.Equal(t, uint64((3*4096)>>TicketSizeShift), ticket.Size,
			"write size scales the byte length by the byte multiplier before the shift")
	})

	t.Run("ShouldFail_ForUnrecognizedOperationKinds", func(t *testing.T) {
		t.Parallel()
		_, err := sizeTicket(types.OpKind(42), 4096, cfg)
		assert.ErrorIs(t, err, types.ErrUnsupportedOperation)
	})

	t.Run("ShouldCoarsenSubGranularityRequests_ToZeroSize", func(t *testing.T) {
		t.Parallel()
		ticket, err := sizeTicket(types.OpRead, 100, cfg)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), ticket.Weight)
		assert.Zero(t, ticket.Size, "requests below the granularity unit still cost their weight")
	})
}
