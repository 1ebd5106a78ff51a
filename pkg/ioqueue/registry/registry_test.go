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

package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosched/ioqueue/pkg/ioqueue/types"
)

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("ShouldReturnStableIdentity_WhenReRegisteredWithSameShares", func(t *testing.T) {
		t.Parallel()
		r := New()

		idLogs, err := r.Register("logs", 100)
		require.NoError(t, err, "first registration must succeed")

		idAgain, err := r.Register("logs", 100)
		require.NoError(t, err, "idempotent re-registration must succeed")
		assert.Equal(t, idLogs, idAgain, "identity must be stable across identical registrations")
		assert.Equal(t, 1, r.Len(), "re-registration must not occupy a second slot")
	})

	t.Run("ShouldAssignDistinctIdentities_ToDistinctNames", func(t *testing.T) {
		t.Parallel()
		r := New()

		idA, err := r.Register("commitlog", 1000)
		require.NoError(t, err)
		idB, err := r.Register("compaction", 400)
		require.NoError(t, err)

		assert.NotEqual(t, idA, idB, "distinct names must get distinct identities")

		name, shares, err := r.Lookup(idB)
		require.NoError(t, err)
		assert.Equal(t, "compaction", name)
		assert.Equal(t, uint32(400), shares)
	})

	t.Run("ShouldPanic_WhenSharesDifferForExistingName", func(t *testing.T) {
		t.Parallel()
		r := New()

		_, err := r.Register("logs", 100)
		require.NoError(t, err)

		// The mismatch is a structural precondition violation; it must never be
		// silently accepted or degraded into a recoverable error.
		assert.Panics(t, func() {
			_, _ = r.Register("logs", 50)
		}, "re-registering a name with different shares must fail loudly")
	})

	t.Run("ShouldFailWithCapacityExceeded_WhenTableIsFull", func(t *testing.T) {
		t.Parallel()
		r := NewWithCapacity(4)

		for i := 0; i < 4; i++ {
			_, err := r.Register(fmt.Sprintf("class-%d", i), 10)
			require.NoError(t, err, "registration %d should fit", i)
		}

		_, err := r.Register("overflow", 10)
		require.ErrorIs(t, err, types.ErrCapacityExceeded)
		assert.Equal(t, 4, r.Len(), "failed registration must leave no partial state")

		// Existing names must still resolve after the failed registration.
		id, err := r.Register("class-2", 10)
		require.NoError(t, err)
		assert.Equal(t, types.ClassID(2), id)
	})

	t.Run("ShouldRejectZeroShares", func(t *testing.T) {
		t.Parallel()
		r := New()
		_, err := r.Register("zero", 0)
		assert.ErrorIs(t, err, types.ErrInvalidShares, "zero shares would mark the slot as free")
	})

	t.Run("ShouldKeepIdentitiesStable_UnderConcurrentRegistration", func(t *testing.T) {
		t.Parallel()
		r := New()

		const workers = 8
		ids := make([]types.ClassID, workers)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			w := w
			go func() {
				defer wg.Done()
				id, err := r.Register("shared", 100)
				assert.NoError(t, err)
				ids[w] = id
			}()
		}
		wg.Wait()

		for w := 1; w < workers; w++ {
			assert.Equal(t, ids[0], ids[w], "all racing registrations of one name must observe one identity")
		}
	})
}

func TestRegistry_Rename(t *testing.T) {
	t.Parallel()

	t.Run("ShouldRename_ThenRejectCollision_ThenNoOp", func(t *testing.T) {
		t.Parallel()
		r := New()

		idA, err := r.Register("logs", 100)
		require.NoError(t, err)
		idB, err := r.Register("queries", 200)
		require.NoError(t, err)

		changed, err := r.Rename(idA, "audit")
		require.NoError(t, err)
		assert.True(t, changed, "rename to a fresh name must report a change")

		name, _, err := r.Lookup(idA)
		require.NoError(t, err)
		assert.Equal(t, "audit", name)

		_, err = r.Rename(idB, "audit")
		require.ErrorIs(t, err, types.ErrNameCollision,
			"renaming another identity to an existing name must fail")

		changed, err = r.Rename(idA, "audit")
		require.NoError(t, err)
		assert.False(t, changed, "renaming an identity to its current name is a no-op")
	})

	t.Run("ShouldFail_ForUnregisteredIdentity", func(t *testing.T) {
		t.Parallel()
		r := New()
		_, err := r.Rename(types.ClassID(7), "ghost")
		assert.ErrorIs(t, err, types.ErrClassNotRegistered)
	})
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()
	r := NewWithCapacity(2)

	_, _, err := r.Lookup(types.ClassID(0))
	assert.ErrorIs(t, err, types.ErrClassNotRegistered, "lookup of a free slot must fail")

	_, _, err = r.Lookup(types.ClassID(99))
	assert.ErrorIs(t, err, types.ErrClassNotRegistered, "lookup out of range must fail, not fault")
}
