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

import "context"

type contextKey uint8

const ownerShardContextKey contextKey = iota

// OwnerShardWithContext tags a context with the owner shard on whose behalf
// subsequent queue operations run. Per-class state is keyed by owner shard,
// and everything after admission executes on the owning shard only.
func OwnerShardWithContext(ctx context.Context, shard uint32) context.Context {
	return context.WithValue(ctx, ownerShardContextKey, shard)
}

// OwnerShardFromContext returns the owner shard carried by the context, or
// shard 0 when none was set.
func OwnerShardFromContext(ctx context.Context) uint32 {
	if shard, ok := ctx.Value(ownerShardContextKey).(uint32); ok {
		return shard
	}
	return 0
}
