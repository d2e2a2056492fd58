// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/visionaree/gcp-go-video-caption/internal/core/pool"
)

// TestMapPreservesOrder verifies results land at their input index even
// though workers finish out of order.
func TestMapPreservesOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9, 2, 7}
	results := pool.Map(context.Background(), items, 3, func(_ context.Context, index int, item int) int {
		return item * 10
	})

	assert.Len(t, results, len(items))
	for i, item := range items {
		assert.Equal(t, item*10, results[i])
	}
}

// TestMapClampsWorkers verifies concurrency never exceeds the worker cap
// and that degenerate worker counts still process everything.
func TestMapClampsWorkers(t *testing.T) {
	var active, peak int64
	var mu sync.Mutex

	items := make([]int, 20)
	results := pool.Map(context.Background(), items, 4, func(_ context.Context, index int, _ int) int {
		current := atomic.AddInt64(&active, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		atomic.AddInt64(&active, -1)
		return index
	})
	assert.Len(t, results, 20)
	assert.LessOrEqual(t, peak, int64(4))

	// Zero and negative worker counts are clamped to one.
	results = pool.Map(context.Background(), []int{1, 2, 3}, 0, func(_ context.Context, index int, item int) int {
		return item
	})
	assert.Equal(t, []int{1, 2, 3}, results)

	// Empty input short-circuits.
	assert.Nil(t, pool.Map(context.Background(), nil, 4, func(_ context.Context, _ int, item int) int {
		return item
	}))
}
