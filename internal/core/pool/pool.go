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

// Package pool provides a bounded-concurrency map used by the upload and
// caption fan-out stages.
package pool

import (
	"context"
	"sync"
)

// Map runs fn over every item using at most workers goroutines and returns
// the results ordered by input index. The worker count is clamped to
// [1, len(items)]. Per-item failures are the callback's business: fold them
// into the result type so one bad item never affects its siblings.
func Map[T any, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, index int, item T) R) []R {
	if len(items) == 0 {
		return nil
	}
	if workers > len(items) {
		workers = len(items)
	}
	if workers < 1 {
		workers = 1
	}

	type job struct {
		index int
		item  T
	}

	jobs := make(chan job)
	results := make([]R, len(items))
	var waitGroup sync.WaitGroup

	for w := 0; w < workers; w++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for j := range jobs {
				results[j.index] = fn(ctx, j.index, j.item)
			}
		}()
	}

	for i := range items {
		jobs <- job{index: i, item: items[i]}
	}
	close(jobs)
	waitGroup.Wait()

	return results
}
