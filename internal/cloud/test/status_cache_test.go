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

// Package cloud_test contains unit tests for the job status cache, backed
// by an in-process miniredis server.
package cloud_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/visionaree/gcp-go-video-caption/internal/cloud"
)

func newTestCache(t *testing.T, ttlSeconds int) (*cloud.StatusCache, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cloud.NewStatusCache(client, ttlSeconds), server
}

func TestStatusCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, 15)

	_, ok := cache.GetStatus(ctx, "cam-1")
	assert.False(t, ok)

	cache.SetStatus(ctx, "cam-1", "pending")
	status, ok := cache.GetStatus(ctx, "cam-1")
	assert.True(t, ok)
	assert.Equal(t, "pending", status)

	cache.Invalidate(ctx, "cam-1")
	_, ok = cache.GetStatus(ctx, "cam-1")
	assert.False(t, ok)
}

func TestStatusCacheEntriesExpire(t *testing.T) {
	ctx := context.Background()
	cache, server := newTestCache(t, 2)

	cache.SetStatus(ctx, "cam-1", "done")
	server.FastForward(3 * time.Second)

	_, ok := cache.GetStatus(ctx, "cam-1")
	assert.False(t, ok)
}

// TestStatusCacheDisabled verifies every method is a safe no-op when the
// cache was built without a client, which is how deployments without Redis
// run.
func TestStatusCacheDisabled(t *testing.T) {
	ctx := context.Background()

	for _, cache := range []*cloud.StatusCache{
		nil,
		cloud.NewStatusCache(nil, 15),
	} {
		cache.SetStatus(ctx, "cam-1", "pending")
		_, ok := cache.GetStatus(ctx, "cam-1")
		assert.False(t, ok)
		cache.Invalidate(ctx, "cam-1")
	}
}
