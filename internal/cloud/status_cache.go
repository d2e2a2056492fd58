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

package cloud

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const statusKeyPrefix = "job_status:"

// StatusCache is a short-TTL Redis cache in front of the latest-status
// lookup. Status polling is the hottest read path and the backing store is
// an analytical one, so even a few seconds of caching absorbs most of the
// load. All methods are safe on a nil receiver or nil client, which is how
// the cache is disabled.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache builds a cache around the given client. A nil client or a
// non-positive TTL yields a disabled cache.
func NewStatusCache(client *redis.Client, ttlSeconds int) *StatusCache {
	if client == nil || ttlSeconds <= 0 {
		return &StatusCache{}
	}
	return &StatusCache{client: client, ttl: time.Duration(ttlSeconds) * time.Second}
}

// GetStatus returns the cached latest status for a job and whether it was
// present. Cache errors are treated as misses.
func (c *StatusCache) GetStatus(ctx context.Context, jobID string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	value, err := c.client.Get(ctx, statusKeyPrefix+jobID).Result()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "status cache read failed", "job_id", jobID, "error", err)
		}
		return "", false
	}
	return value, true
}

// SetStatus stores the latest status for a job. Failures are logged and
// otherwise ignored; the store remains the source of truth.
func (c *StatusCache) SetStatus(ctx context.Context, jobID string, status string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, statusKeyPrefix+jobID, status, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "status cache write failed", "job_id", jobID, "error", err)
	}
}

// Invalidate drops the cached status for a job. Called on every job update
// so pollers never see a stale terminal state longer than one round trip.
func (c *StatusCache) Invalidate(ctx context.Context, jobID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statusKeyPrefix+jobID).Err(); err != nil {
		slog.WarnContext(ctx, "status cache invalidation failed", "job_id", jobID, "error", err)
	}
}
