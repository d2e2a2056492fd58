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

// Package services_test contains unit tests for the data services. These
// cover the paths that run before any BigQuery round trip; the queries
// themselves are exercised by the integration environment.
package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/core/services"
	"github.com/zeebo/assert"
)

// TestPersistBatchCountsErrorResults verifies error results are summarized
// without ever reaching the inserter, so a batch where everything failed
// needs no client at all.
func TestPersistBatchCountsErrorResults(t *testing.T) {
	service := &services.SegmentService{}

	results := []model.SegmentResult{
		{JobID: "cam-1", StartTime: 0, Status: model.SegmentStatusError, ErrorReason: "upload failed: connection reset"},
		{JobID: "cam-1", StartTime: 30, Status: model.SegmentStatusError, ErrorReason: "model unavailable"},
	}

	summary := service.PersistBatch(context.Background(), results)
	assert.Equal(t, 0, summary.Saved)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, len(summary.Errors))
	assert.True(t, strings.Contains(summary.Errors[0], "segment 0"))
	assert.True(t, strings.Contains(summary.Errors[0], "connection reset"))
	assert.True(t, strings.Contains(summary.Errors[1], "segment 30"))
}

func TestPersistBatchEmptyInput(t *testing.T) {
	service := &services.SegmentService{}

	summary := service.PersistBatch(context.Background(), nil)
	assert.Equal(t, 0, summary.Saved)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, len(summary.Errors))
}
