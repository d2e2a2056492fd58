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

// Package model_test contains unit tests for the persistent data models:
// job id validation and the segment streaming-insert behavior.
package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

func TestValidJobID(t *testing.T) {
	valid := []string{"cam-42-20241011", "JOB_1", "a", "0", "A-b_C-9"}
	for _, id := range valid {
		assert.True(t, model.ValidJobID(id), "expected %q to be valid", id)
	}

	invalid := []string{"", "job/1", "job 1", "job#1", "../etc", "job.1", "jøb"}
	for _, id := range invalid {
		assert.False(t, model.ValidJobID(id), "expected %q to be invalid", id)
	}
}

// TestSegmentInsertID verifies the deduplication key is derived from the
// job id and start time, so a redelivered batch writes the same IDs and
// the streaming inserter drops the duplicates.
func TestSegmentInsertID(t *testing.T) {
	segment := &model.Segment{JobID: "cam-42-20241011", StartTime: 30}
	assert.Equal(t, "cam-42-20241011#30", segment.InsertID())

	other := &model.Segment{JobID: "cam-42-20241011", StartTime: 60}
	assert.NotEqual(t, segment.InsertID(), other.InsertID())
}

// TestSegmentSave verifies the ValueSaver implementation emits every column
// and reuses the deterministic insert ID.
func TestSegmentSave(t *testing.T) {
	segment := &model.Segment{
		JobID:        "cam-7",
		StartTime:    90,
		EndTime:      120,
		SegmentIndex: 3,
		Caption:      "A delivery van stops at the loading dock.",
		ThreatLevel:  "low",
		StorageURI:   "gs://surveillance_video_store/videos/cam-7/segments/90.mp4",
		CreatedAt:    "2024-10-11T03:05:01Z",
	}

	row, insertID, err := segment.Save()
	assert.NoError(t, err)
	assert.Equal(t, segment.InsertID(), insertID)
	assert.Equal(t, segment.JobID, row["job_id"])
	assert.Equal(t, segment.StartTime, row["start_time"])
	assert.Equal(t, segment.EndTime, row["end_time"])
	assert.Equal(t, segment.SegmentIndex, row["segment_index"])
	assert.Equal(t, segment.Caption, row["caption"])
	assert.Equal(t, segment.ThreatLevel, row["threat_level"])
	assert.Equal(t, segment.StorageURI, row["storage_uri"])
	assert.Equal(t, segment.CreatedAt, row["created_at"])
}
