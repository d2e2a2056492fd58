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

// Package model defines the data structures for the segmentation and
// captioning pipeline. This file holds the persistent records stored in
// BigQuery: one row per processing job and one row per successfully
// captioned segment.
package model

import (
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"
)

// Job lifecycle states.
const (
	JobStatusPending = "pending"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
	// JobStatusNotFound is returned by lookups, never stored.
	JobStatusNotFound = "not_found"
)

// Per-segment caption outcome states.
const (
	SegmentStatusSuccess = "success"
	SegmentStatusError   = "error"
)

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidJobID reports whether id is non-empty and contains only characters
// safe for object paths and queries.
func ValidJobID(id string) bool {
	return jobIDPattern.MatchString(id)
}

// Job is the bookkeeping record for one uploaded video. The logical key is
// (job_id, upload_timestamp): re-uploading under the same job id creates a
// new record rather than clobbering history.
type Job struct {
	JobID             string  `json:"job_id" bigquery:"job_id"`
	UploadTimestamp   string  `json:"upload_timestamp" bigquery:"upload_timestamp"`
	Status            string  `json:"status" bigquery:"status"`
	VideoFileName     string  `json:"video_file_name" bigquery:"video_file_name"`
	VideoURI          string  `json:"video_uri" bigquery:"video_uri"`
	VideoDuration     float64 `json:"video_duration" bigquery:"video_duration"`
	VideoSize         int64   `json:"video_size" bigquery:"video_size"`
	Resolution        string  `json:"resolution" bigquery:"resolution"`
	Codec             string  `json:"codec" bigquery:"codec"`
	ContentType       string  `json:"content_type" bigquery:"content_type"`
	TotalSegments     int     `json:"total_segments" bigquery:"total_segments"`
	ProcessedSegments int     `json:"processed_segments" bigquery:"processed_segments"`
	StartTime         string  `json:"start_time" bigquery:"start_time"`
	EndTime           string  `json:"end_time" bigquery:"end_time"`
	ErrorMessage      string  `json:"error_message" bigquery:"error_message"`
}

// Segment is one successfully captioned slice of a job's video. Rows are
// insert-only; the insert ID keyed on (job_id, start_time) makes redelivered
// work idempotent.
type Segment struct {
	JobID        string  `json:"job_id" bigquery:"job_id"`
	StartTime    int64   `json:"start_time" bigquery:"start_time"`
	EndTime      float64 `json:"end_time" bigquery:"end_time"`
	SegmentIndex int     `json:"segment_index" bigquery:"segment_index"`
	Caption      string  `json:"caption" bigquery:"caption"`
	ThreatLevel  string  `json:"threat_level" bigquery:"threat_level"`
	StorageURI   string  `json:"storage_uri" bigquery:"storage_uri"`
	CreatedAt    string  `json:"created_at" bigquery:"created_at"`
}

// InsertID returns the deduplication key for streaming inserts.
func (s *Segment) InsertID() string {
	return fmt.Sprintf("%s#%d", s.JobID, s.StartTime)
}

// Save implements bigquery.ValueSaver so the streaming inserter uses the
// deterministic insert ID instead of a random one.
func (s *Segment) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"job_id":        s.JobID,
		"start_time":    s.StartTime,
		"end_time":      s.EndTime,
		"segment_index": s.SegmentIndex,
		"caption":       s.Caption,
		"threat_level":  s.ThreatLevel,
		"storage_uri":   s.StorageURI,
		"created_at":    s.CreatedAt,
	}, s.InsertID(), nil
}
