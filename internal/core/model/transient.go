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

// This file contains the in-memory structures passed between workflow
// commands. They are never persisted in this form.
package model

import (
	"context"
	"fmt"
)

// VideoTrigger is the validated result of parsing a storage notification for
// an original video upload.
type VideoTrigger struct {
	Bucket          string
	JobID           string
	Filename        string
	Object          string // full object path within the bucket
	Size            int64
	ContentType     string
	UploadTimestamp string
}

// ProbeResult holds the container and stream facts read from a video file
// before splitting.
type ProbeResult struct {
	Duration float64 // seconds
	Codec    string
	Width    int
	Height   int
	Format   string
}

// Resolution renders the probe dimensions as "WIDTHxHEIGHT", or empty when
// no video stream was found.
func (p ProbeResult) Resolution() string {
	if p.Width == 0 && p.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// SegmentSlice is one planned or encoded slice of the source video. Start is
// whole seconds and doubles as the output filename stem, which keeps the
// index, the timestamp, and the object name bijectively linked.
type SegmentSlice struct {
	Index     int
	Start     int64
	End       float64
	LocalPath string
}

// UploadOutcome is the per-slice result of the upload fan-out.
type UploadOutcome struct {
	Slice      SegmentSlice
	StorageURI string
	Err        error
}

// TokenUsage counts model tokens consumed by one caption call.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// SegmentResult is the per-segment outcome of the caption fan-out. Status is
// SegmentStatusSuccess or SegmentStatusError; an empty caption with success
// status is a valid result (nothing noteworthy in frame).
type SegmentResult struct {
	JobID        string
	SegmentIndex int
	StartTime    int64
	EndTime      float64
	StorageURI   string
	Status       string
	Caption      string
	ThreatLevel  string
	ErrorReason  string
	Usage        TokenUsage
}

// BatchSaveSummary reports how a batch of segment results was persisted.
type BatchSaveSummary struct {
	Saved  int      `json:"saved_count"`
	Failed int      `json:"failed_count"`
	Errors []string `json:"errors"`
}

// MediaRef points the captioning capability at a video: either a storage URI
// or inline bytes, never both.
type MediaRef struct {
	URI      string
	Data     []byte
	MIMEType string
}

// CaptionOptions tunes a single caption call.
type CaptionOptions struct {
	IncludeThreatAssessment bool
	UserContext             string // untrusted free text folded into the prompt
}

// CaptionOutput is the parsed response of a caption call.
type CaptionOutput struct {
	Caption     string     `json:"caption"`
	ThreatLevel string     `json:"threat_level"`
	Usage       TokenUsage `json:"usage"`
}

// CaptionCapability describes one observable-events caption call against a
// vision model. Implementations must be safe for concurrent use.
type CaptionCapability interface {
	Caption(ctx context.Context, ref MediaRef, opts CaptionOptions) (CaptionOutput, error)
}
