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

// Package commands provides the concrete Chain of Responsibility command
// implementations for the video segmentation and captioning workflow.
package commands

// Well-known context keys for values that later commands need beside the
// chain's primary in/out piping.
const (
	// CtxVideoTrigger holds the *model.VideoTrigger for the whole run.
	CtxVideoTrigger = "__VIDEO_TRIGGER__"
	// CtxProbeResult holds the model.ProbeResult for the source video.
	CtxProbeResult = "__PROBE_RESULT__"
	// CtxSegmentSlices holds the []model.SegmentSlice produced by the split.
	CtxSegmentSlices = "__SEGMENT_SLICES__"
	// CtxJobTracked marks whether the bookkeeping record was created. When
	// false, the pipeline runs in degraded mode and skips job updates.
	CtxJobTracked = "__JOB_TRACKED__"
)
