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

package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/core/pool"
)

// SegmentCaption runs the caption capability over the uploaded segments with
// a small worker pool; the model is the rate-limited resource, so the cap
// stays low regardless of segment count. Failures are isolated per segment
// and become error results rather than chain errors. Results are sorted by
// start time before hand-off since pool workers finish out of order.
type SegmentCaption struct {
	cor.BaseCommand
	captioner model.CaptionCapability
	workers   int
}

// NewSegmentCaption creates the caption fan-out command.
func NewSegmentCaption(name string, captioner model.CaptionCapability, workers int) *SegmentCaption {
	return &SegmentCaption{BaseCommand: *cor.NewBaseCommand(name), captioner: captioner, workers: workers}
}

func (c *SegmentCaption) captionOne(ctx context.Context, trigger *model.VideoTrigger, outcome model.UploadOutcome) model.SegmentResult {
	result := model.SegmentResult{
		JobID:        trigger.JobID,
		SegmentIndex: outcome.Slice.Index,
		StartTime:    outcome.Slice.Start,
		EndTime:      outcome.Slice.End,
		StorageURI:   outcome.StorageURI,
	}

	if outcome.Err != nil {
		result.Status = model.SegmentStatusError
		result.ErrorReason = fmt.Sprintf("upload failed: %v", outcome.Err)
		return result
	}

	caption, err := c.captioner.Caption(ctx,
		model.MediaRef{URI: outcome.StorageURI, MIMEType: "video/mp4"},
		model.CaptionOptions{IncludeThreatAssessment: true})
	if err != nil {
		result.Status = model.SegmentStatusError
		result.ErrorReason = err.Error()
		return result
	}

	// An empty caption is still a success: nothing noteworthy in frame.
	result.Status = model.SegmentStatusSuccess
	result.Caption = caption.Caption
	result.ThreatLevel = caption.ThreatLevel
	result.Usage = caption.Usage
	return result
}

// Execute captions every uploaded segment and outputs the results ordered by
// start time.
func (c *SegmentCaption) Execute(chCtx cor.Context) {
	outcomes := chCtx.Get(c.GetInputParam()).([]model.UploadOutcome)
	trigger := chCtx.Get(CtxVideoTrigger).(*model.VideoTrigger)

	results := pool.Map(chCtx.GetContext(), outcomes, c.workers,
		func(ctx context.Context, _ int, outcome model.UploadOutcome) model.SegmentResult {
			return c.captionOne(ctx, trigger, outcome)
		})

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartTime < results[j].StartTime
	})

	c.GetSuccessCounter().Add(chCtx.GetContext(), 1)
	chCtx.Add(c.GetOutputParam(), results)
}
