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
	"log/slog"

	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/core/services"
)

// CaptionPersist writes the successful caption results to the segment table
// and outputs the batch summary for the completion step.
type CaptionPersist struct {
	cor.BaseCommand
	segments *services.SegmentService
}

// NewCaptionPersist creates the persistence command.
func NewCaptionPersist(name string, segments *services.SegmentService) *CaptionPersist {
	return &CaptionPersist{BaseCommand: *cor.NewBaseCommand(name), segments: segments}
}

// Execute persists the batch and outputs its summary.
func (c *CaptionPersist) Execute(context cor.Context) {
	results := context.Get(c.GetInputParam()).([]model.SegmentResult)

	summary := c.segments.PersistBatch(context.GetContext(), results)
	slog.InfoContext(context.GetContext(), "segment batch persisted",
		"saved", summary.Saved, "failed", summary.Failed)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), summary)
}
