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
	"fmt"
	"os"

	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/media"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

// SegmentSplit encodes the downloaded video into fixed-length slices. Any
// encode failure aborts the whole run; a partial slice list would make the
// segment counts lie.
type SegmentSplit struct {
	cor.BaseCommand
	splitter       *media.Splitter
	segmentSeconds int
}

// NewSegmentSplit creates the split command.
func NewSegmentSplit(name string, splitter *media.Splitter, segmentSeconds int) *SegmentSplit {
	return &SegmentSplit{
		BaseCommand:    *cor.NewBaseCommand(name),
		splitter:       splitter,
		segmentSeconds: segmentSeconds,
	}
}

// Execute splits the local file into slices and outputs them.
func (c *SegmentSplit) Execute(context cor.Context) {
	localPath := context.Get(c.GetInputParam()).(string)
	probe := context.Get(CtxProbeResult).(model.ProbeResult)

	outDir, err := os.MkdirTemp("", "segments-")
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("could not create segment directory: %w", err))
		return
	}

	slices, err := c.splitter.Split(context.GetContext(), localPath, probe.Duration, c.segmentSeconds, outDir)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	for _, slice := range slices {
		context.AddTempFile(slice.LocalPath)
	}
	// Registered after the slice files so cleanup empties the directory
	// before removing it.
	context.AddTempFile(outDir)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxSegmentSlices, slices)
	context.Add(c.GetOutputParam(), slices)
}
