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
	"log/slog"

	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/media"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/core/services"
)

// VideoProbe reads the duration and stream facts of the downloaded file. A
// probe failure is fatal for the run: without a duration there is nothing to
// split. On success it refines the job record with the probed metadata.
type VideoProbe struct {
	cor.BaseCommand
	prober media.Prober
	jobs   *services.JobService
}

// NewVideoProbe creates the probe command.
func NewVideoProbe(name string, prober media.Prober, jobs *services.JobService) *VideoProbe {
	return &VideoProbe{BaseCommand: *cor.NewBaseCommand(name), prober: prober, jobs: jobs}
}

// Execute probes the local file, stores the result, and passes the path on.
func (c *VideoProbe) Execute(context cor.Context) {
	localPath := context.Get(c.GetInputParam()).(string)

	probe, err := c.prober.Probe(context.GetContext(), localPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("probe failed: %w", err))
		return
	}

	context.Add(CtxProbeResult, probe)

	if tracked, ok := context.Get(CtxJobTracked).(bool); ok && tracked {
		trigger := context.Get(CtxVideoTrigger).(*model.VideoTrigger)
		err := c.jobs.Update(context.GetContext(), trigger.JobID, trigger.UploadTimestamp, map[string]interface{}{
			"video_duration": probe.Duration,
			"codec":          probe.Codec,
			"resolution":     probe.Resolution(),
		})
		if err != nil {
			// Metadata refinement is bookkeeping; the run continues.
			slog.WarnContext(context.GetContext(), "failed to update job metadata",
				"job_id", trigger.JobID, "error", err)
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), localPath)
}
