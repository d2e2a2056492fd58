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
	"time"

	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/core/services"
)

// JobCreate writes the initial pending record for a run. A store failure is
// deliberately non-fatal: processing a video is worth more than tracking it,
// so the command flags degraded mode and passes the trigger through.
type JobCreate struct {
	cor.BaseCommand
	jobs *services.JobService
}

// NewJobCreate creates the bookkeeping command.
func NewJobCreate(name string, jobs *services.JobService) *JobCreate {
	return &JobCreate{BaseCommand: *cor.NewBaseCommand(name), jobs: jobs}
}

// Execute creates the job record and records whether bookkeeping is live.
func (c *JobCreate) Execute(context cor.Context) {
	trigger := context.Get(c.GetInputParam()).(*model.VideoTrigger)

	job := &model.Job{
		JobID:           trigger.JobID,
		UploadTimestamp: trigger.UploadTimestamp,
		Status:          model.JobStatusPending,
		VideoFileName:   trigger.Filename,
		VideoURI:        fmt.Sprintf("gs://%s/%s", trigger.Bucket, trigger.Object),
		VideoSize:       trigger.Size,
		ContentType:     trigger.ContentType,
		StartTime:       time.Now().UTC().Format(time.RFC3339),
	}

	tracked := c.jobs.Create(context.GetContext(), job)
	if tracked {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
	} else {
		c.GetErrorCounter().Add(context.GetContext(), 1)
	}

	context.Add(CtxJobTracked, tracked)
	context.Add(c.GetOutputParam(), trigger)
}
