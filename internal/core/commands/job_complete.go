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
	"strings"

	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

// JobFinalizer is the slice of the job service this command needs: a partial
// update against one job record.
type JobFinalizer interface {
	Update(ctx context.Context, jobID string, uploadTimestamp string, fields map[string]interface{}) error
}

// JobComplete closes out the bookkeeping record after persistence. Partial
// caption failure still counts as done; the job only fails when segments
// existed and not a single one succeeded, and only when the
// failOnZeroSuccess policy is enabled.
type JobComplete struct {
	cor.BaseCommand
	jobs              JobFinalizer
	failOnZeroSuccess bool
}

// NewJobComplete creates the completion command.
func NewJobComplete(name string, jobs JobFinalizer, failOnZeroSuccess bool) *JobComplete {
	return &JobComplete{
		BaseCommand:       *cor.NewBaseCommand(name),
		jobs:              jobs,
		failOnZeroSuccess: failOnZeroSuccess,
	}
}

// Execute updates the job with the final counts and status.
func (c *JobComplete) Execute(context cor.Context) {
	summary := context.Get(c.GetInputParam()).(model.BatchSaveSummary)

	tracked, _ := context.Get(CtxJobTracked).(bool)
	if !tracked {
		// Degraded mode: nothing to close out.
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(c.GetOutputParam(), summary)
		return
	}

	trigger := context.Get(CtxVideoTrigger).(*model.VideoTrigger)
	slices, _ := context.Get(CtxSegmentSlices).([]model.SegmentSlice)
	total := len(slices)

	status := model.JobStatusDone
	fields := map[string]interface{}{
		"total_segments":     total,
		"processed_segments": summary.Saved,
	}
	if c.failOnZeroSuccess && total > 0 && summary.Saved == 0 {
		status = model.JobStatusFailed
		fields["error_message"] = fmt.Sprintf("all %d segments failed: %s",
			total, strings.Join(summary.Errors, "; "))
	}
	fields["status"] = status

	if err := c.jobs.Update(context.GetContext(), trigger.JobID, trigger.UploadTimestamp, fields); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize job %s: %w", trigger.JobID, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), summary)
}
