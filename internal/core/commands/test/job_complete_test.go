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

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/visionaree/gcp-go-video-caption/internal/core/commands"
	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

// fakeJobFinalizer records the final update so tests can inspect the fields
// the completion step stamps on the job record.
type fakeJobFinalizer struct {
	jobID     string
	timestamp string
	fields    map[string]interface{}
	err       error
}

func (f *fakeJobFinalizer) Update(_ context.Context, jobID string, uploadTimestamp string, fields map[string]interface{}) error {
	f.jobID = jobID
	f.timestamp = uploadTimestamp
	f.fields = fields
	return f.err
}

// newTrackedContext builds a chain context for a tracked job with the given
// slice count and persistence summary.
func newTrackedContext(total int, summary model.BatchSaveSummary) cor.Context {
	slices := make([]model.SegmentSlice, total)
	for i := range slices {
		slices[i] = model.SegmentSlice{Index: i, Start: int64(i * 5)}
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(commands.CtxJobTracked, true)
	chainCtx.Add(commands.CtxVideoTrigger, &model.VideoTrigger{
		JobID:           "cam-42-20241011",
		UploadTimestamp: "2024-10-11T03:04:08.672Z",
	})
	chainCtx.Add(commands.CtxSegmentSlices, slices)
	chainCtx.Add(cor.CtxIn, summary)
	return chainCtx
}

// TestJobCompleteDegradedMode verifies the finalize step passes the summary
// through without touching the job store when the job record was never
// created. The service is nil on purpose: reaching for it would panic.
func TestJobCompleteDegradedMode(t *testing.T) {
	command := commands.NewJobComplete("finalize-job", nil, true)

	summary := model.BatchSaveSummary{Saved: 3, Failed: 1, Errors: []string{"segment 30: model unavailable"}}
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(commands.CtxJobTracked, false)
	chainCtx.Add(cor.CtxIn, summary)

	command.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	out, ok := chainCtx.Get(cor.CtxOut).(model.BatchSaveSummary)
	assert.True(t, ok)
	assert.Equal(t, summary, out)
}

// TestJobCompleteFailsOnZeroSuccess covers the failure policy: segments
// existed, none were saved, and the policy flag is on, so the job must land
// on failed with the collected reasons in error_message.
func TestJobCompleteFailsOnZeroSuccess(t *testing.T) {
	finalizer := &fakeJobFinalizer{}
	command := commands.NewJobComplete("finalize-job", finalizer, true)

	summary := model.BatchSaveSummary{
		Saved:  0,
		Failed: 2,
		Errors: []string{"segment 0: upload failed", "segment 5: model unavailable"},
	}
	chainCtx := newTrackedContext(2, summary)

	command.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "cam-42-20241011", finalizer.jobID)
	assert.Equal(t, "2024-10-11T03:04:08.672Z", finalizer.timestamp)
	assert.Equal(t, model.JobStatusFailed, finalizer.fields["status"])
	assert.Equal(t, 2, finalizer.fields["total_segments"])
	assert.Equal(t, 0, finalizer.fields["processed_segments"])
	message, ok := finalizer.fields["error_message"].(string)
	assert.True(t, ok)
	assert.Contains(t, message, "all 2 segments failed")
	assert.Contains(t, message, "model unavailable")
}

// TestJobCompletePartialSuccessIsDone verifies partial caption failure still
// closes the job as done, with processed below total and no error_message.
func TestJobCompletePartialSuccessIsDone(t *testing.T) {
	finalizer := &fakeJobFinalizer{}
	command := commands.NewJobComplete("finalize-job", finalizer, true)

	summary := model.BatchSaveSummary{
		Saved:  2,
		Failed: 1,
		Errors: []string{"segment 10: caption timed out"},
	}
	chainCtx := newTrackedContext(3, summary)

	command.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, model.JobStatusDone, finalizer.fields["status"])
	assert.Equal(t, 3, finalizer.fields["total_segments"])
	assert.Equal(t, 2, finalizer.fields["processed_segments"])
	_, hasErrorMessage := finalizer.fields["error_message"]
	assert.False(t, hasErrorMessage)
}

// TestJobCompleteZeroSuccessWithPolicyOff verifies the flag is the deciding
// policy parameter: with it off, even a fully failed batch closes as done.
func TestJobCompleteZeroSuccessWithPolicyOff(t *testing.T) {
	finalizer := &fakeJobFinalizer{}
	command := commands.NewJobComplete("finalize-job", finalizer, false)

	summary := model.BatchSaveSummary{Saved: 0, Failed: 2, Errors: []string{"segment 0: upload failed", "segment 5: upload failed"}}
	chainCtx := newTrackedContext(2, summary)

	command.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, model.JobStatusDone, finalizer.fields["status"])
	assert.Equal(t, 0, finalizer.fields["processed_segments"])
}

// TestJobCompleteReportsUpdateFailure verifies a store error surfaces as a
// chain error so the message is redelivered instead of silently acked.
func TestJobCompleteReportsUpdateFailure(t *testing.T) {
	finalizer := &fakeJobFinalizer{err: errors.New("table not found")}
	command := commands.NewJobComplete("finalize-job", finalizer, true)

	chainCtx := newTrackedContext(1, model.BatchSaveSummary{Saved: 1})

	command.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}
