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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/visionaree/gcp-go-video-caption/internal/core/commands"
	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

// TestSegmentUploadFailsSlicesOnExpiredContext verifies the upload fan-out
// honors its deadline: once the context is gone every slice comes back as an
// isolated failure, without the workers ever reaching for the bucket. The
// nil storage client proves no network path is touched.
func TestSegmentUploadFailsSlicesOnExpiredContext(t *testing.T) {
	command := commands.NewSegmentUpload("upload-segments", nil, 2, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slices := []model.SegmentSlice{
		{Index: 0, Start: 0, End: 5},
		{Index: 1, Start: 5, End: 10},
	}
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.CtxVideoTrigger, &model.VideoTrigger{
		JobID:  "cam-42-20241011",
		Bucket: "surveillance_video_store",
	})
	chainCtx.Add(cor.CtxIn, slices)

	command.Execute(chainCtx)

	outcomes, ok := chainCtx.Get(cor.CtxOut).([]model.UploadOutcome)
	assert.True(t, ok)
	assert.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.Error(t, outcome.Err)
		assert.ErrorIs(t, outcome.Err, context.Canceled)
	}
}
