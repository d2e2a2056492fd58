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

// fakeCaptioner captions by URI lookup and fails on request.
type fakeCaptioner struct {
	captions map[string]string
	failURI  string
}

func (f *fakeCaptioner) Caption(_ context.Context, ref model.MediaRef, _ model.CaptionOptions) (model.CaptionOutput, error) {
	if ref.URI == f.failURI {
		return model.CaptionOutput{}, errors.New("model unavailable")
	}
	return model.CaptionOutput{
		Caption:     f.captions[ref.URI],
		ThreatLevel: "low",
		Usage:       model.TokenUsage{InputTokens: 100, OutputTokens: 20},
	}, nil
}

func outcome(index int, start int64, end float64, uri string, err error) model.UploadOutcome {
	return model.UploadOutcome{
		Slice:      model.SegmentSlice{Index: index, Start: start, End: end},
		StorageURI: uri,
		Err:        err,
	}
}

// TestSegmentCaptionIsolatesFailures verifies one failed upload and one
// failed caption call become error results without touching their siblings,
// and that the output comes back ordered by start time.
func TestSegmentCaptionIsolatesFailures(t *testing.T) {
	captioner := &fakeCaptioner{
		captions: map[string]string{
			"gs://bucket/videos/cam-1/segments/0.mp4":  "A person walks through the lobby.",
			"gs://bucket/videos/cam-1/segments/10.mp4": "",
		},
		failURI: "gs://bucket/videos/cam-1/segments/15.mp4",
	}
	command := commands.NewSegmentCaption("caption-segments", captioner, 2)

	trigger := &model.VideoTrigger{JobID: "cam-1", UploadTimestamp: "2024-10-11T03:04:08Z"}
	// Deliberately out of order to exercise the sort.
	outcomes := []model.UploadOutcome{
		outcome(2, 10, 15, "gs://bucket/videos/cam-1/segments/10.mp4", nil),
		outcome(0, 0, 5, "gs://bucket/videos/cam-1/segments/0.mp4", nil),
		outcome(3, 15, 18, "gs://bucket/videos/cam-1/segments/15.mp4", nil),
		outcome(1, 5, 10, "", errors.New("connection reset")),
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(commands.CtxVideoTrigger, trigger)
	chainCtx.Add(cor.CtxIn, outcomes)

	command.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	results, ok := chainCtx.Get(cor.CtxOut).([]model.SegmentResult)
	assert.True(t, ok)
	assert.Len(t, results, 4)

	// Ordered by start time regardless of worker completion order.
	starts := []int64{results[0].StartTime, results[1].StartTime, results[2].StartTime, results[3].StartTime}
	assert.Equal(t, []int64{0, 5, 10, 15}, starts)

	assert.Equal(t, model.SegmentStatusSuccess, results[0].Status)
	assert.Equal(t, "A person walks through the lobby.", results[0].Caption)
	assert.Equal(t, "cam-1", results[0].JobID)
	assert.Equal(t, int64(100), results[0].Usage.InputTokens)

	// Upload failure surfaces as an error result.
	assert.Equal(t, model.SegmentStatusError, results[1].Status)
	assert.Contains(t, results[1].ErrorReason, "upload failed")

	// An empty caption is still a success, nothing noteworthy in frame.
	assert.Equal(t, model.SegmentStatusSuccess, results[2].Status)
	assert.Equal(t, "", results[2].Caption)

	// Caption failure surfaces as an error result.
	assert.Equal(t, model.SegmentStatusError, results[3].Status)
	assert.Contains(t, results[3].ErrorReason, "model unavailable")
}
