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

// Package media_test contains unit tests for segment planning and the
// splitter, using a fake encoder so no ffmpeg binary is needed.
package media_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/visionaree/gcp-go-video-caption/internal/core/media"
)

func TestPlanSegments(t *testing.T) {
	// 12s at 5s segments: three slices, last one short.
	slices := media.PlanSegments(12, 5)
	assert.Len(t, slices, 3)
	assert.Equal(t, int64(0), slices[0].Start)
	assert.Equal(t, 5.0, slices[0].End)
	assert.Equal(t, int64(5), slices[1].Start)
	assert.Equal(t, 10.0, slices[1].End)
	assert.Equal(t, int64(10), slices[2].Start)
	assert.Equal(t, 12.0, slices[2].End)

	// Slices must be contiguous.
	for i := 1; i < len(slices); i++ {
		assert.Equal(t, slices[i-1].End, float64(slices[i].Start))
	}

	// Exact multiple: no short tail.
	slices = media.PlanSegments(10, 5)
	assert.Len(t, slices, 2)
	assert.Equal(t, 10.0, slices[1].End)

	// A tail under the minimum is dropped.
	slices = media.PlanSegments(10.3, 5)
	assert.Len(t, slices, 2)
	assert.Equal(t, 10.0, slices[1].End)

	// A tail at or above the minimum is kept.
	slices = media.PlanSegments(10.5, 5)
	assert.Len(t, slices, 3)
	assert.Equal(t, 10.5, slices[2].End)

	// Degenerate inputs plan nothing.
	assert.Nil(t, media.PlanSegments(0, 5))
	assert.Nil(t, media.PlanSegments(-1, 5))
	assert.Nil(t, media.PlanSegments(10, 0))
}

// TestSegmentFileNameRoundTrip verifies the filename stem and the start
// time stay bijectively linked.
func TestSegmentFileNameRoundTrip(t *testing.T) {
	for _, start := range []int64{0, 5, 30, 3600, 86400} {
		name := media.SegmentFileName(start)
		parsed, err := media.ParseStartTime(name)
		assert.NoError(t, err)
		assert.Equal(t, start, parsed)
	}

	_, err := media.ParseStartTime("thumbnail.mp4")
	assert.Error(t, err)
}

// fakeEncoder records encode calls and fails on request.
type fakeEncoder struct {
	calls  []int64
	failAt int64
	fail   bool
}

func (f *fakeEncoder) Encode(_ context.Context, _ string, start int64, _ float64, _ string) error {
	f.calls = append(f.calls, start)
	if f.fail && start == f.failAt {
		return errors.New("encoder exploded")
	}
	return nil
}

func TestSplitAssignsLocalPaths(t *testing.T) {
	encoder := &fakeEncoder{}
	splitter := media.NewSplitter(encoder)
	outDir := t.TempDir()

	slices, err := splitter.Split(context.Background(), "source.mp4", 12, 5, outDir)
	assert.NoError(t, err)
	assert.Len(t, slices, 3)
	assert.Equal(t, []int64{0, 5, 10}, encoder.calls)
	for _, slice := range slices {
		assert.Contains(t, slice.LocalPath, outDir)
		assert.Contains(t, slice.LocalPath, media.SegmentFileName(slice.Start))
	}
}

// TestSplitIsAllOrNothing verifies one failed slice aborts the whole split.
func TestSplitIsAllOrNothing(t *testing.T) {
	encoder := &fakeEncoder{fail: true, failAt: 5}
	splitter := media.NewSplitter(encoder)

	slices, err := splitter.Split(context.Background(), "source.mp4", 12, 5, t.TempDir())
	assert.Nil(t, slices)
	assert.Error(t, err)

	var splitErr *media.SplitError
	assert.True(t, errors.As(err, &splitErr))
	assert.Equal(t, int64(5), splitErr.Slice.Start)
	// Encoding stopped at the failed slice.
	assert.Equal(t, []int64{0, 5}, encoder.calls)
}
