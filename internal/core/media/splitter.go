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

package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

// MinTailSeconds is the shortest trailing remainder worth keeping. Anything
// shorter produces a slice too brief to caption meaningfully.
const MinTailSeconds = 0.5

// SegmentFileExtension is the container for all encoded slices.
const SegmentFileExtension = ".mp4"

// defaultEncodeArgs is the ffmpeg argument template for one slice. The
// stream is trimmed, timestamps reset to zero, audio dropped, and the video
// re-encoded so every slice starts on a keyframe.
const defaultEncodeArgs = "-y -hide_banner -ss %.3f -i %s -t %.3f -vf setpts=PTS-STARTPTS -an -c:v libx264 -preset fast -crf 23 -avoid_negative_ts make_zero %s"

// SplitError marks a failure during segmentation. Splits are all-or-nothing:
// one failed slice aborts the whole operation.
type SplitError struct {
	Slice model.SegmentSlice
	Err   error
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("failed to encode segment starting at %ds: %v", e.Slice.Start, e.Err)
}

func (e *SplitError) Unwrap() error {
	return e.Err
}

// PlanSegments computes the slice boundaries for a video of the given
// duration: ceil(duration/segmentSeconds) slices of segmentSeconds each,
// with the last one ending at the exact duration. A trailing remainder
// shorter than MinTailSeconds is dropped.
func PlanSegments(duration float64, segmentSeconds int) []model.SegmentSlice {
	if duration <= 0 || segmentSeconds <= 0 {
		return nil
	}
	count := int(math.Ceil(duration / float64(segmentSeconds)))
	slices := make([]model.SegmentSlice, 0, count)
	for i := 0; i < count; i++ {
		start := int64(i * segmentSeconds)
		end := math.Min(float64((i+1)*segmentSeconds), duration)
		if end-float64(start) < MinTailSeconds {
			break
		}
		slices = append(slices, model.SegmentSlice{
			Index: i,
			Start: start,
			End:   end,
		})
	}
	return slices
}

// SegmentFileName returns the object and file name for a slice. The stem is
// the integer start second, which links the file back to its timestamp
// without any side lookup.
func SegmentFileName(start int64) string {
	return fmt.Sprintf("%d%s", start, SegmentFileExtension)
}

// ParseStartTime inverts SegmentFileName.
func ParseStartTime(filename string) (int64, error) {
	stem := strings.TrimSuffix(filepath.Base(filename), SegmentFileExtension)
	start, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("segment filename %q has no integer start time: %w", filename, err)
	}
	return start, nil
}

// Encoder produces one encoded slice of a source video.
type Encoder interface {
	Encode(ctx context.Context, src string, start int64, duration float64, dst string) error
}

// FFMpegEncoder implements Encoder by shelling out to ffmpeg.
type FFMpegEncoder struct {
	commandPath string
	timeout     time.Duration
}

// NewFFMpegEncoder creates an encoder using the given ffmpeg binary. A
// non-positive timeout disables the per-slice deadline.
func NewFFMpegEncoder(commandPath string, timeoutSeconds int) *FFMpegEncoder {
	return &FFMpegEncoder{
		commandPath: commandPath,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
	}
}

// Encode trims and re-encodes one slice of src into dst.
func (e *FFMpegEncoder) Encode(ctx context.Context, src string, start int64, duration float64, dst string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	args := fmt.Sprintf(defaultEncodeArgs, float64(start), src, duration, dst)
	cmd := exec.CommandContext(ctx, e.commandPath, strings.Split(args, " ")...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error running ffmpeg: %w", err)
	}
	return nil
}

// Splitter turns a source video into encoded slices using an Encoder.
type Splitter struct {
	encoder Encoder
}

// NewSplitter creates a splitter around the given encoder.
func NewSplitter(encoder Encoder) *Splitter {
	return &Splitter{encoder: encoder}
}

// Split plans the slices for the given duration and encodes each one into
// outDir. Any encode failure aborts the whole split and returns a
// SplitError; callers never see a partial slice list.
func (s *Splitter) Split(ctx context.Context, src string, duration float64, segmentSeconds int, outDir string) ([]model.SegmentSlice, error) {
	slices := PlanSegments(duration, segmentSeconds)
	for i := range slices {
		dst := filepath.Join(outDir, SegmentFileName(slices[i].Start))
		sliceDuration := slices[i].End - float64(slices[i].Start)
		if err := s.encoder.Encode(ctx, src, slices[i].Start, sliceDuration, dst); err != nil {
			return nil, &SplitError{Slice: slices[i], Err: err}
		}
		slices[i].LocalPath = dst
	}
	return slices, nil
}
