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

// Package media wraps the ffmpeg and ffprobe binaries behind small
// interfaces so the workflow commands stay testable without real video
// files.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

// Prober reads container and stream facts from a local video file.
type Prober interface {
	Probe(ctx context.Context, src string) (model.ProbeResult, error)
}

// ffprobeOutput maps the fields we need from ffprobe's JSON report.
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// FFProber implements Prober by shelling out to ffprobe with JSON output.
type FFProber struct {
	commandPath string
	timeout     time.Duration
}

// NewFFProber creates a prober using the given ffprobe binary. A
// non-positive timeout disables the deadline.
func NewFFProber(commandPath string, timeoutSeconds int) *FFProber {
	return &FFProber{
		commandPath: commandPath,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
	}
}

// Probe runs ffprobe against src and returns the parsed result. A missing or
// non-positive duration is an error: a file we cannot time cannot be split.
func (p *FFProber) Probe(ctx context.Context, src string) (model.ProbeResult, error) {
	var result model.ProbeResult

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.commandPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		src)
	output, err := cmd.Output()
	if err != nil {
		return result, fmt.Errorf("ffprobe failed for %s: %w", src, err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return result, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil {
		return result, fmt.Errorf("ffprobe reported no usable duration: %w", err)
	}
	if duration <= 0 {
		return result, fmt.Errorf("video duration is not positive: %f", duration)
	}

	result.Duration = duration
	result.Format = parsed.Format.FormatName
	for _, stream := range parsed.Streams {
		if stream.CodecType == "video" {
			result.Codec = stream.CodecName
			result.Width = stream.Width
			result.Height = stream.Height
			break
		}
	}
	return result, nil
}
