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
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/media"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/core/pool"
)

// SegmentUpload copies the encoded slices back into the bucket under
// videos/{job_id}/segments/ with a bounded worker pool. Upload failures are
// isolated per slice; the failed outcomes travel downstream so the caption
// stage can report them, while the uploaded subset proceeds.
type SegmentUpload struct {
	cor.BaseCommand
	client  *storage.Client
	workers int
	timeout time.Duration
}

// NewSegmentUpload creates the upload fan-out command. A non-positive
// timeoutSeconds disables the per-upload deadline.
func NewSegmentUpload(name string, client *storage.Client, workers int, timeoutSeconds int) *SegmentUpload {
	return &SegmentUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		workers:     workers,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
	}
}

func (c *SegmentUpload) uploadOne(ctx context.Context, trigger *model.VideoTrigger, slice model.SegmentSlice) model.UploadOutcome {
	outcome := model.UploadOutcome{Slice: slice}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		outcome.Err = fmt.Errorf("upload of segment %d aborted: %w", slice.Start, err)
		return outcome
	}

	object := fmt.Sprintf("videos/%s/segments/%s", trigger.JobID, media.SegmentFileName(slice.Start))

	source, err := os.Open(slice.LocalPath)
	if err != nil {
		outcome.Err = fmt.Errorf("failed to open %s: %w", slice.LocalPath, err)
		return outcome
	}
	defer func() { _ = source.Close() }()

	writer := c.client.Bucket(trigger.Bucket).Object(object).NewWriter(ctx)
	writer.ContentType = "video/mp4"
	if _, err := io.Copy(writer, source); err != nil {
		_ = writer.Close()
		outcome.Err = fmt.Errorf("failed to upload segment %d: %w", slice.Start, err)
		return outcome
	}
	if err := writer.Close(); err != nil {
		outcome.Err = fmt.Errorf("failed to finalize segment %d: %w", slice.Start, err)
		return outcome
	}

	outcome.StorageURI = fmt.Sprintf("gs://%s/%s", trigger.Bucket, object)
	return outcome
}

// Execute uploads every slice and outputs all outcomes in slice order.
func (c *SegmentUpload) Execute(chCtx cor.Context) {
	slices := chCtx.Get(c.GetInputParam()).([]model.SegmentSlice)
	trigger := chCtx.Get(CtxVideoTrigger).(*model.VideoTrigger)

	outcomes := pool.Map(chCtx.GetContext(), slices, c.workers,
		func(ctx context.Context, _ int, slice model.SegmentSlice) model.UploadOutcome {
			return c.uploadOne(ctx, trigger, slice)
		})

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			slog.WarnContext(chCtx.GetContext(), "segment upload failed",
				"job_id", trigger.JobID, "start", outcome.Slice.Start, "error", outcome.Err)
		}
	}
	slog.InfoContext(chCtx.GetContext(), "segment upload complete",
		"job_id", trigger.JobID, "total", len(outcomes), "failed", failed)

	c.GetSuccessCounter().Add(chCtx.GetContext(), 1)
	chCtx.Add(c.GetOutputParam(), outcomes)
}
