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
	"io"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

// VideoDownload streams the original upload from the bucket into a local
// temporary file so ffmpeg can work on it. The temp file is tracked on the
// context for cleanup after the run.
type VideoDownload struct {
	cor.BaseCommand
	client         *storage.Client
	tempFilePrefix string
}

// NewVideoDownload creates the download command.
func NewVideoDownload(name string, client *storage.Client, tempFilePrefix string) *VideoDownload {
	return &VideoDownload{
		BaseCommand:    *cor.NewBaseCommand(name),
		client:         client,
		tempFilePrefix: tempFilePrefix,
	}
}

// Execute downloads the trigger's object and outputs the local path.
func (c *VideoDownload) Execute(context cor.Context) {
	trigger := context.Get(c.GetInputParam()).(*model.VideoTrigger)

	obj := c.client.Bucket(trigger.Bucket).Object(trigger.Object)
	reader, err := obj.NewReader(context.GetContext())
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create reader for gs://%s/%s: %w", trigger.Bucket, trigger.Object, err))
		return
	}
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			slog.WarnContext(context.GetContext(), "failed to close storage reader", "error", err)
		}
	}(reader)

	tempFile, err := os.CreateTemp("", c.tempFilePrefix)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("could not create temp file: %w", err))
		return
	}

	written, err := io.Copy(tempFile, reader)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to download gs://%s/%s after %d bytes: %w", trigger.Bucket, trigger.Object, written, err))
		_ = tempFile.Close()
		return
	}
	_ = tempFile.Close()

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "downloaded original video",
		"job_id", trigger.JobID, "bytes", written, "local_path", tempFile.Name())
	context.AddTempFile(tempFile.Name())
	context.Add(c.GetOutputParam(), tempFile.Name())
}
