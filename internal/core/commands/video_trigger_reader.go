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
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/visionaree/gcp-go-video-caption/internal/cloud"
	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
)

// VideoTriggerReader parses a storage notification and gates the pipeline on
// the object path. Only uploads matching videos/{job_id}/original/{filename}
// start a run. The pipeline itself writes derived objects under the same
// videos/{job_id}/ prefix, so anything else (segments, thumbnails, stray
// keys) must complete the chain without output: the message is then acked
// and never reprocessed.
type VideoTriggerReader struct {
	cor.BaseCommand
}

// NewVideoTriggerReader creates the trigger parsing command.
func NewVideoTriggerReader(name string) *VideoTriggerReader {
	return &VideoTriggerReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// parseTriggerPath validates the object key shape and splits out the job id
// and filename. Returns false for any non-original-upload key.
func parseTriggerPath(object string) (jobID string, filename string, ok bool) {
	parts := strings.Split(object, "/")
	if len(parts) != 4 {
		return "", "", false
	}
	if parts[0] != "videos" || parts[2] != "original" {
		return "", "", false
	}
	if !model.ValidJobID(parts[1]) || parts[3] == "" {
		return "", "", false
	}
	return parts[1], parts[3], true
}

// Execute parses the notification JSON and emits a VideoTrigger, or nothing
// when the object is not an original upload.
func (c *VideoTriggerReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var notification cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &notification); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal storage notification: %w", err))
		return
	}

	jobID, filename, ok := parseTriggerPath(notification.Name)
	if !ok {
		// Not an original upload. Produce no output so the rest of the
		// chain skips and the message is acked.
		slog.DebugContext(context.GetContext(), "ignoring non-trigger object",
			"bucket", notification.Bucket, "object", notification.Name)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	size, _ := strconv.ParseInt(notification.Size, 10, 64)
	uploadTimestamp := notification.TimeCreated
	if uploadTimestamp == "" {
		uploadTimestamp = time.Now().UTC().Format(time.RFC3339)
	}

	trigger := &model.VideoTrigger{
		Bucket:          notification.Bucket,
		JobID:           jobID,
		Filename:        filename,
		Object:          notification.Name,
		Size:            size,
		ContentType:     notification.ContentType,
		UploadTimestamp: uploadTimestamp,
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxVideoTrigger, trigger)
	context.Add(c.GetOutputParam(), trigger)
}
