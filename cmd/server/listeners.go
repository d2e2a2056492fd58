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

// This file starts the Pub/Sub listener that drives the ingestion pipeline
// in response to storage notifications for uploaded videos.
package main

import (
	"context"

	"github.com/visionaree/gcp-go-video-caption/internal/cloud"
	"github.com/visionaree/gcp-go-video-caption/internal/core/workflow"
)

// SetupListeners attaches the ingestion pipeline to the video upload
// subscription and starts receiving. The listener acks a message only when
// the chain finishes without errors, so failed videos are redelivered.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	ingestion := workflow.NewVideoIngestionPipeline(config, cloudClients, captionModelName)
	cloudClients.PubSubListeners["VideoUploadTopic"].SetCommand(ingestion)
	cloudClients.PubSubListeners["VideoUploadTopic"].Listen(ctx)
}
