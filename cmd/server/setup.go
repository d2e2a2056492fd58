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

// This file initializes the shared application state: configuration, Google
// Cloud clients, the data services behind the API routes, and the background
// Pub/Sub listeners.
package main

import (
	"context"
	"log"
	"os"
	"text/template"

	"github.com/visionaree/gcp-go-video-caption/internal/cloud"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/core/services"
)

// captionModelName selects which configured caption model the server and the
// ingestion pipeline use.
const captionModelName = "surveillance"

// StateManager is the container for every shared dependency, so the route
// handlers reach services through one place instead of globals scattered
// across files.
type StateManager struct {
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	jobService      *services.JobService
	segmentService  *services.SegmentService
	uploadService   *services.UploadService
	insightsService *services.InsightsService
	captioner       model.CaptionCapability
}

var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory and the
// "local" runtime overlay.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig loads the application configuration once and caches it.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState builds the cloud clients and wires the services the API routes
// depend on, then starts the Pub/Sub listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	statusCache := cloud.NewStatusCache(cloudClients.RedisClient, config.Redis.TTLInSeconds)

	state.jobService = &services.JobService{
		BigqueryClient: cloudClients.BigQueryClient,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		JobTable:       config.BigQueryDataSource.JobTable,
		Cache:          statusCache,
	}
	state.segmentService = &services.SegmentService{
		BigqueryClient: cloudClients.BigQueryClient,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		SegmentTable:   config.BigQueryDataSource.SegmentTable,
	}
	state.uploadService = &services.UploadService{
		StorageClient: cloudClients.StorageClient,
		IAMClient:     cloudClients.IAMClient,
		SignerEmail:   config.Storage.SignerServiceAccountEmail,
		Bucket:        config.Storage.VideoBucket,
	}

	queryTemplate, err := template.New("query-template").Parse(config.PromptTemplates.QueryPrompt)
	if err != nil {
		panic(err)
	}
	state.insightsService = services.NewInsightsService(
		cloudClients.CaptionModels[captionModelName],
		queryTemplate,
		state.segmentService)

	// The inline caption endpoint shares the pipeline's prompt and model.
	captionTemplate, err := template.New("caption-template").Parse(config.PromptTemplates.CaptionPrompt)
	if err != nil {
		panic(err)
	}
	state.captioner = cloud.NewVertexCaptioner(
		cloudClients.CaptionModels[captionModelName],
		captionTemplate,
		config.Pipeline.CaptionTimeoutSeconds)

	SetupListeners(config, cloudClients, ctx)
}
