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

// Package workflow assembles the commands into the pipelines driven by
// storage notifications.
package workflow

import (
	"log/slog"
	"strings"
	"text/template"

	"cloud.google.com/go/storage"
	"github.com/visionaree/gcp-go-video-caption/internal/cloud"
	"github.com/visionaree/gcp-go-video-caption/internal/core/commands"
	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/media"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/core/services"
)

// Pipeline tunable defaults, applied when the config leaves them unset.
const (
	defaultSegmentDurationSeconds = 30
	defaultUploadWorkers          = 5
	defaultCaptionWorkers         = 2
	defaultFfmpegPath             = "ffmpeg"
	defaultFfprobePath            = "ffprobe"
)

// VideoIngestionWorkflow is the end-to-end pipeline for one uploaded video:
// parse the trigger, create the job record, download, probe, split, upload
// the slices, caption them, persist the results, and close out the job.
//
// A fatal chain error leaves the message unacked for redelivery; the
// workflow additionally marks the job failed so pollers are not left staring
// at a pending status.
type VideoIngestionWorkflow struct {
	cor.BaseCommand
	config        *cloud.Config
	storageClient *storage.Client
	captioner     model.CaptionCapability
	jobs          *services.JobService
	segments      *services.SegmentService
	chain         cor.Chain
}

// Execute runs the chain and finalizes bookkeeping on fatal errors.
func (m *VideoIngestionWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
	if context.HasErrors() {
		m.markJobFailed(context)
	}
}

// markJobFailed stamps the job record with the collected chain errors. Only
// possible when the trigger parsed and the record was created.
func (m *VideoIngestionWorkflow) markJobFailed(context cor.Context) {
	tracked, _ := context.Get(commands.CtxJobTracked).(bool)
	trigger, ok := context.Get(commands.CtxVideoTrigger).(*model.VideoTrigger)
	if !tracked || !ok {
		return
	}

	reasons := make([]string, 0, len(context.GetErrors()))
	for name, err := range context.GetErrors() {
		reasons = append(reasons, name+": "+err.Error())
	}
	err := m.jobs.Update(context.GetContext(), trigger.JobID, trigger.UploadTimestamp, map[string]interface{}{
		"status":        model.JobStatusFailed,
		"error_message": strings.Join(reasons, "; "),
	})
	if err != nil {
		slog.ErrorContext(context.GetContext(), "failed to mark job as failed",
			"job_id", trigger.JobID, "error", err)
	}
}

// initializeChain wires the nine pipeline steps in order.
func (m *VideoIngestionWorkflow) initializeChain() {
	pipeline := m.config.Pipeline

	segmentSeconds := pipeline.SegmentDurationSeconds
	if segmentSeconds <= 0 {
		segmentSeconds = defaultSegmentDurationSeconds
	}
	uploadWorkers := pipeline.UploadWorkers
	if uploadWorkers <= 0 {
		uploadWorkers = defaultUploadWorkers
	}
	captionWorkers := pipeline.CaptionWorkers
	if captionWorkers <= 0 {
		captionWorkers = defaultCaptionWorkers
	}
	ffmpegPath := pipeline.FfmpegPath
	if ffmpegPath == "" {
		ffmpegPath = defaultFfmpegPath
	}
	ffprobePath := pipeline.FfprobePath
	if ffprobePath == "" {
		ffprobePath = defaultFfprobePath
	}

	prober := media.NewFFProber(ffprobePath, pipeline.ProbeTimeoutSeconds)
	splitter := media.NewSplitter(media.NewFFMpegEncoder(ffmpegPath, pipeline.EncodeTimeoutSeconds))

	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(commands.NewVideoTriggerReader("video-trigger-reader"))
	out.AddCommand(commands.NewJobCreate("create-job-record", m.jobs))
	out.AddCommand(commands.NewVideoDownload("download-original", m.storageClient, "video-ingest-"))
	out.AddCommand(commands.NewVideoProbe("probe-video", prober, m.jobs))
	out.AddCommand(commands.NewSegmentSplit("split-video", splitter, segmentSeconds))
	out.AddCommand(commands.NewSegmentUpload("upload-segments", m.storageClient, uploadWorkers, pipeline.UploadTimeoutSeconds))
	out.AddCommand(commands.NewSegmentCaption("caption-segments", m.captioner, captionWorkers))
	out.AddCommand(commands.NewCaptionPersist("persist-captions", m.segments))
	out.AddCommand(commands.NewJobComplete("finalize-job", m.jobs, pipeline.FailOnZeroSuccess))

	m.chain = out
}

// NewVideoIngestionPipeline builds the ingestion workflow from the loaded
// configuration and shared service clients. captionModelName selects the
// caption model config to use (e.g. "surveillance").
func NewVideoIngestionPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	captionModelName string) *VideoIngestionWorkflow {

	captionTemplate, err := template.New("caption-template").Parse(config.PromptTemplates.CaptionPrompt)
	if err != nil {
		panic(err)
	}

	captioner := cloud.NewVertexCaptioner(
		serviceClients.CaptionModels[captionModelName],
		captionTemplate,
		config.Pipeline.CaptionTimeoutSeconds)

	statusCache := cloud.NewStatusCache(serviceClients.RedisClient, config.Redis.TTLInSeconds)
	jobs := &services.JobService{
		BigqueryClient: serviceClients.BigQueryClient,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		JobTable:       config.BigQueryDataSource.JobTable,
		Cache:          statusCache,
	}
	segments := &services.SegmentService{
		BigqueryClient: serviceClients.BigQueryClient,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		SegmentTable:   config.BigQueryDataSource.SegmentTable,
	}

	pipeline := &VideoIngestionWorkflow{
		BaseCommand:   *cor.NewBaseCommand("video-ingestion-pipeline"),
		config:        config,
		storageClient: serviceClients.StorageClient,
		captioner:     captioner,
		jobs:          jobs,
		segments:      segments,
	}
	pipeline.initializeChain()
	return pipeline
}
