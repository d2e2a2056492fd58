// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the video captioning backend server.
//
// The server exposes a REST API for requesting presigned upload URLs,
// polling job status, reading captioned segments, asking natural language
// questions about a job's footage, and captioning small clips inline. It
// also runs the Pub/Sub listeners that drive the ingestion pipeline when
// original videos land in the bucket. Everything is instrumented with
// OpenTelemetry.
package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"github.com/visionaree/gcp-go-video-caption/internal/telemetry"
)

// maxInlineCaptionBytes caps the clip size accepted by the inline caption
// endpoint. Anything larger must go through the upload pipeline.
const maxInlineCaptionBytes = 50 << 20

// presignedURLTTL is how long an issued upload URL stays valid.
const presignedURLTTL = 15 * time.Minute

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("video-caption-server"))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		VideoRouter(apiV1)
		Dashboard(apiV1)
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// presignRequest is the body of POST /videos/presign. The job id is optional;
// one is generated when omitted.
type presignRequest struct {
	JobID       string `json:"job_id"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// queryRequest is the body of POST /videos/:job_id/query.
type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

// VideoRouter registers the job-facing API routes:
//   - POST /videos/presign: issue a signed PUT URL for an original upload.
//   - GET  /videos/:job_id/status: poll the processing status of a job.
//   - GET  /videos/:job_id/segments: read a job's captioned segments.
//   - POST /videos/:job_id/query: ask a natural language question about a job.
//   - POST /videos/caption: caption one small clip inline, bypassing the pipeline.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		videos.POST("/presign", func(c *gin.Context) {
			var req presignRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if req.JobID == "" {
				req.JobID = uuid.NewString()
			}
			if !model.ValidJobID(req.JobID) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job_id"})
				return
			}
			if req.ContentType == "" {
				req.ContentType = "video/mp4"
			}

			upload, err := state.uploadService.GeneratePresignedUploadURL(
				c, req.JobID, req.Filename, req.ContentType, presignedURLTTL)
			if err != nil {
				slog.ErrorContext(c, "failed to sign upload url", "job_id", req.JobID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate upload URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"job_id":      req.JobID,
				"url":         upload.URL,
				"object_path": upload.ObjectPath,
				"bucket":      upload.Bucket,
			})
		})

		videos.GET("/:job_id/status", func(c *gin.Context) {
			jobID := c.Param("job_id")
			if !model.ValidJobID(jobID) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job_id"})
				return
			}
			status, err := state.jobService.GetLatestStatus(c, jobID)
			if err != nil {
				slog.ErrorContext(c, "status lookup failed", "job_id", jobID, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			if status == model.JobStatusNotFound {
				c.JSON(http.StatusNotFound, gin.H{"job_id": jobID, "status": status})
				return
			}
			c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": status})
		})

		videos.GET("/:job_id/segments", func(c *gin.Context) {
			jobID := c.Param("job_id")
			if !model.ValidJobID(jobID) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job_id"})
				return
			}
			job, err := state.jobService.GetLatest(c, jobID)
			if err != nil {
				slog.ErrorContext(c, "job lookup failed", "job_id", jobID, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			if job == nil {
				c.Status(http.StatusNotFound)
				return
			}
			segments, err := state.segmentService.List(c, jobID)
			if err != nil {
				slog.ErrorContext(c, "segment listing failed", "job_id", jobID, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, gin.H{"job": job, "segments": segments})
		})

		videos.POST("/:job_id/query", func(c *gin.Context) {
			jobID := c.Param("job_id")
			if !model.ValidJobID(jobID) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job_id"})
				return
			}
			var req queryRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			insights, err := state.insightsService.Query(c, jobID, req.Query)
			if err != nil {
				slog.ErrorContext(c, "insights query failed", "job_id", jobID, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, insights)
		})

		videos.POST("/caption", InlineCaption)
	}
}

// InlineCaption captions one uploaded clip synchronously. The clip is sent
// to the model as inline bytes, so the size cap matters: a request body over
// maxInlineCaptionBytes is rejected rather than forwarded.
func InlineCaption(c *gin.Context) {
	fileHeader, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing video form file"})
		return
	}
	if fileHeader.Size > maxInlineCaptionBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "clip too large for inline captioning, use the upload pipeline"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxInlineCaptionBytes+1))
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(data) > maxInlineCaptionBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "clip too large for inline captioning, use the upload pipeline"})
		return
	}

	// Sniff the real container type instead of trusting the client header.
	kind, err := filetype.Match(data)
	if err != nil || kind.MIME.Type != "video" {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not a recognized video format"})
		return
	}

	output, err := state.captioner.Caption(c, model.MediaRef{
		Data:     data,
		MIMEType: kind.MIME.Value,
	}, model.CaptionOptions{
		IncludeThreatAssessment: true,
		UserContext:             c.PostForm("user_context"),
	})
	if err != nil {
		slog.ErrorContext(c, "inline caption failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "caption generation failed"})
		return
	}
	c.JSON(http.StatusOK, output)
}
