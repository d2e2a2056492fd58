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

package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/visionaree/gcp-go-video-caption/internal/cloud"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"google.golang.org/api/iterator"
)

// JobService is the data access layer for job bookkeeping records. The
// status cache is optional; a nil or disabled cache turns every lookup into
// a direct query.
type JobService struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	JobTable       string
	Cache          *cloud.StatusCache
}

// GetFQN returns the queryable fully qualified job table name.
func (s *JobService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.JobTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Create inserts the initial record for a job. Bookkeeping failures must not
// stop video processing, so instead of an error it returns false and the
// pipeline continues in degraded mode.
func (s *JobService) Create(ctx context.Context, job *model.Job) bool {
	queryText := fmt.Sprintf(QryInsertJob, s.GetFQN())
	q := s.BigqueryClient.Query(queryText)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "job_id", Value: job.JobID},
		{Name: "upload_timestamp", Value: job.UploadTimestamp},
		{Name: "status", Value: job.Status},
		{Name: "video_file_name", Value: job.VideoFileName},
		{Name: "video_uri", Value: job.VideoURI},
		{Name: "video_duration", Value: job.VideoDuration},
		{Name: "video_size", Value: job.VideoSize},
		{Name: "resolution", Value: job.Resolution},
		{Name: "codec", Value: job.Codec},
		{Name: "content_type", Value: job.ContentType},
		{Name: "total_segments", Value: job.TotalSegments},
		{Name: "processed_segments", Value: job.ProcessedSegments},
		{Name: "start_time", Value: job.StartTime},
		{Name: "end_time", Value: job.EndTime},
		{Name: "error_message", Value: job.ErrorMessage},
	}
	if _, err := q.Read(ctx); err != nil {
		slog.WarnContext(ctx, "failed to create job record, continuing without bookkeeping",
			"job_id", job.JobID, "error", err)
		return false
	}
	s.Cache.Invalidate(ctx, job.JobID)
	return true
}

// Update applies a partial update to one job record and always stamps
// end_time so readers can see when the record last changed. Field names are
// the job table column names.
func (s *JobService) Update(ctx context.Context, jobID string, uploadTimestamp string, fields map[string]interface{}) error {
	if _, ok := fields["end_time"]; !ok {
		fields["end_time"] = time.Now().UTC().Format(time.RFC3339)
	}

	// Sort for a deterministic SET clause, which keeps queries cacheable
	// and tests stable.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	assignments := make([]string, 0, len(names))
	params := make([]bigquery.QueryParameter, 0, len(names)+2)
	for _, name := range names {
		assignments = append(assignments, fmt.Sprintf("%s = @%s", name, name))
		params = append(params, bigquery.QueryParameter{Name: name, Value: fields[name]})
	}
	params = append(params,
		bigquery.QueryParameter{Name: "job_id", Value: jobID},
		bigquery.QueryParameter{Name: "upload_timestamp", Value: uploadTimestamp})

	queryText := fmt.Sprintf(QryUpdateJob, s.GetFQN(), strings.Join(assignments, ", "))
	q := s.BigqueryClient.Query(queryText)
	q.Parameters = params
	if _, err := q.Read(ctx); err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	s.Cache.Invalidate(ctx, jobID)
	return nil
}

// Get fetches one job record by its logical key.
func (s *JobService) Get(ctx context.Context, jobID string, uploadTimestamp string) (*model.Job, error) {
	queryText := fmt.Sprintf(QryGetJob, s.GetFQN())
	q := s.BigqueryClient.Query(queryText)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "job_id", Value: jobID},
		{Name: "upload_timestamp", Value: uploadTimestamp},
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	job := &model.Job{}
	if err := itr.Next(job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetLatest fetches the most recent record for a job id, or nil when the
// job has never been seen.
func (s *JobService) GetLatest(ctx context.Context, jobID string) (*model.Job, error) {
	queryText := fmt.Sprintf(QryLatestJob, s.GetFQN())
	q := s.BigqueryClient.Query(queryText)
	q.Parameters = []bigquery.QueryParameter{{Name: "job_id", Value: jobID}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	job := &model.Job{}
	err = itr.Next(job)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetLatestStatus returns the status of the most recent record for a job
// id, going through the cache first. An unknown job id yields
// model.JobStatusNotFound without an error.
func (s *JobService) GetLatestStatus(ctx context.Context, jobID string) (string, error) {
	if status, ok := s.Cache.GetStatus(ctx, jobID); ok {
		return status, nil
	}

	queryText := fmt.Sprintf(QryLatestJobStatus, s.GetFQN())
	q := s.BigqueryClient.Query(queryText)
	q.Parameters = []bigquery.QueryParameter{{Name: "job_id", Value: jobID}}
	itr, err := q.Read(ctx)
	if err != nil {
		return "", err
	}
	var row struct {
		Status string `bigquery:"status"`
	}
	err = itr.Next(&row)
	if err == iterator.Done {
		return model.JobStatusNotFound, nil
	}
	if err != nil {
		return "", err
	}
	s.Cache.SetStatus(ctx, jobID, row.Status)
	return row.Status, nil
}
