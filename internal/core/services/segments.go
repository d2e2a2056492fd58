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
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"google.golang.org/api/iterator"
)

// SegmentService is the data access layer for captioned segment rows.
type SegmentService struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	SegmentTable   string
}

// GetFQN returns the queryable fully qualified segment table name.
func (s *SegmentService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.SegmentTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// PersistBatch stores the successful results of one caption fan-out. Error
// results are never materialized as rows; they only show up in the summary
// counts. Streaming insert IDs keyed on (job_id, start_time) make
// redelivered batches idempotent.
func (s *SegmentService) PersistBatch(ctx context.Context, results []model.SegmentResult) model.BatchSaveSummary {
	summary := model.BatchSaveSummary{Errors: make([]string, 0)}
	now := time.Now().UTC().Format(time.RFC3339)

	rows := make([]*model.Segment, 0, len(results))
	for _, result := range results {
		if result.Status != model.SegmentStatusSuccess {
			summary.Failed++
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("segment %d: %s", result.StartTime, result.ErrorReason))
			continue
		}
		rows = append(rows, &model.Segment{
			JobID:        result.JobID,
			StartTime:    result.StartTime,
			EndTime:      result.EndTime,
			SegmentIndex: result.SegmentIndex,
			Caption:      result.Caption,
			ThreatLevel:  result.ThreatLevel,
			StorageURI:   result.StorageURI,
			CreatedAt:    now,
		})
	}
	if len(rows) == 0 {
		return summary
	}

	inserter := s.BigqueryClient.Dataset(s.DatasetName).Table(s.SegmentTable).Inserter()
	err := inserter.Put(ctx, rows)
	if err == nil {
		summary.Saved = len(rows)
		return summary
	}

	// A multi-error means some rows landed; anything else failed the whole
	// batch.
	if multiErr, ok := err.(bigquery.PutMultiError); ok {
		failed := make(map[int]bool, len(multiErr))
		for _, rowErr := range multiErr {
			failed[rowErr.RowIndex] = true
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("segment %d: %v", rows[rowErr.RowIndex].StartTime, rowErr.Error()))
		}
		summary.Failed += len(failed)
		summary.Saved = len(rows) - len(failed)
		return summary
	}

	summary.Failed += len(rows)
	for _, row := range rows {
		summary.Errors = append(summary.Errors,
			fmt.Sprintf("segment %d: %v", row.StartTime, err))
	}
	return summary
}

// List returns a job's captioned segments ordered by start time.
func (s *SegmentService) List(ctx context.Context, jobID string) ([]*model.Segment, error) {
	queryText := fmt.Sprintf(QryListSegments, s.GetFQN())
	q := s.BigqueryClient.Query(queryText)
	q.Parameters = []bigquery.QueryParameter{{Name: "job_id", Value: jobID}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read from BigQuery: %w", err)
	}

	out := make([]*model.Segment, 0)
	for {
		segment := &model.Segment{}
		err := itr.Next(segment)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, segment)
	}
	return out, nil
}
