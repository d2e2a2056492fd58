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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/visionaree/gcp-go-video-caption/internal/cloud"
	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InsightsService answers natural language questions about a job's footage
// by running the stored captions through the caption model as a relevance
// filter. The model sees only caption text, never the video again, which
// keeps queries cheap.
type InsightsService struct {
	Model    *cloud.QuotaAwareGenerativeAIModel
	Template *template.Template
	Segments *SegmentService

	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

// QueryInsights is the answer to one relevance query.
type QueryInsights struct {
	RelevantSegments []*model.Segment `json:"relevant_segments"`
	Insights         string           `json:"insights"`
}

// captionDigest is the compact per-segment view rendered into the prompt.
type captionDigest struct {
	StartTime int64  `json:"start_time"`
	Caption   string `json:"caption"`
}

// insightsResponse mirrors the JSON the model is instructed to emit.
type insightsResponse struct {
	RelevantSegmentStartTimes []int64 `json:"relevant_segment_start_times"`
	Insights                  string  `json:"insights"`
}

// NewInsightsService builds the service and its token usage counters.
func NewInsightsService(
	generativeAIModel *cloud.QuotaAwareGenerativeAIModel,
	promptTemplate *template.Template,
	segments *SegmentService) *InsightsService {

	meter := otel.Meter(cor.MeterNamespace)
	inputCounter, _ := meter.Int64Counter("insights.token.input")
	outputCounter, _ := meter.Int64Counter("insights.token.output")

	return &InsightsService{
		Model:              generativeAIModel,
		Template:           promptTemplate,
		Segments:           segments,
		inputTokenCounter:  inputCounter,
		outputTokenCounter: outputCounter,
	}
}

// Query filters a job's captions against the user's question and returns
// the matching segments plus a short narrative answer. A job with no
// captioned segments yields an empty result without calling the model.
func (s *InsightsService) Query(ctx context.Context, jobID string, query string) (*QueryInsights, error) {
	out := &QueryInsights{RelevantSegments: make([]*model.Segment, 0)}

	segments, err := s.Segments.List(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return out, nil
	}

	digests := make([]captionDigest, 0, len(segments))
	for _, segment := range segments {
		digests = append(digests, captionDigest{StartTime: segment.StartTime, Caption: segment.Caption})
	}
	captionsJSON, err := json.Marshal(digests)
	if err != nil {
		return nil, fmt.Errorf("failed to encode captions for prompt: %w", err)
	}

	params := map[string]interface{}{
		"QUERY":    query,
		"CAPTIONS": string(captionsJSON),
	}
	var buffer bytes.Buffer
	if err := s.Template.Execute(&buffer, params); err != nil {
		return nil, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	text, _, _, err := cloud.GenerateMultiModalResponse(
		ctx, s.inputTokenCounter, s.outputTokenCounter, s.Model, cloud.NewTextPart(buffer.String()))
	if err != nil {
		return nil, err
	}

	var parsed insightsResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		// Keep the prose answer when the model ignores the JSON
		// instruction; there is just nothing to link segments to.
		out.Insights = text
		return out, nil
	}

	byStart := make(map[int64]*model.Segment, len(segments))
	for _, segment := range segments {
		byStart[segment.StartTime] = segment
	}
	for _, start := range parsed.RelevantSegmentStartTimes {
		if segment, ok := byStart[start]; ok {
			out.RelevantSegments = append(out.RelevantSegments, segment)
		}
	}
	out.Insights = parsed.Insights
	return out, nil
}
