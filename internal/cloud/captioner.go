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

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// VertexCaptioner implements model.CaptionCapability against a quota-aware
// Vertex AI model. It accepts either a storage URI or inline bytes, renders
// the configured prompt template, and parses the model's JSON response. A
// response that is not valid JSON falls back to using the raw text as the
// caption rather than failing the segment.
type VertexCaptioner struct {
	generativeAIModel  *QuotaAwareGenerativeAIModel
	template           *template.Template
	timeout            time.Duration
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

// captionResponse mirrors the JSON shape the model is instructed to emit.
type captionResponse struct {
	Caption     string `json:"caption"`
	ThreatLevel string `json:"threat_level"`
}

// NewVertexCaptioner builds a captioner around the given model. The prompt
// template receives the USER_CONTEXT, EXAMPLE_JSON, EXAMPLE_EMPTY_JSON, and
// THREAT_ASSESSMENT keys. A non-positive timeout disables the per-call
// deadline.
func NewVertexCaptioner(
	generativeAIModel *QuotaAwareGenerativeAIModel,
	promptTemplate *template.Template,
	timeoutSeconds int) *VertexCaptioner {

	meter := otel.Meter(cor.MeterNamespace)
	inputCounter, _ := meter.Int64Counter("caption.token.input")
	outputCounter, _ := meter.Int64Counter("caption.token.output")

	return &VertexCaptioner{
		generativeAIModel:  generativeAIModel,
		template:           promptTemplate,
		timeout:            time.Duration(timeoutSeconds) * time.Second,
		inputTokenCounter:  inputCounter,
		outputTokenCounter: outputCounter,
	}
}

// Caption runs one caption call for the referenced video.
func (v *VertexCaptioner) Caption(ctx context.Context, ref model.MediaRef, opts model.CaptionOptions) (model.CaptionOutput, error) {
	var out model.CaptionOutput

	if ref.URI == "" && len(ref.Data) == 0 {
		return out, fmt.Errorf("media reference has neither a URI nor inline data")
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	example := model.GetExampleCaption()
	emptyExample := model.GetExampleEmptyCaption()
	params := map[string]interface{}{
		"USER_CONTEXT":       opts.UserContext,
		"EXAMPLE_JSON":       fmt.Sprintf(`{"caption": %q, "threat_level": %q}`, example.Caption, example.ThreatLevel),
		"EXAMPLE_EMPTY_JSON": fmt.Sprintf(`{"caption": %q, "threat_level": %q}`, emptyExample.Caption, emptyExample.ThreatLevel),
		"THREAT_ASSESSMENT":  opts.IncludeThreatAssessment,
	}
	var buffer bytes.Buffer
	if err := v.template.Execute(&buffer, params); err != nil {
		return out, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	mediaPart := &genai.Part{}
	if ref.URI != "" {
		fileData := NewFileData(ref.URI, ref.MIMEType)
		mediaPart.FileData = &fileData
	} else {
		blob := NewInlineData(ref.Data, ref.MIMEType)
		mediaPart.InlineData = &blob
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buffer.String()},
				mediaPart,
			},
		},
	}

	text, inputTokens, outputTokens, err := GenerateMultiModalResponse(
		ctx, v.inputTokenCounter, v.outputTokenCounter, v.generativeAIModel, contents)
	if err != nil {
		return out, err
	}

	out.Usage = model.TokenUsage{InputTokens: inputTokens, OutputTokens: outputTokens}

	var parsed captionResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		// The model occasionally replies in prose despite the JSON
		// instruction. Keep the text as the caption instead of dropping
		// the segment.
		out.Caption = text
		return out, nil
	}
	out.Caption = parsed.Caption
	out.ThreatLevel = parsed.ThreatLevel
	return out, nil
}
