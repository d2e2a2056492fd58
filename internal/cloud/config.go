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

// Package cloud provides the configuration model, Google Cloud client state,
// and service wrappers shared by the captioning pipeline and the HTTP server.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking for the captioning models.
// Surveillance footage routinely trips the default thresholds (violence,
// dangerous content) and a blocked response would silently drop a segment.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// BigQueryDataSource holds the dataset and table names for job and segment
// persistence.
type BigQueryDataSource struct {
	DatasetName  string `toml:"dataset"`
	JobTable     string `toml:"job_table"`
	SegmentTable string `toml:"segment_table"`
}

// PromptTemplates holds the user-prompt templates sent to the caption models.
type PromptTemplates struct {
	CaptionPrompt string `toml:"caption"` // per-segment captioning prompt
	QueryPrompt   string `toml:"query"`   // natural-language relevance filter prompt
}

// VertexAiLLMModel is the configuration for one Vertex AI generative model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // requests per second
}

// TopicSubscription is the configuration for a single Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Storage holds the bucket settings. Uploads land under
// videos/{job_id}/original/ and segment slices are written back under
// videos/{job_id}/segments/ in the same bucket.
type Storage struct {
	VideoBucket               string `toml:"video_bucket"`
	SignerServiceAccountEmail string `toml:"signer_service_account_email"`
}

// Pipeline holds the tunables for the segmentation and captioning workflow.
type Pipeline struct {
	FfmpegPath             string `toml:"ffmpeg_path"`
	FfprobePath            string `toml:"ffprobe_path"`
	SegmentDurationSeconds int    `toml:"segment_duration_seconds"`
	UploadWorkers          int    `toml:"upload_workers"`
	CaptionWorkers         int    `toml:"caption_workers"`
	ProbeTimeoutSeconds    int    `toml:"probe_timeout_seconds"`
	EncodeTimeoutSeconds   int    `toml:"encode_timeout_seconds"`
	UploadTimeoutSeconds   int    `toml:"upload_timeout_seconds"`
	CaptionTimeoutSeconds  int    `toml:"caption_timeout_seconds"`
	FailOnZeroSuccess      bool   `toml:"fail_on_zero_success"`
}

// Redis holds the status cache settings. An empty address disables caching.
type Redis struct {
	Address      string `toml:"address"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	TTLInSeconds int    `toml:"ttl_in_seconds"`
}

// Config is the root of the application configuration, loaded from TOML files.
type Config struct {
	Application struct {
		Name            string `toml:"name"`
		GoogleProjectId string `toml:"google_project_id"`
		GoogleLocation  string `toml:"location"`
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Pipeline           Pipeline                     `toml:"pipeline"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	Redis              Redis                        `toml:"redis"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	CaptionModels      map[string]VertexAiLLMModel  `toml:"caption_models"`
}

// NewConfig creates a Config with its map fields initialized so the TOML
// decoder can populate them.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		CaptionModels:      make(map[string]VertexAiLLMModel),
	}
}
