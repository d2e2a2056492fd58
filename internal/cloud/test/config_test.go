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

package cloud_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	test "github.com/visionaree/gcp-go-video-caption/internal/testutil"
)

// TestConfigOverlay verifies the hierarchical TOML loading: the test runtime
// overlay replaces the values it declares while everything else keeps its
// base value.
func TestConfigOverlay(t *testing.T) {
	err := test.SetupOS()
	test.HandleErr(err, t)

	config := test.GetConfig()

	// Overridden by configs/.env.test.toml.
	assert.Equal(t, "video-caption-server-test", config.Application.Name)
	assert.Equal(t, "video_captions_test", config.BigQueryDataSource.DatasetName)
	assert.Equal(t, 5, config.Pipeline.SegmentDurationSeconds)
	assert.Equal(t, 1, config.Pipeline.CaptionWorkers)
	assert.Equal(t, 1, config.CaptionModels["surveillance"].RateLimit)

	// Declared only in the base file.
	assert.Equal(t, "surveillance_video_store", config.Storage.VideoBucket)
	assert.Equal(t, "caption_jobs", config.BigQueryDataSource.JobTable)
	assert.Equal(t, "caption_segments", config.BigQueryDataSource.SegmentTable)
	assert.True(t, config.Pipeline.FailOnZeroSuccess)
	assert.NotEmpty(t, config.PromptTemplates.CaptionPrompt)
	assert.NotEmpty(t, config.CaptionModels["surveillance"].SystemInstructions)
}

// TestConfigIsCached verifies the singleton accessor hands back the same
// loaded instance instead of re-reading the TOML files.
func TestConfigIsCached(t *testing.T) {
	first := test.GetConfig()
	second := test.GetConfig()
	assert.Same(t, first, second)
}
