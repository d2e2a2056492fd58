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

// Package test provides shared helpers for the test suite: a cached test
// configuration and canned storage notification payloads for the pipeline
// triggers.
package test

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/visionaree/gcp-go-video-caption/internal/cloud"
)

// StateManager caches the loaded configuration so the TOML files are read
// once per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to keep
// error-checking boilerplate out of the test bodies.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestVideoUploadMessageText returns a storage notification payload for a
// finalized original video upload, shaped the way Pub/Sub delivers it. The
// object path follows the videos/{job_id}/original/ convention the trigger
// reader expects.
func GetTestVideoUploadMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "surveillance_video_store/videos/cam-42-20241011/original/lobby-feed.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/surveillance_video_store/o/videos%2Fcam-42-20241011%2Foriginal%2Flobby-feed.mp4",
  "name": "videos/cam-42-20241011/original/lobby-feed.mp4",
  "bucket": "surveillance_video_store",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/surveillance_video_store/o/videos%2Fcam-42-20241011%2Foriginal%2Flobby-feed.mp4?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
	}`
}

// GetTestSegmentWriteBackMessageText returns a notification for a segment
// slice the pipeline itself wrote back to the bucket. The trigger reader
// must treat this as noise and skip it, otherwise the pipeline would feed
// on its own output.
func GetTestSegmentWriteBackMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "surveillance_video_store/videos/cam-42-20241011/segments/30.mp4/1728615901123456",
  "name": "videos/cam-42-20241011/segments/30.mp4",
  "bucket": "surveillance_video_store",
  "generation": "1728615901123456",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:05:01.123Z",
  "updated": "2024-10-11T03:05:01.123Z",
  "storageClass": "STANDARD",
  "size": "8421376",
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAF="
}
`
}

// SetupOS points the configuration loader at the test configuration overlay
// (configs/.env.test.toml). Test binaries run from their own package
// directory, so the configs directory is located by walking up toward the
// module root.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, findConfigDir())
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// findConfigDir walks up from the working directory until it finds a configs
// directory, falling back to the bare relative name.
func findConfigDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "configs"
	}
	for {
		candidate := filepath.Join(dir, "configs")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "configs"
		}
		dir = parent
	}
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
