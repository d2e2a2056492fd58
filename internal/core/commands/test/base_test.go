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

package commands_test

import (
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const tName = "github.com/visionaree/gcp-go-video-caption/tests/commands"

var logger = otelslog.NewLogger(tName)

// TestMain keeps the suite on the shared OTel-bridged logger so test output
// lands in the same shape as the pipeline's own logs.
func TestMain(m *testing.M) {
	logger.Info("starting command tests")
	exitCode := m.Run()
	os.Exit(exitCode)
}
