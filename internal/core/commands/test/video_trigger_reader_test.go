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

// Package commands_test contains unit tests for the pipeline commands that
// run without cloud clients: trigger parsing and the caption fan-out.
package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/visionaree/gcp-go-video-caption/internal/core/commands"
	"github.com/visionaree/gcp-go-video-caption/internal/core/cor"
	"github.com/visionaree/gcp-go-video-caption/internal/core/model"
	test "github.com/visionaree/gcp-go-video-caption/internal/testutil"
)

func newChainContext(payload string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, payload)
	return chainCtx
}

func TestTriggerReaderParsesOriginalUpload(t *testing.T) {
	reader := commands.NewVideoTriggerReader("trigger-reader")
	chainCtx := newChainContext(test.GetTestVideoUploadMessageText())

	reader.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	trigger, ok := chainCtx.Get(commands.CtxVideoTrigger).(*model.VideoTrigger)
	assert.True(t, ok)
	assert.Equal(t, "cam-42-20241011", trigger.JobID)
	assert.Equal(t, "lobby-feed.mp4", trigger.Filename)
	assert.Equal(t, "surveillance_video_store", trigger.Bucket)
	assert.Equal(t, "videos/cam-42-20241011/original/lobby-feed.mp4", trigger.Object)
	assert.Equal(t, int64(259348037), trigger.Size)
	assert.Equal(t, "video/mp4", trigger.ContentType)
	assert.Equal(t, "2024-10-11T03:04:08.672Z", trigger.UploadTimestamp)
	assert.NotNil(t, chainCtx.Get(cor.CtxOut))
}

// TestTriggerReaderIgnoresSegmentWriteBack verifies notifications for
// objects the pipeline wrote itself produce no output and no error, so the
// chain completes cleanly and the message is acked instead of looping.
func TestTriggerReaderIgnoresSegmentWriteBack(t *testing.T) {
	reader := commands.NewVideoTriggerReader("trigger-reader")
	chainCtx := newChainContext(test.GetTestSegmentWriteBackMessageText())

	reader.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(commands.CtxVideoTrigger))
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

func TestTriggerReaderRejectsMalformedPayload(t *testing.T) {
	reader := commands.NewVideoTriggerReader("trigger-reader")
	chainCtx := newChainContext("this is not json")

	reader.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
}

// recordingCommand notes whether the chain ever reached it.
type recordingCommand struct {
	cor.BaseCommand
	executed bool
}

func (c *recordingCommand) Execute(context cor.Context) {
	c.executed = true
	context.Add(c.GetOutputParam(), context.Get(c.GetInputParam()))
}

// TestChainSkipsDownstreamWithoutTrigger runs the trigger reader inside a
// chain: with no output produced, the downstream command must be skipped
// without recording an error.
func TestChainSkipsDownstreamWithoutTrigger(t *testing.T) {
	reader := commands.NewVideoTriggerReader("trigger-reader")
	downstream := &recordingCommand{BaseCommand: *cor.NewBaseCommand("downstream")}

	chain := cor.NewBaseChain("filter-test")
	chain.AddCommand(reader)
	chain.AddCommand(downstream)

	chainCtx := newChainContext(test.GetTestSegmentWriteBackMessageText())
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.False(t, downstream.executed)
}

func TestChainRunsDownstreamWithTrigger(t *testing.T) {
	reader := commands.NewVideoTriggerReader("trigger-reader")
	downstream := &recordingCommand{BaseCommand: *cor.NewBaseCommand("downstream")}

	chain := cor.NewBaseChain("filter-test")
	chain.AddCommand(reader)
	chain.AddCommand(downstream)

	chainCtx := newChainContext(test.GetTestVideoUploadMessageText())
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.True(t, downstream.executed)
}
