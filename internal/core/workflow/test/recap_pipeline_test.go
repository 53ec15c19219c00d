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

package workflow_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediawatch/gcp-go-video-recap/internal/cloud"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/commands"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/inference"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/workflow"
	testutil "github.com/mediawatch/gcp-go-video-recap/internal/testutil"
)

// newAnalysisChain assembles the pipeline from segmentation onward, the
// part that runs on an already sampled frame set. Persistence runs without
// a BigQuery client and is skipped.
func newAnalysisChain(t *testing.T, client inference.Client) cor.Chain {
	t.Helper()

	windowTemplate, err := template.New("window").Parse(config.PromptTemplates.WindowPrompt)
	require.NoError(t, err)
	summaryTemplate, err := template.New("summary").Parse(config.PromptTemplates.SummaryPrompt)
	require.NoError(t, err)

	chain := cor.NewBaseChain("analysis-chain")
	chain.AddCommand(commands.NewWindowSegmenter("window-segmenter"))
	chain.AddCommand(commands.NewWindowAnalyzer("window-analyzer", client, windowTemplate))
	chain.AddCommand(commands.NewSequenceSummaryCreator("sequence-summary-creator", client, summaryTemplate))
	chain.AddCommand(commands.NewSummaryJsonToStruct("summary-json-to-struct"))
	chain.AddCommand(commands.NewRecapRecordBuilder("recap-record-builder", config.Pricing["recap-flash"]))
	chain.AddCommand(commands.NewRecapPersistToBigQuery("write-to-bigquery", nil, "", ""))
	return chain
}

func TestAnalysisChainProducesRecord(t *testing.T) {
	frames, err := testutil.WriteSampleFrames(t.TempDir(), 10, 15)
	require.NoError(t, err)

	// Two windows (batch 7, slide 2 over 10 frames), then one summary call.
	client := testutil.NewScriptedInferenceClient(
		testutil.ScriptedResponse{Text: windowJSON("A van arrives at the dock."), Usage: inference.Usage{InputTokens: 100, OutputTokens: 20}},
		testutil.ScriptedResponse{Text: windowJSON("The driver unloads boxes."), Usage: inference.Usage{InputTokens: 110, OutputTokens: 25}},
		testutil.ScriptedResponse{Text: summaryJSON("A routine delivery at the loading dock."), Usage: inference.Usage{InputTokens: 60, OutputTokens: 40}},
	)

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.GetSampleParamsName(), config.Sampling.Parameters())
	chainCtx.Add(commands.GetUsageName(), &model.UsageAccumulator{})
	chainCtx.Add(commands.GetSourceUriName(), "gs://recap_input_videos/loading-dock-cam-001.mp4")
	chainCtx.Add(commands.GetVideoMetaName(), model.VideoMeta{
		TotalNativeFrames: 150,
		FramesPerSecond:   30,
		DurationSeconds:   5,
		Stride:            15,
	})
	chainCtx.Add(cor.CtxIn, frames)

	newAnalysisChain(t, client).Execute(chainCtx)

	require.False(t, chainCtx.HasErrors(), "errors: %v", chainCtx.GetErrors())
	require.Equal(t, 3, client.CallCount())

	record := chainCtx.Get(commands.GetRecapRecordName()).(*model.RecapRecord)
	assert.NotEmpty(t, record.Id)
	assert.Equal(t, "gs://recap_input_videos/loading-dock-cam-001.mp4", record.SourceUri)
	assert.Equal(t, "A routine delivery at the loading dock.", record.Summary.Summary)
	require.Len(t, record.Windows, 2)
	assert.Equal(t, 0, record.FailedWindows)
	assert.Equal(t, 10, record.SampledFrames)
	assert.Equal(t, 15, record.Stride)
	assert.Equal(t, int64(270), record.InputTokens)
	assert.Equal(t, int64(85), record.OutputTokens)
	// 270 input at 0.10/1K plus 85 output at 0.40/1K.
	assert.InDelta(t, 0.061, record.EstimatedCostUSD, 1e-9)
}

func TestAnalysisChainSummaryFailureIsFatal(t *testing.T) {
	frames, err := testutil.WriteSampleFrames(t.TempDir(), 10, 15)
	require.NoError(t, err)

	client := testutil.NewScriptedInferenceClient(
		testutil.ScriptedResponse{Text: windowJSON("First window.")},
		testutil.ScriptedResponse{Text: windowJSON("Second window.")},
		testutil.ScriptedResponse{Err: errors.New("backend unavailable")},
	)

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.GetSampleParamsName(), config.Sampling.Parameters())
	chainCtx.Add(commands.GetUsageName(), &model.UsageAccumulator{})
	chainCtx.Add(cor.CtxIn, frames)

	newAnalysisChain(t, client).Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	var sumErr *model.SummaryError
	found := false
	for _, e := range chainCtx.GetErrors() {
		if errors.As(e, &sumErr) {
			found = true
		}
	}
	assert.True(t, found, "expected a SummaryError, got %v", chainCtx.GetErrors())
	assert.Nil(t, chainCtx.Get(commands.GetRecapRecordName()))
}

func TestRunValidatesParameters(t *testing.T) {
	client := testutil.NewScriptedInferenceClient()
	pipeline := workflow.NewVideoRecapPipelineForClient(config, client, nil, nil, config.Pricing["recap-flash"])

	_, err := pipeline.Run(ctx, "/tmp/does-not-matter.mp4", model.SampleParameters{
		SampleIntervalMillis: 500,
		ResizeRatio:          1.5,
		BatchSize:            7,
		SlideSize:            2,
	})
	require.Error(t, err)
	var cfgErr *model.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Zero(t, client.CallCount())
}

// makeTestVideo synthesizes a 3 second 2 fps test pattern: exactly 6 native
// frames, so a 1000ms interval gives stride 2 and frames 0, 2, 4 sampled.
// Skips the test where the ffmpeg tools are not installed.
func makeTestVideo(t *testing.T) string {
	t.Helper()

	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	videoPath := filepath.Join(t.TempDir(), "testsrc.mp4")
	gen := exec.Command(ffmpeg,
		"-y", "-hide_banner",
		"-f", "lavfi", "-i", "testsrc=duration=3:size=320x240:rate=2",
		"-pix_fmt", "yuv420p",
		videoPath)
	require.NoError(t, gen.Run())
	return videoPath
}

// scratchConfig clones the suite config with a dedicated scratch directory,
// so tests can observe what the pipeline leaves behind.
func scratchConfig(t *testing.T) (*cloud.Config, string) {
	t.Helper()
	scratch := t.TempDir()
	cfg := *config
	cfg.Media.ScratchDir = scratch
	return &cfg, scratch
}

// TestRunEndToEnd drives the full pipeline, ffmpeg included, against a
// synthesized test pattern video.
func TestRunEndToEnd(t *testing.T) {
	videoPath := makeTestVideo(t)
	cfg, scratch := scratchConfig(t)

	client := testutil.NewScriptedInferenceClient(
		testutil.ScriptedResponse{Text: windowJSON("A color test pattern cycles."), Usage: inference.Usage{InputTokens: 200, OutputTokens: 30}},
		testutil.ScriptedResponse{Text: summaryJSON("A synthetic test pattern plays throughout."), Usage: inference.Usage{InputTokens: 50, OutputTokens: 35}},
	)
	pipeline := workflow.NewVideoRecapPipelineForClient(cfg, client, nil, nil, cfg.Pricing["recap-flash"])

	result, err := pipeline.Run(ctx, videoPath, model.SampleParameters{
		SampleIntervalMillis: 1000,
		ResizeRatio:          0.5,
		BatchSize:            3,
		SlideSize:            1,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "A synthetic test pattern plays throughout.", result.Record.Summary.Summary)
	require.Len(t, result.Record.Windows, 1)
	assert.Equal(t, 0, result.Record.Windows[0].StartFrame)
	assert.Equal(t, 4, result.Record.Windows[0].EndFrame)
	assert.Equal(t, 3, result.Record.SampledFrames)
	assert.Equal(t, 2, result.Record.Stride)
	assert.Equal(t, 6, result.Record.TotalNativeFrames)
	assert.True(t, result.Segmentation.FullCoverage())
	assert.Equal(t, int64(315), result.Usage.TotalTokens)
	assert.Equal(t, 2, client.CallCount())

	// The frame directory must be gone after a successful run.
	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestRunCleansScratchOnFailure fails the pipeline after frames have been
// extracted and checks that the scratch directory comes back empty. The
// summarizer answers with unparseable text, which is fatal at the JSON
// parsing stage.
func TestRunCleansScratchOnFailure(t *testing.T) {
	videoPath := makeTestVideo(t)
	cfg, scratch := scratchConfig(t)

	client := testutil.NewScriptedInferenceClient(
		testutil.ScriptedResponse{Text: windowJSON("A color test pattern cycles.")},
		testutil.ScriptedResponse{Text: "this is not a JSON document"},
	)
	pipeline := workflow.NewVideoRecapPipelineForClient(cfg, client, nil, nil, cfg.Pricing["recap-flash"])

	_, err := pipeline.Run(ctx, videoPath, model.SampleParameters{
		SampleIntervalMillis: 1000,
		ResizeRatio:          0.5,
		BatchSize:            3,
		SlideSize:            1,
	})
	require.Error(t, err)
	var sumErr *model.SummaryError
	assert.True(t, errors.As(err, &sumErr), "expected a SummaryError, got %v", err)

	// Frame extraction ran, so a frame directory existed under scratch.
	// Run must have swept it on the failure path too.
	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
