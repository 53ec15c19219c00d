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

package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/inference"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/segment"
	testutil "github.com/mediawatch/gcp-go-video-recap/internal/testutil"
)

const testWindowPrompt = `Previous context: {{.RUNNING_CONTEXT}}
Window {{.WINDOW_INDEX}} of {{.WINDOW_COUNT}}, frames {{.START_FRAME}}-{{.END_FRAME}}.
Respond with JSON like: {{.EXAMPLE_JSON}}`

// newAnalyzerContext builds a workflow context carrying a segmented window
// list of sampled test frames.
func newAnalyzerContext(t *testing.T, frameCount, stride, batch, slide int) (cor.Context, model.WindowList) {
	t.Helper()

	frames, err := testutil.WriteSampleFrames(t.TempDir(), frameCount, stride)
	require.NoError(t, err)
	windows, _, err := segment.Slide(frames, batch, slide)
	require.NoError(t, err)

	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(GetSampleParamsName(), model.SampleParameters{
		SampleIntervalMillis: 500,
		ResizeRatio:          1.0,
		BatchSize:            batch,
		SlideSize:            slide,
	})
	ctx.Add(cor.CtxIn, windows)
	return ctx, windows
}

func TestWindowAnalyzerThreadsRunningContext(t *testing.T) {
	ctx, windows := newAnalyzerContext(t, 10, 15, 7, 2)
	require.Len(t, windows, 2)

	client := testutil.NewScriptedInferenceClient(
		testutil.ScriptedResponse{
			Text:  `{"sequence_summary": "A van arrives at the dock.", "key_events": []}`,
			Usage: inference.Usage{InputTokens: 100, OutputTokens: 20},
		},
		testutil.ScriptedResponse{
			Text:  `{"sequence_summary": "The driver unloads boxes.", "key_events": []}`,
			Usage: inference.Usage{InputTokens: 110, OutputTokens: 25},
		},
	)

	tmpl := template.Must(template.New("window").Parse(testWindowPrompt))
	analyzer := NewWindowAnalyzer("window-analyzer", client, tmpl)
	analyzer.Execute(ctx)

	require.False(t, ctx.HasErrors())
	results := ctx.Get(GetWindowResultsName()).([]model.WindowResult)
	require.Len(t, results, 2)

	assert.Equal(t, "A van arrives at the dock.", results[0].Description)
	assert.Equal(t, "The driver unloads boxes.", results[1].Description)
	assert.False(t, results[0].Failed)
	assert.False(t, results[1].Failed)

	// The first call starts from the sentinel, the second carries the first
	// window's summary forward.
	require.Equal(t, 2, client.CallCount())
	firstPrompt := client.Requests[0].Parts[0].Text
	secondPrompt := client.Requests[1].Parts[0].Text
	assert.Contains(t, firstPrompt, "Previous context: "+model.RunningContextNone)
	assert.Contains(t, secondPrompt, "Previous context: A van arrives at the dock.")

	// Each request interleaves a label before every frame image.
	labels := 0
	images := 0
	for _, p := range client.Requests[0].Parts[1:] {
		if p.ImageData != nil {
			images++
		} else if strings.HasPrefix(p.Text, "Frame ") {
			labels++
		}
	}
	assert.Equal(t, 7, images)
	assert.Equal(t, 7, labels)

	usage := ctx.Get(GetUsageName()).(*model.UsageAccumulator)
	assert.Equal(t, int64(210), usage.InputTokens)
	assert.Equal(t, int64(45), usage.OutputTokens)
}

func TestWindowAnalyzerFailureYieldsPlaceholder(t *testing.T) {
	ctx, windows := newAnalyzerContext(t, 10, 15, 7, 2)
	require.Len(t, windows, 2)

	client := testutil.NewScriptedInferenceClient(
		testutil.ScriptedResponse{Err: errors.New("backend unavailable")},
		testutil.ScriptedResponse{
			Text:  `{"sequence_summary": "Activity at the dock continues.", "key_events": []}`,
			Usage: inference.Usage{InputTokens: 90, OutputTokens: 15},
		},
	)

	tmpl := template.Must(template.New("window").Parse(testWindowPrompt))
	analyzer := NewWindowAnalyzer("window-analyzer", client, tmpl)
	analyzer.Execute(ctx)

	// A window failure never fails the chain.
	require.False(t, ctx.HasErrors())
	results := ctx.Get(GetWindowResultsName()).([]model.WindowResult)
	require.Len(t, results, 2)

	assert.True(t, results[0].Failed)
	assert.Equal(t, model.WindowAnalysisPlaceholder, results[0].Description)
	assert.Nil(t, results[0].Analysis)

	assert.False(t, results[1].Failed)
	// The failed window never advanced the running context, so window two
	// still starts from the sentinel.
	secondPrompt := client.Requests[1].Parts[0].Text
	assert.Contains(t, secondPrompt, "Previous context: "+model.RunningContextNone)
}

func TestWindowAnalyzerUnparseableResponseYieldsPlaceholder(t *testing.T) {
	ctx, windows := newAnalyzerContext(t, 7, 1, 7, 2)
	require.Len(t, windows, 1)

	client := testutil.NewScriptedInferenceClient(
		testutil.ScriptedResponse{
			Text:  "I could not produce JSON for this one.",
			Usage: inference.Usage{InputTokens: 80, OutputTokens: 12},
		},
	)

	tmpl := template.Must(template.New("window").Parse(testWindowPrompt))
	analyzer := NewWindowAnalyzer("window-analyzer", client, tmpl)
	analyzer.Execute(ctx)

	require.False(t, ctx.HasErrors())
	results := ctx.Get(GetWindowResultsName()).([]model.WindowResult)
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)

	// Tokens were still spent and must still be counted.
	usage := ctx.Get(GetUsageName()).(*model.UsageAccumulator)
	assert.Equal(t, int64(92), usage.TotalTokens())
}
