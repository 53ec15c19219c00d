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

// Package commands provides the concrete Command implementations the recap
// workflows are built from. This file defines the window analyzer, the
// heart of the pipeline: it walks the windows strictly in order and asks
// the model to describe each one.
//
// Logic Flow:
//
//  1. Windows are processed sequentially, never in parallel. Each call
//     carries a running context: the sequence summary the model produced
//     for the previous window ("None" for the first). This is what lets
//     window N's description say "the same person seen earlier returns"
//     instead of starting cold.
//  2. Each request interleaves a frame-index label before every image, so
//     the model can cite native frame numbers in its key events.
//  3. A failed call or an unparseable response produces a placeholder
//     result for that window and the walk continues; the running context
//     is only ever advanced by a successful analysis. One bad window
//     degrades the recap, it does not abort it.
//  4. Token usage from every call, including failed parses, feeds the
//     run's usage accumulator.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/inference"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// frameMIMEType is what the sampler emits; ffmpeg's image2 muxer writes
// baseline JPEGs.
const frameMIMEType = "image/jpeg"

// WindowAnalyzer runs the sequential per-window analysis.
type WindowAnalyzer struct {
	cor.BaseCommand
	client                   inference.Client
	template                 *template.Template
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	windowFailureCounter     metric.Int64Counter
}

// NewWindowAnalyzer constructs the analyzer with the inference client and
// the parsed window prompt template.
func NewWindowAnalyzer(name string, client inference.Client, template *template.Template) *WindowAnalyzer {
	out := &WindowAnalyzer{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		template:    template,
	}
	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.windowFailureCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.window.failure", out.GetName()))
	return out
}

// Execute analyzes every window in order, threading the running context.
func (c *WindowAnalyzer) Execute(context cor.Context) {
	windows := context.Get(c.GetInputParam()).(model.WindowList)

	usage, ok := context.Get(GetUsageName()).(*model.UsageAccumulator)
	if !ok {
		usage = &model.UsageAccumulator{}
		context.Add(GetUsageName(), usage)
	}

	runningContext := model.RunningContextNone
	results := make([]model.WindowResult, 0, len(windows))

	for i, window := range windows {
		result := model.WindowResult{
			WindowIndex: i,
			StartFrame:  window.StartIndex(),
			EndFrame:    window.EndIndex(),
		}

		analysis, err := c.analyzeWindow(context, window, i, len(windows), runningContext, usage)
		if err != nil {
			c.windowFailureCounter.Add(context.GetContext(), 1)
			slog.Warn("window analysis failed, recording placeholder",
				"window", i,
				"start_frame", result.StartFrame,
				"end_frame", result.EndFrame,
				"error", err)
			result.Failed = true
			result.Description = model.WindowAnalysisPlaceholder
		} else {
			result.Analysis = analysis
			result.Description = analysis.SequenceSummary
			runningContext = analysis.SequenceSummary
		}
		results = append(results, result)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetWindowResultsName(), results)
	context.Add(c.GetOutputParam(), results)
}

// analyzeWindow issues one model call for one window and parses the reply.
func (c *WindowAnalyzer) analyzeWindow(
	context cor.Context,
	window model.Window,
	index, total int,
	runningContext string,
	usage *model.UsageAccumulator,
) (*model.WindowAnalysis, error) {
	prompt, err := c.renderPrompt(window, index, total, runningContext)
	if err != nil {
		return nil, err
	}

	parts := make([]inference.Part, 0, 1+2*len(window.Frames))
	parts = append(parts, inference.TextPart(prompt))
	for _, frame := range window.Frames {
		data, err := os.ReadFile(frame.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %d: %w", frame.Index, err)
		}
		parts = append(parts, inference.TextPart(fmt.Sprintf("Frame %d:", frame.Index)))
		parts = append(parts, inference.ImagePart(data, frameMIMEType))
	}

	resp, err := c.client.Generate(context.GetContext(), &inference.Request{Parts: parts})
	if err != nil {
		return nil, err
	}
	usage.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	c.geminiInputTokenCounter.Add(context.GetContext(), resp.Usage.InputTokens)
	c.geminiOutputTokenCounter.Add(context.GetContext(), resp.Usage.OutputTokens)

	var analysis model.WindowAnalysis
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Text)), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse window analysis: %w", err)
	}
	if analysis.SequenceSummary == "" {
		return nil, fmt.Errorf("window analysis missing sequence summary")
	}
	return &analysis, nil
}

// renderPrompt fills the window prompt template with the running context
// and window coordinates, plus a few-shot example of the expected JSON.
func (c *WindowAnalyzer) renderPrompt(window model.Window, index, total int, runningContext string) (string, error) {
	exampleJSON, _ := json.Marshal(model.GetExampleWindowAnalysis())
	params := map[string]interface{}{
		"RUNNING_CONTEXT": runningContext,
		"WINDOW_INDEX":    index + 1,
		"WINDOW_COUNT":    total,
		"START_FRAME":     window.StartIndex(),
		"END_FRAME":       window.EndIndex(),
		"EXAMPLE_JSON":    string(exampleJSON),
	}

	var buffer bytes.Buffer
	if err := c.template.Execute(&buffer, params); err != nil {
		return "", fmt.Errorf("failed to execute window prompt template: %w", err)
	}
	return buffer.String(), nil
}
