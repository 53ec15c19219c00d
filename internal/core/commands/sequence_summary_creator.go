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
// workflows are built from. This file defines the consolidation step: one
// text-only model call that folds every per-window description into the
// final situational summary.
//
// Logic Flow:
//
//  1. The per-window results, placeholders included, are formatted into a
//     numbered transcript with each window's frame range.
//  2. The summary prompt template wraps the transcript with instructions
//     and a few-shot example of the expected JSON.
//  3. Unlike a window failure, a failure here is fatal to the run: the
//     summary is the product, so there is no placeholder to fall back to.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/inference"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// summarySystemInstruction replaces the model's configured frame-analysis
// instruction for the consolidation call, which sees text only.
const summarySystemInstruction = "You are an editor consolidating ordered scene descriptions " +
	"from one continuous video into a single situational recap. You merge repeated events, keep " +
	"the timeline in order, and always answer with a single JSON document and nothing else."

// SequenceSummaryCreator folds the window descriptions into one summary.
type SequenceSummaryCreator struct {
	cor.BaseCommand
	client                   inference.Client
	template                 *template.Template
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
}

// NewSequenceSummaryCreator constructs the summarization command with the
// inference client and the parsed summary prompt template.
func NewSequenceSummaryCreator(name string, client inference.Client, template *template.Template) *SequenceSummaryCreator {
	out := &SequenceSummaryCreator{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		template:    template,
	}
	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	return out
}

// Execute issues the summarization call and pipes the raw JSON onward.
func (c *SequenceSummaryCreator) Execute(context cor.Context) {
	results := context.Get(c.GetInputParam()).([]model.WindowResult)

	prompt, err := c.renderPrompt(results)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.SummaryError{Stage: c.GetName(), Err: err})
		return
	}

	resp, err := c.client.Generate(context.GetContext(), &inference.Request{
		SystemPrompt: summarySystemInstruction,
		Parts:        []inference.Part{inference.TextPart(prompt)},
	})
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.SummaryError{Stage: c.GetName(), Err: err})
		return
	}

	if usage, ok := context.Get(GetUsageName()).(*model.UsageAccumulator); ok {
		usage.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	c.geminiInputTokenCounter.Add(context.GetContext(), resp.Usage.InputTokens)
	c.geminiOutputTokenCounter.Add(context.GetContext(), resp.Usage.OutputTokens)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), resp.Text)
}

// renderPrompt formats the window transcript and fills the summary
// template.
func (c *SequenceSummaryCreator) renderPrompt(results []model.WindowResult) (string, error) {
	var transcript strings.Builder
	for _, r := range results {
		fmt.Fprintf(&transcript, "Window %d (frames %d-%d): %s\n",
			r.WindowIndex+1, r.StartFrame, r.EndFrame, r.Description)
	}

	exampleJSON, _ := json.Marshal(model.GetExampleVideoSummary())
	params := map[string]interface{}{
		"WINDOW_DESCRIPTIONS": transcript.String(),
		"WINDOW_COUNT":        len(results),
		"EXAMPLE_JSON":        string(exampleJSON),
	}

	var buffer bytes.Buffer
	if err := c.template.Execute(&buffer, params); err != nil {
		return "", fmt.Errorf("failed to execute summary prompt template: %w", err)
	}
	return buffer.String(), nil
}
