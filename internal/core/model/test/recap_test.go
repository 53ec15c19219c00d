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

// Package model_test contains unit tests for the data models defined in the
// model package. This file tests the constructor and initial state of the
// persistent recap record and the token usage accounting.
package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// TestNewRecapRecord verifies that the constructor assigns a parseable UUID,
// stamps the creation time, and carries the source URI through unchanged.
func TestNewRecapRecord(t *testing.T) {
	sourceUri := "gs://recap_input_videos/loading-dock-cam-001.mp4"
	record := model.NewRecapRecord(sourceUri)

	_, err := uuid.Parse(record.Id)
	assert.NoError(t, err)
	assert.Equal(t, sourceUri, record.SourceUri)
	assert.WithinDuration(t, time.Now().UTC(), record.CreatedAt, time.Second)
	assert.Empty(t, record.Windows)
	assert.Zero(t, record.FailedWindows)
}

// TestUsageAccumulator verifies that token counts sum across calls and that
// the cost report applies the per-thousand-token rates to each side.
func TestUsageAccumulator(t *testing.T) {
	usage := &model.UsageAccumulator{}
	usage.Add(100, 20)
	usage.Add(110, 25)
	usage.Add(60, 40)

	assert.Equal(t, int64(270), usage.InputTokens)
	assert.Equal(t, int64(85), usage.OutputTokens)
	assert.Equal(t, int64(355), usage.TotalTokens())

	report := usage.Report(model.TokenPricing{InputPer1K: 0.10, OutputPer1K: 0.40})
	assert.Equal(t, int64(270), report.InputTokens)
	assert.Equal(t, int64(85), report.OutputTokens)
	assert.Equal(t, int64(355), report.TotalTokens)
	assert.InDelta(t, 0.027+0.034, report.EstimatedCostUSD, 1e-9)
}

// TestSampleParametersValidate exercises the bounds on each sampling knob.
func TestSampleParametersValidate(t *testing.T) {
	valid := model.SampleParameters{
		SampleIntervalMillis: 500,
		ResizeRatio:          0.5,
		BatchSize:            7,
		SlideSize:            2,
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*model.SampleParameters)
	}{
		{"zero interval", func(p *model.SampleParameters) { p.SampleIntervalMillis = 0 }},
		{"ratio above one", func(p *model.SampleParameters) { p.ResizeRatio = 1.5 }},
		{"zero ratio", func(p *model.SampleParameters) { p.ResizeRatio = 0 }},
		{"zero batch", func(p *model.SampleParameters) { p.BatchSize = 0 }},
		{"zero slide", func(p *model.SampleParameters) { p.SlideSize = 0 }},
		{"slide exceeds batch", func(p *model.SampleParameters) { p.SlideSize = 8 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := valid
			tc.mutate(&params)
			err := params.Validate()
			require.Error(t, err)
			var cfgErr *model.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

// TestExampleStructures ensures the few-shot examples embedded in the prompts
// stay complete, since an empty example would degrade the model's output.
func TestExampleStructures(t *testing.T) {
	window := model.GetExampleWindowAnalysis()
	assert.NotEmpty(t, window.SequenceSummary)
	assert.NotEmpty(t, window.KeyEvents)

	summary := model.GetExampleVideoSummary()
	assert.NotEmpty(t, summary.Summary)
	assert.NotEmpty(t, summary.KeyEvents)
	for _, event := range summary.KeyEvents {
		assert.Contains(t, []string{model.SignificanceHigh, model.SignificanceMedium, model.SignificanceLow}, event.Significance)
	}
}
