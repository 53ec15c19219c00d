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
// workflows are built from. This file defines the command that gathers the
// run's side products out of the context and assembles the persistent
// RecapRecord from them.
package commands

import (
	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// RecapRecordBuilder assembles the RecapRecord once the summary is parsed.
type RecapRecordBuilder struct {
	cor.BaseCommand
	pricing model.TokenPricing
}

// NewRecapRecordBuilder constructs the builder with the pricing used for
// the cost estimate.
func NewRecapRecordBuilder(name string, pricing model.TokenPricing) *RecapRecordBuilder {
	return &RecapRecordBuilder{BaseCommand: *cor.NewBaseCommand(name), pricing: pricing}
}

// Execute collects the run's facts into one record.
func (c *RecapRecordBuilder) Execute(context cor.Context) {
	summary := context.Get(c.GetInputParam()).(*model.VideoSummary)

	sourceUri, _ := context.Get(GetSourceUriName()).(string)
	record := model.NewRecapRecord(sourceUri)
	record.Summary = *summary

	if meta, ok := context.Get(GetVideoMetaName()).(model.VideoMeta); ok {
		record.DurationSeconds = meta.DurationSeconds
		record.FramesPerSecond = meta.FramesPerSecond
		record.TotalNativeFrames = meta.TotalNativeFrames
		record.Stride = meta.Stride
	}
	if params, ok := context.Get(GetSampleParamsName()).(model.SampleParameters); ok {
		record.BatchSize = params.BatchSize
		record.SlideSize = params.SlideSize
	}
	if report, ok := context.Get(GetSegmentationReportName()).(*model.SegmentationReport); ok {
		record.SampledFrames = report.FrameCount
	}
	if results, ok := context.Get(GetWindowResultsName()).([]model.WindowResult); ok {
		record.Windows = make([]model.RecapWindow, 0, len(results))
		for _, r := range results {
			record.Windows = append(record.Windows, model.RecapWindow{
				WindowIndex: r.WindowIndex,
				StartFrame:  r.StartFrame,
				EndFrame:    r.EndFrame,
				Description: r.Description,
				Failed:      r.Failed,
			})
			if r.Failed {
				record.FailedWindows++
			}
		}
	}
	if usage, ok := context.Get(GetUsageName()).(*model.UsageAccumulator); ok {
		report := usage.Report(c.pricing)
		record.InputTokens = report.InputTokens
		record.OutputTokens = report.OutputTokens
		record.EstimatedCostUSD = report.EstimatedCostUSD
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetRecapRecordName(), record)
	context.Add(c.GetOutputParam(), record)
}
