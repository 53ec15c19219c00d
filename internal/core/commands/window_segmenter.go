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
// workflows are built from. This file defines the window segmenter, a thin
// command shell around the pure sliding-window algorithm in the segment
// package. A batch size that exceeds the sampled frame count is the one
// fatal outcome here; incomplete tail coverage is only logged and reported.
package commands

import (
	"log/slog"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/segment"
)

// WindowSegmenter groups the sampled frames into overlapping analysis
// windows.
type WindowSegmenter struct {
	cor.BaseCommand
}

// NewWindowSegmenter constructs the segmenter command.
func NewWindowSegmenter(name string) *WindowSegmenter {
	return &WindowSegmenter{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute slides the configured window over the frame set.
func (c *WindowSegmenter) Execute(context cor.Context) {
	frames := context.Get(c.GetInputParam()).(model.FrameSet)
	params := context.Get(GetSampleParamsName()).(model.SampleParameters)

	windows, report, err := segment.Slide(frames, params.BatchSize, params.SlideSize)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	if !report.FullCoverage() {
		slog.Warn("trailing frames not covered by any window",
			"frame_count", report.FrameCount,
			"batch_size", report.BatchSize,
			"slide_size", report.SlideSize,
			"uncovered_tail", report.UncoveredTail,
			"compatible_slide_sizes", report.CompatibleSlideSizes)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetSegmentationReportName(), report)
	context.Add(c.GetOutputParam(), windows)
}
