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
// workflows are built from. This file defines the well-known context keys
// commands use to share state outside the default input/output piping. The
// piped value carries the main data flow (source, frames, windows, results,
// summary); these keys carry the side products several commands need, such
// as the video metadata and the token usage accumulator.
package commands

// GetSourceUriName returns the context key holding the original source
// reference of the run (path, URL, or gs:// URI).
func GetSourceUriName() string { return "__SOURCE_URI__" }

// GetSampleParamsName returns the context key holding the run's
// model.SampleParameters.
func GetSampleParamsName() string { return "__SAMPLE_PARAMS__" }

// GetVideoMetaName returns the context key holding the model.VideoMeta the
// sampler extracted.
func GetVideoMetaName() string { return "__VIDEO_META__" }

// GetSegmentationReportName returns the context key holding the
// model.SegmentationReport.
func GetSegmentationReportName() string { return "__SEGMENTATION_REPORT__" }

// GetWindowResultsName returns the context key holding the per-window
// results slice.
func GetWindowResultsName() string { return "__WINDOW_RESULTS__" }

// GetUsageName returns the context key holding the run's
// model.UsageAccumulator.
func GetUsageName() string { return "__USAGE__" }

// GetVideoSummaryName returns the context key holding the parsed
// model.VideoSummary.
func GetVideoSummaryName() string { return "__VIDEO_SUMMARY__" }

// GetRecapRecordName returns the context key holding the assembled
// model.RecapRecord.
func GetRecapRecordName() string { return "__RECAP_RECORD__" }
