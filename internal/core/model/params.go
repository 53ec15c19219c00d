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

// Package model defines the core data structures for the video recap
// pipeline. This file holds the sampling and windowing parameters that are
// fixed for the lifetime of a single pipeline run.
package model

import "fmt"

// SampleParameters controls how a source video is turned into a sequence of
// still frames and how that sequence is grouped into overlapping windows.
// The struct is populated from configuration before a run starts and is
// treated as immutable by every pipeline stage.
type SampleParameters struct {
	// SampleIntervalMillis is the target time between two sampled frames,
	// in milliseconds of video time.
	SampleIntervalMillis int
	// ResizeRatio scales the native frame dimensions before the frames are
	// handed to the model. Must be in (0, 1].
	ResizeRatio float64
	// BatchSize is the number of frames in every analysis window.
	BatchSize int
	// SlideSize is the number of frames the window start advances between
	// two consecutive windows. A slide smaller than the batch size yields
	// overlapping windows.
	SlideSize int
}

// Validate checks the static constraints on the parameters. Constraints that
// depend on the sampled frame count (batch size versus frames available) are
// checked later by the segmenter.
func (p SampleParameters) Validate() error {
	if p.SampleIntervalMillis <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("sample interval must be positive, got %d ms", p.SampleIntervalMillis)}
	}
	if p.ResizeRatio <= 0 || p.ResizeRatio > 1 {
		return &ConfigError{Reason: fmt.Sprintf("resize ratio must be in (0, 1], got %g", p.ResizeRatio)}
	}
	if p.BatchSize <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("batch size must be positive, got %d", p.BatchSize)}
	}
	if p.SlideSize <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("slide size must be positive, got %d", p.SlideSize)}
	}
	if p.SlideSize > p.BatchSize {
		return &ConfigError{Reason: fmt.Sprintf("slide size %d must not exceed batch size %d, or frames between windows would never be seen", p.SlideSize, p.BatchSize)}
	}
	return nil
}
