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
// pipeline. This file contains the transient frame and window structures
// produced by the sampling and segmentation stages. These objects live only
// for the duration of one pipeline run; the frame images themselves sit in a
// scratch directory that the orchestrator removes when the run finishes.
package model

// Frame is one sampled still image. Index is the position of the frame in
// the *native* frame sequence of the source video, so two frames sampled at
// stride 15 have indices 0 and 15, not 0 and 1. Path points at the JPEG
// written to the run's scratch directory.
type Frame struct {
	Index int
	Path  string
}

// FrameSet is the ordered output of the frame sampler. Indices are strictly
// increasing.
type FrameSet []Frame

// Indices returns the native frame indices of the set, in order.
func (f FrameSet) Indices() []int {
	out := make([]int, len(f))
	for i, fr := range f {
		out[i] = fr.Index
	}
	return out
}

// VideoMeta reports what the sampler learned about the source video and
// what it produced.
type VideoMeta struct {
	// TotalNativeFrames is the frame count of the source video. When the
	// container does not carry an explicit count it is derived from
	// duration times frame rate.
	TotalNativeFrames int
	// FramesPerSecond is the native frame rate.
	FramesPerSecond float64
	// DurationSeconds is the container duration, zero when unknown.
	DurationSeconds float64
	// SampledWidth and SampledHeight are the dimensions of the emitted
	// frames after the resize ratio was applied.
	SampledWidth  int
	SampledHeight int
	// Stride is the native-frame step between two sampled frames.
	Stride int
}

// Window is a contiguous run of frames taken from a FrameSet. Every window
// produced by the segmenter holds exactly BatchSize frames; there are no
// partial windows.
type Window struct {
	Frames FrameSet
}

// StartIndex returns the native index of the window's first frame.
func (w Window) StartIndex() int {
	if len(w.Frames) == 0 {
		return 0
	}
	return w.Frames[0].Index
}

// EndIndex returns the native index of the window's last frame.
func (w Window) EndIndex() int {
	if len(w.Frames) == 0 {
		return 0
	}
	return w.Frames[len(w.Frames)-1].Index
}

// WindowList is the ordered output of one segmentation call. Windows are
// sorted by their starting position in the FrameSet.
type WindowList []Window

// SegmentationReport is the structured advisory diagnostic returned next to
// a WindowList. It records how much of the frame sequence the produced
// windows cover. An uncovered tail is a configuration smell, not an error:
// segmentation still succeeds and the caller decides whether to retune.
type SegmentationReport struct {
	// FrameCount is the number of sampled frames that were segmented.
	FrameCount int
	BatchSize  int
	SlideSize  int
	// WindowCount is the number of windows emitted.
	WindowCount int
	// UncoveredTail is the number of trailing frames no window contains.
	// It equals (FrameCount - BatchSize) mod SlideSize.
	UncoveredTail int
	// CompatibleSlideSizes lists every slide size in [1, BatchSize-1] that
	// would have covered the sequence completely. Purely informational.
	CompatibleSlideSizes []int
}

// FullCoverage reports whether every frame belongs to at least one window.
func (r *SegmentationReport) FullCoverage() bool {
	return r.UncoveredTail == 0
}
