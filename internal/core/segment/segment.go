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

// Package segment turns an ordered frame sequence into overlapping
// fixed-size windows. The algorithm is a plain sliding window: a window of
// BatchSize frames starts at every position 0, SlideSize, 2*SlideSize, ...
// as long as the full window fits. Positions where only part of a window
// would fit are skipped entirely, so every emitted window has exactly
// BatchSize frames and trailing frames can be left uncovered. Coverage is
// reported, not enforced.
package segment

import (
	"fmt"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// Slide partitions frames into overlapping windows of exactly batchSize
// frames, advancing slideSize frames between window starts.
//
// The returned report describes coverage: how many trailing frames no window
// contains, and which slide sizes would have covered the sequence fully. An
// uncovered tail is not an error.
//
// Slide returns a ConfigError when batchSize exceeds the number of frames,
// since not even one window can be formed. Static parameter validation
// (positive sizes) is assumed to have happened already; see
// model.SampleParameters.Validate.
func Slide(frames model.FrameSet, batchSize, slideSize int) (model.WindowList, *model.SegmentationReport, error) {
	n := len(frames)
	if batchSize > n {
		return nil, nil, &model.ConfigError{
			Reason: fmt.Sprintf("batch size %d exceeds the %d sampled frames, no window can be formed", batchSize, n),
		}
	}

	windowCount := (n-batchSize)/slideSize + 1
	windows := make(model.WindowList, 0, windowCount)
	for i := 0; i < windowCount; i++ {
		start := i * slideSize
		windows = append(windows, model.Window{Frames: frames[start : start+batchSize]})
	}

	report := &model.SegmentationReport{
		FrameCount:           n,
		BatchSize:            batchSize,
		SlideSize:            slideSize,
		WindowCount:          windowCount,
		UncoveredTail:        (n - batchSize) % slideSize,
		CompatibleSlideSizes: compatibleSlideSizes(n, batchSize),
	}
	return windows, report, nil
}

// compatibleSlideSizes returns every slide size in [1, batchSize-1] that
// leaves no uncovered tail for a sequence of n frames. The range excludes
// batchSize itself: a slide equal to the batch gives disjoint windows with no
// overlap, which defeats the point of sliding.
func compatibleSlideSizes(n, batchSize int) []int {
	out := make([]int, 0)
	for s := 1; s < batchSize; s++ {
		if (n-batchSize)%s == 0 {
			out = append(out, s)
		}
	}
	return out
}
