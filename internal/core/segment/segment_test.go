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

package segment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// makeFrames builds a FrameSet of n frames sampled at the given stride, the
// same shape the frame sampler emits.
func makeFrames(n, stride int) model.FrameSet {
	out := make(model.FrameSet, n)
	for i := 0; i < n; i++ {
		out[i] = model.Frame{
			Index: i * stride,
			Path:  fmt.Sprintf("/tmp/frames/frame_%06d.jpg", i+1),
		}
	}
	return out
}

func TestSlideOverlappingWindows(t *testing.T) {
	frames := makeFrames(10, 15)

	windows, report, err := Slide(frames, 7, 2)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	// Window starts advance by the slide size, every window is full width.
	assert.Equal(t, frames[0].Index, windows[0].StartIndex())
	assert.Equal(t, frames[6].Index, windows[0].EndIndex())
	assert.Equal(t, frames[2].Index, windows[1].StartIndex())
	assert.Equal(t, frames[8].Index, windows[1].EndIndex())
	for _, w := range windows {
		assert.Len(t, w.Frames, 7)
	}

	// Frame 9 starts no window because a full batch would not fit.
	assert.Equal(t, 1, report.UncoveredTail)
	assert.False(t, report.FullCoverage())
	assert.Equal(t, 2, report.WindowCount)
	assert.Equal(t, []int{1, 3}, report.CompatibleSlideSizes)
}

func TestSlideDisjointWindows(t *testing.T) {
	frames := makeFrames(20, 1)

	windows, report, err := Slide(frames, 7, 7)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, 0, windows[0].StartIndex())
	assert.Equal(t, 6, windows[0].EndIndex())
	assert.Equal(t, 7, windows[1].StartIndex())
	assert.Equal(t, 13, windows[1].EndIndex())

	assert.Equal(t, 6, report.UncoveredTail)
	assert.Equal(t, []int{1}, report.CompatibleSlideSizes)
}

func TestSlideExactCoverage(t *testing.T) {
	frames := makeFrames(13, 1)

	windows, report, err := Slide(frames, 7, 3)
	require.NoError(t, err)
	assert.Len(t, windows, 3)
	assert.True(t, report.FullCoverage())
	assert.Equal(t, 0, report.UncoveredTail)
}

func TestSlideBatchEqualsFrameCount(t *testing.T) {
	frames := makeFrames(7, 1)

	windows, report, err := Slide(frames, 7, 2)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Len(t, windows[0].Frames, 7)
	assert.True(t, report.FullCoverage())
}

func TestSlideBatchLargerThanFrameCount(t *testing.T) {
	frames := makeFrames(5, 1)

	_, _, err := Slide(frames, 7, 2)
	require.Error(t, err)
	var cfgErr *model.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSlideIsDeterministic(t *testing.T) {
	frames := makeFrames(31, 30)

	first, firstReport, err := Slide(frames, 8, 3)
	require.NoError(t, err)
	second, secondReport, err := Slide(frames, 8, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)
}

func TestSlideWindowsShareBackingFrames(t *testing.T) {
	frames := makeFrames(12, 1)

	windows, _, err := Slide(frames, 6, 3)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	// Overlapping windows must see the same frames, not copies with
	// renumbered indices.
	assert.Equal(t, windows[0].Frames[3], windows[1].Frames[0])
	assert.Equal(t, windows[1].Frames[3], windows[2].Frames[0])
}
