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

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRational(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25/1", 25.0},
		{"30000/1001", 29.97002997002997},
		{"24", 24.0},
	}
	for _, tc := range tests {
		got, err := parseRational(tc.in)
		require.NoError(t, err, tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, tc.in)
	}

	_, err := parseRational("30/0")
	assert.Error(t, err)
	_, err = parseRational("abc")
	assert.Error(t, err)
}

func TestComputeStride(t *testing.T) {
	// 500ms at 30fps picks every 15th native frame.
	assert.Equal(t, 15, computeStride(500, 30.0))
	// 1s at 29.97fps rounds to 30.
	assert.Equal(t, 30, computeStride(1000, 29.97))
	// An interval shorter than one frame period floors at 1, never 0.
	assert.Equal(t, 1, computeStride(10, 24.0))
	// 100ms at 24fps: 2.4 rounds down to 2.
	assert.Equal(t, 2, computeStride(100, 24.0))
}

func TestScaledDimensions(t *testing.T) {
	w, h := scaledDimensions(1920, 1080, 0.5)
	assert.Equal(t, 960, w)
	assert.Equal(t, 540, h)

	// Odd results round down to even.
	w, h = scaledDimensions(1280, 722, 0.5)
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)

	// Degenerate ratios still give a drawable size.
	w, h = scaledDimensions(100, 100, 0.01)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
}

func TestParseProbeOutput(t *testing.T) {
	// ffprobe's csv writer emits duration before nb_frames, whatever the
	// order -show_entries requested them in.
	probe, err := parseProbeOutput("1920,1080,30000/1001,30.030000,900\n")
	require.NoError(t, err)
	assert.Equal(t, 1920, probe.width)
	assert.Equal(t, 1080, probe.height)
	assert.InDelta(t, 29.97, probe.fps, 0.01)
	assert.Equal(t, 900, probe.totalFrames)
	assert.InDelta(t, 30.03, probe.duration, 1e-9)
}

func TestParseProbeOutputDerivesFrameCount(t *testing.T) {
	// Streamed containers report nb_frames as N/A.
	probe, err := parseProbeOutput("640,360,25/1,10.0,N/A\n")
	require.NoError(t, err)
	assert.Equal(t, 250, probe.totalFrames)
	assert.InDelta(t, 10.0, probe.duration, 1e-9)
}

func TestParseProbeOutputRejectsUnusable(t *testing.T) {
	_, err := parseProbeOutput("640,360,25/1,N/A,N/A\n")
	assert.Error(t, err)

	_, err = parseProbeOutput("garbage\n")
	assert.Error(t, err)
}

func TestStripJSONFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripJSONFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFences(`{"a":1}`))
}
