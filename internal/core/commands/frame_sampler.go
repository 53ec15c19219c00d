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
// workflows are built from. This file defines the frame sampler, which
// turns a local video file into a directory of still JPEG frames.
//
// Logic Flow:
//
//  1. ffprobe reports the video stream's dimensions, frame rate, frame
//     count, and duration. Containers that omit the frame count get it
//     derived from duration times frame rate.
//  2. The sample interval (wall-clock ms) is converted into a native frame
//     stride: stride = max(1, round(interval/1000 * fps)). The stride floor
//     of one means an interval shorter than one frame period degrades to
//     taking every frame, never to duplicating frames.
//  3. One ffmpeg pass extracts every stride-th frame and scales it by the
//     resize ratio with bilinear filtering, writing frame_000001.jpg
//     onward into a fresh scratch directory tracked for cleanup.
//  4. The emitted files become a FrameSet whose indices are the native
//     frame numbers (i * stride), so downstream frame references line up
//     with the source video. The probe results are published as VideoMeta.
package commands

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// frameFilePattern names the extracted frames. ffmpeg numbers them from 1.
const frameFilePattern = "frame_%06d.jpg"

// FrameSampler extracts scaled still frames from a video at a fixed time
// interval.
type FrameSampler struct {
	cor.BaseCommand
	ffmpegPath  string
	ffprobePath string
	scratchDir  string
}

// NewFrameSampler constructs the sampler. scratchDir is the parent for
// per-run frame directories; empty means the OS temp dir.
func NewFrameSampler(name, ffmpegPath, ffprobePath, scratchDir string) *FrameSampler {
	return &FrameSampler{
		BaseCommand: *cor.NewBaseCommand(name),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		scratchDir:  scratchDir,
	}
}

// Execute probes the input file and extracts the sampled frames.
func (c *FrameSampler) Execute(context cor.Context) {
	localPath := context.Get(c.GetInputParam()).(string)
	params := context.Get(GetSampleParamsName()).(model.SampleParameters)

	probe, err := c.probe(context, localPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MediaError{Stage: c.GetName(), Err: err})
		return
	}

	stride := computeStride(params.SampleIntervalMillis, probe.fps)
	outWidth, outHeight := scaledDimensions(probe.width, probe.height, params.ResizeRatio)

	frameDir, err := os.MkdirTemp(c.scratchDir, "frames-")
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MediaError{Stage: c.GetName(), Err: fmt.Errorf("could not create frame directory: %w", err)})
		return
	}
	context.AddTempDir(frameDir)

	frames, err := c.extract(context, localPath, frameDir, stride, outWidth, outHeight)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MediaError{Stage: c.GetName(), Err: err})
		return
	}
	if len(frames) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MediaError{Stage: c.GetName(), Err: fmt.Errorf("no frames decoded from %q", localPath)})
		return
	}

	meta := model.VideoMeta{
		TotalNativeFrames: probe.totalFrames,
		FramesPerSecond:   probe.fps,
		DurationSeconds:   probe.duration,
		SampledWidth:      outWidth,
		SampledHeight:     outHeight,
		Stride:            stride,
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("sampled frames",
		"file", localPath,
		"fps", probe.fps,
		"stride", stride,
		"frames", len(frames),
		"dimensions", fmt.Sprintf("%dx%d", outWidth, outHeight))

	context.Add(GetVideoMetaName(), meta)
	context.Add(c.GetOutputParam(), frames)
}

// probeResult holds the stream facts ffprobe reported.
type probeResult struct {
	width       int
	height      int
	fps         float64
	totalFrames int
	duration    float64
}

// probe shells out to ffprobe for the first video stream's properties.
func (c *FrameSampler) probe(context cor.Context, localPath string) (*probeResult, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames,duration",
		"-of", "csv=p=0",
		localPath,
	}
	cmd := exec.CommandContext(context.GetContext(), c.ffprobePath, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %q: %w", localPath, err)
	}
	return parseProbeOutput(string(out))
}

// parseProbeOutput parses one CSV line from ffprobe. The csv writer emits
// entries in ffprobe's fixed section order regardless of how -show_entries
// listed them, which puts duration before nb_frames:
//
//	width,height,r_frame_rate,duration,nb_frames
//
// nb_frames and duration may be reported as "N/A" by streamed containers; a
// missing frame count is derived from duration, and both missing is an error
// because windowing needs a frame count.
func parseProbeOutput(out string) (*probeResult, error) {
	line := strings.TrimSpace(out)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return nil, fmt.Errorf("unexpected ffprobe output %q", line)
	}

	width, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, fmt.Errorf("bad width in ffprobe output %q: %w", line, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, fmt.Errorf("bad height in ffprobe output %q: %w", line, err)
	}
	fps, err := parseRational(strings.TrimSpace(fields[2]))
	if err != nil {
		return nil, fmt.Errorf("bad frame rate in ffprobe output %q: %w", line, err)
	}

	result := &probeResult{width: width, height: height, fps: fps}

	if d := strings.TrimSpace(fields[3]); d != "" && d != "N/A" {
		result.duration, err = strconv.ParseFloat(d, 64)
		if err != nil {
			return nil, fmt.Errorf("bad duration in ffprobe output %q: %w", line, err)
		}
	}
	if n := strings.TrimSpace(fields[4]); n != "" && n != "N/A" {
		result.totalFrames, err = strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("bad frame count in ffprobe output %q: %w", line, err)
		}
	} else if result.duration > 0 {
		result.totalFrames = int(math.Round(result.duration * fps))
	} else {
		return nil, fmt.Errorf("ffprobe reported neither frame count nor duration in %q", line)
	}
	return result, nil
}

// parseRational parses ffprobe's rational frame rate form, e.g.
// "30000/1001" or "25/1". A plain decimal is accepted too.
func parseRational(in string) (float64, error) {
	num, den, found := strings.Cut(in, "/")
	if !found {
		return strconv.ParseFloat(in, 64)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in frame rate %q", in)
	}
	return n / d, nil
}

// computeStride converts a sample interval in milliseconds into a native
// frame stride, flooring at one frame.
func computeStride(intervalMillis int, fps float64) int {
	stride := int(math.Round(float64(intervalMillis) / 1000.0 * fps))
	if stride < 1 {
		stride = 1
	}
	return stride
}

// scaledDimensions applies the resize ratio, rounding down to even values
// since codecs and the jpeg encoder dislike odd dimensions.
func scaledDimensions(width, height int, ratio float64) (int, int) {
	w := int(float64(width)*ratio) / 2 * 2
	h := int(float64(height)*ratio) / 2 * 2
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	return w, h
}

// extract runs one ffmpeg pass selecting every stride-th frame and scaling
// it, then lists the produced files into a FrameSet.
func (c *FrameSampler) extract(context cor.Context, localPath, frameDir string, stride, width, height int) (model.FrameSet, error) {
	filter := fmt.Sprintf("select=not(mod(n\\,%d)),scale=%d:%d:flags=bilinear", stride, width, height)
	args := []string{
		"-y", "-hide_banner",
		"-i", localPath,
		"-vf", filter,
		"-vsync", "vfr",
		"-q:v", "2",
		filepath.Join(frameDir, frameFilePattern),
	}
	cmd := exec.CommandContext(context.GetContext(), c.ffmpegPath, args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %w", err)
	}

	entries, err := os.ReadDir(frameDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	frames := make(model.FrameSet, 0, len(names))
	for i, name := range names {
		frames = append(frames, model.Frame{
			Index: i * stride,
			Path:  filepath.Join(frameDir, name),
		})
	}
	return frames, nil
}
