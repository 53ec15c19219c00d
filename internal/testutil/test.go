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

// Package test provides utilities and mock data for the test suite: a
// cached test configuration, a scripted in-memory inference client, sample
// GCS notification payloads, and a generator for placeholder frame images.
package test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mediawatch/gcp-go-video-recap/internal/cloud"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/inference"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// StateManager caches the loaded configuration so the TOML files are read
// once per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to cut
// boilerplate in tests.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestVideoUploadMessageText returns a JSON payload simulating the GCS
// notification published when a video lands in the input bucket.
func GetTestVideoUploadMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "recap_input_videos/loading-dock-cam-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/recap_input_videos/o/loading-dock-cam-001.mp4",
  "name": "loading-dock-cam-001.mp4",
  "bucket": "recap_input_videos",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/recap_input_videos/o/loading-dock-cam-001.mp4?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
	}`
}

// GetTestNonVideoMessageText returns a notification for a text object, used
// to verify the trigger reader drops non-video uploads.
func GetTestNonVideoMessageText() string {
	return `{
  "kind": "storage#object",
  "name": "notes.txt",
  "bucket": "recap_input_videos",
  "contentType": "text/plain"
	}`
}

// SetupOS points the configuration loader at the test TOML files.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// ScriptedResponse is one canned reply for the fake inference client. Err
// takes precedence over Text.
type ScriptedResponse struct {
	Text  string
	Usage inference.Usage
	Err   error
}

// ScriptedInferenceClient replays a fixed sequence of responses and records
// every request it saw, in order. Once the script runs out it returns an
// error, so tests catch unexpected extra calls.
type ScriptedInferenceClient struct {
	mu        sync.Mutex
	script    []ScriptedResponse
	Requests  []*inference.Request
	callCount int
}

// NewScriptedInferenceClient builds a fake client from the given script.
func NewScriptedInferenceClient(script ...ScriptedResponse) *ScriptedInferenceClient {
	return &ScriptedInferenceClient{script: script}
}

// Generate replays the next scripted response.
func (c *ScriptedInferenceClient) Generate(_ context.Context, req *inference.Request) (*inference.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Requests = append(c.Requests, req)
	if c.callCount >= len(c.script) {
		return nil, fmt.Errorf("scripted client exhausted after %d calls", len(c.script))
	}
	next := c.script[c.callCount]
	c.callCount++

	if next.Err != nil {
		return nil, next.Err
	}
	return &inference.Response{Text: next.Text, Usage: next.Usage}, nil
}

// CallCount returns how many Generate calls were made.
func (c *ScriptedInferenceClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callCount
}

// WriteSampleFrames writes n small JPEG images named like the sampler's
// output into dir and returns the FrameSet referencing them, with native
// indices spaced by stride.
func WriteSampleFrames(dir string, n, stride int) (model.FrameSet, error) {
	frames := make(model.FrameSet, 0, n)
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		// Vary the pixels slightly so files differ.
		shade := uint8((i * 37) % 256)
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
			}
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.jpg", i+1))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, err
		}
		frames = append(frames, model.Frame{Index: i * stride, Path: path})
	}
	return frames, nil
}
