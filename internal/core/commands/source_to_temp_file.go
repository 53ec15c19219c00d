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
// workflows are built from. This file defines the command that materializes
// a video source as a local file for ffmpeg to work on.
//
// Logic Flow:
//
//  1. Receives the source reference from the context: a local path, an
//     http(s) URL, or a gs:// URI.
//  2. Local paths are used in place; remote sources are streamed into a
//     temporary file that the context tracks for cleanup.
//  3. The first bytes of the file are sniffed to confirm the content is
//     actually video. A source that fetched fine but is not a video fails
//     here, before any model call has spent tokens.
//  4. The local path is piped to the frame sampler.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// sniffLen is how many leading bytes are read for content detection.
// filetype's video matchers need far less.
const sniffLen = 8192

// SourceToTempFile resolves a source reference into a readable local video
// file.
type SourceToTempFile struct {
	cor.BaseCommand
	storageClient  *storage.Client
	tempFilePrefix string
}

// NewSourceToTempFile constructs the source fetch command. The storage
// client may be nil when gs:// sources are not in play, e.g. in tests.
func NewSourceToTempFile(name string, storageClient *storage.Client, tempFilePrefix string) *SourceToTempFile {
	return &SourceToTempFile{
		BaseCommand:    *cor.NewBaseCommand(name),
		storageClient:  storageClient,
		tempFilePrefix: tempFilePrefix,
	}
}

// Execute resolves the source and emits a local file path.
func (c *SourceToTempFile) Execute(context cor.Context) {
	source := context.Get(c.GetInputParam()).(string)
	context.Add(GetSourceUriName(), source)

	var localPath string
	var err error
	switch {
	case strings.HasPrefix(source, "gs://"):
		localPath, err = c.fetchGCS(context, source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		localPath, err = c.fetchHTTP(context, source)
	default:
		localPath = source
		if _, statErr := os.Stat(localPath); statErr != nil {
			err = statErr
		}
	}
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MediaError{Stage: c.GetName(), Err: fmt.Errorf("failed to fetch source %q: %w", source, err)})
		return
	}

	if err := verifyVideo(localPath); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MediaError{Stage: c.GetName(), Err: err})
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("source resolved", "source", source, "local_path", localPath)
	context.Add(c.GetOutputParam(), localPath)
}

// fetchGCS streams a gs://bucket/object URI into a tracked temp file.
func (c *SourceToTempFile) fetchGCS(context cor.Context, source string) (string, error) {
	if c.storageClient == nil {
		return "", fmt.Errorf("no storage client configured for %q", source)
	}
	trimmed := strings.TrimPrefix(source, "gs://")
	bucket, object, found := strings.Cut(trimmed, "/")
	if !found || object == "" {
		return "", fmt.Errorf("malformed GCS URI %q", source)
	}

	reader, err := c.storageClient.Bucket(bucket).Object(object).NewReader(context.GetContext())
	if err != nil {
		return "", err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close GCS reader", "error", err)
		}
	}()

	return c.spool(context, reader)
}

// fetchHTTP streams an http(s) URL into a tracked temp file.
func (c *SourceToTempFile) fetchHTTP(context cor.Context, source string) (string, error) {
	if _, err := url.Parse(source); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(context.GetContext(), http.MethodGet, source, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	return c.spool(context, resp.Body)
}

// spool copies a stream into a new temp file registered for cleanup.
func (c *SourceToTempFile) spool(context cor.Context, reader io.Reader) (string, error) {
	tempFile, err := os.CreateTemp("", c.tempFilePrefix)
	if err != nil {
		return "", fmt.Errorf("could not create temp file: %w", err)
	}
	context.AddTempFile(tempFile.Name())

	written, err := io.Copy(tempFile, reader)
	closeErr := tempFile.Close()
	if err != nil {
		return "", fmt.Errorf("copy failed after %d bytes: %w", written, err)
	}
	if closeErr != nil {
		return "", closeErr
	}
	return tempFile.Name(), nil
}

// verifyVideo sniffs the file header and rejects anything that is not a
// recognized video container.
func verifyVideo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLen)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return err
	}

	kind, err := filetype.Match(head[:n])
	if err != nil {
		return err
	}
	if !filetype.IsVideo(head[:n]) {
		return fmt.Errorf("source is not a video (detected %q)", kind.MIME.Value)
	}
	return nil
}
