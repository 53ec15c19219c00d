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
// workflows are built from. This file defines the entry command for runs
// triggered by a video landing in the input bucket.
//
// Logic Flow:
//
//  1. GCS publishes an object notification to Pub/Sub; the listener hands
//     the raw JSON body to this command.
//  2. The notification is parsed and reduced to a GCSObject (bucket, name,
//     content type).
//  3. Objects that are not video are dropped without error, so the message
//     is acknowledged and never redelivered.
//  4. The GCSObject's gs:// URI becomes the source reference for the rest
//     of the pipeline.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mediawatch/gcp-go-video-recap/internal/cloud"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
)

// VideoTriggerToSource parses a GCS Pub/Sub notification and emits the
// object's gs:// URI as the pipeline source.
type VideoTriggerToSource struct {
	cor.BaseCommand
}

// NewVideoTriggerToSource constructs the trigger reader command.
func NewVideoTriggerToSource(name string) *VideoTriggerToSource {
	return &VideoTriggerToSource{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the notification payload and forwards the source URI.
func (c *VideoTriggerToSource) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	// Non-video uploads are skipped, not failed: emitting no output makes
	// the rest of the chain inert and lets the listener ack the message.
	if !strings.HasPrefix(out.ContentType, "video/") {
		slog.Info("ignoring non-video object",
			"bucket", out.Bucket,
			"object", out.Name,
			"content_type", out.ContentType)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	context.Add(cloud.GetGCSObjectName(), msg)
	context.Add(GetSourceUriName(), msg.URI())
	context.Add(c.GetOutputParam(), msg.URI())
}
