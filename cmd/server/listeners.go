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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners. The listener reacts to GCS upload notifications on the
// input bucket and runs the recap pipeline for each new video.
//
// Functions:
//   - SetupListeners: Initializes and starts the listener for the video
//     input topic, attaching the triggered recap pipeline.
package main

import (
	"context"

	"github.com/mediawatch/gcp-go-video-recap/internal/cloud"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/workflow"
)

// SetupListeners configures and starts the background Pub/Sub listeners.
// It builds the triggered recap pipeline and attaches it to the video input
// topic listener.
//
// Inputs:
//   - config: The application's configuration, containing topics, sampling
//     defaults, and prompt templates.
//   - cloudClients: A struct containing all the initialized Google Cloud service clients.
//   - ctx: The application's root context, used to manage the lifecycle of the listeners.
//
// Outputs:
//   - This function does not return any value. It starts the listeners as background goroutines.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	// Create the triggered pipeline: GCS notification in, recap record out.
	// Non-video uploads are acknowledged and ignored.
	trigger := workflow.NewVideoRecapTriggerPipeline(config, cloudClients, recapAgentModel)

	// Assign the pipeline as the command executed for every message on the
	// video input topic, then start receiving in a background goroutine.
	cloudClients.PubSubListeners["VideoInputTopic"].SetCommand(trigger)
	cloudClients.PubSubListeners["VideoInputTopic"].Listen(ctx)
}
