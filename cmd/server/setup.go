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

package main

import (
	"context"
	"log"
	"os"

	"github.com/mediawatch/gcp-go-video-recap/internal/cloud"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/services"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/workflow"
)

// recapAgentModel is the configured agent model (and matching pricing entry)
// that drives both the API pipeline and the Pub/Sub triggered pipeline.
const recapAgentModel = "recap-flash"

// StateManager holds the shared components for the application.
type StateManager struct {
	config       *cloud.Config
	cloud        *cloud.ServiceClients
	recapService *services.RecapService
	pipeline     *workflow.VideoRecapWorkflow
	jobs         *JobStore
}

var state = &StateManager{}

func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		// Create a default cloud config
		config := cloud.NewConfig()
		// Load it from the TOML files
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state and dependencies: the cloud
// service clients, the recap read service, the recap pipeline used by the
// API, and the Pub/Sub listener that reacts to bucket uploads.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.recapService = &services.RecapService{
		BigqueryClient: cloudClients.BigQueryClient,
		StorageClient:  cloudClients.StorageClient,
		IAMClient:      cloudClients.IAMClient,
		SignerEmail:    config.Application.SignerServiceAccountEmail,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		RecapTable:     config.BigQueryDataSource.RecapTable,
	}

	state.pipeline = workflow.NewVideoRecapPipeline(config, cloudClients, recapAgentModel)
	state.jobs = NewJobStore()

	SetupListeners(config, cloudClients, ctx)
}
