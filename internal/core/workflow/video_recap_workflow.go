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

// Package workflow defines the high-level orchestrations that combine
// commands into coherent pipelines. This file implements the video recap
// workflow: source fetch, frame sampling, window segmentation, sequential
// window analysis, summary consolidation, and persistence.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"

	"github.com/mediawatch/gcp-go-video-recap/internal/cloud"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/commands"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/inference"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// RecapResult is what one completed run returns: the persistent record
// (summary, windows, sampling facts) plus the run's usage report and the
// coverage diagnostic.
type RecapResult struct {
	Record       *model.RecapRecord        `json:"record"`
	Usage        model.UsageReport         `json:"usage"`
	Segmentation *model.SegmentationReport `json:"segmentation"`
}

// VideoRecapWorkflow orchestrates the recap pipeline as a Chain of
// Responsibility. It can run standalone through Run or be attached to a
// Pub/Sub listener through Execute.
type VideoRecapWorkflow struct {
	cor.BaseCommand
	config          *cloud.Config
	bigqueryClient  *bigquery.Client
	inferenceClient inference.Client
	storageClient   *storage.Client
	pricing         model.TokenPricing
	windowTemplate  *template.Template
	summaryTemplate *template.Template
	chain           cor.Chain
}

// Execute runs the workflow against an already prepared context, as when a
// Pub/Sub listener drives it. The listener owns the context lifecycle.
func (m *VideoRecapWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// Run executes the pipeline for one source with the given sampling
// parameters, owning the whole context lifecycle. Scratch files and frame
// directories are removed on every exit path. The error is a ConfigError,
// MediaError, or SummaryError depending on the stage that failed; a window
// analysis failure is never an error here.
func (m *VideoRecapWorkflow) Run(ctx context.Context, source string, params model.SampleParameters) (*RecapResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.GetSampleParamsName(), params)
	chainCtx.Add(commands.GetUsageName(), &model.UsageAccumulator{})
	chainCtx.Add(cor.CtxIn, source)

	m.chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		errs := make([]error, 0, len(chainCtx.GetErrors()))
		for name, e := range chainCtx.GetErrors() {
			errs = append(errs, fmt.Errorf("%s: %w", name, e))
		}
		return nil, errors.Join(errs...)
	}

	record, ok := chainCtx.Get(commands.GetRecapRecordName()).(*model.RecapRecord)
	if !ok {
		return nil, &model.SummaryError{Stage: m.GetName(), Err: fmt.Errorf("pipeline produced no recap record")}
	}

	result := &RecapResult{Record: record}
	if usage, ok := chainCtx.Get(commands.GetUsageName()).(*model.UsageAccumulator); ok {
		result.Usage = usage.Report(m.pricing)
	}
	if report, ok := chainCtx.Get(commands.GetSegmentationReportName()).(*model.SegmentationReport); ok {
		result.Segmentation = report
	}
	return result, nil
}

// initializeChain assembles the command sequence. Each command's output is
// piped into the next; side products travel under named context keys.
func (m *VideoRecapWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Step 1: materialize the source (path, URL, or gs:// URI) as a local
	// file and verify it is actually video.
	out.AddCommand(commands.NewSourceToTempFile("source-to-temp-file", m.storageClient, "recap-source-"))

	// Step 2: probe the video and extract scaled frames at the configured
	// interval into a tracked scratch directory.
	out.AddCommand(commands.NewFrameSampler(
		"frame-sampler",
		m.config.Media.FFmpegPath,
		m.config.Media.FFprobePath,
		m.config.Media.ScratchDir))

	// Step 3: group the frames into overlapping fixed-size windows.
	out.AddCommand(commands.NewWindowSegmenter("window-segmenter"))

	// Step 4: describe each window in order, carrying the running context
	// between calls. Failed windows become placeholders.
	out.AddCommand(commands.NewWindowAnalyzer("window-analyzer", m.inferenceClient, m.windowTemplate))

	// Step 5: fold every window description into the consolidated summary.
	out.AddCommand(commands.NewSequenceSummaryCreator("sequence-summary-creator", m.inferenceClient, m.summaryTemplate))

	// Step 6: parse the summary JSON into the typed structure.
	out.AddCommand(commands.NewSummaryJsonToStruct("summary-json-to-struct"))

	// Step 7: assemble the persistent record with usage and cost.
	out.AddCommand(commands.NewRecapRecordBuilder("recap-record-builder", m.pricing))

	// Step 8: stream the record into BigQuery, best effort.
	out.AddCommand(commands.NewRecapPersistToBigQuery(
		"write-to-bigquery",
		m.bigqueryClient,
		m.config.BigQueryDataSource.DatasetName,
		m.config.BigQueryDataSource.RecapTable))

	m.chain = out
}

// NewVideoRecapPipeline builds the workflow from the configuration and the
// shared service clients. agentModelName selects which configured agent
// model (and matching pricing entry) drives the analysis.
func NewVideoRecapPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) *VideoRecapWorkflow {
	return NewVideoRecapPipelineForClient(
		config,
		serviceClients.AgentModels[agentModelName],
		serviceClients.StorageClient,
		serviceClients.BigQueryClient,
		config.Pricing[agentModelName])
}

// NewVideoRecapPipelineForClient builds the workflow against an explicit
// inference client and explicit (possibly nil) storage and BigQuery
// clients. Tests use this to swap in a scripted client.
func NewVideoRecapPipelineForClient(
	config *cloud.Config,
	client inference.Client,
	storageClient *storage.Client,
	bigqueryClient *bigquery.Client,
	pricing model.TokenPricing) *VideoRecapWorkflow {

	windowTemplate, err := template.New("window-template").Parse(config.PromptTemplates.WindowPrompt)
	if err != nil {
		panic(err)
	}
	summaryTemplate, err := template.New("summary-template").Parse(config.PromptTemplates.SummaryPrompt)
	if err != nil {
		panic(err)
	}

	pipeline := &VideoRecapWorkflow{
		BaseCommand:     *cor.NewBaseCommand("video-recap-pipeline"),
		config:          config,
		bigqueryClient:  bigqueryClient,
		inferenceClient: client,
		storageClient:   storageClient,
		pricing:         pricing,
		windowTemplate:  windowTemplate,
		summaryTemplate: summaryTemplate,
	}
	pipeline.initializeChain()
	return pipeline
}

// NewVideoRecapTriggerPipeline wraps the recap pipeline with the GCS
// trigger reader so it can be attached to a Pub/Sub listener. The message
// body is the GCS notification; sampling parameters come from the
// configured defaults.
func NewVideoRecapTriggerPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) cor.Command {

	recap := NewVideoRecapPipeline(config, serviceClients, agentModelName)

	out := cor.NewBaseChain("video-recap-trigger-pipeline")
	out.AddCommand(&triggerSeed{
		BaseCommand: *cor.NewBaseCommand("seed-sampling-params"),
		params:      config.Sampling.Parameters(),
	})
	out.AddCommand(commands.NewVideoTriggerToSource("video-trigger-to-source"))
	out.AddCommand(recap)
	return out
}

// triggerSeed injects the configured sampling defaults and a fresh usage
// accumulator into the context before the trigger reader runs. Listener
// driven runs have no caller to do this.
type triggerSeed struct {
	cor.BaseCommand
	params model.SampleParameters
}

func (c *triggerSeed) Execute(context cor.Context) {
	if err := c.params.Validate(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(commands.GetSampleParamsName(), c.params)
	context.Add(commands.GetUsageName(), &model.UsageAccumulator{})
	// Pass the message body through untouched.
	context.Add(c.GetOutputParam(), context.Get(c.GetInputParam()))
}
