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
// workflows are built from. This file defines the parser that turns the
// summarization model's raw JSON reply into the typed VideoSummary. A parse
// failure here is a SummaryError and fatal, matching the summarization call
// itself.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
)

// SummaryJsonToStruct parses the model's summary JSON into a VideoSummary.
type SummaryJsonToStruct struct {
	cor.BaseCommand
}

// NewSummaryJsonToStruct constructs the parser command.
func NewSummaryJsonToStruct(name string) *SummaryJsonToStruct {
	return &SummaryJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute strips any markdown fences and unmarshals the summary.
func (c *SummaryJsonToStruct) Execute(context cor.Context) {
	raw := context.Get(c.GetInputParam()).(string)

	var summary model.VideoSummary
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &summary); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.SummaryError{Stage: c.GetName(), Err: fmt.Errorf("failed to parse video summary: %w", err)})
		return
	}
	if summary.Summary == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.SummaryError{Stage: c.GetName(), Err: fmt.Errorf("video summary missing summary text")})
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetVideoSummaryName(), &summary)
	context.Add(c.GetOutputParam(), &summary)
}
