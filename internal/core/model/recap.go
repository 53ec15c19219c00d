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

// Package model defines the core data structures for the video recap
// pipeline. This file contains the persistent record written to BigQuery at
// the end of a successful run. The struct carries explicit `bigquery` tags
// mapping each field to its column, and `json` tags so the same record can be
// served back through the API without a second representation.
package model

import (
	"time"

	"github.com/google/uuid"
)

// RecapWindow is one window's outcome as persisted. Failed windows are kept
// so the record reflects exactly what the summary was built from.
type RecapWindow struct {
	WindowIndex int    `json:"window_index" bigquery:"window_index"`
	StartFrame  int    `json:"start_frame" bigquery:"start_frame"`
	EndFrame    int    `json:"end_frame" bigquery:"end_frame"`
	Description string `json:"description" bigquery:"description"`
	Failed      bool   `json:"failed" bigquery:"failed"`
}

// RecapRecord is the unit of persistence: one row per completed pipeline run.
type RecapRecord struct {
	Id        string    `json:"id" bigquery:"id"`
	SourceUri string    `json:"source_uri" bigquery:"source_uri"`
	CreatedAt time.Time `json:"created_at" bigquery:"created_at"`

	// Video and sampling facts.
	DurationSeconds   float64 `json:"duration_seconds" bigquery:"duration_seconds"`
	FramesPerSecond   float64 `json:"frames_per_second" bigquery:"frames_per_second"`
	TotalNativeFrames int     `json:"total_native_frames" bigquery:"total_native_frames"`
	SampledFrames     int     `json:"sampled_frames" bigquery:"sampled_frames"`
	Stride            int     `json:"stride" bigquery:"stride"`
	BatchSize         int     `json:"batch_size" bigquery:"batch_size"`
	SlideSize         int     `json:"slide_size" bigquery:"slide_size"`

	// Outcomes.
	Windows       []RecapWindow `json:"windows" bigquery:"windows"`
	FailedWindows int           `json:"failed_windows" bigquery:"failed_windows"`
	Summary       VideoSummary  `json:"summary" bigquery:"summary"`

	// Cost accounting.
	InputTokens      int64   `json:"input_tokens" bigquery:"input_tokens"`
	OutputTokens     int64   `json:"output_tokens" bigquery:"output_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd" bigquery:"estimated_cost_usd"`
}

// NewRecapRecord allocates a record with a fresh identifier and the creation
// timestamp set. The caller fills in everything else.
func NewRecapRecord(sourceUri string) *RecapRecord {
	return &RecapRecord{
		Id:        uuid.New().String(),
		SourceUri: sourceUri,
		CreatedAt: time.Now().UTC(),
	}
}
