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
// pipeline. This file holds the two LLM-facing schemas: the per-window
// analysis the model returns for each batch of frames, and the consolidated
// video summary it returns at the end of a run. Both are parsed from the raw
// JSON text of a model response, so every field carries an explicit json
// tag. The structures double as few-shot examples in the prompts (see
// examples.go), which keeps the schema the model sees and the schema the
// code parses in one place.
package model

// RunningContextNone is the sentinel passed to the first window's analysis
// call, before any window has produced a summary.
const RunningContextNone = "None"

// WindowAnalysisPlaceholder is recorded as a window's description when the
// model call failed or returned unparseable content. The final summarization
// call sees this text verbatim and is expected to treat it as a gap.
const WindowAnalysisPlaceholder = "[window analysis unavailable]"

// Significance levels used in the consolidated summary's key events.
const (
	SignificanceHigh   = "HIGH"
	SignificanceMedium = "MEDIUM"
	SignificanceLow    = "LOW"
)

// WindowKeyEvent is one notable occurrence inside a window. FrameRange holds
// the native frame indices bounding the event.
type WindowKeyEvent struct {
	FrameRange       [2]int `json:"frame_range"`
	EventDescription string `json:"event_description"`
}

// WindowAnalysis is the structured description of one window of frames.
type WindowAnalysis struct {
	// SequenceSummary is a short narrative of what happens across the
	// window. It becomes the running context for the next window.
	SequenceSummary string           `json:"sequence_summary"`
	KeyEvents       []WindowKeyEvent `json:"key_events"`
}

// WindowResult is the per-window outcome the analyzer records: either a
// successful analysis or the designated placeholder. There is exactly one
// WindowResult per window, success or not.
type WindowResult struct {
	// WindowIndex is the position of the window in the WindowList.
	WindowIndex int
	// StartFrame and EndFrame are the native indices bounding the window.
	StartFrame int
	EndFrame   int
	// Description is the window's sequence summary, or the placeholder
	// text when Failed is set.
	Description string
	// Analysis is nil when Failed is set.
	Analysis *WindowAnalysis
	Failed   bool
}

// SummaryKeyEvent is one consolidated event in the final video summary.
type SummaryKeyEvent struct {
	Description  string `json:"description"`
	Significance string `json:"significance"`
}

// ObjectsInvolved captures who and what the model saw across the video.
type ObjectsInvolved struct {
	People string   `json:"people,omitempty"`
	Items  []string `json:"items"`
}

// SummaryAnalysis is the situational assessment section of the summary.
type SummaryAnalysis struct {
	Pattern        string   `json:"pattern"`
	Anomalies      []string `json:"anomalies"`
	RiskAssessment string   `json:"risk_assessment"`
}

// VideoSummary is the pipeline's terminal product: one consolidated
// situational summary folded from every per-window description.
type VideoSummary struct {
	Summary         string            `json:"summary"`
	KeyEvents       []SummaryKeyEvent `json:"key_events"`
	ObjectsInvolved ObjectsInvolved   `json:"objects_involved"`
	Analysis        SummaryAnalysis   `json:"analysis"`
}
