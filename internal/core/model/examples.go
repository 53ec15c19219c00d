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
// pipeline. This file, `examples.go`, provides factory functions for creating
// hardcoded, example instances of the data models.
//
// These example objects are crucial for "few-shot" prompting with the
// generative AI models. By providing a concrete example of the desired JSON
// output structure within the prompt itself, we guide the AI to return data
// that is consistent, correctly formatted, and easily parsable.
package model

// GetExampleWindowAnalysis creates a sample WindowAnalysis object. This is
// used to provide a "few-shot" learning example to the generative AI model
// when it is asked to describe one window of frames. It shows the AI the
// expected JSON structure, including the native frame indices on each key
// event.
//
// Outputs:
//   - *WindowAnalysis: A pointer to a hardcoded WindowAnalysis object.
func GetExampleWindowAnalysis() *WindowAnalysis {
	out := &WindowAnalysis{
		SequenceSummary: "A delivery van pulls up to the loading dock. The driver steps out, opens the rear doors, and begins unloading boxes onto a hand truck while a warehouse worker watches from the doorway.",
		KeyEvents: []WindowKeyEvent{
			{
				FrameRange:       [2]int{0, 45},
				EventDescription: "White delivery van reverses toward the loading dock and stops.",
			},
			{
				FrameRange:       [2]int{60, 135},
				EventDescription: "Driver exits the cab, walks to the rear, and opens both doors.",
			},
			{
				FrameRange:       [2]int{150, 210},
				EventDescription: "Driver stacks three boxes onto a hand truck.",
			},
		},
	}
	return out
}

// GetExampleVideoSummary creates a sample VideoSummary object. This is used
// to provide a "few-shot" learning example to the generative AI model when it
// is asked to consolidate the per-window descriptions into a single
// situational summary. It shows the AI the expected JSON structure, including
// the significance labels and the nested analysis section.
//
// Outputs:
//   - *VideoSummary: A pointer to a hardcoded VideoSummary object.
func GetExampleVideoSummary() *VideoSummary {
	out := &VideoSummary{
		Summary: "A routine delivery takes place at a warehouse loading dock. A van arrives, the driver unloads several boxes with a hand truck, a warehouse worker signs for the delivery, and the van departs. No unusual activity is observed.",
		KeyEvents: []SummaryKeyEvent{
			{
				Description:  "Delivery van arrives and docks at the loading bay.",
				Significance: SignificanceMedium,
			},
			{
				Description:  "Driver unloads boxes and obtains a signature from the warehouse worker.",
				Significance: SignificanceHigh,
			},
			{
				Description:  "Van departs the premises.",
				Significance: SignificanceLow,
			},
		},
		ObjectsInvolved: ObjectsInvolved{
			People: "One delivery driver in uniform, one warehouse worker in a high-visibility vest.",
			Items:  []string{"white delivery van", "hand truck", "cardboard boxes", "clipboard"},
		},
		Analysis: SummaryAnalysis{
			Pattern:        "Standard scheduled delivery consistent with normal business hours activity.",
			Anomalies:      []string{},
			RiskAssessment: "Low risk. All activity matches an expected delivery workflow.",
		},
	}
	return out
}
