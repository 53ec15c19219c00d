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
// pipeline. This file defines the error taxonomy. Three categories are
// fatal and abort the run: MediaError (the source video could not be
// fetched, probed, or decoded), ConfigError (the sampling or windowing
// parameters are inconsistent with the input), and SummaryError (the final
// summarization call or its parse failed; there is no partial-summary
// fallback). A failed *window* analysis is deliberately not represented
// here: it is absorbed into the WindowResult stream as a placeholder and
// never aborts the run.
package model

import "fmt"

// MediaError reports that the source video was unreadable or undecodable.
// Stage names the pipeline step that hit the failure.
type MediaError struct {
	Stage string
	Err   error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media error in stage %q: %v", e.Stage, e.Err)
}

func (e *MediaError) Unwrap() error { return e.Err }

// ConfigError reports sampling or windowing parameters that cannot be
// applied to the input. The caller must fix the configuration and restart;
// the pipeline does not retry.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// SummaryError reports that the final summarization call failed or returned
// content that does not conform to the VideoSummary schema.
type SummaryError struct {
	Stage string
	Err   error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("summary error in stage %q: %v", e.Stage, e.Err)
}

func (e *SummaryError) Unwrap() error { return e.Err }
