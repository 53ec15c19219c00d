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
// pipeline. This file implements token-usage accounting. One accumulator is
// created per pipeline run, fed by every model call in that run (window
// analyses and the final summarization), and read once at the end. The
// accumulator is only ever touched from the orchestrator's single thread of
// control, so it carries no locking.
package model

// TokenPricing holds the per-1000-token prices used to derive an estimated
// cost from the accumulated usage. Values come from configuration.
type TokenPricing struct {
	InputPer1K  float64 `toml:"input_per_1k"`
	OutputPer1K float64 `toml:"output_per_1k"`
}

// UsageAccumulator keeps running token totals for one pipeline run. Totals
// only grow; a model call that reported no usage contributes zero.
type UsageAccumulator struct {
	InputTokens  int64
	OutputTokens int64
}

// Add records the usage reported by one model call.
func (u *UsageAccumulator) Add(inputTokens, outputTokens int64) {
	u.InputTokens += inputTokens
	u.OutputTokens += outputTokens
}

// TotalTokens returns the combined input and output token count.
func (u *UsageAccumulator) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Report snapshots the accumulator into the externally visible usage report,
// deriving the estimated cost from the given pricing.
func (u *UsageAccumulator) Report(pricing TokenPricing) UsageReport {
	return UsageReport{
		InputTokens:      u.InputTokens,
		OutputTokens:     u.OutputTokens,
		TotalTokens:      u.TotalTokens(),
		EstimatedCostUSD: float64(u.InputTokens)/1000*pricing.InputPer1K + float64(u.OutputTokens)/1000*pricing.OutputPer1K,
	}
}

// UsageReport is the read-only usage and cost snapshot exposed next to the
// final video summary.
type UsageReport struct {
	InputTokens      int64   `json:"input_tokens"`
	OutputTokens     int64   `json:"output_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}
