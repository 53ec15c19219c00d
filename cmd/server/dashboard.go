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

// Package main contains the API route definitions for the server. This file
// defines the statistics endpoint backing an operations dashboard.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard configures the statistics routes under "/stats". The endpoint
// reports the in-process job counts and the aggregate token spend of the
// runs this server instance has completed.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the new "/stats" route group will be added.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			var running, complete, failed int
			var inputTokens, outputTokens int64
			var estimatedCost float64

			for _, job := range state.jobs.List() {
				switch job.Status {
				case JobStatusRunning:
					running++
				case JobStatusComplete:
					complete++
				case JobStatusFailed:
					failed++
				}
				if job.Result != nil {
					inputTokens += job.Result.Usage.InputTokens
					outputTokens += job.Result.Usage.OutputTokens
					estimatedCost += job.Result.Usage.EstimatedCostUSD
				}
			}

			c.JSON(http.StatusOK, gin.H{
				"jobs": gin.H{
					"running":  running,
					"complete": complete,
					"failed":   failed,
				},
				"usage": gin.H{
					"input_tokens":       inputTokens,
					"output_tokens":      outputTokens,
					"estimated_cost_usd": estimatedCost,
				},
			})
		})
	}
}
