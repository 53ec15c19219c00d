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

// Package cloud provides components for interacting with Google Cloud
// services. This file implements the production inference.Client: a
// decorator around the Vertex AI generate-content API that adds rate
// limiting and bounded retries.
//
// Why this matters:
//   - Rate limiting: Vertex AI enforces per-minute quotas. A recap run
//     issues one call per window in a tight sequential loop, which blows
//     through the quota without a limiter in front.
//   - Retries: individual calls fail transiently. The wrapper retries a
//     bounded number of times with a fixed backoff before surfacing the
//     error to the pipeline, which then decides whether the failure is a
//     placeholder (window) or fatal (summary).
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/inference"
)

// defaultMaxRetries applies when the model configuration leaves the retry
// count unset.
const defaultMaxRetries = 3

// retryBackoff is the pause between attempts on a failed call.
const retryBackoff = 10 * time.Second

// QuotaAwareGenerativeAIModel wraps a Vertex AI model handle with rate
// limiting and retries. It implements inference.Client, so the pipeline
// commands never see the SDK types.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
	MaxRetries              int
}

// NewQuotaAwareModel wraps the given model handle. requestsPerSecond feeds
// the limiter's refill rate and burst; maxRetries bounds the attempts per
// Generate call (values below one fall back to the default).
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond, maxRetries int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		MaxRetries:              maxRetries,
	}
}

// Generate sends one multimodal request. It blocks on the rate limiter,
// then attempts the call up to MaxRetries times. Context cancellation stops
// both the limiter wait and the backoff between attempts.
func (q *QuotaAwareGenerativeAIModel) Generate(ctx context.Context, req *inference.Request) (*inference.Response, error) {
	content := toContent(req)
	config := q.GenerativeContentConfig
	if req.SystemPrompt != "" {
		// Per-request system prompt overrides the configured one. The
		// shared config is never mutated.
		override := *config
		override.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
		config = &override
	}

	var lastErr error
	for attempt := 1; attempt <= q.MaxRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, config)
		if err == nil {
			return fromResponse(resp), nil
		}
		lastErr = err
		slog.Warn("model call failed",
			"model", q.ModelName,
			"attempt", attempt,
			"max_attempts", q.MaxRetries,
			"error", err)

		if attempt < q.MaxRetries {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("model %s failed after %d attempts: %w", q.ModelName, q.MaxRetries, lastErr)
}

// toContent converts the neutral request parts into the SDK's content
// slice, preserving the interleaving of text and images.
func toContent(req *inference.Request) []*genai.Content {
	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.ImageData != nil {
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: p.ImageMIMEType, Data: p.ImageData},
			})
			continue
		}
		parts = append(parts, &genai.Part{Text: p.Text})
	}
	return []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
}

// fromResponse flattens the candidates into one text blob and extracts the
// usage metadata when the backend reported it.
func fromResponse(resp *genai.GenerateContentResponse) *inference.Response {
	out := &inference.Response{}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			out.Text += part.Text
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage = inference.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out
}
