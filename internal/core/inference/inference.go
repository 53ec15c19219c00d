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

// Package inference defines the narrow interface the pipeline uses to talk
// to a multimodal generative model. Commands depend on this interface rather
// than on a concrete SDK client, so the production Vertex AI implementation
// (internal/cloud) and the scripted fakes used in tests are interchangeable.
package inference

import "context"

// Part is one piece of a multimodal request: either text or an inline image.
// Exactly one of Text or ImageData is set.
type Part struct {
	Text          string
	ImageData     []byte
	ImageMIMEType string
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline image part.
func ImagePart(data []byte, mimeType string) Part {
	return Part{ImageData: data, ImageMIMEType: mimeType}
}

// Request is one generation call. Parts are sent in order; interleaving text
// and images is allowed and is how frame batches are labeled.
type Request struct {
	SystemPrompt string
	Parts        []Part
}

// Usage is the token accounting one call reported. Zero values mean the
// backend did not report usage.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's reply to one Request.
type Response struct {
	Text  string
	Usage Usage
}

// Client is a synchronous multimodal generation client. Implementations are
// safe for concurrent use.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
