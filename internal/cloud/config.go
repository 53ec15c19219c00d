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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for Google Cloud services, the Vertex AI models, frame sampling, Pub/Sub
// topics, and prompt templates.
//
// Structs:
//   - Sampling: Frame sampling and windowing defaults.
//   - Media: Paths to the ffmpeg binaries and the scratch directory.
//   - BigQueryDataSource: Configuration for the recap dataset and table.
//   - PromptTemplates: Text templates for the prompts sent to the models.
//   - VertexAiLLMModel: Configuration for a Vertex AI multimodal model.
//   - TopicSubscription: Configuration for one Pub/Sub subscription.
//   - Storage: Configuration for the input bucket.
//   - Config: The top-level struct aggregating everything above.
package cloud

import (
	"github.com/mediawatch/gcp-go-video-recap/internal/core/model"
	"google.golang.org/genai"
)

// DefaultSafetySettings sets every harm category to block-none. Surveillance
// and incident footage routinely trips the default filters, and the input
// sources here are trusted.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Sampling holds the default frame sampling and windowing parameters. A run
// request may override any of them; the merged values are validated before
// the pipeline starts.
type Sampling struct {
	IntervalMillis int     `toml:"interval_millis"` // Target time between sampled frames, in ms of video time.
	ResizeRatio    float64 `toml:"resize_ratio"`    // Scale factor applied to frame dimensions, in (0, 1].
	BatchSize      int     `toml:"batch_size"`      // Frames per analysis window.
	SlideSize      int     `toml:"slide_size"`      // Frame positions advanced between window starts.
}

// Parameters converts the configured defaults into the pipeline's parameter
// struct.
func (s Sampling) Parameters() model.SampleParameters {
	return model.SampleParameters{
		SampleIntervalMillis: s.IntervalMillis,
		ResizeRatio:          s.ResizeRatio,
		BatchSize:            s.BatchSize,
		SlideSize:            s.SlideSize,
	}
}

// Media holds the local tooling the sampler shells out to.
type Media struct {
	FFmpegPath  string `toml:"ffmpeg_path"`  // Path to the ffmpeg binary.
	FFprobePath string `toml:"ffprobe_path"` // Path to the ffprobe binary.
	ScratchDir  string `toml:"scratch_dir"`  // Root directory for per-run frame directories. Empty means os.TempDir.
}

// BigQueryDataSource represents the configuration for the recap dataset.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`     // The BigQuery dataset name.
	RecapTable  string `toml:"recap_table"` // The table recap records are written to.
}

// PromptTemplates holds the templates for the two prompt types the pipeline
// sends: the per-window analysis prompt and the final summarization prompt.
type PromptTemplates struct {
	WindowPrompt  string `toml:"window"`  // Template for per-window analysis.
	SummaryPrompt string `toml:"summary"` // Template for the consolidated summary.
}

// VertexAiLLMModel represents the configuration for a Vertex AI multimodal
// model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The Vertex AI model name.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the model.
	Temperature        float32 `toml:"temperature"`         // Sampling temperature.
	TopP               float32 `toml:"top_p"`               // Nucleus sampling parameter.
	TopK               float32 `toml:"top_k"`               // Top-k sampling parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // Output token cap.
	OutputFormat       string  `toml:"output_format"`       // Response MIME type, e.g. "application/json".
	RateLimit          int     `toml:"rate_limit"`          // Requests per second the wrapper allows.
	MaxRetries         int     `toml:"max_retries"`         // Attempts per call before giving up.
}

// TopicSubscription represents the configuration for a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The subscription name.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Message handling timeout in seconds.
}

// Storage represents the configuration for storage buckets.
type Storage struct {
	InputBucket string `toml:"input_bucket"` // The bucket video uploads and gs:// sources live in.
}

// Config is the overall application configuration, loaded hierarchically
// from TOML files (base file plus runtime-specific overrides).
type Config struct {
	Application struct {
		Name                      string `toml:"name"`                         // The application name.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used for signing GCS URLs.
	} `toml:"application"`
	Sampling           Sampling                      `toml:"sampling"`
	Media              Media                         `toml:"media"`
	Storage            Storage                       `toml:"storage"`
	BigQueryDataSource BigQueryDataSource            `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates               `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription  `toml:"topic_subscriptions"` // Keyed by a logical name, e.g. "RecapRequests".
	AgentModels        map[string]VertexAiLLMModel   `toml:"agent_models"`        // Keyed by a logical name, e.g. "recap-flash".
	Pricing            map[string]model.TokenPricing `toml:"pricing"`             // Per-1K token prices, keyed by the same logical model name.
}

// NewConfig creates a Config with its map fields initialized, so the TOML
// decoder can populate them without nil-map panics.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
		Pricing:            make(map[string]model.TokenPricing),
	}
}
