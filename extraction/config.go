// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extraction

import (
	"errors"
	"strings"
	"time"
)

// Supported model backends.
const (
	BackendOpenAI  = "openai"
	BackendBedrock = "bedrock"
)

// Config holds configuration for the extraction services.
type Config struct {
	// Backend selects the LLM provider for vision and attribute extraction.
	// One of BackendOpenAI (any OpenAI-compatible server) or BackendBedrock.
	Backend string

	// Host is the base URL for the OpenAI-compatible API.
	// Example: "http://localhost:11434/v1" for a local server
	Host string

	// Token is the API key for Host. Local servers accept "none".
	Token string

	// VisionModel is the model identifier used for images and multimodal documents.
	// Example: "llava", "gpt-4o-mini", "anthropic.claude-3-haiku-20240307-v1:0"
	VisionModel string

	// AttributeModel is the model identifier used for attribute extraction.
	// A request's model_params.model_id overrides it per batch.
	AttributeModel string

	// AudioHost is the base URL for the transcription API. Defaults to Host.
	AudioHost string

	// AudioToken is the API key for AudioHost. Defaults to Token.
	AudioToken string

	// AudioModel is the transcription model.
	// Default: "whisper-1"
	AudioModel string

	// MaxDocumentChars caps the document text sent to the attribute model.
	// Default: 400000
	MaxDocumentChars int

	// MaxTokens caps generated tokens when model_params has no answer_length.
	// Default: 4096
	MaxTokens int

	// CallTimeout bounds a single service call. Zero disables the bound.
	// A call that times out counts as a transient failure.
	CallTimeout time.Duration

	// RateLimit is the sustained number of service calls per second across
	// all documents. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the number of calls allowed above RateLimit in a burst.
	RateBurst int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the LLM backend.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithHost sets the OpenAI-compatible host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithToken sets the API key for Host.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithVisionModel sets the vision model identifier.
func WithVisionModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
	}
}

// WithAttributeModel sets the attribute extraction model identifier.
func WithAttributeModel(model string) ConfigOption {
	return func(c *Config) {
		c.AttributeModel = model
	}
}

// WithAudioHost sets the transcription host URL.
func WithAudioHost(host string) ConfigOption {
	return func(c *Config) {
		c.AudioHost = host
	}
}

// WithAudioToken sets the API key for AudioHost.
func WithAudioToken(token string) ConfigOption {
	return func(c *Config) {
		c.AudioToken = token
	}
}

// WithAudioModel sets the transcription model.
func WithAudioModel(model string) ConfigOption {
	return func(c *Config) {
		c.AudioModel = model
	}
}

// WithMaxDocumentChars sets the document truncation limit.
func WithMaxDocumentChars(n int) ConfigOption {
	return func(c *Config) {
		c.MaxDocumentChars = n
	}
}

// WithMaxTokens sets the default generation budget.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithCallTimeout bounds each service call.
func WithCallTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CallTimeout = d
	}
}

// WithRateLimit limits service calls to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) ConfigOption {
	return func(c *Config) {
		c.RateLimit = perSecond
		c.RateBurst = burst
	}
}

// DefaultConfig returns a Config with sensible defaults for a local OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Backend:          BackendOpenAI,
		Host:             "http://localhost:11434/v1",
		Token:            "none",
		VisionModel:      "llava",
		AttributeModel:   "qwen2.5:7b",
		AudioModel:       "whisper-1",
		MaxDocumentChars: 400_000,
		MaxTokens:        4096,
		CallTimeout:      2 * time.Minute,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendBedrock),
//	    WithAttributeModel("anthropic.claude-3-sonnet-20240229-v1:0"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to OpenAI-compatible hosts if missing and fills
// the audio settings from the main host.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == BackendOpenAI {
		c.Host = withV1(c.Host)
	}
	if c.AudioHost == "" && c.Backend == BackendOpenAI {
		c.AudioHost = c.Host
	}
	c.AudioHost = withV1(c.AudioHost)
	if c.AudioToken == "" {
		c.AudioToken = c.Token
	}
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	// Remove trailing slash if present before adding /v1
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendOpenAI:
		if c.Host == "" {
			return errors.New("extraction config: Host is required for the openai backend")
		}
	case BackendBedrock:
	default:
		return errors.New("extraction config: Backend must be openai or bedrock")
	}
	if c.VisionModel == "" {
		return errors.New("extraction config: VisionModel is required")
	}
	if c.AttributeModel == "" {
		return errors.New("extraction config: AttributeModel is required")
	}
	if c.AudioHost == "" {
		return errors.New("extraction config: AudioHost is required")
	}
	if c.AudioModel == "" {
		return errors.New("extraction config: AudioModel is required")
	}
	if c.MaxDocumentChars < 1 {
		return errors.New("extraction config: MaxDocumentChars must be positive")
	}
	if c.MaxTokens < 1 {
		return errors.New("extraction config: MaxTokens must be positive")
	}
	if c.CallTimeout < 0 {
		return errors.New("extraction config: CallTimeout cannot be negative")
	}
	if c.RateLimit < 0 {
		return errors.New("extraction config: RateLimit cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return errors.New("extraction config: RateBurst must be at least 1 when RateLimit is set")
	}
	return nil
}
