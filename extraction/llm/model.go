package llm

import (
	"fmt"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewModel creates a chat model for the configured backend.
// The OpenAI-compatible client uses cfg.Host and cfg.Token; the Bedrock
// client uses the default AWS credential chain and region.
func NewModel(cfg *extraction.Config, model string) (llms.Model, error) {
	switch cfg.Backend {
	case extraction.BackendBedrock:
		return bedrock.New(bedrock.WithModel(model))
	case extraction.BackendOpenAI:
		return openai.New(
			openai.WithBaseURL(cfg.Host),
			openai.WithToken(cfg.Token),
			openai.WithModel(model),
		)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// callOptions translates model_params into langchaingo call options.
func callOptions(params core.ModelParams, defaultModel string, defaultMaxTokens int) []llms.CallOption {
	model := params.ModelID()
	if model == "" {
		model = defaultModel
	}
	temperature, ok := params.Temperature()
	if !ok {
		temperature = 0
	}
	maxTokens := params.AnswerLength()
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	}
}
