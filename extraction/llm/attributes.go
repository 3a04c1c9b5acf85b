package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
	"github.com/tmc/langchaingo/llms"
)

const attributeService = "attributes"

// AttributeExtractor extracts the attribute schema from each document's
// content with one chat generation per document.
type AttributeExtractor struct {
	model        llms.Model
	defaultModel string
	maxChars     int
	maxTokens    int
	logger       *slog.Logger
}

var _ extraction.AttributeExtractor = (*AttributeExtractor)(nil)

// NewAttributeExtractor creates an extractor using model.
func NewAttributeExtractor(model llms.Model, cfg *extraction.Config) *AttributeExtractor {
	return &AttributeExtractor{
		model:        model,
		defaultModel: cfg.AttributeModel,
		maxChars:     cfg.MaxDocumentChars,
		maxTokens:    cfg.MaxTokens,
		logger:       slog.Default().With("component", "attribute-extractor"),
	}
}

// ExtractAttributes returns answers in the order of req.Documents. Any
// generation error or undecodable answer fails the whole request so the
// caller can retry it.
func (e *AttributeExtractor) ExtractAttributes(ctx context.Context, req extraction.AggregateRequest) (*extraction.AggregateResult, error) {
	result := &extraction.AggregateResult{
		Documents: make([]core.DocumentAttributes, 0, len(req.Documents)),
	}
	for _, doc := range req.Documents {
		attrs, err := e.extractOne(ctx, req, doc)
		if err != nil {
			return nil, err
		}
		result.Documents = append(result.Documents, attrs)
	}
	return result, nil
}

func (e *AttributeExtractor) extractOne(ctx context.Context, req extraction.AggregateRequest, doc *core.DocumentContext) (core.DocumentAttributes, error) {
	content, truncated := truncate(doc.Content(), e.maxChars)
	if truncated {
		e.logger.Info("document truncated", "file", doc.FileName, "max_chars", e.maxChars)
	}

	prompt := buildAttributePrompt(content, req.Attributes, req.Instructions, req.FewShots)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := e.model.GenerateContent(ctx, messages, callOptions(req.ModelParams, e.defaultModel, e.maxTokens)...)
	if err != nil {
		return core.DocumentAttributes{}, extraction.Classify(attributeService, fmt.Errorf("extract attributes from %s: %w", doc.FileName, err))
	}
	if len(resp.Choices) == 0 {
		return core.DocumentAttributes{}, &extraction.TaskFailure{
			Service: attributeService,
			Err:     fmt.Errorf("%w: empty response for %s", extraction.ErrMalformedPayload, doc.FileName),
		}
	}

	raw := resp.Choices[0].Content
	answer, err := ParseAnswer(raw)
	if err != nil {
		e.logger.Warn("invalid attribute answer", "file", doc.FileName, "err", err)
		return core.DocumentAttributes{}, &extraction.TaskFailure{
			Service: attributeService,
			Err:     fmt.Errorf("%w: %s: %v", extraction.ErrMalformedPayload, doc.FileName, err),
		}
	}

	return core.DocumentAttributes{
		FileName:  doc.FileName,
		Answer:    answer,
		RawAnswer: raw,
	}, nil
}
