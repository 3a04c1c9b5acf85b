package llm

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/source"
	"github.com/tmc/langchaingo/llms"
)

var visionMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// VisionService reads images, and scanned documents in multimodal parsing
// mode, by attaching the file to a multimodal chat model.
type VisionService struct {
	model        llms.Model
	source       source.Source
	defaultModel string
	maxTokens    int
	logger       *slog.Logger
}

// NewVisionService creates a vision service reading files from src.
func NewVisionService(model llms.Model, src source.Source, cfg *extraction.Config) *VisionService {
	return &VisionService{
		model:        model,
		source:       src,
		defaultModel: cfg.VisionModel,
		maxTokens:    cfg.MaxTokens,
		logger:       slog.Default().With("component", "vision"),
	}
}

// Invoke sends the file and the attribute list to the model. The payload
// carries the decoded answer, the raw response, and the response text as
// the document content.
func (s *VisionService) Invoke(ctx context.Context, task core.DocumentTask) (extraction.Payload, error) {
	ext := strings.ToLower(path.Ext(task.FileName))
	mime, ok := visionMIMETypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", extraction.ErrUnsupportedFormat, ext)
	}

	data, err := source.ReadAll(ctx, s.source, task.FileName)
	if err != nil {
		return nil, err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, visionSystemPrompt),
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mime, data),
				llms.TextPart(buildVisionPrompt(task.Attributes)),
			},
		},
	}
	opts := append(callOptions(task.ModelParams, s.defaultModel, s.maxTokens),
		llms.WithTopP(0.95),
		llms.WithStopWords([]string{"\n\nuser:"}),
	)

	resp, err := s.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty vision response", extraction.ErrMalformedPayload)
	}
	raw := resp.Choices[0].Content

	answer, err := ParseAnswer(raw)
	if err != nil {
		// The raw response still feeds attribute extraction downstream.
		s.logger.Warn("vision answer is not valid JSON", "file", task.FileName, "err", err)
		answer = map[string]any{}
	}

	return extraction.Payload{
		"file_key":           task.FileName,
		"original_file_name": task.FileName,
		"answer":             answer,
		"raw_answer":         raw,
		"content":            raw,
	}, nil
}
