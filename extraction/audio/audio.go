// Package audio transcribes audio documents with an OpenAI-compatible
// transcription endpoint.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/source"
)

// ErrNoSpeech indicates a transcription that came back empty.
var ErrNoSpeech = errors.New("no speech in audio")

var contentTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// Service implements extraction.Service by transcribing audio files.
type Service struct {
	client   openai.Client
	source   source.Source
	model    string
	language string
	logger   *slog.Logger
}

var _ extraction.Service = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLanguage sets the ISO-639-1 language hint. Empty lets the model detect it.
func WithLanguage(lang string) Option {
	return func(s *Service) {
		s.language = lang
	}
}

// New creates a transcription service for cfg.AudioHost.
// The client never retries on its own; retries belong to the pipeline.
func New(cfg *extraction.Config, src source.Source, opts ...Option) *Service {
	s := &Service{
		client: openai.NewClient(
			option.WithBaseURL(cfg.AudioHost),
			option.WithAPIKey(cfg.AudioToken),
			option.WithMaxRetries(0),
		),
		source:   src,
		model:    cfg.AudioModel,
		language: "en",
		logger:   slog.Default().With("component", "audio"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invoke transcribes task.FileName. The payload has the keys message,
// original_file_name, file_key and content.
func (s *Service) Invoke(ctx context.Context, task core.DocumentTask) (extraction.Payload, error) {
	ext := strings.ToLower(path.Ext(task.FileName))
	contentType, ok := contentTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", extraction.ErrUnsupportedFormat, ext)
	}

	rc, err := s.source.Open(ctx, task.FileName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(rc, path.Base(task.FileName), contentType),
		Model: openai.AudioModel(s.model),
	}
	if s.language != "" {
		params.Language = openai.String(s.language)
	}

	start := time.Now()
	transcription, err := s.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(transcription.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSpeech, task.FileName)
	}
	s.logger.Info("transcribed audio",
		"file", task.FileName,
		"chars", len(text),
		"duration", time.Since(start))

	return extraction.Payload{
		"message":            "Transcription completed.",
		"original_file_name": task.FileName,
		"file_key":           task.FileName,
		"content":            text,
	}, nil
}
