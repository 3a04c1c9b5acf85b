// Package document extracts text from office documents, PDFs and plain text
// files, caching the result under the document's processed key.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/source"
	"github.com/poiesic/tabulate/storage"
)

const defaultPageTimeout = 10 * time.Second

// ErrNoText indicates a document without an extractable text layer, such as
// a scanned PDF. Multimodal parsing mode reads those.
var ErrNoText = errors.New("document has no extractable text")

type parser func(ctx context.Context, s *Service, name string, data []byte) (*core.ProcessedText, error)

var parsers = map[string]parser{
	".txt":  parsePlain,
	".md":   parsePlain,
	".csv":  parsePlain,
	".json": parsePlain,
	".html": parsePlain,
	".htm":  parsePlain,
	".xml":  parsePlain,
	".pdf":  parsePDF,
	".docx": parseOffice,
	".odt":  parseOffice,
	".rtf":  parseOffice,
	".xlsx": parseSpreadsheet,
	".xlsm": parseSpreadsheet,
}

// Service implements extraction.Service for text documents.
type Service struct {
	source      source.Source
	cache       storage.TextCache
	pageTimeout time.Duration
	logger      *slog.Logger
}

var _ extraction.Service = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithCache stores extracted text in cache and reuses it on later calls.
func WithCache(cache storage.TextCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithPageTimeout bounds the time spent extracting one PDF page.
func WithPageTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pageTimeout = d
		}
	}
}

// New creates a document service reading files from src.
func New(src source.Source, opts ...Option) *Service {
	s := &Service{
		source:      src,
		pageTimeout: defaultPageTimeout,
		logger:      slog.Default().With("component", "document"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supported reports whether the file extension has a parser.
func Supported(fileName string) bool {
	_, ok := parsers[strings.ToLower(path.Ext(fileName))]
	return ok
}

// Invoke extracts the text of task.FileName. The payload has the keys
// file_key, original_file_name, content and csv_tables. Cached text is
// reused only while it was extracted from the same bytes.
func (s *Service) Invoke(ctx context.Context, task core.DocumentTask) (extraction.Payload, error) {
	key := core.ProcessedKey(task.FileName)

	ext := strings.ToLower(path.Ext(task.FileName))
	parse, ok := parsers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", extraction.ErrUnsupportedFormat, ext)
	}

	data, err := source.ReadAll(ctx, s.source, task.FileName)
	if err != nil {
		return nil, err
	}
	sourceID := core.IDFromContent(string(data)).Hex()

	if text := s.cached(ctx, key, sourceID); text != nil {
		s.logger.Debug("using cached text", "file", task.FileName, "key", key)
		return payload(task.FileName, text), nil
	}

	start := time.Now()
	text, err := parse(ctx, s, task.FileName, data)
	if err != nil {
		return nil, err
	}
	text.Key = key
	text.OriginalName = task.FileName
	text.SourceID = sourceID
	if strings.TrimSpace(text.Content) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoText, task.FileName)
	}
	s.logger.Info("extracted text",
		"file", task.FileName,
		"chars", len(text.Content),
		"tables", len(text.Tables),
		"duration", time.Since(start))

	if s.cache != nil {
		if err := s.cache.PutText(ctx, text); err != nil {
			s.logger.Warn("failed to cache text", "key", key, "err", err)
		}
	}
	return payload(task.FileName, text), nil
}

// cached returns the text cached under key when it was extracted from the
// bytes identified by sourceID, or nil. Cache errors only cost a re-parse.
func (s *Service) cached(ctx context.Context, key, sourceID string) *core.ProcessedText {
	if s.cache == nil {
		return nil
	}
	text, err := s.cache.GetText(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("text cache lookup failed", "key", key, "err", err)
		}
		return nil
	}
	if text.SourceID != sourceID {
		s.logger.Debug("cached text is stale", "key", key)
		return nil
	}
	return text
}

func payload(fileName string, text *core.ProcessedText) extraction.Payload {
	tables := make([]any, len(text.Tables))
	for i, key := range text.TableKeys() {
		tables[i] = key
	}
	return extraction.Payload{
		"file_key":           text.Key,
		"original_file_name": fileName,
		"content":            text.Content,
		"csv_tables":         tables,
	}
}
