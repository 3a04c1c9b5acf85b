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


// Package tabulate wires document sources, extraction services, storage and
// the batch orchestrator together from a single configuration.
package tabulate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/tabulate/config"
	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/extraction/audio"
	"github.com/poiesic/tabulate/extraction/document"
	"github.com/poiesic/tabulate/extraction/llm"
	"github.com/poiesic/tabulate/pipeline"
	"github.com/poiesic/tabulate/source"
	"github.com/poiesic/tabulate/storage"
	"github.com/poiesic/tabulate/storage/badger"
	"github.com/poiesic/tabulate/storage/rediscache"
	"github.com/poiesic/tabulate/storage/s3cache"
)

// Processor owns the long-lived resources of a tabulate process.
type Processor struct {
	cfg        *config.Config
	backend    *badger.Backend
	batches    storage.BatchRepository
	cache      storage.TextCache
	source     source.Source
	client     *extraction.Client
	attributes extraction.AttributeExtractor
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*processorOptions)

type processorOptions struct {
	source     source.Source
	services   *extraction.Services
	attributes extraction.AttributeExtractor
}

// WithSource replaces the configured document source.
func WithSource(src source.Source) Option {
	return func(o *processorOptions) {
		o.source = src
	}
}

// WithServices replaces the model-backed extraction services.
func WithServices(services extraction.Services) Option {
	return func(o *processorOptions) {
		o.services = &services
	}
}

// WithAttributeExtractor replaces the model-backed attribute extractor.
func WithAttributeExtractor(attributes extraction.AttributeExtractor) Option {
	return func(o *processorOptions) {
		o.attributes = attributes
	}
}

// Open builds a Processor from cfg. An empty cfg.Storage.Path keeps batch
// records and cached text in memory.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Processor, error) {
	options := &processorOptions{}
	for _, opt := range opts {
		opt(options)
	}

	p := &Processor{
		cfg:    cfg,
		logger: slog.Default().With("component", "tabulate"),
	}
	if err := p.open(ctx, options); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Processor) open(ctx context.Context, options *processorOptions) error {
	cfg := p.cfg

	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.Path == "")
	if err != nil {
		return fmt.Errorf("opening batch database: %w", err)
	}
	p.backend = backend
	p.batches = badger.NewBatchRepository(backend)

	switch cfg.Storage.Cache {
	case config.CacheBadger:
		p.cache = badger.NewTextCache(backend)
	case config.CacheRedis:
		cache, err := rediscache.Dial(ctx, cfg.Storage.Redis.Addr, rediscache.Options{
			Namespace: cfg.Storage.Redis.Namespace,
			TTL:       cfg.Storage.Redis.TTL,
		})
		if err != nil {
			return fmt.Errorf("connecting text cache: %w", err)
		}
		p.cache = cache
	case config.CacheS3:
		s3cfg := cfg.CacheS3Config()
		client, err := source.NewS3Client(ctx, s3cfg)
		if err != nil {
			return fmt.Errorf("connecting text cache: %w", err)
		}
		cache, err := s3cache.NewTextCache(client, s3cfg.Bucket, s3cfg.Prefix)
		if err != nil {
			return err
		}
		p.cache = cache
	}

	p.source = options.source
	if p.source == nil {
		if p.source, err = openSource(ctx, cfg); err != nil {
			return err
		}
	}

	ecfg := cfg.ExtractionConfig()
	if err := ecfg.Validate(); err != nil {
		return err
	}

	services := options.services
	if services == nil {
		if services, err = p.newServices(ecfg); err != nil {
			return err
		}
	}
	p.client, err = extraction.NewClient(*services, extraction.FromConfig(ecfg)...)
	if err != nil {
		return err
	}

	p.attributes = options.attributes
	if p.attributes == nil {
		model, err := llm.NewModel(ecfg, ecfg.AttributeModel)
		if err != nil {
			return fmt.Errorf("attribute model: %w", err)
		}
		p.attributes = llm.NewAttributeExtractor(model, ecfg)
	}
	return nil
}

func openSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceS3:
		return source.NewS3(ctx, cfg.S3Config())
	default:
		return source.NewDir(cfg.Source.Dir)
	}
}

// newServices builds the vision, document and audio services. Documents in
// multimodal parsing mode go to the vision model.
func (p *Processor) newServices(ecfg *extraction.Config) (*extraction.Services, error) {
	model, err := llm.NewModel(ecfg, ecfg.VisionModel)
	if err != nil {
		return nil, fmt.Errorf("vision model: %w", err)
	}
	vision := llm.NewVisionService(model, p.source, ecfg)

	docOpts := []document.Option{document.WithPageTimeout(p.cfg.Extraction.PageTimeout)}
	if p.cache != nil {
		docOpts = append(docOpts, document.WithCache(p.cache))
	}

	return &extraction.Services{
		Vision: vision,
		Document: &extraction.ModeRouter{
			Text:       document.New(p.source, docOpts...),
			Multimodal: vision,
		},
		Audio: audio.New(ecfg, p.source, audio.WithLanguage(p.cfg.Extraction.AudioLanguage)),
	}, nil
}

// NewOrchestrator creates an orchestrator using the configured concurrency
// and retry time unit that records batches in the Processor's database.
// opts are applied after the configured ones.
func (p *Processor) NewOrchestrator(opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	base := []pipeline.Option{
		pipeline.WithConcurrency(p.cfg.Pipeline.Concurrency),
		pipeline.WithTimeUnit(p.cfg.Pipeline.TimeUnit),
		pipeline.WithBatchRepository(p.batches),
	}
	return pipeline.NewOrchestrator(p.client, p.attributes, append(base, opts...)...)
}

// Batches returns the batch record repository.
func (p *Processor) Batches() storage.BatchRepository {
	return p.batches
}

// TextCache returns the processed-text cache, or nil when caching is off.
func (p *Processor) TextCache() storage.TextCache {
	return p.cache
}

// Close releases the cache and the database.
func (p *Processor) Close() error {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			p.logger.Error("error closing text cache", "err", err)
		}
	}
	if p.batches != nil {
		if err := p.batches.Close(); err != nil {
			p.logger.Error("error closing batch repository", "err", err)
			return err
		}
	}
	if p.backend != nil {
		if err := p.backend.Close(); err != nil {
			p.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}
