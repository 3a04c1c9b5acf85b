package pipeline

import "errors"

var (
	// ErrExtractorRequired is returned when an orchestrator has no extractor.
	ErrExtractorRequired = errors.New("extractor is required")

	// ErrAttributeExtractorRequired is returned when an orchestrator has no
	// attribute extractor.
	ErrAttributeExtractorRequired = errors.New("attribute extractor is required")

	// ErrInvalidConcurrency is returned for a concurrency outside [1, MaxConcurrency].
	ErrInvalidConcurrency = errors.New("invalid concurrency")
)
