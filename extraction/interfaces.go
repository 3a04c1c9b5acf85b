package extraction

import (
	"context"

	"github.com/poiesic/tabulate/core"
)

// Payload is the JSON-like object a service returns for one document.
type Payload = map[string]any

// Service extracts raw content from a single document.
// Implementations must be thread-safe for concurrent use.
type Service interface {
	// Invoke processes one document and returns its payload.
	// A nil payload with a nil error is treated as malformed.
	Invoke(ctx context.Context, task core.DocumentTask) (Payload, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, task core.DocumentTask) (Payload, error)

// Invoke calls f.
func (f ServiceFunc) Invoke(ctx context.Context, task core.DocumentTask) (Payload, error) {
	return f(ctx, task)
}

// Services groups the per-modality extraction services.
type Services struct {
	Vision   Service
	Document Service
	Audio    Service
}

// Extractor dispatches a document to the service for its modality.
type Extractor interface {
	// Extract makes exactly one service call and classifies any error as
	// *TransientError or *TaskFailure.
	Extract(ctx context.Context, modality core.Modality, task core.DocumentTask) (Payload, error)
}

// AggregateRequest is the input of the batch-level attribute extraction.
type AggregateRequest struct {
	Attributes   []core.Attribute
	Documents    []*core.DocumentContext
	ModelParams  core.ModelParams
	Instructions string
	FewShots     []core.FewShot
}

// AggregateResult holds attribute values per document.
type AggregateResult struct {
	Documents []core.DocumentAttributes
}

// AttributeExtractor extracts the attribute schema from a set of documents.
// Implementations must be thread-safe for concurrent use.
type AttributeExtractor interface {
	// ExtractAttributes returns one entry per input document.
	// Errors should be *TransientError or *TaskFailure; others are treated
	// as task failures.
	ExtractAttributes(ctx context.Context, req AggregateRequest) (*AggregateResult, error)
}
