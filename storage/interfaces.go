package storage

import (
	"context"

	"github.com/poiesic/tabulate/core"
)

// TextCache stores the extracted text of documents under their processed key.
// Implementations must be thread-safe and support concurrent access.
type TextCache interface {
	// GetText retrieves cached text by processed key.
	// Returns ErrNotFound if nothing is cached under key.
	GetText(ctx context.Context, key string) (*core.ProcessedText, error)

	// PutText stores text under text.Key, replacing any previous entry.
	// Sets CreatedAt if not already set.
	PutText(ctx context.Context, text *core.ProcessedText) error

	// Close releases resources held by the cache.
	Close() error
}

// BatchRepository keeps the history of batch runs.
// Implementations must be thread-safe and support concurrent access.
type BatchRepository interface {
	// SaveBatch stores a batch record, replacing any record with the same ID.
	SaveBatch(ctx context.Context, record *core.BatchRecord) error

	// GetBatch retrieves a batch record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetBatch(ctx context.Context, id string) (*core.BatchRecord, error)

	// ListBatches returns up to limit records, most recently started first.
	// A limit <= 0 returns ErrInvalidQuery.
	ListBatches(ctx context.Context, limit int) ([]*core.BatchRecord, error)

	// DeleteBatch removes a batch record.
	// Returns ErrNotFound if the record doesn't exist.
	DeleteBatch(ctx context.Context, id string) error

	// Close releases resources held by the repository.
	Close() error
}
