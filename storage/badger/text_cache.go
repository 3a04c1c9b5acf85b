package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/storage"
)

// TextCache implements storage.TextCache for BadgerDB.
type TextCache struct {
	backend *Backend
}

var _ storage.TextCache = (*TextCache)(nil)

// NewTextCache creates a new TextCache.
func NewTextCache(backend *Backend) *TextCache {
	return &TextCache{
		backend: backend,
	}
}

// Close is a no-op; the backend is closed by its owner.
func (c *TextCache) Close() error {
	return nil
}

// GetText retrieves cached text by processed key.
func (c *TextCache) GetText(ctx context.Context, key string) (*core.ProcessedText, error) {
	if key == "" {
		return nil, storage.ErrInvalidKey
	}
	var text *core.ProcessedText
	err := c.backend.View(ctx, func(tx *badger.Txn) error {
		return getValue(tx, makeTextKey(key), func(val []byte) error {
			var err error
			text, err = storage.UnmarshalProcessedText(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return text, nil
}

// PutText stores text under text.Key.
func (c *TextCache) PutText(ctx context.Context, text *core.ProcessedText) error {
	if text.Key == "" {
		return storage.ErrInvalidKey
	}
	if text.CreatedAt.IsZero() {
		text.CreatedAt = time.Now().UTC()
	}
	value, err := storage.MarshalProcessedText(text)
	if err != nil {
		return err
	}
	return c.backend.Update(ctx, func(tx *badger.Txn) error {
		return tx.Set(makeTextKey(text.Key), value)
	})
}
