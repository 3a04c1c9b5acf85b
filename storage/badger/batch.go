package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/storage"
)

// BatchRepository implements storage.BatchRepository for BadgerDB.
type BatchRepository struct {
	backend *Backend
}

var _ storage.BatchRepository = (*BatchRepository)(nil)

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(backend *Backend) *BatchRepository {
	return &BatchRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend is closed by its owner.
func (r *BatchRepository) Close() error {
	return nil
}

// SaveBatch stores a batch record and indexes it by start time.
func (r *BatchRepository) SaveBatch(ctx context.Context, record *core.BatchRecord) error {
	if record.ID == "" {
		return storage.ErrInvalidKey
	}
	value, err := storage.MarshalBatchRecord(record)
	if err != nil {
		return err
	}

	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		key := makeBatchKey(record.ID)

		// Drop the old index entry if the start time moved
		old, err := readBatch(tx, key)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return err
		case !old.StartedAt.Equal(record.StartedAt):
			if err := tx.Delete(makeBatchDateKey(old.StartedAt, old.ID)); err != nil {
				return err
			}
		}

		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Set(makeBatchDateKey(record.StartedAt, record.ID), []byte(record.ID))
	})
}

// GetBatch retrieves a batch record by ID.
func (r *BatchRepository) GetBatch(ctx context.Context, id string) (*core.BatchRecord, error) {
	var record *core.BatchRecord
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		var err error
		record, err = readBatch(tx, makeBatchKey(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListBatches returns up to limit records, most recently started first.
func (r *BatchRepository) ListBatches(ctx context.Context, limit int) ([]*core.BatchRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var records []*core.BatchRecord
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		prefix := batchDateIndexPrefix()
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration starts from the largest key under prefix
		seek := append(append([]byte{}, prefix...), 0xff)
		for iter.Seek(seek); iter.ValidForPrefix(prefix) && len(records) < limit; iter.Next() {
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			record, err := readBatch(tx, makeBatchKey(string(id)))
			if errors.Is(err, storage.ErrNotFound) {
				r.backend.logger.Warn("dangling batch index entry", "id", string(id))
				continue
			}
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteBatch removes a batch record and its index entry.
func (r *BatchRepository) DeleteBatch(ctx context.Context, id string) error {
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		key := makeBatchKey(id)
		record, err := readBatch(tx, key)
		if err != nil {
			return err
		}
		if err := tx.Delete(makeBatchDateKey(record.StartedAt, record.ID)); err != nil {
			return err
		}
		return tx.Delete(key)
	})
}

func readBatch(tx *badger.Txn, key []byte) (*core.BatchRecord, error) {
	var record *core.BatchRecord
	err := getValue(tx, key, func(val []byte) error {
		var err error
		record, err = storage.UnmarshalBatchRecord(val)
		return err
	})
	return record, err
}
