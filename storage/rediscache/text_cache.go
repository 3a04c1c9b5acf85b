// Package rediscache implements storage.TextCache on Redis so several workers
// can share extracted document text.
package rediscache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/storage"
	"github.com/redis/go-redis/v9"
)

// Options configures a TextCache.
type Options struct {
	// Namespace is prepended to every processed key, e.g. "tabulate:".
	Namespace string
	// TTL expires entries after the given duration. Zero keeps them forever.
	TTL time.Duration
}

// TextCache implements storage.TextCache for Redis.
type TextCache struct {
	client *redis.Client
	opts   Options
	logger *slog.Logger
}

var _ storage.TextCache = (*TextCache)(nil)

// NewTextCache creates a cache over client. The cache owns the client and
// closes it on Close.
func NewTextCache(client *redis.Client, opts Options) *TextCache {
	return &TextCache{
		client: client,
		opts:   opts,
		logger: slog.Default().With("component", "redis-text-cache"),
	}
}

// Dial connects to the Redis server at addr and verifies it answers.
func Dial(ctx context.Context, addr string, opts Options) (*TextCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewTextCache(client, opts), nil
}

// GetText retrieves cached text by processed key.
func (c *TextCache) GetText(ctx context.Context, key string) (*core.ProcessedText, error) {
	if key == "" {
		return nil, storage.ErrInvalidKey
	}
	val, err := c.client.Get(ctx, c.opts.Namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalProcessedText(val)
}

// PutText stores text under text.Key with the configured TTL.
func (c *TextCache) PutText(ctx context.Context, text *core.ProcessedText) error {
	if text.Key == "" {
		return storage.ErrInvalidKey
	}
	if text.CreatedAt.IsZero() {
		text.CreatedAt = time.Now().UTC()
	}
	data, err := storage.MarshalProcessedText(text)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.opts.Namespace+text.Key, data, c.opts.TTL).Err(); err != nil {
		return err
	}
	c.logger.Debug("cached text", "key", text.Key, "bytes", len(data))
	return nil
}

// Close closes the Redis client.
func (c *TextCache) Close() error {
	return c.client.Close()
}
