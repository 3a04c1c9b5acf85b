// Package s3cache implements storage.TextCache on an S3 bucket. The text of a
// document is written verbatim under its processed key and every table is
// written as a CSV object beside it, so the bucket stays readable by other
// tools.
package s3cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/storage"
)

// Object metadata keys. Values are query-escaped since S3 metadata is ASCII.
const (
	metaOriginalName = "original-name"
	metaCreatedAt    = "created-at"
	metaSourceID     = "source-id"
	metaTableNames   = "table-names"
	metaTableKeys    = "table-keys"
)

// Client is the subset of the S3 API the cache uses. *s3.Client satisfies it.
type Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// TextCache implements storage.TextCache for S3.
type TextCache struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   *slog.Logger
}

var _ storage.TextCache = (*TextCache)(nil)

// NewTextCache creates a cache writing to bucket. A non-empty prefix is
// prepended to every processed key.
func NewTextCache(client Client, bucket, prefix string) (*TextCache, error) {
	if bucket == "" {
		return nil, errors.New("s3 text cache: bucket is required")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &TextCache{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
		logger:   slog.Default().With("component", "s3-text-cache"),
	}, nil
}

// GetText retrieves the text object under key and the tables it lists.
func (c *TextCache) GetText(ctx context.Context, key string) (*core.ProcessedText, error) {
	if key == "" {
		return nil, storage.ErrInvalidKey
	}
	content, meta, err := c.download(ctx, key)
	if err != nil {
		return nil, err
	}

	text := &core.ProcessedText{
		Key:          key,
		OriginalName: unescape(meta[metaOriginalName]),
		Content:      string(content),
		SourceID:     meta[metaSourceID],
	}
	if ts := meta[metaCreatedAt]; ts != "" {
		if text.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("%w: created-at %q", storage.ErrSerializationFailed, ts)
		}
	}

	names, keys := splitList(meta[metaTableNames]), splitList(meta[metaTableKeys])
	if len(names) != len(keys) {
		return nil, fmt.Errorf("%w: %d table names for %d keys", storage.ErrSerializationFailed, len(names), len(keys))
	}
	for i, tableKey := range keys {
		csv, _, err := c.download(ctx, tableKey)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tableKey, err)
		}
		text.Tables = append(text.Tables, core.Table{Key: tableKey, Name: names[i], CSV: string(csv)})
	}
	return text, nil
}

// PutText uploads the tables first, then the text object that lists them,
// so a reader never sees a text entry pointing at missing tables.
func (c *TextCache) PutText(ctx context.Context, text *core.ProcessedText) error {
	if text.Key == "" {
		return storage.ErrInvalidKey
	}
	if text.CreatedAt.IsZero() {
		text.CreatedAt = time.Now().UTC()
	}

	names := make([]string, len(text.Tables))
	for i, table := range text.Tables {
		if table.Key == "" {
			return fmt.Errorf("table %q: %w", table.Name, storage.ErrInvalidKey)
		}
		if err := c.upload(ctx, table.Key, "text/csv", table.CSV, nil); err != nil {
			return err
		}
		names[i] = table.Name
	}

	meta := map[string]string{
		metaOriginalName: url.QueryEscape(text.OriginalName),
		metaCreatedAt:    text.CreatedAt.Format(time.RFC3339Nano),
	}
	if text.SourceID != "" {
		meta[metaSourceID] = text.SourceID
	}
	if len(text.Tables) > 0 {
		meta[metaTableNames] = joinList(names)
		meta[metaTableKeys] = joinList(text.TableKeys())
	}
	if err := c.upload(ctx, text.Key, "text/plain; charset=utf-8", text.Content, meta); err != nil {
		return err
	}
	c.logger.Debug("cached text", "key", text.Key, "tables", len(text.Tables))
	return nil
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (c *TextCache) Close() error {
	return nil
}

func (c *TextCache) upload(ctx context.Context, key, contentType, body string, meta map[string]string) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.prefix + key),
		Body:        strings.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return nil
}

func (c *TextCache) download(ctx context.Context, key string) ([]byte, map[string]string, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.prefix + key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil, storage.ErrNotFound
		}
		return nil, nil, fmt.Errorf("s3 download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("s3 download read %s: %w", key, err)
	}
	return data, out.Metadata, nil
}

func joinList(items []string) string {
	escaped := make([]string, len(items))
	for i, s := range items {
		escaped[i] = url.QueryEscape(s)
	}
	return strings.Join(escaped, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = unescape(p)
	}
	return parts
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
